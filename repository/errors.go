// Package repository implements the management datastore repositories on top of GORM.
//
// Every repository follows the same contract: finds return an empty Optional on a
// miss, Create fails with ErrDuplicateKey when the identity already exists, Update
// fails with ErrNotFound when it does not, single deletes are idempotent unless
// documented otherwise, and scoped bulk deletes report the identifiers they removed.
// Storage failures are returned as *TechnicalError and are never retried here.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an update (or a strict delete) targets an identity with no row
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when a create targets an identity that already exists
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidReference is returned for reference types outside the closed enumeration
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidCriteria is returned for unsupported sort fields or malformed paging
	ErrInvalidCriteria = errors.New("invalid criteria")
)

// TechnicalError wraps a storage-layer failure with the operation that hit it
type TechnicalError struct {
	Op  string
	Err error
}

func (e *TechnicalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey reports whether err is (or wraps) ErrDuplicateKey
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsTechnical reports whether err carries a *TechnicalError
func IsTechnical(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func notFound(entity string, key ...string) error {
	return fmt.Errorf("%w: %s [%s]", ErrNotFound, entity, strings.Join(key, ", "))
}

func nilCreate(entity string) error {
	return fmt.Errorf("%w: cannot create a nil %s", ErrNotFound, entity)
}

func nilEntity(entity string) error {
	return fmt.Errorf("%w: cannot update a nil %s", ErrNotFound, entity)
}

// technical wraps err for op, classifying unique violations as ErrDuplicateKey
func technical(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateKeyError(err) {
		return &TechnicalError{Op: op, Err: fmt.Errorf("%w: %w", ErrDuplicateKey, err)}
	}
	return &TechnicalError{Op: op, Err: err}
}

// isDuplicateKeyError recognises unique violations from every supported driver.
// gorm.ErrDuplicatedKey covers dialects whose driver implements TranslateError; the
// rest are matched on SQLSTATE or message.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"unique constraint failed",            // sqlite
		"duplicate entry",                     // mysql 1062
		"violation of primary key constraint", // sqlserver 2627
		"cannot insert duplicate key",         // sqlserver 2601
		"ora-00001",                           // oracle
		"duplicate key value violates unique", // postgres via other drivers
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
