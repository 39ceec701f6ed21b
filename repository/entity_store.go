package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// entityStore binds a domain type T to its row type M. Concrete repositories
// embed one and add their own finders on top.
type entityStore[T, M any] struct {
	gormStore[M]
	toModel   func(*T) *M
	fromModel func(*M) T
	// key returns the identity condition of a row and its values for error messages
	key func(*M) (scope, []string)
	// validate runs before every write when set
	validate func(*T) error
}

func (s entityStore[T, M]) create(ctx context.Context, e *T) (T, error) {
	var zero T
	if e == nil {
		return zero, nilCreate(s.entity)
	}
	if s.validate != nil {
		if err := s.validate(e); err != nil {
			return zero, err
		}
	}
	m := s.toModel(e)
	if err := s.insert(ctx, m); err != nil {
		return zero, err
	}
	return s.fromModel(m), nil
}

func (s entityStore[T, M]) update(ctx context.Context, e *T) (T, error) {
	var zero T
	if e == nil {
		return zero, nilEntity(s.entity)
	}
	if s.validate != nil {
		if err := s.validate(e); err != nil {
			return zero, err
		}
	}
	m := s.toModel(e)
	key, values := s.key(m)
	if err := s.replace(ctx, m, key, values...); err != nil {
		return zero, err
	}
	return s.fromModel(m), nil
}

func (s entityStore[T, M]) findOne(ctx context.Context, op string, scopes ...scope) (Optional[T], error) {
	m, err := s.first(ctx, op, scopes...)
	if err != nil {
		return None[T](), err
	}
	return optionalFrom(m, s.fromModel), nil
}

func (s entityStore[T, M]) findMany(ctx context.Context, op string, scopes ...scope) ([]T, error) {
	rows, err := s.list(ctx, op, scopes...)
	if err != nil {
		return nil, err
	}
	return convertAll(rows, s.fromModel), nil
}

func (s entityStore[T, M]) search(ctx context.Context, op string, filter scope, order string, pageable *Pageable) (Page[T], error) {
	rows, total, err := s.page(ctx, op, filter, order, pageable)
	if err != nil {
		return Page[T]{}, err
	}
	return newPage(convertAll(rows, s.fromModel), pageable, total), nil
}

func byID(id string) scope {
	return where("id = ?", id)
}

func byReference(refID string, refType ReferenceType) scope {
	return where("reference_id = ? AND reference_type = ?", refID, string(refType))
}

func byEnvironment(envID string) scope {
	return where("environment_id = ?", envID)
}

func orderBy(clause string) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause)
	}
}

func checkReferenceType(t ReferenceType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown reference type %q", ErrInvalidReference, t)
	}
	return nil
}
