package repository

import (
	"context"
	"errors"
	"time"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// scope narrows a query; nil scopes are ignored
type scope func(*gorm.DB) *gorm.DB

func where(query any, args ...any) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func applyScopes(db *gorm.DB, scopes ...scope) *gorm.DB {
	for _, s := range scopes {
		if s != nil {
			db = s(db)
		}
	}
	return db
}

// gormStore holds the CRUD plumbing shared by every repository. Inside a
// transaction only the tx handle is used, never the outer pool.
type gormStore[M any] struct {
	db     *gorm.DB
	logger *slogging.Logger
	entity string
}

func newGormStore[M any](db *gorm.DB, entity string) gormStore[M] {
	return gormStore[M]{
		db:     db,
		logger: slogging.Get(),
		entity: entity,
	}
}

func (s gormStore[M]) trace(op string) {
	s.logger.Debug("%s.%s", s.entity, op)
}

func (s gormStore[M]) fail(op string, err error) error {
	s.logger.Error("%s: %s failed: %v", s.entity, op, err)
	return technical(s.entity+"."+op, err)
}

// first returns the matching row or nil when there is none
func (s gormStore[M]) first(ctx context.Context, op string, scopes ...scope) (*M, error) {
	s.trace(op)
	var m M
	result := applyScopes(s.db.WithContext(ctx), scopes...).Limit(1).Find(&m)
	if result.Error != nil {
		return nil, s.fail(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &m, nil
}

func (s gormStore[M]) list(ctx context.Context, op string, scopes ...scope) ([]M, error) {
	s.trace(op)
	var rows []M
	if err := applyScopes(s.db.WithContext(ctx), scopes...).Find(&rows).Error; err != nil {
		return nil, s.fail(op, err)
	}
	return rows, nil
}

func (s gormStore[M]) count(ctx context.Context, op string, scopes ...scope) (int64, error) {
	s.trace(op)
	var n int64
	if err := applyScopes(s.db.WithContext(ctx).Model(new(M)), scopes...).Count(&n).Error; err != nil {
		return 0, s.fail(op, err)
	}
	return n, nil
}

func (s gormStore[M]) insert(ctx context.Context, m *M) error {
	s.trace("create")
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return s.fail("create", err)
	}
	return nil
}

// replace overwrites every column of the row identified by key and re-reads it
// into m. It fails with ErrNotFound when no such row exists; plain Save would
// insert instead.
func (s gormStore[M]) replace(ctx context.Context, m *M, key scope, keyValues ...string) error {
	s.trace("update")
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := key(tx.Model(new(M))).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(s.entity, keyValues...)
		}
		if err := tx.Model(m).Select("*").Updates(m).Error; err != nil {
			return err
		}
		return key(tx).Take(m).Error
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return s.fail("update", err)
	}
	return nil
}

// remove deletes the matching rows and reports how many went away
func (s gormStore[M]) remove(ctx context.Context, op string, key scope) (int64, error) {
	s.trace(op)
	result := key(s.db.WithContext(ctx)).Delete(new(M))
	if result.Error != nil {
		return 0, s.fail(op, result.Error)
	}
	return result.RowsAffected, nil
}

// removeReturning deletes the matching rows and returns the given column of each
func (s gormStore[M]) removeReturning(ctx context.Context, op, column string, key scope) ([]string, error) {
	s.trace(op)
	var removed []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return removeReturningTx[M](tx, column, key, &removed)
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return removed, nil
}

func removeReturningTx[M any](tx *gorm.DB, column string, key scope, removed *[]string) error {
	ids := []string{}
	if err := key(tx.Model(new(M))).Pluck(column, &ids).Error; err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	*removed = ids
	if len(ids) == 0 {
		return nil
	}
	return key(tx).Delete(new(M)).Error
}

// page runs a counted, ordered, windowed query
func (s gormStore[M]) page(ctx context.Context, op string, filter scope, order string, pageable *Pageable) ([]M, int64, error) {
	if err := pageable.validate(); err != nil {
		return nil, 0, err
	}
	total, err := s.count(ctx, op, filter)
	if err != nil {
		return nil, 0, err
	}
	var rows []M
	query := applyScopes(s.db.WithContext(ctx), filter)
	if order != "" {
		query = query.Order(order)
	}
	if err := pageable.scope(query).Find(&rows).Error; err != nil {
		return nil, 0, s.fail(op, err)
	}
	return rows, total, nil
}

func convertAll[M, T any](rows []M, convert func(*M) T) []T {
	out := make([]T, 0, len(rows))
	for i := range rows {
		out = append(out, convert(&rows[i]))
	}
	return out
}

// timePtr stores zero times as NULL and everything else in UTC
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// stringSlice reads an array column, mapping empty to nil
func stringSlice(a models.StringArray) []string {
	if len(a) == 0 {
		return nil
	}
	return []string(a)
}

func stringMap(m models.StringMap) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return map[string]string(m)
}
