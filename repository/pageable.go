package repository

import (
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
)

// Order is a sort direction
type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// Sortable names a sort field and direction. Each repository accepts its own set of fields.
type Sortable struct {
	Field string
	Order Order
}

// Pageable is a 0-based page window. A nil *Pageable means everything, as page 0.
type Pageable struct {
	PageNumber int
	PageSize   int
}

// Page is one page of results plus the size of the full match set
type Page[T any] struct {
	Content       []T
	PageNumber    int
	PageElements  int
	TotalElements int64
}

func newPage[T any](content []T, pageable *Pageable, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	number := 0
	if pageable != nil {
		number = pageable.PageNumber
	}
	return Page[T]{
		Content:       content,
		PageNumber:    number,
		PageElements:  len(content),
		TotalElements: total,
	}
}

func (p *Pageable) validate() error {
	if p == nil {
		return nil
	}
	if p.PageNumber < 0 || p.PageSize <= 0 {
		return fmt.Errorf("%w: page %d size %d", ErrInvalidCriteria, p.PageNumber, p.PageSize)
	}
	// offset must fit in an int
	if p.PageNumber > math.MaxInt/p.PageSize {
		return fmt.Errorf("%w: page %d size %d is out of range", ErrInvalidCriteria, p.PageNumber, p.PageSize)
	}
	return nil
}

func (p *Pageable) scope(db *gorm.DB) *gorm.DB {
	if p == nil {
		return db
	}
	return db.Offset(p.PageNumber * p.PageSize).Limit(p.PageSize)
}

// orderClause resolves a Sortable against the allowed field-to-column map. A nil
// sortable falls back to def.
func orderClause(s *Sortable, columns map[string]string, def string) (string, error) {
	clause := def
	if s != nil && s.Field != "" {
		column, ok := columns[s.Field]
		if !ok {
			return "", fmt.Errorf("%w: cannot sort on %q", ErrInvalidCriteria, s.Field)
		}
		dir := Asc
		if strings.EqualFold(string(s.Order), string(Desc)) {
			dir = Desc
		}
		clause = column + " " + string(dir)
	}
	return clause, nil
}
