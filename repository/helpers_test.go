package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/fixtures"
	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setup returns repositories on a fresh database seeded with the named datasets
func setup(t *testing.T, datasets ...string) (*repository.Repositories, *gorm.DB) {
	t.Helper()
	tdb := db.MustCreateTestDB(t)
	if len(datasets) > 0 {
		require.NoError(t, fixtures.Load(context.Background(), tdb.DB, fixtures.Datasets(), datasets...))
	}
	return repository.NewGormRepositories(tdb.DB), tdb.DB
}

func newID() string {
	return uuid.NewString()
}

// day returns midnight UTC of the given date
func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = id(item)
	}
	return out
}
