// Package repotest holds conformance suites shared by every repository test.
// Each suite takes the repository operations as closures, so one suite covers
// entities with single and composite identities alike.
package repotest

import (
	"context"
	"testing"

	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CRUDCase describes one entity for RunCRUD
type CRUDCase[T any] struct {
	// New builds an entity with a fresh identity on every call
	New    func(t *testing.T) T
	Create func(ctx context.Context, e *T) (T, error)
	Update func(ctx context.Context, e *T) (T, error)
	// Find looks up the row sharing e's identity
	Find func(ctx context.Context, e T) (repository.Optional[T], error)
	// Delete removes the row sharing e's identity. Nil when the entity has no delete.
	Delete func(ctx context.Context, e T) error
	// Mutate changes every non-identity field it can
	Mutate func(e *T)
	// DeleteUnknownFails is set when deleting a missing identity reports ErrNotFound
	DeleteUnknownFails bool
}

// RunCRUD checks the create, find, update and delete contract
func RunCRUD[T any](t *testing.T, c CRUDCase[T]) {
	t.Helper()
	ctx := context.Background()

	t.Run("create then find returns the same entity", func(t *testing.T) {
		e := c.New(t)
		created, err := c.Create(ctx, &e)
		require.NoError(t, err)
		assert.Equal(t, e, created)

		found, err := c.Find(ctx, e)
		require.NoError(t, err)
		require.True(t, found.IsPresent())
		assert.Equal(t, e, found.MustGet())
	})

	t.Run("find unknown is empty", func(t *testing.T) {
		e := c.New(t)
		found, err := c.Find(ctx, e)
		require.NoError(t, err)
		assert.True(t, found.IsEmpty())
	})

	t.Run("create duplicate fails", func(t *testing.T) {
		e := c.New(t)
		_, err := c.Create(ctx, &e)
		require.NoError(t, err)

		dup := e
		_, err = c.Create(ctx, &dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
		assert.True(t, repository.IsTechnical(err))
	})

	t.Run("create nil fails", func(t *testing.T) {
		_, err := c.Create(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("update nil fails", func(t *testing.T) {
		_, err := c.Update(ctx, nil)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update unknown fails without creating", func(t *testing.T) {
		e := c.New(t)
		_, err := c.Update(ctx, &e)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		found, err := c.Find(ctx, e)
		require.NoError(t, err)
		assert.True(t, found.IsEmpty())
	})

	t.Run("update persists every field", func(t *testing.T) {
		e := c.New(t)
		_, err := c.Create(ctx, &e)
		require.NoError(t, err)

		changed := e
		c.Mutate(&changed)
		require.NotEqual(t, e, changed)

		updated, err := c.Update(ctx, &changed)
		require.NoError(t, err)
		assert.Equal(t, changed, updated)

		found, err := c.Find(ctx, e)
		require.NoError(t, err)
		require.True(t, found.IsPresent())
		assert.Equal(t, changed, found.MustGet())
	})

	if c.Delete == nil {
		return
	}

	t.Run("delete removes the entity", func(t *testing.T) {
		e := c.New(t)
		_, err := c.Create(ctx, &e)
		require.NoError(t, err)

		require.NoError(t, c.Delete(ctx, e))
		found, err := c.Find(ctx, e)
		require.NoError(t, err)
		assert.True(t, found.IsEmpty())
	})

	t.Run("delete unknown", func(t *testing.T) {
		e := c.New(t)
		err := c.Delete(ctx, e)
		if c.DeleteUnknownFails {
			assert.ErrorIs(t, err, repository.ErrNotFound)
		} else {
			assert.NoError(t, err)
		}
	})
}

// ScopedDeleteCase describes a bulk delete for RunScopedDelete
type ScopedDeleteCase[T any] struct {
	// Inside builds the n-th entity the delete must remove
	Inside func(t *testing.T, n int) T
	// Outside builds entities close to the scope that must survive it
	Outside []func(t *testing.T) T
	Create  func(ctx context.Context, e *T) (T, error)
	Find    func(ctx context.Context, e T) (repository.Optional[T], error)
	// ID is the value the delete reports for e
	ID       func(e T) string
	DeleteBy func(ctx context.Context) ([]string, error)
}

// RunScopedDelete checks that a bulk delete removes exactly its scope and reports it
func RunScopedDelete[T any](t *testing.T, c ScopedDeleteCase[T]) {
	t.Helper()
	ctx := context.Background()

	var want []string
	var inside, outside []T
	for n := range 3 {
		e := c.Inside(t, n)
		_, err := c.Create(ctx, &e)
		require.NoError(t, err)
		inside = append(inside, e)
		want = append(want, c.ID(e))
	}
	for _, build := range c.Outside {
		e := build(t)
		_, err := c.Create(ctx, &e)
		require.NoError(t, err)
		outside = append(outside, e)
	}

	removed, err := c.DeleteBy(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, removed)

	for _, e := range inside {
		found, err := c.Find(ctx, e)
		require.NoError(t, err)
		assert.True(t, found.IsEmpty(), "%s should be gone", c.ID(e))
	}
	for _, e := range outside {
		found, err := c.Find(ctx, e)
		require.NoError(t, err)
		assert.True(t, found.IsPresent(), "%s should survive", c.ID(e))
	}

	again, err := c.DeleteBy(ctx)
	require.NoError(t, err)
	assert.NotNil(t, again)
	assert.Empty(t, again)
}
