package repository_test

import (
	"context"
	"testing"

	"github.com/apimgmt/mgmtrepo/models"
	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	event1 = "018d6f00-0000-7000-8000-000000000001"
	event2 = "018d6f00-0000-7000-8000-000000000002"
	event3 = "018d6f00-0000-7000-8000-000000000003"
	event4 = "018d6f00-0000-7000-8000-000000000004"
)

func eventID(e repository.Event) string { return e.ID }

func collect(t *testing.T, seq func(func(repository.Event, error) bool)) []string {
	t.Helper()
	var got []string
	for e, err := range seq {
		require.NoError(t, err)
		got = append(got, e.ID)
	}
	return got
}

func TestEventStream(t *testing.T) {
	_, gdb := setup(t, "events")
	ctx := context.Background()

	for _, size := range []int{1, 3, 100} {
		events := repository.NewGormEventRepository(gdb, repository.WithEventBatchSize(size))
		assert.Equal(t, []string{event4, event3, event2, event1}, collect(t, events.Stream(ctx, nil)), "batch size %d", size)
	}

	events := repository.NewGormEventRepository(gdb, repository.WithEventBatchSize(2))

	t.Run("filters by type", func(t *testing.T) {
		got := collect(t, events.Stream(ctx, &repository.EventCriteria{Types: []string{"PUBLISH_API"}}))
		assert.Equal(t, []string{event4, event1}, got)
	})

	t.Run("loads children", func(t *testing.T) {
		for e, err := range events.Stream(ctx, &repository.EventCriteria{Types: []string{"START_API"}}) {
			require.NoError(t, err)
			assert.Equal(t, []string{"DEFAULT", "env-2"}, e.Environments)
			assert.Equal(t, map[string]string{"api_id": "api-1"}, e.Properties)
		}
	})

	t.Run("stops when the consumer breaks", func(t *testing.T) {
		var got []string
		for e, err := range events.Stream(ctx, nil) {
			require.NoError(t, err)
			got = append(got, e.ID)
			if len(got) == 3 {
				break
			}
		}
		assert.Equal(t, []string{event4, event3, event2}, got)
	})

	t.Run("can be ranged twice", func(t *testing.T) {
		seq := events.Stream(ctx, nil)
		assert.Equal(t, collect(t, seq), collect(t, seq))
	})

	t.Run("reports a cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		var errs []error
		for _, err := range events.Stream(cancelled, nil) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], context.Canceled)
	})
}

func TestEventStreamOrdersTimeBasedIDs(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()

	var want []string
	for range 3 {
		id, err := uuid.NewV7()
		require.NoError(t, err)
		_, err = repos.Events.Create(ctx, &repository.Event{ID: id.String(), Type: "PUBLISH_API"})
		require.NoError(t, err)
		want = append([]string{id.String()}, want...)
	}
	assert.Equal(t, want, collect(t, repos.Events.Stream(ctx, nil)))
}

func TestEventSearch(t *testing.T) {
	repos, _ := setup(t, "events")
	ctx := context.Background()

	tests := []struct {
		name     string
		criteria *repository.EventCriteria
		want     []string
	}{
		{name: "everything newest first", want: []string{event4, event3, event2, event1}},
		{name: "all properties must match", criteria: &repository.EventCriteria{Properties: map[string]string{"api_id": "api-2", "user": "admin"}}, want: []string{event4}},
		{name: "single property", criteria: &repository.EventCriteria{Properties: map[string]string{"api_id": "api-1"}}, want: []string{event2, event1}},
		{name: "any environment", criteria: &repository.EventCriteria{Environments: []string{"env-2", "env-9"}}, want: []string{event3, event2}},
		{name: "time window", criteria: &repository.EventCriteria{From: day(2024, 2, 2), To: day(2024, 2, 3)}, want: []string{event3, event2}},
		{name: "types and environment", criteria: &repository.EventCriteria{Types: []string{"PUBLISH_API", "STOP_API"}, Environments: []string{"DEFAULT"}}, want: []string{event4, event1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repos.Events.Search(ctx, tt.criteria, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Content, eventID))
			assert.Equal(t, int64(len(tt.want)), page.TotalElements)
		})
	}

	t.Run("paged", func(t *testing.T) {
		page, err := repos.Events.Search(ctx, nil, &repository.Pageable{PageNumber: 1, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{event1}, ids(page.Content, eventID))
		assert.Equal(t, int64(4), page.TotalElements)
		assert.Equal(t, []string{"DEFAULT"}, page.Content[0].Environments)
	})
}

func TestEventDeleteByEnvironment(t *testing.T) {
	repos, gdb := setup(t, "events")
	ctx := context.Background()

	removed, err := repos.Events.DeleteByEnvironmentID(ctx, "env-2")
	require.NoError(t, err)
	assert.Equal(t, []string{event3}, removed)

	found, err := repos.Events.FindByID(ctx, event3)
	require.NoError(t, err)
	assert.True(t, found.IsEmpty())

	var orphans int64
	require.NoError(t, gdb.Model(&models.EventProperty{}).Where("event_id = ?", event3).Count(&orphans).Error)
	assert.Zero(t, orphans)

	found, err = repos.Events.FindByID(ctx, event2)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEFAULT"}, found.MustGet().Environments)

	again, err := repos.Events.DeleteByEnvironmentID(ctx, "env-2")
	require.NoError(t, err)
	assert.NotNil(t, again)
	assert.Empty(t, again)
}

func TestEventDeleteRemovesChildren(t *testing.T) {
	repos, gdb := setup(t, "events")
	ctx := context.Background()

	require.NoError(t, repos.Events.Delete(ctx, event4))

	var props, envs int64
	require.NoError(t, gdb.Model(&models.EventProperty{}).Where("event_id = ?", event4).Count(&props).Error)
	require.NoError(t, gdb.Model(&models.EventEnvironment{}).Where("event_id = ?", event4).Count(&envs).Error)
	assert.Zero(t, props)
	assert.Zero(t, envs)
}
