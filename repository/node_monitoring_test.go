package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeMonitoringTimeFrame(t *testing.T) {
	_, gdb := setup(t)
	ctx := context.Background()
	monitoring := repository.NewGormNodeMonitoringRepository(gdb, repository.WithMonitoringBatchSize(2))

	samples := []repository.NodeMonitoring{
		{ID: "m-1", NodeID: "node-1", Type: "HEALTH", EnvironmentID: "DEFAULT", UpdatedAt: day(2024, 4, 1)},
		{ID: "m-2", NodeID: "node-2", Type: "HEALTH", EnvironmentID: "DEFAULT", UpdatedAt: day(2024, 4, 2)},
		{ID: "m-3", NodeID: "node-3", Type: "HEALTH", EnvironmentID: "env-2", UpdatedAt: day(2024, 4, 2)},
		{ID: "m-4", NodeID: "node-4", Type: "HEALTH", EnvironmentID: "DEFAULT", UpdatedAt: day(2024, 4, 2)},
		{ID: "m-5", NodeID: "node-5", Type: "HEALTH", EnvironmentID: "DEFAULT", UpdatedAt: day(2024, 4, 5)},
		{ID: "m-6", NodeID: "node-1", Type: "NODE_INFOS", EnvironmentID: "DEFAULT", UpdatedAt: day(2024, 4, 2)},
	}
	for i := range samples {
		_, err := monitoring.Create(ctx, &samples[i]).Await(ctx)
		require.NoError(t, err)
	}

	frame := func(from, to time.Time, envs ...string) []string {
		var got []string
		for m, err := range monitoring.FindByTypeAndTimeFrame(ctx, "HEALTH", from, to, envs...) {
			require.NoError(t, err)
			got = append(got, m.ID)
		}
		return got
	}

	assert.Equal(t, []string{"m-1", "m-2", "m-3", "m-4"}, frame(day(2024, 4, 1), day(2024, 4, 2)))
	assert.Equal(t, []string{"m-2", "m-4"}, frame(day(2024, 4, 2), day(2024, 4, 2), "DEFAULT"))
	assert.Equal(t, []string{"m-2", "m-3", "m-4", "m-5"}, frame(day(2024, 4, 2), time.Time{}))
	assert.Empty(t, frame(day(2025, 1, 1), time.Time{}))
}

func TestNodeMonitoringFutures(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()

	sample := repository.NodeMonitoring{ID: "m-1", NodeID: "node-1", Type: "HEALTH", Payload: "{}", UpdatedAt: day(2024, 4, 1)}
	created := repos.NodeMonitoring.Create(ctx, &sample)
	<-created.Done()
	_, err := created.Await(ctx)
	require.NoError(t, err)

	found, err := repos.NodeMonitoring.FindByNodeIDAndType(ctx, "node-1", "HEALTH").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, found.MustGet())

	missing, err := repos.NodeMonitoring.FindByNodeIDAndType(ctx, "node-1", "NODE_INFOS").Await(ctx)
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())

	_, err = repos.NodeMonitoring.Update(ctx, &repository.NodeMonitoring{ID: "m-9", NodeID: "n", Type: "HEALTH"}).Await(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repos.NodeMonitoring.FindByNodeIDAndType(cancelled, "node-1", "HEALTH").Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNodeMonitoringTimeFrameUnstamped(t *testing.T) {
	_, gdb := setup(t)
	ctx := context.Background()
	monitoring := repository.NewGormNodeMonitoringRepository(gdb, repository.WithMonitoringBatchSize(2))

	samples := []repository.NodeMonitoring{
		{ID: "s-2", NodeID: "node-7", Type: "HEALTH", UpdatedAt: day(2024, 4, 3)},
		{ID: "n-3", NodeID: "node-3", Type: "HEALTH"},
		{ID: "n-1", NodeID: "node-1", Type: "HEALTH"},
		{ID: "s-1", NodeID: "node-6", Type: "HEALTH", UpdatedAt: day(2024, 4, 1)},
		{ID: "n-5", NodeID: "node-5", Type: "HEALTH"},
		{ID: "n-2", NodeID: "node-2", Type: "HEALTH"},
		{ID: "n-4", NodeID: "node-4", Type: "HEALTH"},
		{ID: "x-1", NodeID: "node-1", Type: "NODE_INFOS"},
	}
	for i := range samples {
		_, err := monitoring.Create(ctx, &samples[i]).Await(ctx)
		require.NoError(t, err)
	}

	frame := func(from, to time.Time) []string {
		got := []string{}
		for m, err := range monitoring.FindByTypeAndTimeFrame(ctx, "HEALTH", from, to) {
			require.NoError(t, err)
			got = append(got, m.ID)
		}
		return got
	}

	tests := []struct {
		name     string
		from, to time.Time
		want     []string
	}{
		{"both bounds open", time.Time{}, time.Time{}, []string{"n-1", "n-2", "n-3", "n-4", "n-5", "s-1", "s-2"}},
		{"upper bound only", time.Time{}, day(2024, 4, 2), []string{"s-1"}},
		{"lower bound only", day(2024, 4, 2), time.Time{}, []string{"s-2"}},
		{"closed window", day(2024, 4, 1), day(2024, 4, 3), []string{"s-1", "s-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frame(tt.from, tt.to))
		})
	}

	t.Run("sequence restarts", func(t *testing.T) {
		first := frame(time.Time{}, time.Time{})
		assert.Equal(t, first, frame(time.Time{}, time.Time{}))
	})

	t.Run("early stop", func(t *testing.T) {
		var got []string
		for m, err := range monitoring.FindByTypeAndTimeFrame(ctx, "HEALTH", time.Time{}, time.Time{}) {
			require.NoError(t, err)
			got = append(got, m.ID)
			if len(got) == 3 {
				break
			}
		}
		assert.Equal(t, []string{"n-1", "n-2", "n-3"}, got)
	})
}
