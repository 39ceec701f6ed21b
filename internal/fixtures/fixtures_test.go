package fixtures

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	names, err := Names(Datasets())
	require.NoError(t, err)
	assert.Contains(t, names, "organizations")
	assert.Contains(t, names, "tags")
	assert.Contains(t, names, "events")
}

func TestLoadBundledDatasets(t *testing.T) {
	tdb := db.MustCreateTestDB(t)
	ctx := context.Background()

	names, err := Names(Datasets())
	require.NoError(t, err)
	require.NoError(t, Load(ctx, tdb.DB, Datasets(), names...))

	var tags []models.Tag
	require.NoError(t, tdb.DB.Order("id").Find(&tags).Error)
	require.Len(t, tags, 4)
	assert.Equal(t, "external", tags[0].ID)
	assert.Equal(t, models.StringArray{"group-1"}, tags[3].RestrictedGroups)

	var page models.Page
	require.NoError(t, tdb.DB.Where("id = ?", "page-child-1").Take(&page).Error)
	require.NotNil(t, page.ParentID)
	assert.Equal(t, "page-folder", *page.ParentID)
	require.NotNil(t, page.UseAutoFetch)
	assert.True(t, page.UseAutoFetch.Bool())
	assert.Equal(t, models.StringMap{"fetcher": "github"}, page.Configuration)

	var ticket models.Ticket
	require.NoError(t, tdb.DB.Where("id = ?", "ticket-1").Take(&ticket).Error)
	require.NotNil(t, ticket.CreatedAt)
	assert.Equal(t, 2024, ticket.CreatedAt.Year())

	var props int64
	require.NoError(t, tdb.DB.Model(&models.EventProperty{}).Count(&props).Error)
	assert.Equal(t, int64(5), props)
}

func TestLoadRejectsUnknownTable(t *testing.T) {
	tdb := db.MustCreateTestDB(t)
	fsys := fstest.MapFS{
		"bad.yml": {Data: []byte("widgets:\n  - id: w1\n")},
	}
	err := Load(context.Background(), tdb.DB, fsys, "bad")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestLoadMissingDataset(t *testing.T) {
	tdb := db.MustCreateTestDB(t)
	err := Load(context.Background(), tdb.DB, fstest.MapFS{}, "nope")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidEnum(t *testing.T) {
	tdb := db.MustCreateTestDB(t)
	fsys := fstest.MapFS{
		"tags.yml": {Data: []byte("tags:\n  - id: t1\n    name: T\n    referenceId: r\n    referenceType: GALAXY\n")},
	}
	err := Load(context.Background(), tdb.DB, fsys, "tags")
	assert.ErrorIs(t, err, models.ErrInvalidValue)
}

func TestTruncate(t *testing.T) {
	tdb := db.MustCreateTestDB(t)
	ctx := context.Background()
	require.NoError(t, Load(ctx, tdb.DB, Datasets(), "organizations", "tags"))

	require.NoError(t, Truncate(ctx, tdb.DB))

	for _, m := range []any{&models.Organization{}, &models.Environment{}, &models.Tag{}, &models.Tenant{}} {
		var n int64
		require.NoError(t, tdb.DB.Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}
}
