package db

import (
	"testing"

	"github.com/apimgmt/mgmtrepo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchemaOnMigratedDatabase(t *testing.T) {
	tdb := MustCreateTestDB(t)

	results, err := ValidateSchema(tdb.DB)
	require.NoError(t, err)
	require.Len(t, results, len(models.AllModels()))
	for _, r := range results {
		assert.True(t, r.Valid, "%s: %v", r.TableName, r.Errors)
	}
}

func TestValidateSchemaReportsMissingPieces(t *testing.T) {
	tdb := MustCreateTestDB(t)
	require.NoError(t, tdb.DB.Migrator().DropTable(&models.Ticket{}))
	require.NoError(t, tdb.DB.Migrator().DropColumn(&models.Tag{}, "description"))

	results, err := ValidateSchema(tdb.DB)
	require.NoError(t, err)

	byTable := map[string]ValidationResult{}
	for _, r := range results {
		byTable[r.TableName] = r
	}
	assert.False(t, byTable["tickets"].Valid)
	assert.Contains(t, byTable["tickets"].Errors[0], "does not exist")
	assert.False(t, byTable["tags"].Valid)
	assert.Equal(t, []string{"column 'tags.description' does not exist"}, byTable["tags"].Errors)
	assert.True(t, byTable["organizations"].Valid)
}
