package db

import (
	"fmt"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// ValidationResult is the schema check of one management table
type ValidationResult struct {
	TableName string
	Valid     bool
	Errors    []string
}

// ValidateSchema checks that every management table and column exists. It only
// reads the catalog through the GORM migrator, so it works on every dialect.
func ValidateSchema(db *gorm.DB) ([]ValidationResult, error) {
	logger := slogging.Get()
	logger.Debug("Starting database schema validation")

	migrator := db.Migrator()
	all := models.AllModels()
	results := make([]ValidationResult, 0, len(all))

	for _, model := range all {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		result := ValidationResult{TableName: stmt.Schema.Table, Valid: true, Errors: []string{}}

		if !migrator.HasTable(model) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("table '%s' does not exist", result.TableName))
			results = append(results, result)
			continue
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			if !migrator.HasColumn(model, field.DBName) {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("column '%s.%s' does not exist", result.TableName, field.DBName))
			}
		}
		if !result.Valid {
			logger.Warn("Schema validation failed for %s: %v", result.TableName, result.Errors)
		}
		results = append(results, result)
	}
	return results, nil
}
