package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Dialect names as returned by GORM's Dialector.Name()
const (
	DialectPostgres  = "postgres"
	DialectOracle    = "oracle"
	DialectMySQL     = "mysql"
	DialectSQLServer = "sqlserver"
	DialectSQLite    = "sqlite"
)

// GetDialectName returns the dialect name of a GORM handle
func GetDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return ""
	}
	return db.Dialector.Name()
}

// TruncateTable returns the dialect-specific statement that empties a table
func TruncateTable(dialectName, table string) string {
	switch dialectName {
	case DialectSQLite:
		return fmt.Sprintf("DELETE FROM %s", table)
	case DialectPostgres:
		return fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)
	default:
		return fmt.Sprintf("TRUNCATE TABLE %s", table)
	}
}
