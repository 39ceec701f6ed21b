//go:build !oracle

package db

import (
	"gorm.io/gorm"
)

// getOracleDialector returns nil when built without the oracle tag.
// Build with -tags oracle to enable it.
func getOracleDialector(GormConfig) (gorm.Dialector, string) {
	return nil, ""
}
