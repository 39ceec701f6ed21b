//go:build oracle

package db

import (
	"fmt"

	"gorm.io/gorm"

	// Requires CGO and the Oracle Instant Client
	"github.com/oracle-samples/gorm-oracle/oracle"
)

// getOracleDialector returns the Oracle dialector when built with the oracle tag.
// configDir points at a wallet directory holding tnsnames.ora and cwallet.sso.
func getOracleDialector(cfg GormConfig) (gorm.Dialector, string) {
	var dsn string
	if cfg.OracleWalletLocation != "" {
		dsn = fmt.Sprintf(`user="%s" password="%s" connectString="%s" configDir="%s"`,
			cfg.OracleUser, cfg.OraclePassword, cfg.OracleConnectString, cfg.OracleWalletLocation)
	} else {
		dsn = fmt.Sprintf(`user="%s" password="%s" connectString="%s"`,
			cfg.OracleUser, cfg.OraclePassword, cfg.OracleConnectString)
	}
	return oracle.Open(dsn), dsn
}
