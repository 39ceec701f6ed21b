package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apimgmt/mgmtrepo/internal/config"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypePostgres  DatabaseType = "postgres"
	DatabaseTypeOracle    DatabaseType = "oracle"
	DatabaseTypeMySQL     DatabaseType = "mysql"
	DatabaseTypeSQLServer DatabaseType = "sqlserver"
	DatabaseTypeSQLite    DatabaseType = "sqlite"
)

// GormConfig holds the configuration for a GORM database connection
type GormConfig struct {
	Type DatabaseType

	// PostgreSQL configuration
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
	PostgresSSLMode  string

	// Oracle configuration
	OracleUser           string
	OraclePassword       string
	OracleConnectString  string
	OracleWalletLocation string

	// MySQL configuration
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	// SQL Server configuration
	SQLServerHost     string
	SQLServerPort     string
	SQLServerUser     string
	SQLServerPassword string
	SQLServerDatabase string

	// SQLite configuration: a file path or ":memory:"
	SQLitePath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// LogQueries traces every statement at debug level
	LogQueries bool
	// Plugins are registered with db.Use after the connection opens (tracing, metrics)
	Plugins []gorm.Plugin
}

// NewGormConfig maps the database section of the loaded configuration
func NewGormConfig(c config.DatabaseConfig) GormConfig {
	return GormConfig{
		Type:                 DatabaseType(c.Type),
		PostgresHost:         c.Postgres.Host,
		PostgresPort:         c.Postgres.Port,
		PostgresUser:         c.Postgres.User,
		PostgresPassword:     c.Postgres.Password,
		PostgresDatabase:     c.Postgres.Database,
		PostgresSSLMode:      c.Postgres.SSLMode,
		OracleUser:           c.Oracle.User,
		OraclePassword:       c.Oracle.Password,
		OracleConnectString:  c.Oracle.ConnectString,
		OracleWalletLocation: c.Oracle.WalletLocation,
		MySQLHost:            c.MySQL.Host,
		MySQLPort:            c.MySQL.Port,
		MySQLUser:            c.MySQL.User,
		MySQLPassword:        c.MySQL.Password,
		MySQLDatabase:        c.MySQL.Database,
		SQLServerHost:        c.SQLServer.Host,
		SQLServerPort:        c.SQLServer.Port,
		SQLServerUser:        c.SQLServer.User,
		SQLServerPassword:    c.SQLServer.Password,
		SQLServerDatabase:    c.SQLServer.Database,
		SQLitePath:           c.SQLitePath,
		MaxOpenConns:         c.Pool.MaxOpenConns,
		MaxIdleConns:         c.Pool.MaxIdleConns,
		ConnMaxLifetime:      c.Pool.ConnMaxLifetime,
		ConnMaxIdleTime:      c.Pool.ConnMaxIdleTime,
	}
}

// GormDB is a GORM connection to any of the supported dialects
type GormDB struct {
	db  *gorm.DB
	cfg GormConfig
}

// dialectorFor builds the dialector and DSN for the configured database type
func dialectorFor(cfg GormConfig) (gorm.Dialector, string, error) {
	switch cfg.Type {
	case DatabaseTypePostgres:
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser,
			cfg.PostgresPassword, cfg.PostgresDatabase, cfg.PostgresSSLMode,
		)
		return postgres.Open(dsn), dsn, nil

	case DatabaseTypeOracle:
		dialector, dsn := getOracleDialector(cfg)
		if dialector == nil {
			return nil, "", fmt.Errorf("oracle support not compiled in: rebuild with -tags oracle")
		}
		return dialector, dsn, nil

	case DatabaseTypeMySQL:
		// parseTime=true is required for time.Time scanning
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&collation=utf8mb4_unicode_ci",
			cfg.MySQLUser, cfg.MySQLPassword, cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLDatabase)
		return mysql.Open(dsn), dsn, nil

	case DatabaseTypeSQLServer:
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.SQLServerUser, cfg.SQLServerPassword, cfg.SQLServerHost, cfg.SQLServerPort, cfg.SQLServerDatabase)
		return sqlserver.Open(dsn), dsn, nil

	case DatabaseTypeSQLite:
		return sqlite.Open(cfg.SQLitePath), cfg.SQLitePath, nil

	default:
		return nil, "", fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// NewGormDB opens, tunes and pings a connection for the configured dialect
func NewGormDB(cfg GormConfig) (*GormDB, error) {
	log := slogging.Get()
	log.Debug("Initializing GORM connection for database type: %s", cfg.Type)

	dialector, dsn, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("Using %s dialector: %s", cfg.Type, slogging.RedactDSN(dsn))

	db, err := gorm.Open(dialector, gormOptions(log, cfg.LogQueries))
	if err != nil {
		log.Error("Failed to open GORM connection: %v", err)
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	for _, plugin := range cfg.Plugins {
		if err := db.Use(plugin); err != nil {
			return nil, fmt.Errorf("failed to register gorm plugin %s: %w", plugin.Name(), err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = 4 * time.Minute
	}
	if cfg.ConnMaxIdleTime <= 0 {
		cfg.ConnMaxIdleTime = 30 * time.Second
	}
	// An in-memory SQLite database lives and dies with its single connection
	if cfg.Type == DatabaseTypeSQLite && isMemorySQLite(cfg.SQLitePath) {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
		cfg.ConnMaxIdleTime = 0
	}
	log.Debug("Setting GORM connection pool parameters: maxOpen=%d, maxIdle=%d, maxLifetime=%s, maxIdleTime=%s",
		cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Error("Failed to ping database: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Debug("GORM connection established successfully")

	return &GormDB{db: db, cfg: cfg}, nil
}

// gormOptions is shared by production connections and test databases.
// TranslateError turns driver-specific unique violations into gorm.ErrDuplicatedKey.
func gormOptions(log *slogging.Logger, logQueries bool) *gorm.Config {
	return &gorm.Config{
		Logger:         newGormLogger(log, logQueries),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func isMemorySQLite(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Close closes the database connection
func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("error closing database connection: %w", err)
	}
	slogging.Get().Debug("GORM connection closed")
	return nil
}

// DB returns the GORM database instance
func (g *GormDB) DB() *gorm.DB {
	return g.db
}

// DatabaseType returns the configured dialect
func (g *GormDB) DatabaseType() DatabaseType {
	return g.cfg.Type
}

// Ping checks if the database connection is alive
func (g *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		slogging.Get().Error("GORM ping failed: %v", err)
		return err
	}
	return nil
}

// LogStats logs statistics about the database connection pool
func (g *GormDB) LogStats() {
	log := slogging.Get()

	sqlDB, err := g.db.DB()
	if err != nil {
		log.Error("Failed to get underlying sql.DB for stats: %v", err)
		return
	}

	stats := sqlDB.Stats()
	log.Info("GORM connection pool stats: open=%d, inUse=%d, idle=%d, waitCount=%d, waitDuration=%s",
		stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount, stats.WaitDuration)
}

// AutoMigrate creates or updates every management table
func (g *GormDB) AutoMigrate() error {
	return Migrate(g.db, g.cfg.Type)
}

// Migrate runs GORM auto-migration for all management models
func Migrate(db *gorm.DB, dbType DatabaseType) error {
	return migrate(db, dbType, slogging.Get())
}

func migrate(db *gorm.DB, dbType DatabaseType, log *slogging.Logger) error {
	all := models.AllModels()
	log.Debug("Running GORM auto-migration for %d models", len(all))

	if err := db.AutoMigrate(all...); err != nil {
		// ORA-01442: column to be modified to NOT NULL is already NOT NULL
		if dbType == DatabaseTypeOracle && strings.Contains(err.Error(), "ORA-01442") {
			log.Warn("Oracle migration warning ignored: column already NOT NULL")
			return nil
		}
		log.Error("GORM auto-migration failed: %v", err)
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	log.Debug("GORM auto-migration completed successfully")
	return nil
}
