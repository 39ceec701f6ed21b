package config

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the management datastore
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig selects the dialect and holds per-dialect connection settings
type DatabaseConfig struct {
	Type        string          `yaml:"type" env:"MGMT_DATABASE_TYPE"`
	AutoMigrate bool            `yaml:"auto_migrate" env:"MGMT_DATABASE_AUTO_MIGRATE"`
	SQLitePath  string          `yaml:"sqlite_path" env:"MGMT_SQLITE_PATH"`
	Postgres    PostgresConfig  `yaml:"postgres"`
	MySQL       MySQLConfig     `yaml:"mysql"`
	SQLServer   SQLServerConfig `yaml:"sqlserver"`
	Oracle      OracleConfig    `yaml:"oracle"`
	Pool        PoolConfig      `yaml:"pool"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host     string `yaml:"host" env:"MGMT_POSTGRES_HOST"`
	Port     string `yaml:"port" env:"MGMT_POSTGRES_PORT"`
	User     string `yaml:"user" env:"MGMT_POSTGRES_USER"`
	Password string `yaml:"password" env:"MGMT_POSTGRES_PASSWORD"`
	Database string `yaml:"database" env:"MGMT_POSTGRES_DATABASE"`
	SSLMode  string `yaml:"sslmode" env:"MGMT_POSTGRES_SSL_MODE"`
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host" env:"MGMT_MYSQL_HOST"`
	Port     string `yaml:"port" env:"MGMT_MYSQL_PORT"`
	User     string `yaml:"user" env:"MGMT_MYSQL_USER"`
	Password string `yaml:"password" env:"MGMT_MYSQL_PASSWORD"`
	Database string `yaml:"database" env:"MGMT_MYSQL_DATABASE"`
}

// SQLServerConfig holds SQL Server configuration
type SQLServerConfig struct {
	Host     string `yaml:"host" env:"MGMT_SQLSERVER_HOST"`
	Port     string `yaml:"port" env:"MGMT_SQLSERVER_PORT"`
	User     string `yaml:"user" env:"MGMT_SQLSERVER_USER"`
	Password string `yaml:"password" env:"MGMT_SQLSERVER_PASSWORD"`
	Database string `yaml:"database" env:"MGMT_SQLSERVER_DATABASE"`
}

// OracleConfig holds Oracle configuration; only honored in builds with the oracle tag
type OracleConfig struct {
	User           string `yaml:"user" env:"MGMT_ORACLE_USER"`
	Password       string `yaml:"password" env:"MGMT_ORACLE_PASSWORD"`
	ConnectString  string `yaml:"connect_string" env:"MGMT_ORACLE_CONNECT_STRING"`
	WalletLocation string `yaml:"wallet_location" env:"MGMT_ORACLE_WALLET_LOCATION"`
}

// PoolConfig holds database/sql pool settings
type PoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MGMT_DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MGMT_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"MGMT_DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"MGMT_DB_CONN_MAX_IDLE_TIME"`
}

// CacheConfig configures the read-through cache in front of hot lookups
type CacheConfig struct {
	Driver    string        `yaml:"driver" env:"MGMT_CACHE_DRIVER"`
	TTL       time.Duration `yaml:"ttl" env:"MGMT_CACHE_TTL"`
	KeyPrefix string        `yaml:"key_prefix" env:"MGMT_CACHE_KEY_PREFIX"`
	Redis     RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `yaml:"host" env:"MGMT_REDIS_HOST"`
	Port     string `yaml:"port" env:"MGMT_REDIS_PORT"`
	Password string `yaml:"password" env:"MGMT_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"MGMT_REDIS_DB"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level" env:"MGMT_LOGGING_LEVEL"`
	IsDev            bool   `yaml:"is_dev" env:"MGMT_LOGGING_IS_DEV"`
	IsTest           bool   `yaml:"is_test" env:"MGMT_LOGGING_IS_TEST"`
	LogDir           string `yaml:"log_dir" env:"MGMT_LOGGING_LOG_DIR"`
	MaxAgeDays       int    `yaml:"max_age_days" env:"MGMT_LOGGING_MAX_AGE_DAYS"`
	MaxSizeMB        int    `yaml:"max_size_mb" env:"MGMT_LOGGING_MAX_SIZE_MB"`
	MaxBackups       int    `yaml:"max_backups" env:"MGMT_LOGGING_MAX_BACKUPS"`
	AlsoLogToConsole bool   `yaml:"also_log_to_console" env:"MGMT_LOGGING_ALSO_LOG_TO_CONSOLE"`
	LogQueries       bool   `yaml:"log_queries" env:"MGMT_LOGGING_LOG_QUERIES"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled         bool          `yaml:"enabled" env:"MGMT_OTEL_ENABLED"`
	ServiceName     string        `yaml:"service_name" env:"MGMT_OTEL_SERVICE_NAME"`
	MetricsExporter string        `yaml:"metrics_exporter" env:"MGMT_OTEL_METRICS_EXPORTER"`
	TracesExporter  string        `yaml:"traces_exporter" env:"MGMT_OTEL_TRACES_EXPORTER"`
	OTLPEndpoint    string        `yaml:"otlp_endpoint" env:"MGMT_OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool          `yaml:"otlp_insecure" env:"MGMT_OTEL_EXPORTER_OTLP_INSECURE"`
	MetricsInterval time.Duration `yaml:"metrics_interval" env:"MGMT_OTEL_METRICS_INTERVAL"`
	MetricsAddr     string        `yaml:"metrics_addr" env:"MGMT_OTEL_METRICS_ADDR"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load(configFile string) (*Config, error) {
	config := Default()

	if configFile != "" {
		if err := loadFromYAML(config, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from YAML: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, fmt.Errorf("failed to override with environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Default returns a configuration that runs against a local SQLite file with no cache
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:        "sqlite",
			AutoMigrate: true,
			SQLitePath:  "mgmt.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "postgres",
				Database: "mgmt",
				SSLMode:  "disable",
			},
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     "3306",
				User:     "root",
				Database: "mgmt",
			},
			SQLServer: SQLServerConfig{
				Host:     "localhost",
				Port:     "1433",
				User:     "sa",
				Database: "mgmt",
			},
			Pool: PoolConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 4 * time.Minute,
				ConnMaxIdleTime: 30 * time.Second,
			},
		},
		Cache: CacheConfig{
			Driver:    "none",
			TTL:       5 * time.Minute,
			KeyPrefix: "mgmt:",
			Redis: RedisConfig{
				Host: "localhost",
				Port: "6379",
			},
		},
		Logging: LoggingConfig{
			Level:            "info",
			LogDir:           "logs",
			MaxAgeDays:       7,
			MaxSizeMB:        100,
			MaxBackups:       10,
			AlsoLogToConsole: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "mgmtrepo",
			MetricsExporter: "prometheus",
			TracesExporter:  "none",
			OTLPEndpoint:    "localhost:4317",
			OTLPInsecure:    true,
			MetricsInterval: 30 * time.Second,
			MetricsAddr:     ":9464",
		},
	}
}

// loadFromYAML loads configuration from a YAML file
func loadFromYAML(config *Config, filename string) error {
	data, err := os.ReadFile(filename) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

func overrideWithEnv(config *Config) error {
	return overrideStructWithEnv(reflect.ValueOf(config).Elem())
}

// overrideStructWithEnv recursively overrides struct fields with environment variables
func overrideStructWithEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := overrideStructWithEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue, ok := os.LookupEnv(envTag)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldFromString(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from env %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// setFieldFromString sets a struct field value from a string based on the field type
func setFieldFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool value: %s", value)
		}
		field.SetBool(boolVal)
	case reflect.Int:
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid int value: %s", value)
		}
		field.SetInt(int64(intVal))
	case reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration value: %s", value)
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int64 value: %s", value)
			}
			field.SetInt(intVal)
		}
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" {
			return fmt.Errorf("postgres host and database are required")
		}
	case "mysql":
		if c.Database.MySQL.Host == "" || c.Database.MySQL.Database == "" {
			return fmt.Errorf("mysql host and database are required")
		}
	case "sqlserver":
		if c.Database.SQLServer.Host == "" || c.Database.SQLServer.Database == "" {
			return fmt.Errorf("sqlserver host and database are required")
		}
	case "oracle":
		if c.Database.Oracle.ConnectString == "" {
			return fmt.Errorf("oracle connect string is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}

	if c.Database.Pool.MaxOpenConns < 0 || c.Database.Pool.MaxIdleConns < 0 {
		return fmt.Errorf("pool sizes must not be negative")
	}

	switch c.Cache.Driver {
	case "", "none", "memory":
	case "redis":
		if c.Cache.Redis.Host == "" || c.Cache.Redis.Port == "" {
			return fmt.Errorf("redis host and port are required when cache driver is redis")
		}
	default:
		return fmt.Errorf("unsupported cache driver: %q", c.Cache.Driver)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.MetricsExporter {
		case "prometheus", "otlp", "none":
		default:
			return fmt.Errorf("unsupported metrics exporter: %q", c.Telemetry.MetricsExporter)
		}
		switch c.Telemetry.TracesExporter {
		case "otlp", "stdout", "none":
		default:
			return fmt.Errorf("unsupported traces exporter: %q", c.Telemetry.TracesExporter)
		}
	}

	return nil
}

// IsTestMode returns true if running in test mode
func (c *Config) IsTestMode() bool {
	return c.Logging.IsTest || isRunningInTest()
}

func isRunningInTest() bool {
	return flag.Lookup("test.v") != nil
}

// GetLogLevel returns the parsed log level
func (c *Config) GetLogLevel() slogging.LogLevel {
	return slogging.ParseLogLevel(c.Logging.Level)
}

// SloggingConfig converts the logging section into a logger configuration
func (c *Config) SloggingConfig() slogging.Config {
	return slogging.Config{
		Level:            c.GetLogLevel(),
		IsDev:            c.Logging.IsDev,
		LogDir:           c.Logging.LogDir,
		MaxAgeDays:       c.Logging.MaxAgeDays,
		MaxSizeMB:        c.Logging.MaxSizeMB,
		MaxBackups:       c.Logging.MaxBackups,
		AlsoLogToConsole: c.Logging.AlsoLogToConsole,
	}
}

// RedisAddr returns host:port for the cache redis connection
func (c *Config) RedisAddr() string {
	return strings.TrimSpace(c.Cache.Redis.Host) + ":" + strings.TrimSpace(c.Cache.Redis.Port)
}
