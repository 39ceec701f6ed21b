package db

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/apimgmt/mgmtrepo/internal/config"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	_ = slogging.Initialize(slogging.Config{Level: slogging.LogLevelError, Output: io.Discard})
	os.Exit(m.Run())
}

func TestNewGormConfigMapsDatabaseSection(t *testing.T) {
	c := config.Default().Database
	c.Type = "postgres"
	c.Postgres.Password = "secret"
	c.Pool.MaxOpenConns = 25

	g := NewGormConfig(c)
	assert.Equal(t, DatabaseTypePostgres, g.Type)
	assert.Equal(t, "localhost", g.PostgresHost)
	assert.Equal(t, "secret", g.PostgresPassword)
	assert.Equal(t, "disable", g.PostgresSSLMode)
	assert.Equal(t, "3306", g.MySQLPort)
	assert.Equal(t, 25, g.MaxOpenConns)
}

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		typ     DatabaseType
		wantDSN string
		wantErr bool
	}{
		{DatabaseTypePostgres, "host=h port=5432 user=u password=p dbname=d sslmode=require", false},
		{DatabaseTypeMySQL, "u:p@tcp(h:3306)/d?parseTime=true&loc=UTC&charset=utf8mb4&collation=utf8mb4_unicode_ci", false},
		{DatabaseTypeSQLServer, "sqlserver://u:p@h:1433?database=d", false},
		{DatabaseTypeSQLite, ":memory:", false},
		{"db2", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			cfg := GormConfig{
				Type:         tt.typ,
				PostgresHost: "h", PostgresPort: "5432", PostgresUser: "u", PostgresPassword: "p", PostgresDatabase: "d", PostgresSSLMode: "require",
				MySQLHost: "h", MySQLPort: "3306", MySQLUser: "u", MySQLPassword: "p", MySQLDatabase: "d",
				SQLServerHost: "h", SQLServerPort: "1433", SQLServerUser: "u", SQLServerPassword: "p", SQLServerDatabase: "d",
				SQLitePath: ":memory:",
			}
			dialector, dsn, err := dialectorFor(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, dialector)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestNewGormDBInMemorySQLite(t *testing.T) {
	gdb, err := NewGormDB(GormConfig{Type: DatabaseTypeSQLite, SQLitePath: ":memory:", MaxOpenConns: 5})
	require.NoError(t, err)
	defer func() { _ = gdb.Close() }()

	assert.Equal(t, DatabaseTypeSQLite, gdb.DatabaseType())
	assert.Equal(t, DialectSQLite, GetDialectName(gdb.DB()))
	require.NoError(t, gdb.Ping(context.Background()))
	require.NoError(t, gdb.AutoMigrate())

	sqlDB, err := gdb.DB().DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections, "in-memory sqlite is pinned to one connection")

	var n int64
	require.NoError(t, gdb.DB().Model(&models.Organization{}).Count(&n).Error)
	assert.Zero(t, n)
}

type recordingPlugin struct{ initialized bool }

func (p *recordingPlugin) Name() string { return "recording" }
func (p *recordingPlugin) Initialize(*gorm.DB) error {
	p.initialized = true
	return nil
}

func TestNewGormDBRegistersPlugins(t *testing.T) {
	plugin := &recordingPlugin{}
	gdb, err := NewGormDB(GormConfig{Type: DatabaseTypeSQLite, SQLitePath: ":memory:", Plugins: []gorm.Plugin{plugin}})
	require.NoError(t, err)
	defer func() { _ = gdb.Close() }()
	assert.True(t, plugin.initialized)
}

func TestNewGormDBRejectsUnknownType(t *testing.T) {
	_, err := NewGormDB(GormConfig{Type: "db2"})
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestTruncateTable(t *testing.T) {
	assert.Equal(t, "DELETE FROM tags", TruncateTable(DialectSQLite, "tags"))
	assert.Equal(t, "TRUNCATE TABLE tags CASCADE", TruncateTable(DialectPostgres, "tags"))
	assert.Equal(t, "TRUNCATE TABLE tags", TruncateTable(DialectMySQL, "tags"))
	assert.Equal(t, "", GetDialectName(nil))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("driver: bad connection")))
	assert.True(t, IsRetryableError(errors.New("database is locked")))
	assert.True(t, IsRetryableError(errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")))
	assert.False(t, IsRetryableError(errors.New("UNIQUE constraint failed: tags.id")))
}

func TestWithRetryableTransactionRetriesTransientFailures(t *testing.T) {
	tdb := MustCreateTestDB(t)
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	attempts := 0
	err := WithRetryableTransaction(context.Background(), tdb.DB, cfg, func(tx *gorm.DB) error {
		attempts++
		if err := tx.Create(&models.Organization{ID: "org-retry", Name: "Retry", FlowMode: "DEFAULT"}).Error; err != nil {
			return err
		}
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	var n int64
	require.NoError(t, tdb.DB.Model(&models.Organization{}).Where("id = ?", "org-retry").Count(&n).Error)
	assert.Equal(t, int64(1), n, "failed attempts must roll back")
}

func TestWithRetryableTransactionStopsOnPermanentFailure(t *testing.T) {
	tdb := MustCreateTestDB(t)
	attempts := 0
	boom := errors.New("constraint violated")
	err := WithRetryableTransaction(context.Background(), tdb.DB, DefaultRetryConfig(), func(*gorm.DB) error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryableTransactionGivesUp(t *testing.T) {
	tdb := MustCreateTestDB(t)
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	err := WithRetryableTransaction(context.Background(), tdb.DB, cfg, func(*gorm.DB) error {
		return errors.New("connection reset by peer")
	})
	assert.ErrorContains(t, err, "transaction failed after 2 attempts")
}

func TestGormLoggerReportsErrorsNotMisses(t *testing.T) {
	var buf bytes.Buffer
	log, err := slogging.NewLogger(slogging.Config{Level: slogging.LogLevelDebug, Output: &buf})
	require.NoError(t, err)

	l := newGormLogger(log, false)
	fc := func() (string, int64) { return "SELECT 1", 0 }

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), fc, errors.New("no such table: widgets"))
	assert.Contains(t, buf.String(), "no such table: widgets")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("hidden"))
	assert.Empty(t, buf.String())

	newGormLogger(log, true).Trace(context.Background(), time.Now(), fc, nil)
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, RedisConfig{Addr: mr.Addr(), Instrument: true})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	assert.ErrorContains(t, err, "failed to ping redis")
}
