package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-whitelist/core"
	whitelistmigrations "github.com/goliatone/go-whitelist/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const defaultPingTimeout = 5 * time.Second

type persistenceConfig struct {
	driver string
	server string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool {
	return c.debug
}

func (c persistenceConfig) GetDriver() string {
	return c.driver
}

func (c persistenceConfig) GetServer() string {
	return c.server
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	return defaultPingTimeout
}

func (c persistenceConfig) GetOtelIdentifier() string {
	return "go-whitelist"
}

// Open connects to the configured database, applies the embedded migrations
// for its dialect and returns the ready persistence client.
func Open(ctx context.Context, cfg core.StorageConfig) (*persistence.Client, error) {
	driver := strings.TrimSpace(strings.ToLower(cfg.Driver))
	if driver == "" {
		driver = core.DefaultStorageDriver
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: storage dsn is required")
	}

	dialect, migrationDialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName(migrationDialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driverName(migrationDialect), err)
	}
	if migrationDialect == whitelistmigrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{driver: driverName(migrationDialect), server: dsn, debug: cfg.Debug}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	if _, err := whitelistmigrations.Register(client, driverName(migrationDialect)); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}

// driverName resolves the registered database/sql driver for a dialect.
func driverName(migrationDialect string) string {
	if migrationDialect == whitelistmigrations.DialectSQLite {
		return "sqlite3"
	}
	return "postgres"
}

func dialectFor(driver string) (schema.Dialect, string, error) {
	migrationDialect, err := whitelistmigrations.DialectForDriver(driver)
	if err != nil {
		return nil, "", fmt.Errorf("sqlstore: unsupported storage driver: %w", err)
	}
	if migrationDialect == whitelistmigrations.DialectSQLite {
		return sqlitedialect.New(), migrationDialect, nil
	}
	return pgdialect.New(), migrationDialect, nil
}
