package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
	whitelist "github.com/goliatone/go-whitelist"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	schemaRoot = "data/sql/migrations"
)

// DialectForDriver maps a database/sql driver name onto its migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: no dialect for driver %q", driver)
	}
}

// Schema returns the embedded whitelist schema for dialect. Postgres files sit at the
// root of the migrations tree and the sqlite variant under sqlite/.
func Schema(dialect string) (fs.FS, error) {
	return schemaFrom(whitelist.GetMigrationsFS(), dialect)
}

func schemaFrom(root fs.FS, dialect string) (fs.FS, error) {
	if root == nil {
		return nil, fmt.Errorf("migrations: filesystem is required")
	}
	base, err := fs.Sub(root, schemaRoot)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", schemaRoot, err)
	}

	schema := base
	switch dialect {
	case DialectPostgres:
	case DialectSQLite:
		schema, err = fs.Sub(base, "sqlite")
		if err != nil {
			return nil, fmt.Errorf("migrations: resolve sqlite schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	matches, err := fs.Glob(schema, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s schema: %w", dialect, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("migrations: %s schema has no *.up.sql files", dialect)
	}
	return schema, nil
}

// Registrar is satisfied by *persistence.Client.
type Registrar interface {
	RegisterSQLMigrations(migrations ...fs.FS) *persistence.Migrations
}

// Register adds the schema matching driver to client and reports the dialect it picked.
func Register(client Registrar, driver string) (string, error) {
	if client == nil {
		return "", fmt.Errorf("migrations: registrar is required")
	}
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return "", err
	}
	schema, err := Schema(dialect)
	if err != nil {
		return "", err
	}
	client.RegisterSQLMigrations(schema)
	return dialect, nil
}
