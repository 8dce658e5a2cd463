package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// columnMigration adds a column that older databases were created without.
type columnMigration struct {
	table  string
	column string
	ddl    string
}

var columnMigrations = []columnMigration{
	{table: "employees", column: "role", ddl: "ALTER TABLE employees ADD COLUMN role TEXT NOT NULL DEFAULT ''"},
}

// Open connects to the sqlite file at path (":memory:" works for tests) and
// brings its schema up to date.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("db path is required")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single connection so ":memory:" stays one database and the
	// foreign_keys pragma from the schema applies to every query.
	conn.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if err := migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := conn.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	for _, m := range columnMigrations {
		if err := addMissingColumn(ctx, conn, m); err != nil {
			return err
		}
	}
	return nil
}

func addMissingColumn(ctx context.Context, conn *sql.DB, m columnMigration) error {
	var found int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", m.table, m.column,
	).Scan(&found)
	if err != nil {
		return fmt.Errorf("inspect %s.%s: %w", m.table, m.column, err)
	}
	if found > 0 {
		return nil
	}

	if _, err := conn.ExecContext(ctx, m.ddl); err != nil {
		return fmt.Errorf("add %s.%s: %w", m.table, m.column, err)
	}
	return nil
}
