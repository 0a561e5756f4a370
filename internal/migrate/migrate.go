// Package migrate applies the embedded SQL migrations for the SQL key-value
// backends.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state
var mu sync.Mutex

// Up runs all pending migrations. dialect is "postgres" or "sqlite3".
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, "sql")
}

// Version reports the current schema version
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
