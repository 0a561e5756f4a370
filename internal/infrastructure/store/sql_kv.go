package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Dialect selects placeholder syntax for SQLKV queries
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// SQLKV stores entries in the kv_entries table created by the migrations
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLKV(db *sql.DB, dialect Dialect) *SQLKV {
	return &SQLKV{db: db, dialect: dialect}
}

// DB exposes the underlying handle
func (s *SQLKV) DB() *sql.DB { return s.db }

func (s *SQLKV) ph(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLKV) upsertQuery() string {
	return fmt.Sprintf(
		`INSERT INTO kv_entries (entry_key, entry_value, updated_at)
		 VALUES (%s, %s, %s)
		 ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`,
		s.ph(1), s.ph(2), s.ph(3),
	)
}

// Get retrieves a value by key
func (s *SQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT entry_value FROM kv_entries WHERE entry_key = "+s.ph(1),
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set inserts or replaces a value
func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), key, value, time.Now().UTC())
	return err
}

// Remove deletes a key
func (s *SQLKV) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM kv_entries WHERE entry_key = "+s.ph(1),
		key,
	)
	return err
}

// SetMany writes all entries in one transaction
func (s *SQLKV) SetMany(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	query := s.upsertQuery()
	for key, value := range entries {
		if key == "" {
			return ErrEmptyKey
		}
		if _, err := tx.ExecContext(ctx, query, key, value, now); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	return tx.Commit()
}
