package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresKV returns a KeyValueStore backed by PostgreSQL
func NewPostgresKV(db *sql.DB) *SQLKV {
	return NewSQLKV(db, DialectPostgres)
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
