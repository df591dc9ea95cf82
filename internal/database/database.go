// Package database centralises sqlx connection helpers.  The driver is
// pgx's database/sql adapter, registered under the name "pgx".
//
// Public entry points:
//
//	Open(ctx, dsn)                          – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, maxOpen, maxIdle) – fine-grained control.
//
// Both helpers Ping the database before returning so callers fail fast
// during bootstrap.  Callers Close() the returned *sqlx.DB when done.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// DriverName is the database/sql driver registered by pgx/v5/stdlib.
const DriverName = "pgx"

// Open returns a *sqlx.DB with 15 max open, 5 idle, and a 30-minute
// connection lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, 15, 5)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle.  Zero values keep
// the defaults.
func OpenWithOptions(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}
	if maxOpen <= 0 {
		maxOpen = 15
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return db, nil
}
