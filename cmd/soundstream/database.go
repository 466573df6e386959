package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const (
	dbPingAttempts = 5
	dbPingBackoff  = 2 * time.Second
)

// openDatabase connects to Postgres and verifies the connection with a
// short ping-retry loop, so a service starting alongside its database does
// not flap.
func openDatabase(ctx context.Context, dsn string, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	var pingErr error
	for attempt := 1; attempt <= dbPingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		pingErr = db.PingContext(pingCtx)
		cancel()
		if pingErr == nil {
			return db, nil
		}
		log.Warn().Err(pingErr).Int("attempt", attempt).Msg("database not reachable yet")
		select {
		case <-time.After(dbPingBackoff):
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", pingErr)
}
