// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

// Package store owns the persistent ledger of Corsarr: tracked content
// requests and provisioned temporary Jellyfin accounts.
//
// The remote services own the authoritative state; the rows here are a
// derived ledger that the reconciler and sweeper repair against the
// remote, never trust blindly. Writes are serialized through a single
// mutex, which closes the check-then-insert race between a user command
// and the background sweep.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/corsarr/corsarr/internal/config"
	"github.com/corsarr/corsarr/internal/logging"
)

var (
	// ErrAlreadyExists reports a duplicate-resource business rule
	// violation, distinct from transient failures.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrNotFound reports that no matching record exists.
	ErrNotFound = errors.New("record not found")
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS requests_id_seq;

CREATE TABLE IF NOT EXISTS requests (
	id           BIGINT PRIMARY KEY DEFAULT nextval('requests_id_seq'),
	user_id      BIGINT NOT NULL,
	title        VARCHAR NOT NULL,
	release_year INTEGER NOT NULL,
	local_id     BIGINT NOT NULL,
	tmdb_id      BIGINT,
	tvdb_id      BIGINT
);

CREATE TABLE IF NOT EXISTS jellyfin_accounts (
	user_id          BIGINT PRIMARY KEY,
	jellyfin_user_id VARCHAR NOT NULL,
	deletion_time    TIMESTAMP NOT NULL
);
`

// Store wraps the embedded database connection and provides data access
// for the two record types.
type Store struct {
	conn *sql.DB

	// writeMu serializes all mutating operations. The workload is a
	// handful of rows per guild, so a single writer is plenty and keeps
	// check-then-insert sequences atomic.
	writeMu chan struct{}
}

// New opens (or creates) the database at cfg.Path and initializes the
// schema. The parent directory is created if missing.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	conn, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Path, err)
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database ready")

	return &Store{
		conn:    conn,
		writeMu: make(chan struct{}, 1),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// lock acquires the write lock, honoring context cancellation.
func (s *Store) lock(ctx context.Context) error {
	select {
	case s.writeMu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock() {
	<-s.writeMu
}
