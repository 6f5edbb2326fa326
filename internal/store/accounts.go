// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TemporaryAccount is a provisioned Jellyfin account awaiting expiry.
type TemporaryAccount struct {
	// UserID is the Discord user the account belongs to.
	UserID int64

	// JellyfinUserID is the remote account identifier assigned by
	// Jellyfin at creation.
	JellyfinUserID string

	// DeletionTime is the absolute UTC instant after which the sweeper
	// deletes the account.
	DeletionTime time.Time
}

// InsertAccount records a provisioned account. At most one account may
// exist per user; a second insert returns ErrAlreadyExists.
func (s *Store) InsertAccount(ctx context.Context, acct TemporaryAccount) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	var exists int
	err := s.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM jellyfin_accounts WHERE user_id = ?`, acct.UserID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing account: %w", err)
	}
	if exists > 0 {
		return ErrAlreadyExists
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO jellyfin_accounts (user_id, jellyfin_user_id, deletion_time) VALUES (?, ?, ?)`,
		acct.UserID, acct.JellyfinUserID, acct.DeletionTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// AccountByUser returns the user's account, or ErrNotFound.
func (s *Store) AccountByUser(ctx context.Context, userID int64) (*TemporaryAccount, error) {
	acct := TemporaryAccount{UserID: userID}
	err := s.conn.QueryRowContext(ctx,
		`SELECT jellyfin_user_id, deletion_time FROM jellyfin_accounts WHERE user_id = ?`, userID,
	).Scan(&acct.JellyfinUserID, &acct.DeletionTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	acct.DeletionTime = acct.DeletionTime.UTC()
	return &acct, nil
}

// ExpiredAccounts returns every account whose deletion time is strictly
// before now.
func (s *Store) ExpiredAccounts(ctx context.Context, now time.Time) ([]TemporaryAccount, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT user_id, jellyfin_user_id, deletion_time FROM jellyfin_accounts WHERE deletion_time < ?`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []TemporaryAccount
	for rows.Next() {
		var acct TemporaryAccount
		if err := rows.Scan(&acct.UserID, &acct.JellyfinUserID, &acct.DeletionTime); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		acct.DeletionTime = acct.DeletionTime.UTC()
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading account rows: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes the account row for the given remote identifier.
// Deleting an absent row is a no-op.
func (s *Store) DeleteAccount(ctx context.Context, jellyfinUserID string) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM jellyfin_accounts WHERE jellyfin_user_id = ?`, jellyfinUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
