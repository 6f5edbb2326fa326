// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

// Package account implements the temporary Jellyfin account lifecycle:
// provisioning restricted accounts with a computed expiry, and the
// periodic sweep that deletes them once expired.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corsarr/corsarr/internal/jellyfin"
	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/metrics"
	"github.com/corsarr/corsarr/internal/store"
)

// ErrAlreadyExists reports that the user already holds an active
// temporary account. It is a business outcome, not a transient failure.
var ErrAlreadyExists = store.ErrAlreadyExists

// Store is the slice of the persistent store the account lifecycle
// needs.
type Store interface {
	AccountByUser(ctx context.Context, userID int64) (*store.TemporaryAccount, error)
	InsertAccount(ctx context.Context, acct store.TemporaryAccount) error
	ExpiredAccounts(ctx context.Context, now time.Time) ([]store.TemporaryAccount, error)
	DeleteAccount(ctx context.Context, jellyfinUserID string) error
}

// Credentials is the generated login pair handed back to the user.
type Credentials struct {
	Username string
	Password string

	// ExpiresAt is when the sweeper will delete the account.
	ExpiresAt time.Time
}

// Provisioner creates restricted temporary accounts on the media server
// and records them for expiry.
type Provisioner struct {
	jf       jellyfin.API
	store    Store
	lifetime time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewProvisioner creates a Provisioner. lifetime is how long provisioned
// accounts live.
func NewProvisioner(jf jellyfin.API, st Store, lifetime time.Duration) *Provisioner {
	return &Provisioner{
		jf:       jf,
		store:    st,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Provision creates a fresh restricted account for the user and records
// it with expiry now + lifetime.
//
// At most one active account per user: if a record already exists the
// call returns ErrAlreadyExists without touching the remote. Any remote
// step failing aborts the whole operation; no partial record is
// persisted.
func (p *Provisioner) Provision(ctx context.Context, userID int64) (*Credentials, error) {
	if _, err := p.store.AccountByUser(ctx, userID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	username := newUsername()
	password, err := newPassword()
	if err != nil {
		return nil, err
	}

	jellyfinUserID, err := p.jf.CreateUser(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to create jellyfin user: %w", err)
	}

	user, err := p.jf.GetUser(ctx, jellyfinUserID)
	if err != nil {
		p.cleanupRemote(ctx, jellyfinUserID)
		return nil, fmt.Errorf("failed to fetch policy for new user: %w", err)
	}

	policy := user.Policy
	if policy == nil {
		policy = jellyfin.Policy{}
	}
	policy.Restrict()
	if err := p.jf.UpdatePolicy(ctx, jellyfinUserID, policy); err != nil {
		p.cleanupRemote(ctx, jellyfinUserID)
		return nil, fmt.Errorf("failed to apply restricted policy: %w", err)
	}

	expiresAt := p.now().Add(p.lifetime).UTC()
	acct := store.TemporaryAccount{
		UserID:         userID,
		JellyfinUserID: jellyfinUserID,
		DeletionTime:   expiresAt,
	}
	if err := p.store.InsertAccount(ctx, acct); err != nil {
		// The remote account exists but the ledger insert failed; delete
		// the remote so the user can retry cleanly.
		p.cleanupRemote(ctx, jellyfinUserID)
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to record account: %w", err)
	}

	metrics.AccountsProvisioned.Inc()
	logging.Info().
		Int64("user", userID).
		Str("jellyfin_user", jellyfinUserID).
		Time("expires_at", expiresAt).
		Msg("Provisioned temporary account")

	return &Credentials{Username: username, Password: password, ExpiresAt: expiresAt}, nil
}

// cleanupRemote best-effort deletes a remote account created during a
// provisioning attempt that failed partway.
func (p *Provisioner) cleanupRemote(ctx context.Context, jellyfinUserID string) {
	if err := p.jf.DeleteUser(ctx, jellyfinUserID); err != nil && !errors.Is(err, jellyfin.ErrNotFound) {
		logging.Warn().
			Err(err).
			Str("jellyfin_user", jellyfinUserID).
			Msg("Failed to clean up remote account after aborted provisioning")
	}
}
