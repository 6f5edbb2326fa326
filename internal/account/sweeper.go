// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package account

import (
	"context"
	"errors"
	"time"

	"github.com/corsarr/corsarr/internal/jellyfin"
	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/metrics"
)

// perAccountTimeout bounds the remote delete call for one account so a
// hung server cannot stall the whole pass.
const perAccountTimeout = 15 * time.Second

// Sweeper periodically deletes temporary accounts whose expiry has
// passed: first the remote Jellyfin user, then the local record.
//
// A remote "not found" counts as success (the account is already gone by
// other means), which makes the sweep idempotent. Any other remote error
// retains the record for the next pass; one bad account never blocks the
// rest. Each pass is stateless, so nothing is lost if one is skipped.
type Sweeper struct {
	jf       jellyfin.API
	store    Store
	interval time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewSweeper creates a Sweeper that runs every interval.
func NewSweeper(jf jellyfin.API, st Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		jf:       jf,
		store:    st,
		interval: interval,
		now:      time.Now,
	}
}

// Serve implements suture.Service: an immediate sweep, then one per
// interval until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", s.interval).Msg("Starting account expiry sweeper")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Sweeper) String() string {
	return "account-sweeper"
}

// sweep runs one pass, logging instead of failing: background errors are
// retried next cycle, never raised.
func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.SweepOnce(ctx); err != nil {
		logging.Error().Err(err).Msg("Account sweep pass failed")
	}
}

// SweepOnce deletes every account whose expiry is strictly before the
// current time and returns how many were removed. Per-account failures
// are logged and counted, not returned; the error reports only a failure
// to read the ledger itself.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	metrics.SweepRuns.Inc()

	expired, err := s.store.ExpiredAccounts(ctx, s.now())
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, acct := range expired {
		if err := s.reap(ctx, acct.JellyfinUserID); err != nil {
			metrics.SweepFailures.Inc()
			logging.Error().
				Err(err).
				Str("jellyfin_user", acct.JellyfinUserID).
				Msg("Failed deleting expired account, will retry next sweep")
			continue
		}
		deleted++
		metrics.SweepDeletedAccounts.Inc()
		logging.Info().
			Int64("user", acct.UserID).
			Str("jellyfin_user", acct.JellyfinUserID).
			Msg("Deleted expired account")
	}

	return deleted, nil
}

// reap deletes one account remotely and then locally. The local record
// is only removed once the remote reports deleted or already absent.
func (s *Sweeper) reap(ctx context.Context, jellyfinUserID string) error {
	callCtx, cancel := context.WithTimeout(ctx, perAccountTimeout)
	defer cancel()

	if err := s.jf.DeleteUser(callCtx, jellyfinUserID); err != nil && !errors.Is(err, jellyfin.ErrNotFound) {
		return err
	}

	return s.store.DeleteAccount(ctx, jellyfinUserID)
}
