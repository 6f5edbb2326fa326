// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

// Package request tracks content requests and reconciles them against
// the remote download queues for status reporting.
package request

import (
	"context"

	"github.com/corsarr/corsarr/internal/metrics"
	"github.com/corsarr/corsarr/internal/store"
)

// Store is the slice of the persistent store request tracking needs.
type Store interface {
	InsertRequest(ctx context.Context, req store.ContentRequest) error
	RequestsByUser(ctx context.Context, userID int64) ([]store.ContentRequest, error)
	DeleteRequest(ctx context.Context, userID, localID int64) error
}

// Tracker records content requests keyed by (user, local content id).
//
// Unlike accounts, requests are not capped per user: a member may have
// several movies and shows in flight at once.
type Tracker struct {
	store Store
}

// NewTracker creates a Tracker.
func NewTracker(st Store) *Tracker {
	return &Tracker{store: st}
}

// Track records a request after the content was added to the remote
// library.
func (t *Tracker) Track(ctx context.Context, req store.ContentRequest) error {
	if err := t.store.InsertRequest(ctx, req); err != nil {
		return err
	}

	service := "sonarr"
	if req.IsMovie() {
		service = "radarr"
	}
	metrics.RequestsTracked.WithLabelValues(service).Inc()
	return nil
}

// ListByUser returns the user's tracked requests in insertion order.
func (t *Tracker) ListByUser(ctx context.Context, userID int64) ([]store.ContentRequest, error) {
	return t.store.RequestsByUser(ctx, userID)
}

// Delete removes one tracked request.
func (t *Tracker) Delete(ctx context.Context, userID, localID int64) error {
	return t.store.DeleteRequest(ctx, userID, localID)
}
