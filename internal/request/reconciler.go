// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package request

import (
	"context"
	"fmt"

	"github.com/corsarr/corsarr/internal/arr"
	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/metrics"
	"github.com/corsarr/corsarr/internal/store"
)

// EntryStatus classifies one tracked request after reconciliation.
type EntryStatus int

const (
	// StatusDownloading means the request was found in the remote queue.
	StatusDownloading EntryStatus = iota
	// StatusNotFound means the request is neither queued nor complete.
	StatusNotFound
)

// Entry is the reconciled state of one tracked request.
type Entry struct {
	Title string
	Year  int

	Status EntryStatus

	// TimeLeft is the formatted remaining download time. Populated only
	// for StatusDownloading; "Unknown" when the queue omitted it.
	TimeLeft string

	// EpisodePercent is the fraction of a show's episodes already on
	// disk, when the remote reports one. Zero means no partial data.
	EpisodePercent int
}

// Report is the outcome of one reconciliation pass. Zero entries means
// the user has nothing requested (completed requests are pruned and
// excluded).
type Report struct {
	Entries []Entry
}

// Reconciler cross-references a user's tracked requests against the
// remote download queues, pruning entries whose downloads silently
// completed between polls.
type Reconciler struct {
	store  Store
	radarr arr.API
	sonarr arr.API
}

// NewReconciler creates a Reconciler. Either client may be nil when the
// corresponding service is disabled.
func NewReconciler(st Store, radarr, sonarr arr.API) *Reconciler {
	return &Reconciler{store: st, radarr: radarr, sonarr: sonarr}
}

// Reconcile produces the status report for one user.
//
// Requests found in the matching service's queue are reported as
// downloading with their formatted time remaining; each queue record
// matches at most one request per pass. Every unmatched request is
// checked against the service's item detail: fully downloaded content
// is deleted from the store and omitted, partially downloaded shows
// report their episode fraction, and everything else reports plain
// not-found.
//
// A user with zero tracked requests yields an empty report with no
// remote calls made.
func (r *Reconciler) Reconcile(ctx context.Context, userID int64) (*Report, error) {
	requests, err := r.store.RequestsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked requests: %w", err)
	}
	if len(requests) == 0 {
		return &Report{}, nil
	}

	metrics.Reconciliations.Inc()

	var movies, shows []store.ContentRequest
	for _, req := range requests {
		if req.IsMovie() {
			movies = append(movies, req)
		} else {
			shows = append(shows, req)
		}
	}

	report := &Report{}
	if err := r.reconcilePartition(ctx, r.radarr, movies, report); err != nil {
		return nil, err
	}
	if err := r.reconcilePartition(ctx, r.sonarr, shows, report); err != nil {
		return nil, err
	}

	return report, nil
}

// reconcilePartition reconciles one content type against its service and
// appends the resulting entries to the report.
func (r *Reconciler) reconcilePartition(ctx context.Context, client arr.API, requests []store.ContentRequest, report *Report) error {
	if len(requests) == 0 {
		return nil
	}
	if client == nil {
		// Service disabled after requests were tracked; nothing to check
		// against, so report them plainly.
		for _, req := range requests {
			report.Entries = append(report.Entries, Entry{
				Title:  req.Title,
				Year:   req.ReleaseYear,
				Status: StatusNotFound,
			})
		}
		return nil
	}

	queue, err := client.Queue(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch download queue: %w", err)
	}

	pending := make(map[int64]store.ContentRequest, len(requests))
	for _, req := range requests {
		pending[req.LocalID] = req
	}

	matched := make(map[int64]bool, len(requests))
	for _, item := range queue {
		req, ok := pending[item.LocalID]
		if !ok || matched[item.LocalID] {
			continue
		}
		matched[item.LocalID] = true

		timeLeft := timeLeftUnknown
		if item.TimeLeft != "" {
			timeLeft = FormatTimeLeft(item.TimeLeft)
		}
		report.Entries = append(report.Entries, Entry{
			Title:    req.Title,
			Year:     req.ReleaseYear,
			Status:   StatusDownloading,
			TimeLeft: timeLeft,
		})
	}

	for _, req := range requests {
		if matched[req.LocalID] {
			continue
		}
		entry, keep, err := r.resolveUnqueued(ctx, client, req)
		if err != nil {
			return err
		}
		if keep {
			report.Entries = append(report.Entries, entry)
		}
	}

	return nil
}

// resolveUnqueued classifies one request absent from the queue. Returns
// keep=false when the request completed and was pruned from the store.
func (r *Reconciler) resolveUnqueued(ctx context.Context, client arr.API, req store.ContentRequest) (Entry, bool, error) {
	entry := Entry{
		Title:  req.Title,
		Year:   req.ReleaseYear,
		Status: StatusNotFound,
	}

	detail, err := client.Item(ctx, req.LocalID)
	if err != nil {
		// Degrade to plain not-found rather than failing the whole pass.
		logging.Warn().
			Err(err).
			Int64("local_id", req.LocalID).
			Msg("Failed to fetch item detail during reconciliation")
		return entry, true, nil
	}

	if detail.Downloaded() {
		if err := r.store.DeleteRequest(ctx, req.UserID, req.LocalID); err != nil {
			return Entry{}, false, fmt.Errorf("failed to prune completed request: %w", err)
		}
		metrics.RequestsCompleted.Inc()
		logging.Info().
			Int64("user", req.UserID).
			Str("title", req.Title).
			Msg("Pruned completed request")
		return Entry{}, false, nil
	}

	if pct := detail.EpisodePercent(); pct > 0 {
		entry.EpisodePercent = pct
	}
	return entry, true, nil
}
