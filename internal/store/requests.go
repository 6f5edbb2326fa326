// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ContentRequest is a tracked ask for a movie or show, kept until the
// remote download completes or the request is pruned.
//
// Exactly one of TMDBID (movie) and TVDBID (show) is non-zero.
type ContentRequest struct {
	ID          int64
	UserID      int64
	Title       string
	ReleaseYear int

	// LocalID is the identifier assigned by Radarr/Sonarr when the
	// content was added to its library.
	LocalID int64

	TMDBID int64
	TVDBID int64
}

// IsMovie reports whether the request targets Radarr.
func (r *ContentRequest) IsMovie() bool {
	return r.TMDBID != 0
}

// InsertRequest records a content request. Multiple simultaneous
// requests per user are allowed; the (user, local_id) pair is what the
// reconciler keys on.
func (s *Store) InsertRequest(ctx context.Context, req ContentRequest) error {
	if (req.TMDBID == 0) == (req.TVDBID == 0) {
		return fmt.Errorf("content request must carry exactly one of tmdb_id and tvdb_id")
	}

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO requests (user_id, title, release_year, local_id, tmdb_id, tvdb_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		req.UserID, req.Title, req.ReleaseYear, req.LocalID,
		nullableID(req.TMDBID), nullableID(req.TVDBID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// RequestsByUser returns all of the user's tracked requests in insertion
// order.
func (s *Store) RequestsByUser(ctx context.Context, userID int64) ([]ContentRequest, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, release_year, local_id, tmdb_id, tvdb_id
		 FROM requests WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var requests []ContentRequest
	for rows.Next() {
		req := ContentRequest{UserID: userID}
		var tmdbID, tvdbID sql.NullInt64
		if err := rows.Scan(&req.ID, &req.Title, &req.ReleaseYear, &req.LocalID, &tmdbID, &tvdbID); err != nil {
			return nil, fmt.Errorf("failed to scan request row: %w", err)
		}
		req.TMDBID = tmdbID.Int64
		req.TVDBID = tvdbID.Int64
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading request rows: %w", err)
	}
	return requests, nil
}

// DeleteRequest removes one tracked request by (user, local content id).
func (s *Store) DeleteRequest(ctx context.Context, userID, localID int64) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM requests WHERE user_id = ? AND local_id = ?`, userID, localID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullableID maps a zero identifier to SQL NULL so the mutually
// exclusive movie/show columns stay queryable by IS NULL.
func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
