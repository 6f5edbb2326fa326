// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package arr

import "time"

// Service selects which media manager a client talks to. The two expose
// the same v3 API shape with different content nouns.
type Service string

const (
	// ServiceRadarr manages movies.
	ServiceRadarr Service = "radarr"
	// ServiceSonarr manages shows.
	ServiceSonarr Service = "sonarr"
)

// contentPath returns the API path segment for the service's content type.
func (s Service) contentPath() string {
	if s == ServiceRadarr {
		return "movie"
	}
	return "series"
}

// LookupOutcome tags the result of a library search.
type LookupOutcome int

const (
	// LookupFound means candidates are available for selection.
	LookupFound LookupOutcome = iota
	// LookupNoResults means the query matched nothing.
	LookupNoResults
	// LookupAlreadyAdded means the best match is already in the library.
	LookupAlreadyAdded
)

// LookupResult is the tagged outcome of a Lookup call. Candidates is
// populated only when Outcome is LookupFound, so callers cannot mistake
// a sentinel for real data.
type LookupResult struct {
	Outcome    LookupOutcome
	Candidates []Candidate
}

// Candidate is one search result offered to the user.
type Candidate struct {
	Title string
	Year  int

	// ContentID is the provider identifier: TMDB for movies, TVDB for
	// shows.
	ContentID int64

	Overview  string
	PosterURL string
}

// AddedContent identifies content newly added to the remote library.
type AddedContent struct {
	// LocalID is the service-assigned library identifier, used to match
	// queue and detail records later.
	LocalID int64
	Title   string
}

// QueueItem is one in-progress download from the service's queue.
type QueueItem struct {
	// LocalID is the library identifier of the downloading content.
	LocalID int64

	// TimeLeft is the raw remaining-time string as reported by the
	// service. Empty when the service omits the field.
	TimeLeft string
}

// ItemStatistics carries partial-completion data for multi-episode
// content.
type ItemStatistics struct {
	PercentOfEpisodes float64 `json:"percentOfEpisodes"`
}

// ItemDetail is the current state of one library item.
type ItemDetail struct {
	HasFile    bool            `json:"hasFile"`
	Statistics *ItemStatistics `json:"statistics"`
}

// Downloaded reports whether the item has finished downloading: a movie
// with its file on disk, or a show with every monitored episode present.
func (d *ItemDetail) Downloaded() bool {
	if d.HasFile {
		return true
	}
	return d.Statistics != nil && d.Statistics.PercentOfEpisodes >= 100
}

// EpisodePercent returns the fraction of episodes present, or 0 when the
// service reports no statistics.
func (d *ItemDetail) EpisodePercent() int {
	if d.Statistics == nil {
		return 0
	}
	return int(d.Statistics.PercentOfEpisodes)
}

// lookupRecord is the wire shape of one lookup result. Only the fields
// Corsarr consumes are declared; optional fields default to their zero
// values.
type lookupRecord struct {
	Title    string `json:"title"`
	Year     int    `json:"year"`
	Overview string `json:"overview"`

	// Added is the library add timestamp. Services report a year-one
	// placeholder for content not yet in the library.
	Added string `json:"added"`

	TmdbID int64 `json:"tmdbId"`
	TvdbID int64 `json:"tvdbId"`

	Images []struct {
		RemoteURL string `json:"remoteUrl"`
	} `json:"images"`
}

// inLibrary reports whether the record's add timestamp is a real instant
// rather than the year-one placeholder.
func (r *lookupRecord) inLibrary() bool {
	added, err := time.Parse(time.RFC3339, r.Added)
	if err != nil {
		return false
	}
	return added.Year() > 1
}

// queueResponse is the wire shape of the queue endpoint.
type queueResponse struct {
	Records []queueRecord `json:"records"`
}

type queueRecord struct {
	MovieID  int64  `json:"movieId"`
	SeriesID int64  `json:"seriesId"`
	TimeLeft string `json:"timeleft"`
}

// addResponse is the wire shape returned when content is added.
type addResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
