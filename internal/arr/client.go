// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

/*
client.go - Radarr/Sonarr v3 REST API Client

One client type serves both services; Service selects the content noun
(movie vs. series) and the provider-ID query used by the add flow.

API reference: https://radarr.video/docs/api/ and https://sonarr.tv/docs/api/
*/

package arr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/corsarr/corsarr/internal/config"
)

// maxCandidates caps how many lookup results are offered to the user.
const maxCandidates = 5

// API defines the media-manager operations Corsarr consumes. Both
// Client and CircuitBreakerClient implement it.
type API interface {
	Lookup(ctx context.Context, term string) (*LookupResult, error)
	Add(ctx context.Context, contentID int64) (*AddedContent, error)
	Queue(ctx context.Context) ([]QueueItem, error)
	Item(ctx context.Context, localID int64) (*ItemDetail, error)
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// Client provides access to one Radarr or Sonarr instance.
type Client struct {
	service          Service
	baseURL          string
	apiKey           string
	rootFolder       string
	qualityProfileID int
	httpClient       *http.Client
}

// NewClient creates a client for the given service from its config
// section.
func NewClient(service Service, cfg *config.ArrConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		service:          service,
		baseURL:          strings.TrimSuffix(cfg.URL, "/"),
		apiKey:           cfg.APIKey,
		rootFolder:       cfg.RootFolder,
		qualityProfileID: cfg.QualityProfileID,
		httpClient:       &http.Client{Timeout: timeout},
	}
}

// Service returns which media manager this client talks to.
func (c *Client) Service() Service {
	return c.service
}

// Lookup searches the service for content matching term.
//
// The result is tagged: content already in the library yields
// LookupAlreadyAdded (detected by the best match carrying a real add
// timestamp), an empty response yields LookupNoResults, and otherwise up
// to five candidates are returned.
func (c *Client) Lookup(ctx context.Context, term string) (*LookupResult, error) {
	query := url.Values{"term": {strings.TrimSpace(term)}}
	resp, err := c.do(ctx, http.MethodGet, "/api/v3/"+c.service.contentPath()+"/lookup", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%s lookup request failed: %w", c.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("lookup", resp)
	}

	var records []lookupRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode %s lookup response: %w", c.service, err)
	}

	if len(records) == 0 {
		return &LookupResult{Outcome: LookupNoResults}, nil
	}
	if records[0].inLibrary() {
		return &LookupResult{Outcome: LookupAlreadyAdded}, nil
	}

	n := len(records)
	if n > maxCandidates {
		n = maxCandidates
	}
	candidates := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		rec := &records[i]
		cand := Candidate{
			Title:    rec.Title,
			Year:     rec.Year,
			Overview: rec.Overview,
		}
		if cand.Overview == "" {
			cand.Overview = "No description available"
		}
		if c.service == ServiceRadarr {
			cand.ContentID = rec.TmdbID
		} else {
			cand.ContentID = rec.TvdbID
		}
		if len(rec.Images) > 0 {
			cand.PosterURL = rec.Images[0].RemoteURL
		}
		candidates = append(candidates, cand)
	}

	return &LookupResult{Outcome: LookupFound, Candidates: candidates}, nil
}

// Add adds the content identified by its provider ID (TMDB or TVDB) to
// the library, monitored, with the configured root folder and quality
// profile, searching for a download immediately.
func (c *Client) Add(ctx context.Context, contentID int64) (*AddedContent, error) {
	payload, err := c.fetchAddPayload(ctx, contentID)
	if err != nil {
		return nil, err
	}

	payload["monitored"] = true
	payload["qualityProfileId"] = c.qualityProfileID
	payload["rootFolderPath"] = c.rootFolder
	searchKey := "searchForMovie"
	if c.service == ServiceSonarr {
		searchKey = "searchForMissingEpisodes"
	}
	payload["addOptions"] = map[string]bool{searchKey: true}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s add payload: %w", c.service, err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v3/"+c.service.contentPath(), nil, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s add request failed: %w", c.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.statusError("add", resp)
	}

	var added addResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return nil, fmt.Errorf("failed to decode %s add response: %w", c.service, err)
	}

	return &AddedContent{LocalID: added.ID, Title: added.Title}, nil
}

// fetchAddPayload pulls the full content record for the provider ID.
// The record round-trips back to the service on add, so it stays a raw
// object; only the handful of fields Corsarr overrides are touched.
func (c *Client) fetchAddPayload(ctx context.Context, contentID int64) (map[string]interface{}, error) {
	if c.service == ServiceRadarr {
		query := url.Values{"tmdbId": {fmt.Sprintf("%d", contentID)}}
		resp, err := c.do(ctx, http.MethodGet, "/api/v3/movie/lookup/tmdb", query, nil)
		if err != nil {
			return nil, fmt.Errorf("radarr tmdb lookup request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, c.statusError("tmdb lookup", resp)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode radarr tmdb lookup: %w", err)
		}
		return payload, nil
	}

	query := url.Values{"term": {fmt.Sprintf("tvdb:%d", contentID)}}
	resp, err := c.do(ctx, http.MethodGet, "/api/v3/series/lookup", query, nil)
	if err != nil {
		return nil, fmt.Errorf("sonarr tvdb lookup request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("tvdb lookup", resp)
	}

	var payloads []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("failed to decode sonarr tvdb lookup: %w", err)
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("sonarr tvdb lookup returned no record for tvdb:%d", contentID)
	}
	return payloads[0], nil
}

// Queue returns the service's in-progress downloads, normalized to the
// library identifier relevant for this service.
func (c *Client) Queue(ctx context.Context) ([]QueueItem, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v3/queue", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s queue request failed: %w", c.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("queue", resp)
	}

	var queue queueResponse
	if err := json.NewDecoder(resp.Body).Decode(&queue); err != nil {
		return nil, fmt.Errorf("failed to decode %s queue response: %w", c.service, err)
	}

	items := make([]QueueItem, 0, len(queue.Records))
	for _, rec := range queue.Records {
		item := QueueItem{TimeLeft: rec.TimeLeft}
		if c.service == ServiceRadarr {
			item.LocalID = rec.MovieID
		} else {
			item.LocalID = rec.SeriesID
		}
		items = append(items, item)
	}
	return items, nil
}

// Item fetches the current detail record for a library item.
func (c *Client) Item(ctx context.Context, localID int64) (*ItemDetail, error) {
	path := fmt.Sprintf("/api/v3/%s/%d", c.service.contentPath(), localID)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s item request failed: %w", c.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("item", resp)
	}

	var detail ItemDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("failed to decode %s item response: %w", c.service, err)
	}
	return &detail, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// statusError builds an error from a non-success response, including a
// bounded slice of the body for diagnosis.
func (c *Client) statusError(op string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("%s %s returned status %d (failed to read body)", c.service, op, resp.StatusCode)
	}
	return fmt.Errorf("%s %s returned status %d: %s", c.service, op, resp.StatusCode, string(body))
}
