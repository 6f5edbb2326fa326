// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

/*
client.go - Jellyfin user-administration REST API client

Covers the four operations the account lifecycle needs: create a user,
read its policy, apply a restrictive policy, and delete the user.

API reference: https://api.jellyfin.org/
*/

package jellyfin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/corsarr/corsarr/internal/config"
)

// ErrNotFound reports that the remote user does not exist. Deletion
// treats it as success: the account is already gone.
var ErrNotFound = errors.New("jellyfin user not found")

// API defines the Jellyfin operations Corsarr consumes.
type API interface {
	CreateUser(ctx context.Context, name, password string) (string, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	UpdatePolicy(ctx context.Context, userID string, policy Policy) error
	DeleteUser(ctx context.Context, userID string) error
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// User is a Jellyfin user record. Only the fields Corsarr consumes are
// declared; Policy keeps its full wire shape so unknown policy fields
// survive the read-modify-write cycle.
type User struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Policy Policy `json:"Policy"`
}

// Policy is a Jellyfin user policy document. It round-trips through
// UpdatePolicy, so it stays a raw object; Restrict mutates only the
// handful of keys Corsarr cares about.
type Policy map[string]interface{}

// Restrict applies the temporary-account policy: no downloads, a single
// concurrent session, three invalid login attempts, and SyncPlay
// join-only.
func (p Policy) Restrict() {
	p["SyncPlayAccess"] = "JoinGroups"
	p["EnableContentDownloading"] = false
	p["InvalidLoginAttemptCount"] = 3
	p["MaxActiveSessions"] = 1
}

// Client provides access to the Jellyfin user-administration API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Jellyfin API client from its config section.
func NewClient(cfg *config.JellyfinConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateUser creates a new user and returns its server-assigned ID.
func (c *Client) CreateUser(ctx context.Context, name, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"Name": name, "Password": password})
	if err != nil {
		return "", fmt.Errorf("failed to encode create user payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/Users/New", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("jellyfin create user request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError("create user", resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("failed to decode jellyfin create user response: %w", err)
	}
	if user.ID == "" {
		return "", fmt.Errorf("jellyfin create user returned empty user id")
	}
	return user.ID, nil
}

// GetUser fetches a user record, including its policy document.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Users/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("jellyfin get user request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("get user", resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode jellyfin user: %w", err)
	}
	return &user, nil
}

// UpdatePolicy replaces the user's policy document.
func (c *Client) UpdatePolicy(ctx context.Context, userID string, policy Policy) error {
	body, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/Users/"+userID+"/Policy", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("jellyfin update policy request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.statusError("update policy", resp)
	}
	return nil
}

// DeleteUser deletes a user. A missing user returns ErrNotFound, which
// callers treat as idempotent success.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/Users/"+userID, nil)
	if err != nil {
		return fmt.Errorf("jellyfin delete user request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return c.statusError("delete user", resp)
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) statusError(op string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("jellyfin %s returned status %d (failed to read body)", op, resp.StatusCode)
	}
	return fmt.Errorf("jellyfin %s returned status %d: %s", op, resp.StatusCode, string(body))
}
