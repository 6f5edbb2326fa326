// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corsarr/corsarr/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.JellyfinConfig{
		URL:     srv.URL,
		APIKey:  "jf-key",
		Timeout: 5 * time.Second,
	})
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("posts credentials and returns assigned id", func(t *testing.T) {
		var gotToken string
		var body map[string]string
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/Users/New" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			gotToken = r.Header.Get("X-Emby-Token")
			_ = json.NewDecoder(r.Body).Decode(&body)
			_, _ = w.Write([]byte(`{"Id":"abc123","Name":"guest-1"}`))
		}))

		id, err := c.CreateUser(ctx, "guest-1", "secret")
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		if id != "abc123" {
			t.Errorf("id = %q", id)
		}
		if gotToken != "jf-key" {
			t.Errorf("token header = %q", gotToken)
		}
		if body["Name"] != "guest-1" || body["Password"] != "secret" {
			t.Errorf("posted body = %v", body)
		}
	})

	t.Run("empty id in response fails", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))

		if _, err := c.CreateUser(ctx, "guest-1", "secret"); err == nil {
			t.Fatal("CreateUser() error = nil, want empty id error")
		}
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns policy with unknown fields intact", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/Users/abc123" {
				t.Errorf("path = %q", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"Id":"abc123","Name":"guest-1","Policy":{"IsAdministrator":false,"SomeFutureFlag":true}}`))
		}))

		user, err := c.GetUser(ctx, "abc123")
		if err != nil {
			t.Fatalf("GetUser() error = %v", err)
		}
		if user.Policy["SomeFutureFlag"] != true {
			t.Error("unknown policy field was dropped")
		}
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		if _, err := c.GetUser(ctx, "gone"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetUser() error = %v, want ErrNotFound", err)
		}
	})
}

func TestUpdatePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the full policy document", func(t *testing.T) {
		var posted Policy
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/Users/abc123/Policy" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&posted)
			w.WriteHeader(http.StatusNoContent)
		}))

		policy := Policy{"IsAdministrator": false}
		policy.Restrict()
		if err := c.UpdatePolicy(ctx, "abc123", policy); err != nil {
			t.Fatalf("UpdatePolicy() error = %v", err)
		}
		if posted["SyncPlayAccess"] != "JoinGroups" {
			t.Errorf("SyncPlayAccess = %v", posted["SyncPlayAccess"])
		}
		if posted["EnableContentDownloading"] != false {
			t.Errorf("EnableContentDownloading = %v", posted["EnableContentDownloading"])
		}
		if posted["IsAdministrator"] != false {
			t.Error("existing policy field was dropped")
		}
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes by id", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/Users/abc123" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		}))

		if err := c.DeleteUser(ctx, "abc123"); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		if err := c.DeleteUser(ctx, "gone"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("DeleteUser() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("server error surfaces", func(t *testing.T) {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "broken", http.StatusInternalServerError)
		}))

		if err := c.DeleteUser(ctx, "abc123"); err == nil {
			t.Fatal("DeleteUser() error = nil, want status error")
		}
	})
}

func TestPolicyRestrict(t *testing.T) {
	p := Policy{"EnableContentDownloading": true, "MaxActiveSessions": 0}
	p.Restrict()

	if p["SyncPlayAccess"] != "JoinGroups" {
		t.Errorf("SyncPlayAccess = %v", p["SyncPlayAccess"])
	}
	if p["EnableContentDownloading"] != false {
		t.Errorf("EnableContentDownloading = %v", p["EnableContentDownloading"])
	}
	if p["InvalidLoginAttemptCount"] != 3 {
		t.Errorf("InvalidLoginAttemptCount = %v", p["InvalidLoginAttemptCount"])
	}
	if p["MaxActiveSessions"] != 1 {
		t.Errorf("MaxActiveSessions = %v", p["MaxActiveSessions"])
	}
}
