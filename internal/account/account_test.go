// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/corsarr/corsarr/internal/jellyfin"
	"github.com/corsarr/corsarr/internal/store"
)

type fakeJellyfin struct {
	nextID int

	created  []string
	deleted  []string
	policies map[string]jellyfin.Policy

	createErr error
	getErr    error
	policyErr error
	deleteErr error
}

func newFakeJellyfin() *fakeJellyfin {
	return &fakeJellyfin{policies: make(map[string]jellyfin.Policy)}
}

func (f *fakeJellyfin) CreateUser(_ context.Context, name, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("jf-%d", f.nextID)
	f.created = append(f.created, name)
	f.policies[id] = jellyfin.Policy{"IsAdministrator": false}
	return id, nil
}

func (f *fakeJellyfin) GetUser(_ context.Context, userID string) (*jellyfin.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	policy, ok := f.policies[userID]
	if !ok {
		return nil, jellyfin.ErrNotFound
	}
	return &jellyfin.User{ID: userID, Policy: policy}, nil
}

func (f *fakeJellyfin) UpdatePolicy(_ context.Context, userID string, policy jellyfin.Policy) error {
	if f.policyErr != nil {
		return f.policyErr
	}
	f.policies[userID] = policy
	return nil
}

func (f *fakeJellyfin) DeleteUser(_ context.Context, userID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.policies[userID]; !ok {
		return jellyfin.ErrNotFound
	}
	delete(f.policies, userID)
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeAccountStore struct {
	accounts map[int64]store.TemporaryAccount

	insertErr error
	listErr   error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[int64]store.TemporaryAccount)}
}

func (f *fakeAccountStore) AccountByUser(_ context.Context, userID int64) (*store.TemporaryAccount, error) {
	acct, ok := f.accounts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &acct, nil
}

func (f *fakeAccountStore) InsertAccount(_ context.Context, acct store.TemporaryAccount) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.accounts[acct.UserID]; ok {
		return store.ErrAlreadyExists
	}
	f.accounts[acct.UserID] = acct
	return nil
}

func (f *fakeAccountStore) ExpiredAccounts(_ context.Context, now time.Time) ([]store.TemporaryAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []store.TemporaryAccount
	for _, acct := range f.accounts {
		if acct.DeletionTime.Before(now) {
			out = append(out, acct)
		}
	}
	return out, nil
}

func (f *fakeAccountStore) DeleteAccount(_ context.Context, jellyfinUserID string) error {
	for userID, acct := range f.accounts {
		if acct.JellyfinUserID == jellyfinUserID {
			delete(f.accounts, userID)
		}
	}
	return nil
}

func TestProvision(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	newProvisioner := func(jf jellyfin.API, st Store) *Provisioner {
		p := NewProvisioner(jf, st, 24*time.Hour)
		p.now = func() time.Time { return fixed }
		return p
	}

	t.Run("creates restricted account with computed expiry", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		p := newProvisioner(jf, st)

		creds, err := p.Provision(ctx, 42)
		if err != nil {
			t.Fatalf("Provision() error = %v", err)
		}
		if creds.Username == "" || creds.Password == "" {
			t.Error("credentials not generated")
		}
		wantExpiry := fixed.Add(24 * time.Hour)
		if !creds.ExpiresAt.Equal(wantExpiry) {
			t.Errorf("expiry = %v, want %v", creds.ExpiresAt, wantExpiry)
		}

		acct, ok := st.accounts[42]
		if !ok {
			t.Fatal("account not recorded")
		}
		if !acct.DeletionTime.Equal(wantExpiry) {
			t.Errorf("recorded expiry = %v, want %v", acct.DeletionTime, wantExpiry)
		}

		policy := jf.policies[acct.JellyfinUserID]
		if policy["SyncPlayAccess"] != "JoinGroups" {
			t.Errorf("SyncPlayAccess = %v, want JoinGroups", policy["SyncPlayAccess"])
		}
		if policy["EnableContentDownloading"] != false {
			t.Errorf("EnableContentDownloading = %v, want false", policy["EnableContentDownloading"])
		}
		if policy["MaxActiveSessions"] != 1 {
			t.Errorf("MaxActiveSessions = %v, want 1", policy["MaxActiveSessions"])
		}
		if policy["InvalidLoginAttemptCount"] != 3 {
			t.Errorf("InvalidLoginAttemptCount = %v, want 3", policy["InvalidLoginAttemptCount"])
		}
		if policy["IsAdministrator"] != false {
			t.Error("unrelated policy field did not survive the round trip")
		}
	})

	t.Run("second account for same user is refused", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		p := newProvisioner(jf, st)

		if _, err := p.Provision(ctx, 42); err != nil {
			t.Fatalf("first Provision() error = %v", err)
		}
		created := len(jf.created)

		_, err := p.Provision(ctx, 42)
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("second Provision() error = %v, want ErrAlreadyExists", err)
		}
		if len(jf.created) != created {
			t.Error("remote user was created despite existing account")
		}
	})

	t.Run("create failure leaves no record", func(t *testing.T) {
		jf := newFakeJellyfin()
		jf.createErr = errors.New("server down")
		st := newFakeAccountStore()
		p := newProvisioner(jf, st)

		if _, err := p.Provision(ctx, 42); err == nil {
			t.Fatal("Provision() error = nil, want create failure")
		}
		if len(st.accounts) != 0 {
			t.Error("record persisted after failed provisioning")
		}
	})

	t.Run("policy failure cleans up the remote user", func(t *testing.T) {
		jf := newFakeJellyfin()
		jf.policyErr = errors.New("policy rejected")
		st := newFakeAccountStore()
		p := newProvisioner(jf, st)

		if _, err := p.Provision(ctx, 42); err == nil {
			t.Fatal("Provision() error = nil, want policy failure")
		}
		if len(jf.policies) != 0 {
			t.Error("remote user left behind after aborted provisioning")
		}
		if len(st.accounts) != 0 {
			t.Error("record persisted after aborted provisioning")
		}
	})

	t.Run("ledger insert failure cleans up the remote user", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		st.insertErr = errors.New("disk full")
		p := newProvisioner(jf, st)

		if _, err := p.Provision(ctx, 42); err == nil {
			t.Fatal("Provision() error = nil, want insert failure")
		}
		if len(jf.policies) != 0 {
			t.Error("remote user left behind after failed insert")
		}
	})
}

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	newSweeper := func(jf jellyfin.API, st Store) *Sweeper {
		s := NewSweeper(jf, st, time.Minute)
		s.now = func() time.Time { return fixed }
		return s
	}

	seed := func(st *fakeAccountStore, jf *fakeJellyfin, userID int64, jfID string, deletion time.Time) {
		st.accounts[userID] = store.TemporaryAccount{
			UserID:         userID,
			JellyfinUserID: jfID,
			DeletionTime:   deletion,
		}
		jf.policies[jfID] = jellyfin.Policy{}
	}

	t.Run("expired accounts are deleted remote then local", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		seed(st, jf, 1, "jf-old", fixed.Add(-time.Hour))
		seed(st, jf, 2, "jf-fresh", fixed.Add(time.Hour))
		s := newSweeper(jf, st)

		deleted, err := s.SweepOnce(ctx)
		if err != nil {
			t.Fatalf("SweepOnce() error = %v", err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}
		if _, ok := st.accounts[1]; ok {
			t.Error("expired record survived the sweep")
		}
		if _, ok := st.accounts[2]; !ok {
			t.Error("unexpired record was swept")
		}
		if _, ok := jf.policies["jf-fresh"]; !ok {
			t.Error("unexpired remote user was deleted")
		}
	})

	t.Run("expiry exactly now is not yet expired", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		seed(st, jf, 1, "jf-edge", fixed)
		s := newSweeper(jf, st)

		deleted, err := s.SweepOnce(ctx)
		if err != nil {
			t.Fatalf("SweepOnce() error = %v", err)
		}
		if deleted != 0 {
			t.Errorf("deleted = %d, want 0 for boundary expiry", deleted)
		}
	})

	t.Run("remote already gone still clears the record", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		// Record exists locally but the remote user was deleted by hand.
		st.accounts[1] = store.TemporaryAccount{
			UserID:         1,
			JellyfinUserID: "jf-gone",
			DeletionTime:   fixed.Add(-time.Hour),
		}
		s := newSweeper(jf, st)

		deleted, err := s.SweepOnce(ctx)
		if err != nil {
			t.Fatalf("SweepOnce() error = %v", err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}
		if len(st.accounts) != 0 {
			t.Error("orphaned record survived the sweep")
		}
	})

	t.Run("remote failure retains the record for the next pass", func(t *testing.T) {
		jf := newFakeJellyfin()
		jf.deleteErr = errors.New("timeout")
		st := newFakeAccountStore()
		seed(st, jf, 1, "jf-stuck", fixed.Add(-time.Hour))
		s := newSweeper(jf, st)

		deleted, err := s.SweepOnce(ctx)
		if err != nil {
			t.Fatalf("SweepOnce() error = %v", err)
		}
		if deleted != 0 {
			t.Errorf("deleted = %d, want 0", deleted)
		}
		if _, ok := st.accounts[1]; !ok {
			t.Error("record removed although the remote delete failed")
		}
	})

	t.Run("ledger read failure is returned", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		st.listErr = errors.New("db closed")
		s := newSweeper(jf, st)

		if _, err := s.SweepOnce(ctx); err == nil {
			t.Fatal("SweepOnce() error = nil, want ledger error")
		}
	})

	t.Run("one bad account does not block the rest", func(t *testing.T) {
		jf := newFakeJellyfin()
		st := newFakeAccountStore()
		seed(st, jf, 1, "jf-a", fixed.Add(-2*time.Hour))
		seed(st, jf, 2, "jf-b", fixed.Add(-time.Hour))
		s := newSweeper(jf, st)

		// First remote delete fails, then recovery.
		calls := 0
		failing := &flakyJellyfin{fakeJellyfin: jf, failOn: func() bool {
			calls++
			return calls == 1
		}}
		s.jf = failing

		deleted, err := s.SweepOnce(ctx)
		if err != nil {
			t.Fatalf("SweepOnce() error = %v", err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want the remaining account swept", deleted)
		}
	})
}

// flakyJellyfin wraps the fake to fail selected DeleteUser calls.
type flakyJellyfin struct {
	*fakeJellyfin
	failOn func() bool
}

func (f *flakyJellyfin) DeleteUser(ctx context.Context, userID string) error {
	if f.failOn() {
		return errors.New("transient")
	}
	return f.fakeJellyfin.DeleteUser(ctx, userID)
}

func TestCredentials(t *testing.T) {
	t.Run("usernames are guest prefixed and unique", func(t *testing.T) {
		a, b := newUsername(), newUsername()
		if a == b {
			t.Errorf("two generated usernames collided: %q", a)
		}
		for _, u := range []string{a, b} {
			if len(u) != len("guest-")+8 {
				t.Errorf("username %q has unexpected shape", u)
			}
		}
	})

	t.Run("passwords are 15 chars of lowercase and digits", func(t *testing.T) {
		pw, err := newPassword()
		if err != nil {
			t.Fatalf("newPassword() error = %v", err)
		}
		if len(pw) != 15 {
			t.Errorf("password length = %d, want 15", len(pw))
		}
		for _, r := range pw {
			if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
				t.Errorf("password contains unexpected char %q", r)
			}
		}
	})
}
