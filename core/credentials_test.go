package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolveCredentialState(t *testing.T) {
	token := Token{ExpiresAt: testEpoch}

	if got := ResolveCredentialState(testEpoch.Add(-time.Nanosecond), token); got != CredentialValid {
		t.Fatalf("expected valid before expiry, got %q", got)
	}
	if got := ResolveCredentialState(testEpoch, token); got != CredentialExpired {
		t.Fatalf("expected expired at expiry instant, got %q", got)
	}
	if got := ResolveCredentialState(testEpoch.Add(time.Second), token); got != CredentialExpired {
		t.Fatalf("expected expired after expiry, got %q", got)
	}
}

func TestCredentialLifecycle_EnsureRefreshesSeedDespiteLifetime(t *testing.T) {
	log := &callLog{}
	clock := newTestClock(testEpoch)
	store := &memoryCredentialStore{log: log}
	refresher := &stubRefresher{clock: clock, log: log}

	seed, seeded, err := BootstrapCredential(context.Background(), store, testSeedToken)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if !seeded {
		t.Fatalf("expected empty store to be seeded")
	}
	if seed.ExpiresIn != 3600 || !seed.ExpiresAt.Equal(SeedExpiresAt) {
		t.Fatalf("unexpected seed %+v", seed)
	}

	lifecycle, err := NewCredentialLifecycle(store, refresher, clock.Now)
	if err != nil {
		t.Fatalf("new lifecycle: %v", err)
	}
	token, refreshed, err := lifecycle.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !refreshed || refresher.calls != 1 {
		t.Fatalf("expected seed to refresh on first use, refreshed=%v calls=%d", refreshed, refresher.calls)
	}
	if token.AccessToken != "access-1" {
		t.Fatalf("unexpected token %+v", token)
	}

	_, refreshed, err = lifecycle.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if refreshed {
		t.Fatalf("expected valid credential to be reused")
	}
}

func TestCredentialLifecycle_RefreshFailureKeepsStoredToken(t *testing.T) {
	log := &callLog{}
	clock := newTestClock(testEpoch)
	seed := Token{AccessToken: "old", RefreshToken: "r", ExpiresAt: SeedExpiresAt}
	store := &memoryCredentialStore{log: log, token: &seed}
	refresher := &stubRefresher{clock: clock, log: log, err: errors.New("invalid_grant")}

	lifecycle, err := NewCredentialLifecycle(store, refresher, clock.Now)
	if err != nil {
		t.Fatalf("new lifecycle: %v", err)
	}
	if _, _, err := lifecycle.Ensure(context.Background()); err == nil {
		t.Fatalf("expected refresh failure")
	}
	if log.Count("credentials.replace") != 0 {
		t.Fatalf("expected no replace on failed refresh")
	}
	state, _, err := lifecycle.State(context.Background())
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != CredentialExpired {
		t.Fatalf("expected credential to remain expired, got %q", state)
	}
}

func TestCredentialLifecycle_StoreReplaceFailure(t *testing.T) {
	log := &callLog{}
	clock := newTestClock(testEpoch)
	seed := Token{AccessToken: "old", RefreshToken: "r", ExpiresAt: SeedExpiresAt}
	store := &memoryCredentialStore{log: log, token: &seed, replaceErr: errors.New("readonly database")}
	refresher := &stubRefresher{clock: clock, log: log}

	lifecycle, err := NewCredentialLifecycle(store, refresher, clock.Now)
	if err != nil {
		t.Fatalf("new lifecycle: %v", err)
	}
	if _, err := lifecycle.Refresh(context.Background()); err == nil {
		t.Fatalf("expected replace failure to surface")
	}
}

func TestNewCredentialLifecycle_RequiresCollaborators(t *testing.T) {
	if _, err := NewCredentialLifecycle(nil, &stubRefresher{}, nil); err == nil {
		t.Fatalf("expected missing store to fail")
	}
	if _, err := NewCredentialLifecycle(&memoryCredentialStore{log: &callLog{}}, nil, nil); err == nil {
		t.Fatalf("expected missing refresher to fail")
	}
}

func TestBootstrapCredential(t *testing.T) {
	ctx := context.Background()

	existing := Token{AccessToken: "kept"}
	store := &memoryCredentialStore{log: &callLog{}, token: &existing}
	token, seeded, err := BootstrapCredential(ctx, store, "")
	if err != nil || seeded || token.AccessToken != "kept" {
		t.Fatalf("expected existing credential kept, got %+v seeded=%v err=%v", token, seeded, err)
	}

	empty := &memoryCredentialStore{log: &callLog{}}
	if _, _, err := BootstrapCredential(ctx, empty, ""); err == nil {
		t.Fatalf("expected missing seed to fail")
	}
	if _, _, err := BootstrapCredential(ctx, empty, `{"access_token":"a"}`); err == nil {
		t.Fatalf("expected incomplete seed to fail")
	}

	broken := &memoryCredentialStore{log: &callLog{}, getErr: errors.New("connection refused")}
	if _, _, err := BootstrapCredential(ctx, broken, testSeedToken); err == nil {
		t.Fatalf("expected unreadable store to fail")
	}
	if broken.log.Count("credentials.replace") != 0 {
		t.Fatalf("expected no seed written over an unreadable store")
	}
}
