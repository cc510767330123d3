package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type CredentialState string

const (
	CredentialValid   CredentialState = "valid"
	CredentialExpired CredentialState = "expired"
)

// ResolveCredentialState classifies token against now. A token expiring exactly at now is expired.
func ResolveCredentialState(now time.Time, token Token) CredentialState {
	if token.ExpiredAt(now) {
		return CredentialExpired
	}
	return CredentialValid
}

// CredentialLifecycle owns the Valid/Expired cycle of the single stored credential.
type CredentialLifecycle struct {
	store     CredentialStore
	refresher CredentialRefresher
	clock     Clock
}

func NewCredentialLifecycle(store CredentialStore, refresher CredentialRefresher, clock Clock) (*CredentialLifecycle, error) {
	if store == nil {
		return nil, fmt.Errorf("core: credential store is required")
	}
	if refresher == nil {
		return nil, fmt.Errorf("core: credential refresher is required")
	}
	if clock == nil {
		clock = SystemClock
	}
	return &CredentialLifecycle{store: store, refresher: refresher, clock: clock}, nil
}

// Get returns the stored credential with no side effect.
func (l *CredentialLifecycle) Get(ctx context.Context) (Token, error) {
	return l.store.Get(ctx)
}

func (l *CredentialLifecycle) State(ctx context.Context) (CredentialState, Token, error) {
	token, err := l.store.Get(ctx)
	if err != nil {
		return "", Token{}, err
	}
	return ResolveCredentialState(l.clock(), token), token, nil
}

// Refresh exchanges the stored refresh credential and replaces the stored token.
// A single attempt is made.
func (l *CredentialLifecycle) Refresh(ctx context.Context) (Token, error) {
	current, err := l.store.Get(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("core: read credential: %w", err)
	}
	return l.refreshFrom(ctx, current)
}

// Ensure returns a Valid credential, refreshing once when the stored one is Expired.
func (l *CredentialLifecycle) Ensure(ctx context.Context) (token Token, refreshed bool, err error) {
	current, err := l.store.Get(ctx)
	if err != nil {
		return Token{}, false, fmt.Errorf("core: read credential: %w", err)
	}
	if ResolveCredentialState(l.clock(), current) == CredentialValid {
		return current, false, nil
	}
	token, err = l.refreshFrom(ctx, current)
	if err != nil {
		return Token{}, false, err
	}
	return token, true, nil
}

func (l *CredentialLifecycle) refreshFrom(ctx context.Context, current Token) (Token, error) {
	next, err := l.refresher.Refresh(ctx, current)
	if err != nil {
		return Token{}, fmt.Errorf("core: refresh credential: %w", err)
	}
	stored, err := l.store.Replace(ctx, next)
	if err != nil {
		return Token{}, fmt.Errorf("core: store refreshed credential: %w", err)
	}
	return stored, nil
}

// BootstrapCredential guarantees store holds a credential before first use. An
// empty store is seeded from seed, stamped expired; any other failure is fatal
// for the caller.
func BootstrapCredential(ctx context.Context, store CredentialStore, seed string) (Token, bool, error) {
	if store == nil {
		return Token{}, false, fmt.Errorf("core: credential store is required")
	}
	existing, err := store.Get(ctx)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrCredentialNotFound) {
		return Token{}, false, fmt.Errorf("core: credential store unreadable at bootstrap: %w", err)
	}
	token, err := ParseSeedToken(seed)
	if err != nil {
		return Token{}, false, fmt.Errorf("core: no stored credential and no usable seed: %w", err)
	}
	stored, err := store.Replace(ctx, token)
	if err != nil {
		return Token{}, false, fmt.Errorf("core: store seed credential: %w", err)
	}
	return stored, true, nil
}
