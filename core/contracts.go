package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Clock supplies the current instant. Components never read the system clock directly.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// CredentialStore persists exactly one Token.
type CredentialStore interface {
	Get(ctx context.Context) (Token, error)
	// Replace atomically removes any stored credential and stores token.
	Replace(ctx context.Context, token Token) (Token, error)
}

// CredentialRefresher exchanges the refresh credential for a new access credential.
type CredentialRefresher interface {
	Refresh(ctx context.Context, current Token) (Token, error)
}

// MemberStore persists the registry of users keyed by mail.
type MemberStore interface {
	List(ctx context.Context) ([]User, error)
	// Insert fails with ErrMemberExists when the mail is already stored.
	Insert(ctx context.Context, user User) (User, error)
	// Delete fails with ErrMemberNotFound when no row matched.
	Delete(ctx context.Context, mail Mail) (User, error)
}

// Registrar performs the privileged add/remove calls against the third party.
type Registrar interface {
	Add(ctx context.Context, mail Mail, token Token) (User, error)
	Delete(ctx context.Context, mail Mail, token Token) (User, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// Locker grants exclusive, time-bounded ownership of key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (LockHandle, error)
}

type LockHandle interface {
	Unlock(ctx context.Context) error
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
