package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	AdmissionLockKey         = "whitelist.admission"
	defaultAdmissionLockTTL  = 2 * time.Minute
	defaultLockRetryInterval = 50 * time.Millisecond
)

var ErrLockHeld = errors.New("core: lock already held")

// MemoryLocker is an in-process Locker. Locks expire after their ttl.
type MemoryLocker struct {
	mu     sync.Mutex
	locks  map[string]memoryLease
	nextID uint64
	nowFn  Clock
}

type memoryLease struct {
	id    uint64
	until time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]memoryLease),
		nowFn: SystemClock,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (LockHandle, error) {
	if l == nil {
		return nil, fmt.Errorf("core: locker is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("core: lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultAdmissionLockTTL
	}

	now := l.nowFn()
	l.mu.Lock()
	defer l.mu.Unlock()

	if lease, ok := l.locks[key]; ok && now.Before(lease.until) {
		return nil, fmt.Errorf("%w: %q", ErrLockHeld, key)
	}
	l.nextID++
	l.locks[key] = memoryLease{id: l.nextID, until: now.Add(ttl)}
	return &memoryLockHandle{locker: l, key: key, id: l.nextID}, nil
}

type memoryLockHandle struct {
	locker *MemoryLocker
	key    string
	id     uint64
	once   sync.Once
	err    error
}

// Unlock releases the lease only while it is still the current one for the key. A lease that
// expired and was taken over is left to its new holder and Unlock reports it.
func (h *memoryLockHandle) Unlock(_ context.Context) error {
	if h == nil || h.locker == nil {
		return nil
	}
	h.once.Do(func() {
		h.locker.mu.Lock()
		defer h.locker.mu.Unlock()
		lease, ok := h.locker.locks[h.key]
		if !ok || lease.id != h.id {
			h.err = fmt.Errorf("core: lock %q is no longer held by this caller", h.key)
			return
		}
		delete(h.locker.locks, h.key)
	})
	return h.err
}

// SerializedOptions tunes how Serialized waits for the admission lock.
type SerializedOptions struct {
	LockTTL       time.Duration
	RetryInterval time.Duration
}

// Serialized runs registry mutations one at a time under a Locker, giving the
// coordinator the single-writer access it assumes.
type Serialized struct {
	coordinator *Coordinator
	locker      Locker
	opts        SerializedOptions
}

func NewSerialized(coordinator *Coordinator, locker Locker, opts SerializedOptions) (*Serialized, error) {
	if coordinator == nil {
		return nil, fmt.Errorf("core: coordinator is required")
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultAdmissionLockTTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultLockRetryInterval
	}
	return &Serialized{coordinator: coordinator, locker: locker, opts: opts}, nil
}

func (s *Serialized) AddUser(ctx context.Context, mail string) (User, error) {
	var user User
	err := s.withLock(ctx, func() error {
		var addErr error
		user, addErr = s.coordinator.AddUser(ctx, mail)
		return addErr
	})
	return user, err
}

func (s *Serialized) RemoveUser(ctx context.Context, mail string) (User, error) {
	var user User
	err := s.withLock(ctx, func() error {
		var removeErr error
		user, removeErr = s.coordinator.RemoveUser(ctx, mail)
		return removeErr
	})
	return user, err
}

func (s *Serialized) ListUsers(ctx context.Context) ([]User, error) {
	return s.coordinator.ListUsers(ctx)
}

func (s *Serialized) CredentialState(ctx context.Context) (CredentialState, error) {
	return s.coordinator.CredentialState(ctx)
}

// Admit is AddUser in Result form.
func (s *Serialized) Admit(ctx context.Context, mail string) Result[User] {
	return ResultOf(s.AddUser(ctx, mail))
}

func (s *Serialized) RefreshCredential(ctx context.Context) (Token, error) {
	var token Token
	err := s.withLock(ctx, func() error {
		var refreshErr error
		token, refreshErr = s.coordinator.RefreshCredential(ctx)
		return refreshErr
	})
	return token, err
}

func (s *Serialized) withLock(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		handle, err := s.locker.Acquire(ctx, AdmissionLockKey, s.opts.LockTTL)
		if err == nil {
			defer func() {
				_ = handle.Unlock(context.WithoutCancel(ctx))
			}()
			return fn()
		}
		if !errors.Is(err, ErrLockHeld) {
			return NewKindError(KindGeneric, "could not acquire the admission lock", err)
		}
		if waitErr := waitWithContext(ctx, s.opts.RetryInterval); waitErr != nil {
			return NewKindError(KindGeneric, "gave up waiting for the admission lock", waitErr)
		}
	}
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
