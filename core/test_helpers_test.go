package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

const testSeedToken = `{"access_token":"seed-access","token_type":"Bearer","expires_in":3600,"refresh_token":"seed-refresh","scope":"user-read-email"}`

var testEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// callLog records collaborator calls in order so tests can assert sequencing.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(format string, args ...any) {
	l.mu.Lock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *callLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) Count(call string) int {
	count := 0
	for _, recorded := range l.Calls() {
		if recorded == call {
			count++
		}
	}
	return count
}

func (l *callLog) Reset() {
	l.mu.Lock()
	l.calls = nil
	l.mu.Unlock()
}

type memoryCredentialStore struct {
	mu         sync.Mutex
	token      *Token
	getErr     error
	replaceErr error
	log        *callLog
}

func (s *memoryCredentialStore) Get(context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("credentials.get")
	if s.getErr != nil {
		return Token{}, s.getErr
	}
	if s.token == nil {
		return Token{}, ErrCredentialNotFound
	}
	return *s.token, nil
}

func (s *memoryCredentialStore) Replace(_ context.Context, token Token) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("credentials.replace")
	if s.replaceErr != nil {
		return Token{}, s.replaceErr
	}
	stored := token
	s.token = &stored
	return token, nil
}

func (s *memoryCredentialStore) Stored() (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return Token{}, false
	}
	return *s.token, true
}

type memoryMemberStore struct {
	mu        sync.Mutex
	members   []User
	listErr   error
	insertErr error
	deleteErr error
	log       *callLog
}

func (s *memoryMemberStore) List(context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("members.list")
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]User(nil), s.members...), nil
}

func (s *memoryMemberStore) Insert(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("members.insert:%s", user.Mail)
	if s.insertErr != nil {
		return User{}, s.insertErr
	}
	for _, member := range s.members {
		if member.Mail == user.Mail {
			return User{}, ErrMemberExists
		}
	}
	s.members = append(s.members, user)
	return user, nil
}

func (s *memoryMemberStore) Delete(_ context.Context, mail Mail) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("members.delete:%s", mail)
	if s.deleteErr != nil {
		return User{}, s.deleteErr
	}
	for idx, member := range s.members {
		if member.Mail == mail {
			s.members = append(s.members[:idx], s.members[idx+1:]...)
			return member, nil
		}
	}
	return User{}, ErrMemberNotFound
}

func (s *memoryMemberStore) Mails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	mails := make([]string, 0, len(s.members))
	for _, member := range s.members {
		mails = append(mails, member.Mail.String())
	}
	sort.Strings(mails)
	return mails
}

type stubRefresher struct {
	mu       sync.Mutex
	clock    *testClock
	lifetime time.Duration
	err      error
	calls    int
	log      *callLog
}

func (r *stubRefresher) Refresh(_ context.Context, current Token) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.record("refresh")
	r.calls++
	if r.err != nil {
		return Token{}, r.err
	}
	lifetime := r.lifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return Token{
		AccessToken:  fmt.Sprintf("access-%d", r.calls),
		TokenType:    "Bearer",
		ExpiresIn:    int64(lifetime / time.Second),
		RefreshToken: current.RefreshToken,
		Scope:        current.Scope,
		ExpiresAt:    r.clock.Now().Add(lifetime),
	}, nil
}

type stubRegistrar struct {
	mu        sync.Mutex
	addErr    error
	deleteErr error
	tokens    []string
	remote    map[Mail]bool
	log       *callLog
}

func (r *stubRegistrar) Add(_ context.Context, mail Mail, token Token) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.record("registrar.add:%s", mail)
	r.tokens = append(r.tokens, token.AccessToken)
	if r.addErr != nil {
		return User{}, r.addErr
	}
	if r.remote == nil {
		r.remote = map[Mail]bool{}
	}
	r.remote[mail] = true
	return User{Mail: mail}, nil
}

func (r *stubRegistrar) Delete(_ context.Context, mail Mail, token Token) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.record("registrar.delete:%s", mail)
	r.tokens = append(r.tokens, token.AccessToken)
	if r.deleteErr != nil {
		return User{}, r.deleteErr
	}
	delete(r.remote, mail)
	return User{Mail: mail}, nil
}

func (r *stubRegistrar) RemoteMails() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	mails := make([]string, 0, len(r.remote))
	for mail := range r.remote {
		mails = append(mails, mail.String())
	}
	sort.Strings(mails)
	return mails
}

type coordinatorHarness struct {
	coordinator *Coordinator
	clock       *testClock
	log         *callLog
	credentials *memoryCredentialStore
	members     *memoryMemberStore
	refresher   *stubRefresher
	registrar   *stubRegistrar
}

func newCoordinatorHarness(t *testing.T, threshold int) *coordinatorHarness {
	t.Helper()
	h := newUnbuiltHarness()
	h.build(t, Config{Threshold: threshold, InitialToken: testSeedToken})
	return h
}

func newUnbuiltHarness() *coordinatorHarness {
	log := &callLog{}
	clock := newTestClock(testEpoch)
	return &coordinatorHarness{
		clock:       clock,
		log:         log,
		credentials: &memoryCredentialStore{log: log},
		members:     &memoryMemberStore{log: log},
		refresher:   &stubRefresher{clock: clock, log: log},
		registrar:   &stubRegistrar{log: log},
	}
}

func (h *coordinatorHarness) options() []Option {
	return []Option{
		WithClock(h.clock.Now),
		WithCredentialStore(h.credentials),
		WithCredentialRefresher(h.refresher),
		WithMemberStore(h.members),
		WithRegistrar(h.registrar),
	}
}

func (h *coordinatorHarness) build(t *testing.T, cfg Config) {
	t.Helper()
	coordinator, err := NewCoordinator(cfg, h.options()...)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	h.coordinator = coordinator
	h.log.Reset()
}

func (h *coordinatorHarness) mustAdd(t *testing.T, mail string) User {
	t.Helper()
	user, err := h.coordinator.AddUser(context.Background(), mail)
	if err != nil {
		t.Fatalf("add %s: %v", mail, err)
	}
	return user
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil error", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

func assertCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for idx := range want {
		if got[idx] != want[idx] {
			t.Fatalf("expected calls %v, got %v", want, got)
		}
	}
}
