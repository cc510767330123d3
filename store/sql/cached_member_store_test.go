package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-whitelist/core"
)

type stubMemberStore struct {
	mu          sync.Mutex
	members     []core.User
	listCalls   int
	insertErr   error
	deleteCalls int
}

func (s *stubMemberStore) List(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]core.User(nil), s.members...), nil
}

func (s *stubMemberStore) Insert(_ context.Context, user core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return core.User{}, s.insertErr
	}
	s.members = append(s.members, user)
	return user, nil
}

func (s *stubMemberStore) Delete(_ context.Context, mail core.Mail) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	for idx, member := range s.members {
		if member.Mail == mail {
			s.members = append(s.members[:idx], s.members[idx+1:]...)
			return member, nil
		}
	}
	return core.User{}, core.ErrMemberNotFound
}

func TestCachedMemberStore_ListMissFetchThenHit(t *testing.T) {
	base := &stubMemberStore{members: []core.User{
		{Mail: core.MustParseMail("a@example.com"), CreationDate: time.Now().UTC()},
	}}
	store, err := NewCachedMemberStore(base, newTestMemberCacheService(t))
	if err != nil {
		t.Fatalf("new cached member store: %v", err)
	}
	ctx := context.Background()

	for range 3 {
		users, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(users) != 1 {
			t.Fatalf("expected one member, got %d", len(users))
		}
	}
	if base.listCalls != 1 {
		t.Fatalf("expected a single base list call, got %d", base.listCalls)
	}
}

func TestCachedMemberStore_WritesInvalidate(t *testing.T) {
	base := &stubMemberStore{}
	store, err := NewCachedMemberStore(base, newTestMemberCacheService(t))
	if err != nil {
		t.Fatalf("new cached member store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := store.Insert(ctx, core.User{Mail: core.MustParseMail("a@example.com"), CreationDate: time.Now().UTC()}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	users, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected insert to be visible, got %d members", len(users))
	}

	if _, err := store.Delete(ctx, core.MustParseMail("a@example.com")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	users, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected delete to be visible, got %d members", len(users))
	}
	if base.listCalls != 3 {
		t.Fatalf("expected each write to force a refetch, got %d list calls", base.listCalls)
	}

	base.insertErr = errors.New("disk full")
	if _, err := store.Insert(ctx, core.User{Mail: core.MustParseMail("b@example.com")}); err == nil {
		t.Fatalf("expected base insert error to surface")
	}
}

func TestNewCachedMemberStore_RequiresDependencies(t *testing.T) {
	if _, err := NewCachedMemberStore(nil, newTestMemberCacheService(t)); err == nil {
		t.Fatalf("expected missing base store error")
	}
	if _, err := NewCachedMemberStore(&stubMemberStore{}, nil); err == nil {
		t.Fatalf("expected missing cache service error")
	}
}

func newTestMemberCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
