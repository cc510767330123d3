package sqlstore

import (
	"context"
	"fmt"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-whitelist/core"
)

// MemberListCacheKey is the single cache entry holding the full registry listing.
const MemberListCacheKey = "go-whitelist::members::v1::all"

// CachedMemberStore serves List from cache and invalidates it on every write.
type CachedMemberStore struct {
	base  core.MemberStore
	cache repositorycache.CacheService
}

func NewCachedMemberStore(base core.MemberStore, cacheService repositorycache.CacheService) (*CachedMemberStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base member store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: member cache service is required")
	}
	return &CachedMemberStore{base: base, cache: cacheService}, nil
}

func (s *CachedMemberStore) List(ctx context.Context) ([]core.User, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached member store is not configured")
	}
	users, err := repositorycache.GetOrFetch(ctx, s.cache, MemberListCacheKey, func(ctx context.Context) ([]core.User, error) {
		fetched, fetchErr := s.base.List(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return cloneUsers(fetched), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneUsers(users), nil
}

func (s *CachedMemberStore) Insert(ctx context.Context, user core.User) (core.User, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.User{}, fmt.Errorf("sqlstore: cached member store is not configured")
	}
	inserted, err := s.base.Insert(ctx, user)
	if invalidateErr := s.invalidate(ctx); invalidateErr != nil && err == nil {
		return core.User{}, invalidateErr
	}
	return inserted, err
}

func (s *CachedMemberStore) Delete(ctx context.Context, mail core.Mail) (core.User, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.User{}, fmt.Errorf("sqlstore: cached member store is not configured")
	}
	deleted, err := s.base.Delete(ctx, mail)
	if invalidateErr := s.invalidate(ctx); invalidateErr != nil && err == nil {
		return core.User{}, invalidateErr
	}
	return deleted, err
}

func (s *CachedMemberStore) invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, MemberListCacheKey)
}

func cloneUsers(users []core.User) []core.User {
	if users == nil {
		return []core.User{}
	}
	return append([]core.User(nil), users...)
}
