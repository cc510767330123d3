package main

import (
	"context"
	"fmt"
	"io"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-whitelist/adapters/redislock"
	"github.com/goliatone/go-whitelist/core"
	"github.com/goliatone/go-whitelist/providers/spotify"
	sqlstore "github.com/goliatone/go-whitelist/store/sql"
)

// app owns every resource the CLI opens. Close releases them in reverse order.
type app struct {
	config      core.Config
	coordinator *core.Coordinator
	serialized  *core.Serialized
	closers     []io.Closer
}

type wiring struct {
	httpClient     spotify.HTTPDoer
	clock          core.Clock
	loggerProvider core.LoggerProvider
}

func buildApp(ctx context.Context, cfg core.Config, settings runtimeSettings, deps wiring) (*app, error) {
	out := &app{config: cfg}

	client, err := sqlstore.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	out.closers = append(out.closers, client)

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		out.Close()
		return nil, err
	}

	var members core.MemberStore = factory.MemberStore()
	if settings.CacheTTL > 0 {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = settings.CacheTTL
		cacheService, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("whitelist: member cache: %w", err)
		}
		cached, err := factory.CachedMemberStore(cacheService)
		if err != nil {
			out.Close()
			return nil, err
		}
		members = cached
	}

	remote, err := spotify.FromConfig(cfg, deps.httpClient, deps.clock)
	if err != nil {
		out.Close()
		return nil, err
	}

	opts := []core.Option{
		core.WithCredentialStore(factory.CredentialStore()),
		core.WithCredentialRefresher(remote.Refresher),
		core.WithMemberStore(members),
		core.WithRegistrar(remote.Registrar),
		core.WithLoggerProvider(deps.loggerProvider),
	}
	if deps.clock != nil {
		opts = append(opts, core.WithClock(deps.clock))
	}
	coordinator, err := core.NewCoordinator(cfg, opts...)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.coordinator = coordinator

	var locker core.Locker
	if settings.RedisAddr != "" {
		redisClient, err := redislock.NewClient(ctx, redislock.Options{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		})
		if err != nil {
			out.Close()
			return nil, err
		}
		out.closers = append(out.closers, redisClient)
		locker, err = redislock.New(redisClient)
		if err != nil {
			out.Close()
			return nil, err
		}
	}
	serialized, err := core.NewSerialized(coordinator, locker, core.SerializedOptions{LockTTL: settings.LockTTL})
	if err != nil {
		out.Close()
		return nil, err
	}
	out.serialized = serialized
	return out, nil
}

func (a *app) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}
