package redislock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-whitelist/core"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "go-whitelist:lock:"
	defaultTTL       = 2 * time.Minute
)

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Client is the subset of *redis.Client the locker needs.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	const op = "redislock.NewClient"

	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("%s: address is required", op)
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

// Locker implements core.Locker on top of SET NX with a per-acquisition token.
type Locker struct {
	client  Client
	prefix  string
	tokenFn func() string
}

type Option func(*Locker)

func WithKeyPrefix(prefix string) Option {
	return func(l *Locker) {
		l.prefix = prefix
	}
}

func WithTokenFunc(fn func() string) Option {
	return func(l *Locker) {
		if fn != nil {
			l.tokenFn = fn
		}
	}
}

func New(client Client, opts ...Option) (*Locker, error) {
	if client == nil {
		return nil, fmt.Errorf("redislock: client is required")
	}
	l := &Locker{
		client:  client,
		prefix:  DefaultKeyPrefix,
		tokenFn: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (core.LockHandle, error) {
	const op = "redislock.Acquire"

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%s: lock key is required", op)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	fullKey := l.prefix + key
	token := l.tokenFn()

	acquired, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %q", core.ErrLockHeld, key)
	}
	return &handle{client: l.client, key: fullKey, token: token}, nil
}

type handle struct {
	client Client
	key    string
	token  string
}

// Unlock fails when the lock expired and was taken by someone else in the meantime.
func (h *handle) Unlock(ctx context.Context) error {
	const op = "redislock.Unlock"

	released, err := h.client.Eval(ctx, releaseScript, []string{h.key}, h.token).Int64()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if released == 0 {
		return fmt.Errorf("%s: lock %q no longer held", op, h.key)
	}
	return nil
}

var (
	_ core.Locker     = (*Locker)(nil)
	_ core.LockHandle = (*handle)(nil)
	_ Client          = (*redis.Client)(nil)
)
