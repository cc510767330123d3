package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-whitelist/core"
	"github.com/ilyakaznacheev/cleanenv"
)

// fileConfig is the on-disk/env shape. Empty fields fall through to core defaults.
type fileConfig struct {
	ServiceName  string `yaml:"service_name" env:"WHITELIST_SERVICE_NAME"`
	Threshold    int    `yaml:"threshold" env:"WHITELIST_THRESHOLD"`
	AppID        string `yaml:"app_id" env:"WHITELIST_APP_ID"`
	ClientID     string `yaml:"client_id" env:"WHITELIST_CLIENT_ID"`
	InitialToken string `yaml:"initial_token" env:"WHITELIST_INITIAL_TOKEN"`
	Storage      struct {
		Driver string `yaml:"driver" env:"WHITELIST_STORAGE_DRIVER"`
		DSN    string `yaml:"dsn" env:"WHITELIST_STORAGE_DSN"`
		Debug  bool   `yaml:"debug" env:"WHITELIST_STORAGE_DEBUG"`
	} `yaml:"storage"`
	Remote struct {
		TokenURL          string        `yaml:"token_url" env:"WHITELIST_TOKEN_URL"`
		RegistrarURL      string        `yaml:"registrar_url" env:"WHITELIST_REGISTRAR_URL"`
		RemoveURL         string        `yaml:"remove_url" env:"WHITELIST_REMOVE_URL"`
		RequestTimeout    time.Duration `yaml:"request_timeout" env:"WHITELIST_REQUEST_TIMEOUT"`
		RequestsPerSecond float64       `yaml:"requests_per_second" env:"WHITELIST_REQUESTS_PER_SECOND"`
	} `yaml:"remote"`
	Runtime runtimeSettings `yaml:"runtime"`
}

// runtimeSettings only concern the process wiring, not the coordinator.
type runtimeSettings struct {
	LogLevel      string        `yaml:"log_level" env:"WHITELIST_LOG_LEVEL" env-default:"info"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env:"WHITELIST_CACHE_TTL"`
	LockTTL       time.Duration `yaml:"lock_ttl" env:"WHITELIST_LOCK_TTL" env-default:"2m"`
	RedisAddr     string        `yaml:"redis_addr" env:"WHITELIST_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"WHITELIST_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"WHITELIST_REDIS_DB"`
}

func readFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return fileConfig{}, fmt.Errorf("config: read env: %w", err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// cleanenvLoader feeds a fileConfig into the cfgx/go-options layering as the "config" layer.
type cleanenvLoader struct {
	cfg fileConfig
}

func (l cleanenvLoader) LoadRaw(context.Context) (map[string]any, error) {
	return l.cfg.raw(), nil
}

func (c fileConfig) raw() map[string]any {
	out := map[string]any{}
	putString(out, "service_name", c.ServiceName)
	if c.Threshold != 0 {
		out["threshold"] = c.Threshold
	}
	putString(out, "app_id", c.AppID)
	putString(out, "client_id", c.ClientID)
	putString(out, "initial_token", c.InitialToken)

	storage := map[string]any{}
	putString(storage, "driver", c.Storage.Driver)
	putString(storage, "dsn", c.Storage.DSN)
	if c.Storage.Debug {
		storage["debug"] = true
	}
	if len(storage) > 0 {
		out["storage"] = storage
	}

	remote := map[string]any{}
	putString(remote, "token_url", c.Remote.TokenURL)
	putString(remote, "registrar_url", c.Remote.RegistrarURL)
	putString(remote, "remove_url", c.Remote.RemoveURL)
	if c.Remote.RequestTimeout > 0 {
		remote["request_timeout"] = c.Remote.RequestTimeout
	}
	if c.Remote.RequestsPerSecond > 0 {
		remote["requests_per_second"] = c.Remote.RequestsPerSecond
	}
	if len(remote) > 0 {
		out["remote"] = remote
	}
	return out
}

func putString(target map[string]any, key string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		target[key] = value
	}
}

// resolveConfig layers defaults < file/env < nothing at runtime.
func resolveConfig(ctx context.Context, fc fileConfig) (core.Config, error) {
	provider := core.NewCfgxConfigProvider(cleanenvLoader{cfg: fc})
	return core.ResolveConfig(ctx, core.Config{}, provider, nil)
}

var _ core.RawConfigLoader = cleanenvLoader{}
