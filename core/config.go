package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultThreshold      = 20
	DefaultTokenURL       = "https://accounts.spotify.com/api/token"
	DefaultRegistrarURL   = "https://developer.spotify.com/api/ws4d/warp/clients"
	DefaultRequestTimeout = 30 * time.Second
	DefaultStorageDriver  = "sqlite3"
	DefaultStorageDSN     = "file:whitelist.db?cache=shared&_foreign_keys=on"
)

type StorageConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
	Debug  bool   `koanf:"debug" mapstructure:"debug"`
}

type RemoteConfig struct {
	TokenURL          string        `koanf:"token_url" mapstructure:"token_url"`
	RegistrarURL      string        `koanf:"registrar_url" mapstructure:"registrar_url"`
	RemoveURL         string        `koanf:"remove_url" mapstructure:"remove_url"`
	RequestTimeout    time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second" mapstructure:"requests_per_second"`
}

type Config struct {
	ServiceName string `koanf:"service_name" mapstructure:"service_name"`
	// Threshold is the registry capacity; admissions beyond it evict the oldest member.
	Threshold int `koanf:"threshold" mapstructure:"threshold"`
	// AppID identifies the gated application on the third party.
	AppID string `koanf:"app_id" mapstructure:"app_id"`
	// ClientID is sent with refresh requests.
	ClientID     string        `koanf:"client_id" mapstructure:"client_id"`
	InitialToken string        `koanf:"initial_token" mapstructure:"initial_token"`
	Storage      StorageConfig `koanf:"storage" mapstructure:"storage"`
	Remote       RemoteConfig  `koanf:"remote" mapstructure:"remote"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "whitelist",
		Threshold:   DefaultThreshold,
		Storage: StorageConfig{
			Driver: DefaultStorageDriver,
			DSN:    DefaultStorageDSN,
		},
		Remote: RemoteConfig{
			TokenURL:       DefaultTokenURL,
			RegistrarURL:   DefaultRegistrarURL,
			RequestTimeout: DefaultRequestTimeout,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("core: threshold must be positive, got %d", c.Threshold)
	}
	if c.Remote.RequestsPerSecond < 0 {
		return fmt.Errorf("core: remote.requests_per_second must not be negative")
	}
	return nil
}

// ValidateRemote checks the fields the remote collaborators cannot work without.
func (c Config) ValidateRemote() error {
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("core: app_id is required")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("core: client_id is required")
	}
	if strings.TrimSpace(c.Remote.TokenURL) == "" {
		return fmt.Errorf("core: remote.token_url is required")
	}
	if strings.TrimSpace(c.Remote.RegistrarURL) == "" {
		return fmt.Errorf("core: remote.registrar_url is required")
	}
	return nil
}
