package spotify

import (
	"fmt"

	"github.com/goliatone/go-whitelist/core"
)

// Collaborators holds the remote ports built from a resolved core.Config.
type Collaborators struct {
	Refresher *Refresher
	Registrar core.Registrar
}

// FromConfig builds the refresher and the (optionally rate limited) registrar.
// httpClient and clock may be nil.
func FromConfig(cfg core.Config, httpClient HTTPDoer, clock core.Clock) (Collaborators, error) {
	if err := cfg.ValidateRemote(); err != nil {
		return Collaborators{}, fmt.Errorf("spotify: %w", err)
	}
	refresher, err := NewRefresher(RefresherConfig{
		TokenURL:       cfg.Remote.TokenURL,
		ClientID:       cfg.ClientID,
		RequestTimeout: cfg.Remote.RequestTimeout,
		Now:            clock,
		HTTPClient:     httpClient,
	})
	if err != nil {
		return Collaborators{}, err
	}
	registrar, err := NewRegistrar(RegistrarConfig{
		RegistrarURL:   cfg.Remote.RegistrarURL,
		RemoveURL:      cfg.Remote.RemoveURL,
		AppID:          cfg.AppID,
		RequestTimeout: cfg.Remote.RequestTimeout,
		HTTPClient:     httpClient,
	})
	if err != nil {
		return Collaborators{}, err
	}
	limited, err := NewRateLimitedRegistrar(registrar, cfg.Remote.RequestsPerSecond)
	if err != nil {
		return Collaborators{}, err
	}
	return Collaborators{Refresher: refresher, Registrar: limited}, nil
}
