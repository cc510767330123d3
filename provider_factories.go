package whitelist

import (
	"github.com/goliatone/go-whitelist/providers/spotify"
)

// SpotifyCollaborators builds the credential refresher and registrar for cfg.
// httpClient and clock may be nil.
func SpotifyCollaborators(cfg Config, httpClient spotify.HTTPDoer, clock Clock) (CredentialRefresher, Registrar, error) {
	collaborators, err := spotify.FromConfig(cfg, httpClient, clock)
	if err != nil {
		return nil, nil, err
	}
	return collaborators.Refresher, collaborators.Registrar, nil
}
