package spotify

import "github.com/goliatone/go-whitelist/core"

var (
	_ core.CredentialRefresher = (*Refresher)(nil)
	_ core.Registrar           = (*Registrar)(nil)
	_ core.Registrar           = (*RateLimitedRegistrar)(nil)
)
