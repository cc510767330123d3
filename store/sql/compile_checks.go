package sqlstore

import "github.com/goliatone/go-whitelist/core"

var (
	_ core.CredentialStore = (*CredentialStore)(nil)
	_ core.MemberStore     = (*MemberStore)(nil)
	_ core.MemberStore     = (*CachedMemberStore)(nil)
)
