package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-whitelist/core"
)

var (
	_ gocmd.Querier[ListMembersMessage, []core.User]              = (*ListMembersQuery)(nil)
	_ gocmd.Querier[CredentialStateMessage, core.CredentialState] = (*CredentialStateQuery)(nil)

	_ MemberReader          = (*core.Coordinator)(nil)
	_ MemberReader          = (*core.Serialized)(nil)
	_ CredentialStateReader = (*core.Coordinator)(nil)
)
