package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-whitelist/core"
)

var (
	_ gocmd.Commander[AdmitMemberMessage]       = (*AdmitMemberCommand)(nil)
	_ gocmd.Commander[RemoveMemberMessage]      = (*RemoveMemberCommand)(nil)
	_ gocmd.Commander[RefreshCredentialMessage] = (*RefreshCredentialCommand)(nil)

	_ MutatingService = (*core.Coordinator)(nil)
	_ MutatingService = (*core.Serialized)(nil)
)
