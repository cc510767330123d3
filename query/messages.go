package query

const (
	TypeListMembers     = "whitelist.query.members.list"
	TypeCredentialState = "whitelist.query.credential.state"
)

type ListMembersMessage struct{}

func (ListMembersMessage) Type() string { return TypeListMembers }

type CredentialStateMessage struct{}

func (CredentialStateMessage) Type() string { return TypeCredentialState }
