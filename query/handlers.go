package query

import (
	"context"

	"github.com/goliatone/go-whitelist/core"
)

type MemberReader interface {
	ListUsers(ctx context.Context) ([]core.User, error)
}

type CredentialStateReader interface {
	CredentialState(ctx context.Context) (core.CredentialState, error)
}

// ListMembersQuery returns members oldest first.
type ListMembersQuery struct {
	reader MemberReader
}

func NewListMembersQuery(reader MemberReader) *ListMembersQuery {
	return &ListMembersQuery{reader: reader}
}

func (q *ListMembersQuery) Query(ctx context.Context, _ ListMembersMessage) ([]core.User, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: member reader is required")
	}
	return q.reader.ListUsers(ctx)
}

type CredentialStateQuery struct {
	reader CredentialStateReader
}

func NewCredentialStateQuery(reader CredentialStateReader) *CredentialStateQuery {
	return &CredentialStateQuery{reader: reader}
}

func (q *CredentialStateQuery) Query(ctx context.Context, _ CredentialStateMessage) (core.CredentialState, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: credential state reader is required")
	}
	return q.reader.CredentialState(ctx)
}
