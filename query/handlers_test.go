package query

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-whitelist/core"
)

func TestListMembersQuery_QueryDelegates(t *testing.T) {
	expected := []core.User{
		{Mail: core.MustParseMail("a@example.com"), CreationDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Mail: core.MustParseMail("b@example.com"), CreationDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	reader := &stubReader{users: expected}

	users, err := NewListMembersQuery(reader).Query(context.Background(), ListMembersMessage{})
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(users) != 2 || !users[0].Equal(expected[0]) || !users[1].Equal(expected[1]) {
		t.Fatalf("unexpected members %#v", users)
	}
}

func TestListMembersQuery_PropagatesFetchError(t *testing.T) {
	reader := &stubReader{err: core.NewKindError(core.KindFetchUsers, "store unavailable", nil)}
	_, err := NewListMembersQuery(reader).Query(context.Background(), ListMembersMessage{})
	if !core.IsKind(err, core.KindFetchUsers) {
		t.Fatalf("expected FetchUsersError, got %v", err)
	}
}

func TestCredentialStateQuery_QueryDelegates(t *testing.T) {
	reader := &stubReader{state: core.CredentialExpired}
	state, err := NewCredentialStateQuery(reader).Query(context.Background(), CredentialStateMessage{})
	if err != nil {
		t.Fatalf("credential state: %v", err)
	}
	if state != core.CredentialExpired {
		t.Fatalf("expected expired state, got %q", state)
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var qry *ListMembersQuery
	_, err := qry.Query(context.Background(), ListMembersMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if _, err := NewCredentialStateQuery(nil).Query(context.Background(), CredentialStateMessage{}); err == nil {
		t.Fatalf("expected credential reader dependency error")
	}
}

type stubReader struct {
	users []core.User
	state core.CredentialState
	err   error
}

func (s *stubReader) ListUsers(context.Context) ([]core.User, error) {
	return s.users, s.err
}

func (s *stubReader) CredentialState(context.Context) (core.CredentialState, error) {
	return s.state, s.err
}
