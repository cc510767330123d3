package whitelist

import (
	"fmt"

	wlcommand "github.com/goliatone/go-whitelist/command"
	wlquery "github.com/goliatone/go-whitelist/query"
)

type CommandQueryService interface {
	wlcommand.MutatingService
	wlquery.MemberReader
	wlquery.CredentialStateReader
}

type Commands struct {
	AdmitMember       *wlcommand.AdmitMemberCommand
	RemoveMember      *wlcommand.RemoveMemberCommand
	RefreshCredential *wlcommand.RefreshCredentialCommand
}

type Queries struct {
	ListMembers     *wlquery.ListMembersQuery
	CredentialState *wlquery.CredentialStateQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("whitelist: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		AdmitMember:       wlcommand.NewAdmitMemberCommand(service),
		RemoveMember:      wlcommand.NewRemoveMemberCommand(service),
		RefreshCredential: wlcommand.NewRefreshCredentialCommand(service),
	}
	facade.queries = Queries{
		ListMembers:     wlquery.NewListMembersQuery(service),
		CredentialState: wlquery.NewCredentialStateQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var (
	_ CommandQueryService = (*Coordinator)(nil)
	_ CommandQueryService = (*Serialized)(nil)
)
