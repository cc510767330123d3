package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-whitelist/core"
)

// MutatingService is satisfied by *core.Coordinator and *core.Serialized.
type MutatingService interface {
	AddUser(ctx context.Context, mail string) (core.User, error)
	RemoveUser(ctx context.Context, mail string) (core.User, error)
	RefreshCredential(ctx context.Context) (core.Token, error)
}

// AdmitMemberCommand stores a core.Result[core.User] in the context collector for both outcomes.
type AdmitMemberCommand struct {
	service MutatingService
}

func NewAdmitMemberCommand(service MutatingService) *AdmitMemberCommand {
	return &AdmitMemberCommand{service: service}
}

func (c *AdmitMemberCommand) Execute(ctx context.Context, msg AdmitMemberMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: admit member service is required")
	}
	out, err := c.service.AddUser(ctx, msg.Mail)
	storeResult(ctx, core.ResultOf(out, err))
	return err
}

type RemoveMemberCommand struct {
	service MutatingService
}

func NewRemoveMemberCommand(service MutatingService) *RemoveMemberCommand {
	return &RemoveMemberCommand{service: service}
}

func (c *RemoveMemberCommand) Execute(ctx context.Context, msg RemoveMemberMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: remove member service is required")
	}
	out, err := c.service.RemoveUser(ctx, msg.Mail)
	storeResult(ctx, core.ResultOf(out, err))
	return err
}

type RefreshCredentialCommand struct {
	service MutatingService
}

func NewRefreshCredentialCommand(service MutatingService) *RefreshCredentialCommand {
	return &RefreshCredentialCommand{service: service}
}

func (c *RefreshCredentialCommand) Execute(ctx context.Context, _ RefreshCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh credential service is required")
	}
	out, err := c.service.RefreshCredential(ctx)
	storeResult(ctx, core.ResultOf(out, err))
	return err
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
