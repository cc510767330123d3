package gocommand

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	wlcommand "github.com/goliatone/go-whitelist/command"
	"github.com/goliatone/go-whitelist/core"
	wlquery "github.com/goliatone/go-whitelist/query"
)

// Service is implemented by *core.Coordinator and *core.Serialized.
type Service interface {
	wlcommand.MutatingService
	wlquery.MemberReader
	wlquery.CredentialStateReader
}

// Bindings tracks the dispatcher subscriptions created by RegisterWhitelist.
type Bindings struct {
	subscriptions []commanddispatcher.Subscription
}

// Unsubscribe removes every whitelist handler from the global dispatcher.
func (b *Bindings) Unsubscribe() {
	if b == nil {
		return
	}
	for _, sub := range b.subscriptions {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

// RegisterWhitelist subscribes the member commands and queries for service. Callers still run
// adapter.Initialize once all handlers are registered.
func RegisterWhitelist(adapter *RegistryAdapter, service Service, runnerOpts ...runner.Option) (*Bindings, error) {
	if service == nil {
		return nil, core.NewKindError(core.KindGeneric, "gocommand: whitelist service is required", nil)
	}
	bindings := &Bindings{}
	track := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			bindings.Unsubscribe()
			return err
		}
		bindings.subscriptions = append(bindings.subscriptions, sub)
		return nil
	}

	if err := track(RegisterAndSubscribe[wlcommand.AdmitMemberMessage](adapter, wlcommand.NewAdmitMemberCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribe[wlcommand.RemoveMemberMessage](adapter, wlcommand.NewRemoveMemberCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribe[wlcommand.RefreshCredentialMessage](adapter, wlcommand.NewRefreshCredentialCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribeQuery[wlquery.ListMembersMessage, []core.User](adapter, wlquery.NewListMembersQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribeQuery[wlquery.CredentialStateMessage, core.CredentialState](adapter, wlquery.NewCredentialStateQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	return bindings, nil
}

// DispatchAdmit runs the admit command and returns its Result. Invalid mails fail before dispatch.
func DispatchAdmit(ctx context.Context, rawMail string) core.Result[core.User] {
	if _, err := core.ParseMail(rawMail); err != nil {
		return core.Failure[core.User](core.NewKindError(core.KindMail, "gocommand: invalid mail", err))
	}
	return dispatchWithResult[core.User](ctx, wlcommand.AdmitMemberMessage{Mail: rawMail})
}

func DispatchRemove(ctx context.Context, rawMail string) core.Result[core.User] {
	if _, err := core.ParseMail(rawMail); err != nil {
		return core.Failure[core.User](core.NewKindError(core.KindMail, "gocommand: invalid mail", err))
	}
	return dispatchWithResult[core.User](ctx, wlcommand.RemoveMemberMessage{Mail: rawMail})
}

func DispatchRefresh(ctx context.Context) core.Result[core.Token] {
	return dispatchWithResult[core.Token](ctx, wlcommand.RefreshCredentialMessage{})
}

func QueryMembers(ctx context.Context) ([]core.User, error) {
	return Query[wlquery.ListMembersMessage, []core.User](ctx, wlquery.ListMembersMessage{})
}

func QueryCredentialState(ctx context.Context) (core.CredentialState, error) {
	return Query[wlquery.CredentialStateMessage, core.CredentialState](ctx, wlquery.CredentialStateMessage{})
}

func dispatchWithResult[T any, M any](ctx context.Context, msg M) core.Result[T] {
	collector := gocmd.NewResult[core.Result[T]]()
	err := Dispatch(gocmd.ContextWithResult(ctx, collector), msg)
	if result, ok := collector.Load(); ok {
		return result
	}
	if err == nil {
		err = core.NewKindError(core.KindGeneric, "gocommand: handler stored no result", nil)
	}
	return core.Failure[T](err)
}

var (
	_ Service = (*core.Coordinator)(nil)
	_ Service = (*core.Serialized)(nil)
)
