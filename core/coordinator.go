package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Coordinator orchestrates admission into the capacity-bounded registry.
//
// The capacity check, eviction and admission sequence is not atomic. Callers
// with concurrent writers must serialize access, for example through Serialized.
type Coordinator struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	clock           Clock
	credentials     *CredentialLifecycle
	members         MemberStore
	registrar       Registrar
}

// NewCoordinator resolves configuration, wires the collaborators and bootstraps
// the credential store. A returned error means there is nothing to serve.
func NewCoordinator(cfg Config, opts ...Option) (*Coordinator, error) {
	builder := defaultCoordinatorBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("whitelist", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("whitelist"); named != nil {
			logger = glog.Ensure(named)
		}
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.clock == nil {
		builder.clock = SystemClock
	}

	ctx := context.Background()
	finalConfig, err := ResolveConfig(ctx, builder.runtimeConfig, builder.configProvider, builder.optionsResolver)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.memberStore == nil {
		return nil, fmt.Errorf("core: member store is required")
	}
	if builder.registrar == nil {
		return nil, fmt.Errorf("core: registrar is required")
	}
	credentials, err := NewCredentialLifecycle(builder.credentialStore, builder.refresher, builder.clock)
	if err != nil {
		return nil, err
	}
	if _, seeded, err := BootstrapCredential(ctx, builder.credentialStore, finalConfig.InitialToken); err != nil {
		return nil, err
	} else if seeded {
		logger.Info("credential store seeded from initial token", "service", finalConfig.ServiceName)
	}

	return &Coordinator{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		clock:           builder.clock,
		credentials:     credentials,
		members:         builder.memberStore,
		registrar:       builder.registrar,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (c *Coordinator) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Coordinator) Threshold() int {
	if c == nil {
		return 0
	}
	return c.config.Threshold
}

// AddUser admits mail into the registry, evicting the oldest member when the
// registry is full. Re-adding a current member returns it unchanged.
func (c *Coordinator) AddUser(ctx context.Context, rawMail string) (user User, err error) {
	startedAt := time.Now()
	fields := map[string]any{"mail": rawMail}
	defer func() {
		c.observeOperation(ctx, startedAt, "add_user", err, fields)
	}()

	mail, err := ParseMail(rawMail)
	if err != nil {
		return User{}, NewKindError(KindMail, "your mail is incorrect", err)
	}

	members, err := c.members.List(ctx)
	if err != nil {
		return User{}, NewKindError(KindFetchUsers, "could not fetch registered users", err)
	}

	matches := filterByMail(members, mail)
	switch len(matches) {
	case 0:
	case 1:
		fields["existing"] = true
		return matches[0], nil
	default:
		return User{}, NewKindError(
			KindDuplicatedUser,
			fmt.Sprintf("found %d registrations for %s, expected at most one", len(matches), mail),
			nil,
		)
	}

	if len(members) >= c.config.Threshold {
		evicted, evictErr := c.evictOldest(ctx, members)
		if evictErr != nil {
			return User{}, evictErr
		}
		fields["evicted"] = evicted.Mail.String()
	}

	return c.admit(ctx, mail)
}

// Admit is AddUser in Result form.
func (c *Coordinator) Admit(ctx context.Context, rawMail string) Result[User] {
	return ResultOf(c.AddUser(ctx, rawMail))
}

// RemoveUser removes a current member remotely and then locally.
func (c *Coordinator) RemoveUser(ctx context.Context, rawMail string) (user User, err error) {
	startedAt := time.Now()
	fields := map[string]any{"mail": rawMail}
	defer func() {
		c.observeOperation(ctx, startedAt, "remove_user", err, fields)
	}()

	mail, err := ParseMail(rawMail)
	if err != nil {
		return User{}, NewKindError(KindMail, "your mail is incorrect", err)
	}
	members, err := c.members.List(ctx)
	if err != nil {
		return User{}, NewKindError(KindFetchUsers, "could not fetch registered users", err)
	}
	matches := filterByMail(members, mail)
	switch len(matches) {
	case 0:
		return User{}, NewKindError(KindDeletingUser, fmt.Sprintf("%s is not registered", mail), ErrMemberNotFound)
	case 1:
	default:
		return User{}, NewKindError(
			KindDuplicatedUser,
			fmt.Sprintf("found %d registrations for %s, expected at most one", len(matches), mail),
			nil,
		)
	}
	return c.remove(ctx, matches[0])
}

// ListUsers returns the registry ordered oldest first.
func (c *Coordinator) ListUsers(ctx context.Context) (users []User, err error) {
	startedAt := time.Now()
	defer func() {
		c.observeOperation(ctx, startedAt, "list_users", err, map[string]any{"count": len(users)})
	}()

	members, err := c.members.List(ctx)
	if err != nil {
		return nil, NewKindError(KindFetchUsers, "could not fetch registered users", err)
	}
	sortOldestFirst(members)
	return members, nil
}

// RefreshCredential forces a refresh regardless of the stored expiry.
func (c *Coordinator) RefreshCredential(ctx context.Context) (token Token, err error) {
	startedAt := time.Now()
	defer func() {
		c.observeOperation(ctx, startedAt, "refresh_credential", err, nil)
	}()

	token, err = c.credentials.Refresh(ctx)
	if err != nil {
		return Token{}, NewKindError(KindTokenExpired, "could not refresh the api token", err)
	}
	return token, nil
}

func (c *Coordinator) CredentialState(ctx context.Context) (CredentialState, error) {
	state, _, err := c.credentials.State(ctx)
	if err != nil {
		return "", NewKindError(KindTokenExpired, "could not read the api token", err)
	}
	return state, nil
}

func (c *Coordinator) evictOldest(ctx context.Context, members []User) (User, error) {
	oldest, ok := oldestMember(members)
	if !ok {
		return User{}, NewKindError(KindDeletingUser, "registry is full but has no members to evict", nil)
	}
	evicted, err := c.remove(ctx, oldest)
	if err != nil {
		return User{}, err
	}
	c.logInfo(ctx, "member evicted", map[string]any{
		"mail":          evicted.Mail.String(),
		"creation_date": evicted.CreationDate,
		"threshold":     c.config.Threshold,
	})
	return evicted, nil
}

func (c *Coordinator) remove(ctx context.Context, member User) (User, error) {
	token, err := c.validCredential(ctx)
	if err != nil {
		return User{}, err
	}
	if _, err := c.registrar.Delete(ctx, member.Mail, token); err != nil {
		return User{}, NewKindError(KindDeletingUser, fmt.Sprintf("could not remove %s remotely", member.Mail), err)
	}
	if _, err := c.members.Delete(ctx, member.Mail); err != nil {
		return User{}, NewKindError(KindDeletingUser, fmt.Sprintf("could not remove %s locally", member.Mail), err)
	}
	return member, nil
}

func (c *Coordinator) admit(ctx context.Context, mail Mail) (User, error) {
	token, err := c.validCredential(ctx)
	if err != nil {
		return User{}, err
	}
	registered, err := c.registrar.Add(ctx, mail, token)
	if err != nil {
		return User{}, NewKindError(KindCreatingUser, fmt.Sprintf("could not add %s remotely", mail), err)
	}
	user := User{Mail: registered.Mail, CreationDate: c.clock().UTC()}
	if user.Mail.IsZero() {
		user.Mail = mail
	}
	stored, err := c.members.Insert(ctx, user)
	if err != nil {
		return User{}, NewKindError(KindCreatingUser, fmt.Sprintf("could not store %s locally", mail), err)
	}
	return stored, nil
}

func (c *Coordinator) validCredential(ctx context.Context) (Token, error) {
	token, refreshed, err := c.credentials.Ensure(ctx)
	if err != nil {
		return Token{}, NewKindError(KindTokenExpired, "could not obtain a valid api token", err)
	}
	if refreshed {
		c.logInfo(ctx, "credential refreshed", map[string]any{"expires_at": token.ExpiresAt})
	}
	return token, nil
}

func filterByMail(members []User, mail Mail) []User {
	var matches []User
	for _, member := range members {
		if member.Mail == mail {
			matches = append(matches, member)
		}
	}
	return matches
}

// oldestMember picks the smallest creation date, ties broken by mail ascending.
func oldestMember(members []User) (User, bool) {
	if len(members) == 0 {
		return User{}, false
	}
	oldest := members[0]
	for _, member := range members[1:] {
		if memberBefore(member, oldest) {
			oldest = member
		}
	}
	return oldest, true
}

func memberBefore(a, b User) bool {
	if !a.CreationDate.Equal(b.CreationDate) {
		return a.CreationDate.Before(b.CreationDate)
	}
	return a.Mail.String() < b.Mail.String()
}

func sortOldestFirst(members []User) {
	sort.SliceStable(members, func(i, j int) bool {
		return memberBefore(members[i], members[j])
	})
}
