package whitelist

import "github.com/goliatone/go-whitelist/core"

type Config = core.Config

type StorageConfig = core.StorageConfig

type RemoteConfig = core.RemoteConfig

type Option = core.Option

type Coordinator = core.Coordinator

type Serialized = core.Serialized

type SerializedOptions = core.SerializedOptions

type Mail = core.Mail
type User = core.User
type Token = core.Token
type ErrorKind = core.ErrorKind
type CredentialState = core.CredentialState

type Clock = core.Clock
type CredentialStore = core.CredentialStore
type CredentialRefresher = core.CredentialRefresher
type MemberStore = core.MemberStore
type Registrar = core.Registrar
type Locker = core.Locker

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorMapper         = core.WithErrorMapper
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithClock               = core.WithClock
	WithCredentialStore     = core.WithCredentialStore
	WithCredentialRefresher = core.WithCredentialRefresher
	WithMemberStore         = core.WithMemberStore
	WithRegistrar           = core.WithRegistrar
)

const (
	KindMail           = core.KindMail
	KindFetchUsers     = core.KindFetchUsers
	KindDuplicatedUser = core.KindDuplicatedUser
	KindDeletingUser   = core.KindDeletingUser
	KindCreatingUser   = core.KindCreatingUser
	KindTokenExpired   = core.KindTokenExpired
	KindGeneric        = core.KindGeneric
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewCoordinator(cfg Config, opts ...Option) (*Coordinator, error) {
	return core.NewCoordinator(cfg, opts...)
}

// NewSerialized guards coordinator with locker. A nil locker uses an in-process lock.
func NewSerialized(coordinator *Coordinator, locker Locker, opts SerializedOptions) (*Serialized, error) {
	return core.NewSerialized(coordinator, locker, opts)
}

func KindOf(err error) ErrorKind {
	return core.KindOf(err)
}
