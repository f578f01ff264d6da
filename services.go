package storeauth

import "github.com/goliatone/go-storeauth/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type TokenRepository = core.TokenRepository
type RegistrationProvider = core.RegistrationProvider
type Cipher = core.Cipher
type TenantRecordMapper = core.TenantRecordMapper
type AccessTokenResponseClient = core.AccessTokenResponseClient
type IdentityResolver = core.IdentityResolver
type MetricsRecorder = core.MetricsRecorder

type TenantRecord = core.TenantRecord
type AuthorizedClient = core.AuthorizedClient
type Authentication = core.Authentication
type Registration = core.Registration

type AuthorizationCodeGrantRequest = core.AuthorizationCodeGrantRequest

type StoreLookup = core.StoreLookup
type InstallOutcome = core.InstallOutcome
type AuthorizationResult = core.AuthorizationResult

var (
	WithLogger               = core.WithLogger
	WithLoggerProvider       = core.WithLoggerProvider
	WithMetricsRecorder      = core.WithMetricsRecorder
	WithErrorFactory         = core.WithErrorFactory
	WithErrorMapper          = core.WithErrorMapper
	WithPersistenceClient    = core.WithPersistenceClient
	WithRepositoryFactory    = core.WithRepositoryFactory
	WithConfigProvider       = core.WithConfigProvider
	WithOptionsResolver      = core.WithOptionsResolver
	WithTokenRepository      = core.WithTokenRepository
	WithRegistrationProvider = core.WithRegistrationProvider
	WithCipher               = core.WithCipher
	WithRecordMapper         = core.WithRecordMapper
	WithTokenResponseClient  = core.WithTokenResponseClient
	WithIdentityResolver     = core.WithIdentityResolver
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
