package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// TokenRepository persists tenant records keyed by store identifier.
// Implementations must make each write atomic per key; concurrent writes to
// the same store are last-write-wins.
type TokenRepository interface {
	FindByStoreIdentifier(ctx context.Context, storeIdentifier string) (TenantRecord, bool, error)
	Create(ctx context.Context, record TenantRecord) error
	Update(ctx context.Context, record TenantRecord) error
	Delete(ctx context.Context, storeIdentifier string) error
}

type RegistrationProvider interface {
	FindByRegistrationID(ctx context.Context, registrationID string) (Registration, bool, error)
}

type Cipher interface {
	Encrypt(plaintext string, salt string) (string, error)
	Decrypt(ciphertext string, salt string) (string, error)
	GenerateSalt() (string, error)
}

type TenantRecordMapper interface {
	ToRecord(client AuthorizedClient, principal Authentication, cipher Cipher) (TenantRecord, error)
	FromRecord(record TenantRecord, token DecryptedTokenAndSalt, registration Registration) AuthorizedClient
}

// AuthorizationCodeExchanger performs the literal code-for-token HTTP exchange
// against registration.TokenURI.
type AuthorizationCodeExchanger interface {
	Exchange(ctx context.Context, registration Registration, exchange AuthorizationExchange) (AccessTokenResponse, error)
}

type AccessTokenResponseClient interface {
	GetTokenResponse(ctx context.Context, req AuthorizationCodeGrantRequest) (AccessTokenResponse, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, registration Registration, response AccessTokenResponse) (Authentication, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// NopMetricsRecorder is the default when no recorder is configured.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

var _ MetricsRecorder = NopMetricsRecorder{}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
