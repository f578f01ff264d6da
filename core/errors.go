package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput                = "STOREAUTH_BAD_INPUT"
	ServiceErrorMissingTenantIdentifier = "STOREAUTH_MISSING_TENANT_IDENTIFIER"
	ServiceErrorMissingRegistration     = "STOREAUTH_MISSING_REGISTRATION"
	ServiceErrorDecryptionFailed        = "STOREAUTH_DECRYPTION_FAILED"
	ServiceErrorStoreNotFound           = "STOREAUTH_STORE_NOT_FOUND"
	ServiceErrorExchangeFailed          = "STOREAUTH_EXCHANGE_FAILED"
	ServiceErrorDependencyMissing       = "STOREAUTH_DEPENDENCY_MISSING"
	ServiceErrorInternal                = "STOREAUTH_INTERNAL_ERROR"
)

var (
	ErrMissingTenantIdentifier = errors.New("core: tenant identifier not found in authorization request")
	ErrMissingRegistration     = errors.New("core: client registration not found")
	ErrDecryption              = errors.New("core: unable to decrypt token")
	ErrCorruptRecord           = errors.New("core: stored tenant record is corrupt")
)

// MissingTenantIdentifierError means the upstream request resolver did not
// attach the store identifier; the exchange cannot proceed.
type MissingTenantIdentifierError struct {
	Parameter string
}

func (e *MissingTenantIdentifierError) Error() string {
	if e == nil || strings.TrimSpace(e.Parameter) == "" {
		return ErrMissingTenantIdentifier.Error()
	}
	return ErrMissingTenantIdentifier.Error() + ": parameter " + strings.TrimSpace(e.Parameter)
}

func (e *MissingTenantIdentifierError) Unwrap() error {
	return ErrMissingTenantIdentifier
}

func (e *MissingTenantIdentifierError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ServiceErrorMissingTenantIdentifier)
}

type MissingRegistrationError struct {
	RegistrationID string
}

func (e *MissingRegistrationError) Error() string {
	if e == nil || strings.TrimSpace(e.RegistrationID) == "" {
		return ErrMissingRegistration.Error()
	}
	return ErrMissingRegistration.Error() + ": " + strings.TrimSpace(e.RegistrationID)
}

func (e *MissingRegistrationError) Unwrap() error {
	return ErrMissingRegistration
}

func (e *MissingRegistrationError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ServiceErrorMissingRegistration)
}

type DecryptionError struct {
	Cause error
}

func (e *DecryptionError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrDecryption.Error()
	}
	return ErrDecryption.Error() + ": " + e.Cause.Error()
}

func (e *DecryptionError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrDecryption
	}
	return errors.Join(ErrDecryption, e.Cause)
}

func (e *DecryptionError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ServiceErrorDecryptionFailed)
}

func NewDecryptionError(cause error) error {
	return &DecryptionError{Cause: cause}
}

// CorruptRecordError is returned by token repositories when a stored row
// exists but cannot be turned into a TenantRecord, for example a blank salt
// or ciphertext. The store stays installed; a fresh authorization overwrites
// the row.
type CorruptRecordError struct {
	StoreIdentifier string
	Cause           error
}

func (e *CorruptRecordError) Error() string {
	if e == nil {
		return ErrCorruptRecord.Error()
	}
	msg := ErrCorruptRecord.Error()
	if id := strings.TrimSpace(e.StoreIdentifier); id != "" {
		msg += ": " + id
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CorruptRecordError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrCorruptRecord
	}
	return errors.Join(ErrCorruptRecord, e.Cause)
}

func (e *CorruptRecordError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ServiceErrorDecryptionFailed)
}

func NewCorruptRecordError(storeIdentifier string, cause error) error {
	return &CorruptRecordError{StoreIdentifier: NormalizeStoreIdentifier(storeIdentifier), Cause: cause}
}

type serviceErrorConverter interface {
	ToServiceError() *goerrors.Error
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}
	var converter serviceErrorConverter
	if errors.As(err, &converter) {
		return ensureServiceErrorEnvelope(converter.ToServiceError())
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorStoreNotFound)
	case strings.Contains(msg, "token request failed"), strings.Contains(msg, "exchange"):
		return newServiceError(err.Error(), goerrors.CategoryExternal, ServiceErrorExchangeFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorStoreNotFound
	case goerrors.CategoryExternal:
		return ServiceErrorExchangeFailed
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
