package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-storeauth/core"
)

type FailurePolicy string

const (
	FailurePolicyStrict   FailurePolicy = "strict_fail"
	FailurePolicyFallback FailurePolicy = "fallback_allowed"
)

type CipherDiagnostic struct {
	OccurredAt time.Time
	Operation  string
	Policy     FailurePolicy
	Outcome    string
	Primary    string
	Fallback   string
	Error      string
}

type CipherDiagnosticHook func(event CipherDiagnostic)

type FallbackOption func(*FallbackCipher)

// FallbackCipher encrypts with a primary cipher and, under the fallback
// policy, decrypts records written under a retired passphrase. Records read
// through the fallback should be re-encrypted by the next authorization.
type FallbackCipher struct {
	primary        core.Cipher
	fallback       core.Cipher
	policy         FailurePolicy
	diagnosticHook CipherDiagnosticHook
	now            func() time.Time
}

func NewFallbackCipher(primary core.Cipher, opts ...FallbackOption) (*FallbackCipher, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary cipher is required")
	}
	c := &FallbackCipher{
		primary: primary,
		policy:  FailurePolicyStrict,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	c.policy = normalizeFailurePolicy(c.policy)
	if c.policy == FailurePolicyFallback && c.fallback == nil {
		return nil, fmt.Errorf("security: fallback policy requires a configured fallback cipher")
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	return c, nil
}

func WithFallbackCipher(fallback core.Cipher) FallbackOption {
	return func(c *FallbackCipher) {
		if c == nil {
			return
		}
		c.fallback = fallback
	}
}

func WithFailurePolicy(policy FailurePolicy) FallbackOption {
	return func(c *FallbackCipher) {
		if c == nil {
			return
		}
		c.policy = normalizeFailurePolicy(policy)
	}
}

func WithCipherDiagnostics(hook CipherDiagnosticHook) FallbackOption {
	return func(c *FallbackCipher) {
		if c == nil {
			return
		}
		c.diagnosticHook = hook
	}
}

func WithFallbackClock(now func() time.Time) FallbackOption {
	return func(c *FallbackCipher) {
		if c == nil {
			return
		}
		c.now = now
	}
}

func (c *FallbackCipher) Encrypt(plaintext string, salt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("security: cipher is nil")
	}
	return c.primary.Encrypt(plaintext, salt)
}

func (c *FallbackCipher) GenerateSalt() (string, error) {
	if c == nil {
		return "", fmt.Errorf("security: cipher is nil")
	}
	return c.primary.GenerateSalt()
}

func (c *FallbackCipher) Decrypt(ciphertext string, salt string) (string, error) {
	if c == nil {
		return "", core.NewDecryptionError(fmt.Errorf("security: cipher is nil"))
	}
	plaintext, err := c.primary.Decrypt(ciphertext, salt)
	if err == nil {
		return plaintext, nil
	}
	c.emit("decrypt", "primary_failed", err)
	if c.policy == FailurePolicyStrict || c.fallback == nil {
		return "", asDecryptionError(err)
	}
	plaintext, fallbackErr := c.fallback.Decrypt(ciphertext, salt)
	if fallbackErr != nil {
		c.emit("decrypt", "fallback_failed", fallbackErr)
		return "", core.NewDecryptionError(fmt.Errorf("security: primary decrypt failed: %v; fallback decrypt failed: %w", err, fallbackErr))
	}
	c.emit("decrypt", "fallback_succeeded", err)
	return plaintext, nil
}

func (c *FallbackCipher) emit(operation string, outcome string, err error) {
	if c == nil || c.diagnosticHook == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.diagnosticHook(CipherDiagnostic{
		OccurredAt: c.now().UTC(),
		Operation:  operation,
		Policy:     c.policy,
		Outcome:    outcome,
		Primary:    describeCipher(c.primary),
		Fallback:   describeCipher(c.fallback),
		Error:      msg,
	})
}

func asDecryptionError(err error) error {
	var typed *core.DecryptionError
	if errors.As(err, &typed) {
		return err
	}
	return core.NewDecryptionError(err)
}

func normalizeFailurePolicy(policy FailurePolicy) FailurePolicy {
	normalized := FailurePolicy(strings.ToLower(strings.TrimSpace(string(policy))))
	switch normalized {
	case FailurePolicyFallback:
		return FailurePolicyFallback
	default:
		return FailurePolicyStrict
	}
}

func describeCipher(c core.Cipher) string {
	if c == nil {
		return ""
	}
	return reflect.TypeOf(c).String()
}

var _ core.Cipher = (*FallbackCipher)(nil)
