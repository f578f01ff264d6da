package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-storeauth/core"
	"golang.org/x/crypto/argon2"
)

const (
	saltBytes    = 16
	minSaltBytes = 8
	keyBytes     = 32
	nonceBytes   = 12
)

// KeyDerivationParams tunes the argon2id derivation of the per-salt key.
type KeyDerivationParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

func DefaultKeyDerivationParams() KeyDerivationParams {
	return KeyDerivationParams{Time: 1, MemoryKiB: 19 * 1024, Threads: 1}
}

type Option func(*TextCipher)

func WithKeyDerivation(params KeyDerivationParams) Option {
	return func(c *TextCipher) {
		if params.Time > 0 {
			c.params.Time = params.Time
		}
		if params.MemoryKiB > 0 {
			c.params.MemoryKiB = params.MemoryKiB
		}
		if params.Threads > 0 {
			c.params.Threads = params.Threads
		}
	}
}

func WithRandom(reader io.Reader) Option {
	return func(c *TextCipher) {
		if reader != nil {
			c.random = reader
		}
	}
}

// TextCipher encrypts short secrets under a master passphrase and a
// per-record salt. The output is hex and deterministic for a given
// (plaintext, salt) pair, so stored values remain queryable; two records
// never share a key because they never share a salt. The nonce is derived
// from the passphrase and salt, so a salt must never be used to encrypt a
// second value: every write takes a fresh salt from GenerateSalt.
type TextCipher struct {
	passphrase []byte
	params     KeyDerivationParams
	random     io.Reader
}

func NewTextCipher(passphrase string, opts ...Option) (*TextCipher, error) {
	trimmed := strings.TrimSpace(passphrase)
	if trimmed == "" {
		return nil, fmt.Errorf("security: passphrase is required")
	}
	c := &TextCipher{
		passphrase: []byte(trimmed),
		params:     DefaultKeyDerivationParams(),
		random:     rand.Reader,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

func (c *TextCipher) Encrypt(plaintext string, salt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("security: cipher is nil")
	}
	if plaintext == "" {
		return "", fmt.Errorf("security: plaintext is required")
	}
	gcm, nonce, err := c.derive(salt)
	if err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any mismatch between ciphertext, salt and
// passphrase yields a *core.DecryptionError.
func (c *TextCipher) Decrypt(ciphertext string, salt string) (string, error) {
	if c == nil {
		return "", core.NewDecryptionError(fmt.Errorf("security: cipher is nil"))
	}
	sealed, err := hex.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return "", core.NewDecryptionError(fmt.Errorf("security: decode ciphertext: %w", err))
	}
	gcm, nonce, err := c.derive(salt)
	if err != nil {
		return "", core.NewDecryptionError(err)
	}
	if len(sealed) < gcm.Overhead() {
		return "", core.NewDecryptionError(fmt.Errorf("security: ciphertext too short"))
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", core.NewDecryptionError(fmt.Errorf("security: open ciphertext: %w", err))
	}
	return string(plaintext), nil
}

func (c *TextCipher) GenerateSalt() (string, error) {
	if c == nil {
		return "", fmt.Errorf("security: cipher is nil")
	}
	salt := make([]byte, saltBytes)
	if _, err := io.ReadFull(c.random, salt); err != nil {
		return "", fmt.Errorf("security: salt generation failed: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

func (c *TextCipher) derive(salt string) (cipher.AEAD, []byte, error) {
	rawSalt, err := hex.DecodeString(strings.TrimSpace(salt))
	if err != nil {
		return nil, nil, fmt.Errorf("security: decode salt: %w", err)
	}
	if len(rawSalt) < minSaltBytes {
		return nil, nil, fmt.Errorf("security: salt must be at least %d bytes", minSaltBytes)
	}
	material := argon2.IDKey(c.passphrase, rawSalt, c.params.Time, c.params.MemoryKiB, c.params.Threads, keyBytes+nonceBytes)
	block, err := aes.NewCipher(material[:keyBytes])
	if err != nil {
		return nil, nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, material[keyBytes:], nil
}

var _ core.Cipher = (*TextCipher)(nil)
