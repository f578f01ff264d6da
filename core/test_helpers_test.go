package core

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// hexCipher binds the ciphertext to its salt without real cryptography.
type hexCipher struct {
	mu       sync.Mutex
	next     int
	encrypts int
	decrypts int
}

func (c *hexCipher) Encrypt(plaintext string, salt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encrypts++
	return hex.EncodeToString([]byte(salt + "|" + plaintext)), nil
}

func (c *hexCipher) Decrypt(ciphertext string, salt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decrypts++
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", NewDecryptionError(err)
	}
	prefix := salt + "|"
	if !strings.HasPrefix(string(raw), prefix) {
		return "", NewDecryptionError(fmt.Errorf("salt mismatch"))
	}
	return strings.TrimPrefix(string(raw), prefix), nil
}

func (c *hexCipher) GenerateSalt() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return "salt" + strconv.Itoa(c.next), nil
}

func (c *hexCipher) calls() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encrypts, c.decrypts
}

type recordingRepository struct {
	*MemoryTokenRepository
	finds   atomic.Int32
	creates atomic.Int32
	updates atomic.Int32
	deleted []string
	mu      sync.Mutex
	findErr error
	damaged map[string]bool
}

func newRecordingRepository() *recordingRepository {
	return &recordingRepository{MemoryTokenRepository: NewMemoryTokenRepository()}
}

func (r *recordingRepository) FindByStoreIdentifier(ctx context.Context, storeIdentifier string) (TenantRecord, bool, error) {
	r.finds.Add(1)
	if r.findErr != nil {
		return TenantRecord{}, false, r.findErr
	}
	r.mu.Lock()
	damaged := r.damaged[NormalizeStoreIdentifier(storeIdentifier)]
	r.mu.Unlock()
	if damaged {
		return TenantRecord{}, false, NewCorruptRecordError(storeIdentifier, errors.New("encrypted token and salt are required"))
	}
	return r.MemoryTokenRepository.FindByStoreIdentifier(ctx, storeIdentifier)
}

func (r *recordingRepository) Create(ctx context.Context, record TenantRecord) error {
	r.creates.Add(1)
	return r.MemoryTokenRepository.Create(ctx, record)
}

func (r *recordingRepository) Update(ctx context.Context, record TenantRecord) error {
	r.updates.Add(1)
	if err := r.MemoryTokenRepository.Update(ctx, record); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.damaged, record.StoreIdentifier())
	r.mu.Unlock()
	return nil
}

// damage makes the stored row for storeIdentifier undecodable until the next
// Update, the way a row with a blank salt reads back from a real store.
func (r *recordingRepository) damage(storeIdentifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.damaged == nil {
		r.damaged = map[string]bool{}
	}
	r.damaged[NormalizeStoreIdentifier(storeIdentifier)] = true
}

func (r *recordingRepository) Delete(ctx context.Context, storeIdentifier string) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, storeIdentifier)
	r.mu.Unlock()
	return r.MemoryTokenRepository.Delete(ctx, storeIdentifier)
}

func (r *recordingRepository) deletes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

// corrupt appends garbage to the stored ciphertext of storeIdentifier.
func (r *recordingRepository) corrupt(storeIdentifier string) error {
	record, ok, _ := r.MemoryTokenRepository.FindByStoreIdentifier(context.Background(), storeIdentifier)
	if !ok {
		return fmt.Errorf("store %q not found", storeIdentifier)
	}
	tokenAndSalt := record.TokenAndSalt()
	corrupted, err := NewTenantRecord(
		record.StoreIdentifier(),
		NewEncryptedTokenAndSalt(tokenAndSalt.EncryptedToken()+"error", tokenAndSalt.Salt()),
		record.GrantedAuthorities(),
	)
	if err != nil {
		return err
	}
	return r.MemoryTokenRepository.Update(context.Background(), corrupted)
}

type countingRegistrationProvider struct {
	provider RegistrationProvider
	calls    atomic.Int32
}

func (p *countingRegistrationProvider) FindByRegistrationID(ctx context.Context, registrationID string) (Registration, bool, error) {
	p.calls.Add(1)
	return p.provider.FindByRegistrationID(ctx, registrationID)
}

type stubTokenResponseClient struct {
	fn func(ctx context.Context, req AuthorizationCodeGrantRequest) (AccessTokenResponse, error)
}

func (s stubTokenResponseClient) GetTokenResponse(ctx context.Context, req AuthorizationCodeGrantRequest) (AccessTokenResponse, error) {
	return s.fn(ctx, req)
}

type stubIdentityResolver struct {
	fn func(ctx context.Context, registration Registration, response AccessTokenResponse) (Authentication, error)
}

func (s stubIdentityResolver) Resolve(ctx context.Context, registration Registration, response AccessTokenResponse) (Authentication, error) {
	return s.fn(ctx, registration, response)
}

func testRegistration() Registration {
	return Registration{
		RegistrationID:             DefaultRegistrationID,
		ClientID:                   "client-id",
		ClientSecret:               "client-secret",
		ClientAuthenticationMethod: ClientAuthenticationPost,
		AuthorizationGrantType:     GrantTypeAuthorizationCode,
		RedirectURITemplate:        "{baseUrl}/login/app/oauth2/code/{registrationId}",
		Scopes:                     []string{"read_products", "write_products"},
		AuthorizationURI:           "https://{shop}/admin/oauth/authorize",
		TokenURI:                   "https://{shop}/admin/oauth/access_token",
		ClientName:                 "Shopify",
	}
}

func testClient(storeIdentifier string, token string) (AuthorizedClient, Authentication) {
	client := AuthorizedClient{
		Registration:  testRegistration(),
		PrincipalName: storeIdentifier,
		AccessToken: AccessToken{
			TokenType: TokenTypeBearer,
			Value:     token,
			Scopes:    []string{"read_products"},
		},
	}
	principal := Authentication{
		Name:        storeIdentifier,
		Authorities: []string{"read_products", "write_products"},
	}
	return client, principal
}

type serviceFixture struct {
	svc           *Service
	repository    *recordingRepository
	registrations *countingRegistrationProvider
	cipher        *hexCipher
}

func newServiceFixture(opts ...Option) (*serviceFixture, error) {
	fixture := &serviceFixture{
		repository:    newRecordingRepository(),
		registrations: &countingRegistrationProvider{provider: NewStaticRegistrationProvider(testRegistration())},
		cipher:        &hexCipher{},
	}
	base := []Option{
		WithLogger(stubLogger{}),
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
		WithTokenRepository(fixture.repository),
		WithRegistrationProvider(fixture.registrations),
		WithCipher(fixture.cipher),
	}
	svc, err := NewService(DefaultConfig(), append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	fixture.svc = svc
	return fixture, nil
}
