package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrInvalidStoreIdentifier = errors.New("core: invalid store identifier")

const (
	GrantTypeAuthorizationCode = "authorization_code"

	ClientAuthenticationBasic = "client_secret_basic"
	ClientAuthenticationPost  = "client_secret_post"

	TokenTypeBearer = "bearer"
)

// EncryptedTokenAndSalt pairs a ciphertext token with the salt that produced it.
type EncryptedTokenAndSalt struct {
	encryptedToken string
	salt           string
}

func NewEncryptedTokenAndSalt(encryptedToken string, salt string) EncryptedTokenAndSalt {
	return EncryptedTokenAndSalt{
		encryptedToken: strings.TrimSpace(encryptedToken),
		salt:           strings.TrimSpace(salt),
	}
}

func (t EncryptedTokenAndSalt) EncryptedToken() string { return t.encryptedToken }

func (t EncryptedTokenAndSalt) Salt() string { return t.salt }

func (t EncryptedTokenAndSalt) IsZero() bool {
	return t.encryptedToken == "" && t.salt == ""
}

// DecryptedTokenAndSalt pairs a plaintext token with the salt used to recover it.
type DecryptedTokenAndSalt struct {
	decryptedToken string
	salt           string
}

func NewDecryptedTokenAndSalt(decryptedToken string, salt string) DecryptedTokenAndSalt {
	return DecryptedTokenAndSalt{
		decryptedToken: decryptedToken,
		salt:           strings.TrimSpace(salt),
	}
}

func (t DecryptedTokenAndSalt) DecryptedToken() string { return t.decryptedToken }

func (t DecryptedTokenAndSalt) Salt() string { return t.salt }

// TenantRecord is the persisted credential of a single installed store. The
// encrypted token and its salt can only be replaced together by building a
// new record.
type TenantRecord struct {
	storeIdentifier    string
	tokenAndSalt       EncryptedTokenAndSalt
	grantedAuthorities []string
}

func NewTenantRecord(
	storeIdentifier string,
	tokenAndSalt EncryptedTokenAndSalt,
	grantedAuthorities []string,
) (TenantRecord, error) {
	normalized := NormalizeStoreIdentifier(storeIdentifier)
	if normalized == "" {
		return TenantRecord{}, fmt.Errorf("%w: store identifier is required", ErrInvalidStoreIdentifier)
	}
	if tokenAndSalt.EncryptedToken() == "" || tokenAndSalt.Salt() == "" {
		return TenantRecord{}, fmt.Errorf("core: encrypted token and salt are required")
	}
	return TenantRecord{
		storeIdentifier:    normalized,
		tokenAndSalt:       tokenAndSalt,
		grantedAuthorities: NormalizeAuthorities(grantedAuthorities),
	}, nil
}

func (r TenantRecord) StoreIdentifier() string { return r.storeIdentifier }

func (r TenantRecord) TokenAndSalt() EncryptedTokenAndSalt { return r.tokenAndSalt }

func (r TenantRecord) GrantedAuthorities() []string {
	return append([]string(nil), r.grantedAuthorities...)
}

func (r TenantRecord) IsZero() bool {
	return r.storeIdentifier == "" && r.tokenAndSalt.IsZero()
}

type AccessToken struct {
	TokenType string
	Value     string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
	Scopes    []string
}

type AuthorizedClient struct {
	Registration  Registration
	PrincipalName string
	AccessToken   AccessToken
}

// Authentication is the principal produced by a completed login. Name holds
// the store identifier.
type Authentication struct {
	Name        string
	Authorities []string
	Attributes  map[string]any
}

type Registration struct {
	RegistrationID             string
	ClientID                   string
	ClientSecret               string
	ClientAuthenticationMethod string
	AuthorizationGrantType     string
	RedirectURITemplate        string
	Scopes                     []string
	AuthorizationURI           string
	TokenURI                   string
	ClientName                 string
}

func (r Registration) WithTokenURI(tokenURI string) Registration {
	out := r.clone()
	out.TokenURI = strings.TrimSpace(tokenURI)
	return out
}

func (r Registration) WithAuthorizationURI(authorizationURI string) Registration {
	out := r.clone()
	out.AuthorizationURI = strings.TrimSpace(authorizationURI)
	return out
}

func (r Registration) clone() Registration {
	out := r
	out.Scopes = append([]string(nil), r.Scopes...)
	return out
}

type AuthorizationRequest struct {
	AuthorizationURI     string
	ClientID             string
	RedirectURI          string
	Scopes               []string
	State                string
	AdditionalParameters Parameters
}

type AuthorizationResponse struct {
	Code        string
	State       string
	RedirectURI string
}

type AuthorizationExchange struct {
	Request  AuthorizationRequest
	Response AuthorizationResponse
}

type AuthorizationCodeGrantRequest struct {
	Registration Registration
	Exchange     AuthorizationExchange
}

type AccessTokenResponse struct {
	AccessToken          AccessToken
	RefreshToken         string
	AdditionalParameters Parameters
}

func (r AccessTokenResponse) WithAdditionalParameters(params Parameters) AccessTokenResponse {
	out := r
	out.AccessToken.Scopes = append([]string(nil), r.AccessToken.Scopes...)
	out.AdditionalParameters = params
	return out
}

func NormalizeStoreIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func NormalizeAuthorities(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}
