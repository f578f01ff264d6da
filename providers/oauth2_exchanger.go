package providers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-storeauth/core"
	"golang.org/x/oauth2"
)

const defaultTokenRequestTimeout = 30 * time.Second

// DefaultExtraFields are the token response fields copied into the
// response's additional parameters.
var DefaultExtraFields = []string{"scope", "expires_in", "associated_user_scope", "associated_user"}

type ExchangerOption func(*OAuth2CodeExchanger)

func WithHTTPClient(client *http.Client) ExchangerOption {
	return func(e *OAuth2CodeExchanger) {
		e.httpClient = client
	}
}

func WithTokenRequestTimeout(timeout time.Duration) ExchangerOption {
	return func(e *OAuth2CodeExchanger) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

func WithExtraFields(fields ...string) ExchangerOption {
	return func(e *OAuth2CodeExchanger) {
		e.extraFields = normalizeFieldNames(append(append([]string(nil), e.extraFields...), fields...))
	}
}

func WithClock(now func() time.Time) ExchangerOption {
	return func(e *OAuth2CodeExchanger) {
		if now != nil {
			e.now = now
		}
	}
}

// OAuth2CodeExchanger trades an authorization code for an access token at the
// registration's token URI. It performs no retries.
type OAuth2CodeExchanger struct {
	httpClient  *http.Client
	timeout     time.Duration
	extraFields []string
	now         func() time.Time
}

func NewOAuth2CodeExchanger(opts ...ExchangerOption) *OAuth2CodeExchanger {
	exchanger := &OAuth2CodeExchanger{
		timeout:     defaultTokenRequestTimeout,
		extraFields: normalizeFieldNames(DefaultExtraFields),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(exchanger)
	}
	return exchanger
}

func (e *OAuth2CodeExchanger) Exchange(
	ctx context.Context,
	registration core.Registration,
	exchange core.AuthorizationExchange,
) (core.AccessTokenResponse, error) {
	if e == nil {
		return core.AccessTokenResponse{}, fmt.Errorf("providers: oauth2 exchanger is nil")
	}
	code := strings.TrimSpace(exchange.Response.Code)
	if code == "" {
		return core.AccessTokenResponse{}, fmt.Errorf("providers: authorization code is required")
	}
	tokenURI := strings.TrimSpace(registration.TokenURI)
	if tokenURI == "" {
		return core.AccessTokenResponse{}, fmt.Errorf("providers: token uri is required for registration %q", registration.RegistrationID)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	config := oauth2.Config{
		ClientID:     strings.TrimSpace(registration.ClientID),
		ClientSecret: strings.TrimSpace(registration.ClientSecret),
		RedirectURL:  redirectURI(exchange),
		Scopes:       append([]string(nil), registration.Scopes...),
		Endpoint: oauth2.Endpoint{
			AuthURL:   strings.TrimSpace(registration.AuthorizationURI),
			TokenURL:  tokenURI,
			AuthStyle: authStyle(registration.ClientAuthenticationMethod),
		},
	}
	issuedAt := e.now().UTC()
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return core.AccessTokenResponse{}, fmt.Errorf("providers: token request failed: %w", err)
	}

	params := core.Parameters{}
	for _, field := range e.extraFields {
		if value := token.Extra(field); value != nil {
			params = params.With(field, value)
		}
	}

	scopes := normalizeGrants(parseScopeList(readAnyString(token.Extra("scope"))))
	if len(scopes) == 0 {
		scopes = normalizeGrants(exchange.Request.Scopes)
	}
	accessToken := core.AccessToken{
		TokenType: normalizeTokenType(token.Type()),
		Value:     token.AccessToken,
		IssuedAt:  &issuedAt,
		Scopes:    scopes,
	}
	if !token.Expiry.IsZero() {
		expiresAt := token.Expiry.UTC()
		accessToken.ExpiresAt = &expiresAt
	}
	return core.AccessTokenResponse{
		AccessToken:          accessToken,
		RefreshToken:         token.RefreshToken,
		AdditionalParameters: params,
	}, nil
}

func redirectURI(exchange core.AuthorizationExchange) string {
	if value := strings.TrimSpace(exchange.Request.RedirectURI); value != "" {
		return value
	}
	return strings.TrimSpace(exchange.Response.RedirectURI)
}

func authStyle(method string) oauth2.AuthStyle {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case core.ClientAuthenticationPost:
		return oauth2.AuthStyleInParams
	case core.ClientAuthenticationBasic:
		return oauth2.AuthStyleInHeader
	default:
		return oauth2.AuthStyleAutoDetect
	}
}

func normalizeTokenType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return core.TokenTypeBearer
	}
	return normalized
}

func parseScopeList(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []string{}
	}
	return strings.Fields(strings.ReplaceAll(trimmed, ",", " "))
}

func normalizeGrants(input []string) []string {
	if len(input) == 0 {
		return []string{}
	}
	values := make([]string, 0, len(input))
	seen := map[string]struct{}{}
	for _, value := range input {
		normalized := strings.TrimSpace(strings.ToLower(value))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		values = append(values, normalized)
	}
	sort.Strings(values)
	return values
}

func normalizeFieldNames(input []string) []string {
	out := make([]string, 0, len(input))
	seen := map[string]struct{}{}
	for _, value := range input {
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
	return out
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []byte:
		return strings.TrimSpace(string(typed))
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

var _ core.AuthorizationCodeExchanger = (*OAuth2CodeExchanger)(nil)
