package shopify

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-storeauth/core"
)

type RequestResolverOption func(*AuthorizationRequestResolver)

func WithStateGenerator(generate func() (string, error)) RequestResolverOption {
	return func(r *AuthorizationRequestResolver) {
		if generate != nil {
			r.generateState = generate
		}
	}
}

func WithRequestTenantParameter(key core.ParameterKey[string]) RequestResolverOption {
	return func(r *AuthorizationRequestResolver) {
		if strings.TrimSpace(key.Name()) != "" {
			r.tenantKey = key
		}
	}
}

// AuthorizationRequestResolver starts the install flow for a shop. It
// attaches the normalized shop domain to the request so the token exchange
// can address the same store.
type AuthorizationRequestResolver struct {
	registration  core.Registration
	baseURL       string
	tenantKey     core.ParameterKey[string]
	generateState func() (string, error)
}

func NewAuthorizationRequestResolver(
	registration core.Registration,
	baseURL string,
	opts ...RequestResolverOption,
) (*AuthorizationRequestResolver, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("providers/shopify: base url is required")
	}
	resolver := &AuthorizationRequestResolver{
		registration:  registration,
		baseURL:       baseURL,
		tenantKey:     core.TenantParameter,
		generateState: generateState,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(resolver)
	}
	return resolver, nil
}

func (r *AuthorizationRequestResolver) Resolve(shop string, state string) (core.AuthorizationRequest, error) {
	if r == nil {
		return core.AuthorizationRequest{}, fmt.Errorf("providers/shopify: request resolver is nil")
	}
	domain, err := NormalizeShopDomain(shop)
	if err != nil {
		return core.AuthorizationRequest{}, err
	}
	authorizationURI, err := ExpandURITemplate(r.registration.AuthorizationURI, map[string]string{
		r.tenantKey.Name(): domain,
	})
	if err != nil {
		return core.AuthorizationRequest{}, err
	}
	redirectURI, err := ExpandURITemplate(r.registration.RedirectURITemplate, map[string]string{
		"baseUrl":        r.baseURL,
		"registrationId": r.registration.RegistrationID,
	})
	if err != nil {
		return core.AuthorizationRequest{}, err
	}
	state = strings.TrimSpace(state)
	if state == "" {
		state, err = r.generateState()
		if err != nil {
			return core.AuthorizationRequest{}, err
		}
	}
	return core.AuthorizationRequest{
		AuthorizationURI:     authorizationURI,
		ClientID:             r.registration.ClientID,
		RedirectURI:          redirectURI,
		Scopes:               append([]string(nil), r.registration.Scopes...),
		State:                state,
		AdditionalParameters: core.WithParameter(core.Parameters{}, r.tenantKey, domain),
	}, nil
}

// AuthorizationURL renders the redirect to the shop's consent screen. Shopify
// expects scopes comma separated.
func AuthorizationURL(req core.AuthorizationRequest) (string, error) {
	base := strings.TrimSpace(req.AuthorizationURI)
	if base == "" {
		return "", fmt.Errorf("providers/shopify: authorization uri is required")
	}
	values := url.Values{}
	values.Set("client_id", req.ClientID)
	values.Set("scope", strings.Join(normalizeShopifyScopes(req.Scopes), ","))
	if redirect := strings.TrimSpace(req.RedirectURI); redirect != "" {
		values.Set("redirect_uri", redirect)
	}
	if state := strings.TrimSpace(req.State); state != "" {
		values.Set("state", state)
	}
	if strings.Contains(base, "?") {
		return base + "&" + values.Encode(), nil
	}
	return base + "?" + values.Encode(), nil
}

func generateState() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("providers/shopify: generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
