package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storeauth/core"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxShopResponseBytes  = 1 << 20 // 1 MiB

	// DefaultShopEndpointTemplate addresses the Admin API shop resource.
	DefaultShopEndpointTemplate = "https://{shop}/admin/api/2024-10/shop.json"

	AttributeShopDomain   = "shop_domain"
	AttributeShopName     = "shop_name"
	AttributeShopEmail    = "shop_email"
	AttributeShopPlan     = "shop_plan"
	AttributeShopCurrency = "shop_currency"

	accessTokenHeader = "X-Shopify-Access-Token"
)

var ErrShopProfileNotFound = errors.New("identity: shop profile not found")

type ShopProfileError struct {
	Cause error
}

func (e *ShopProfileError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrShopProfileNotFound.Error()
	}
	return ErrShopProfileNotFound.Error() + ": " + e.Cause.Error()
}

func (e *ShopProfileError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return ErrShopProfileNotFound
	}
	return errors.Join(ErrShopProfileNotFound, e.Cause)
}

func (e *ShopProfileError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(core.ServiceErrorExchangeFailed)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	// TenantParameter names the response parameter carrying the store
	// identifier. Defaults to core.TenantParameter.
	TenantParameter core.ParameterKey[string]
	// FetchShopProfile loads the shop resource with the new token and copies
	// its fields into the principal attributes.
	FetchShopProfile     bool
	ShopEndpointTemplate string
	HTTPClient           HTTPDoer
	RequestTimeout       time.Duration
}

// StoreIdentityResolver builds the authenticated principal from a completed
// token exchange. The principal name is the store identifier echoed on the
// response by the token exchange adapter.
type StoreIdentityResolver struct {
	tenantKey        core.ParameterKey[string]
	fetchProfile     bool
	endpointTemplate string
	httpClient       HTTPDoer
	requestTimeout   time.Duration
}

func NewStoreIdentityResolver(cfg Config) *StoreIdentityResolver {
	tenantKey := cfg.TenantParameter
	if strings.TrimSpace(tenantKey.Name()) == "" {
		tenantKey = core.TenantParameter
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	endpoint := strings.TrimSpace(cfg.ShopEndpointTemplate)
	if endpoint == "" {
		endpoint = DefaultShopEndpointTemplate
	}
	return &StoreIdentityResolver{
		tenantKey:        tenantKey,
		fetchProfile:     cfg.FetchShopProfile,
		endpointTemplate: endpoint,
		httpClient:       httpClient,
		requestTimeout:   requestTimeout,
	}
}

func DefaultStoreIdentityResolver() *StoreIdentityResolver {
	return NewStoreIdentityResolver(Config{})
}

func (r *StoreIdentityResolver) Resolve(
	ctx context.Context,
	registration core.Registration,
	response core.AccessTokenResponse,
) (core.Authentication, error) {
	if r == nil {
		r = DefaultStoreIdentityResolver()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shop, ok := core.LookupTenant(response.AdditionalParameters, r.tenantKey)
	if !ok {
		return core.Authentication{}, &core.MissingTenantIdentifierError{Parameter: r.tenantKey.Name()}
	}
	shop = core.NormalizeStoreIdentifier(shop)

	principal := core.Authentication{
		Name:        shop,
		Authorities: grantedAuthorities(registration, response),
		Attributes: map[string]any{
			AttributeShopDomain: shop,
		},
	}
	if !r.fetchProfile {
		return principal, nil
	}

	profile, err := r.fetchShop(ctx, shop, response.AccessToken.Value)
	if err != nil {
		return core.Authentication{}, &ShopProfileError{Cause: err}
	}
	for key, value := range profile {
		principal.Attributes[key] = value
	}
	return principal, nil
}

// grantedAuthorities prefers the scopes the shop actually granted over the
// ones the registration requested.
func grantedAuthorities(registration core.Registration, response core.AccessTokenResponse) []string {
	if raw, ok := response.AdditionalParameters.Get("scope"); ok {
		if scopes := splitScopes(raw); len(scopes) > 0 {
			return scopes
		}
	}
	if len(response.AccessToken.Scopes) > 0 {
		return core.NormalizeAuthorities(response.AccessToken.Scopes)
	}
	return core.NormalizeAuthorities(registration.Scopes)
}

func splitScopes(raw any) []string {
	var parts []string
	switch typed := raw.(type) {
	case string:
		parts = strings.FieldsFunc(typed, func(r rune) bool {
			return r == ',' || r == ' '
		})
	case []string:
		parts = typed
	case []any:
		for _, item := range typed {
			if value, ok := item.(string); ok {
				parts = append(parts, value)
			}
		}
	}
	return core.NormalizeAuthorities(parts)
}

func (r *StoreIdentityResolver) fetchShop(ctx context.Context, shop string, accessToken string) (map[string]any, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("identity: access token is required")
	}
	endpoint := strings.ReplaceAll(r.endpointTemplate, "{"+r.tenantKey.Name()+"}", shop)

	requestCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, accessToken)

	res, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxShopResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("identity: read shop response: %w", err)
	}
	if int64(len(body)) > maxShopResponseBytes {
		return nil, fmt.Errorf("identity: shop response exceeds %d bytes", maxShopResponseBytes)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("identity: shop endpoint returned status %d", res.StatusCode)
	}

	var payload struct {
		Shop struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Domain   string `json:"myshopify_domain"`
			PlanName string `json:"plan_name"`
			Currency string `json:"currency"`
		} `json:"shop"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("identity: decode shop response: %w", err)
	}
	domain := core.NormalizeStoreIdentifier(payload.Shop.Domain)
	if domain != "" && domain != shop {
		return nil, fmt.Errorf("identity: shop endpoint answered for %q, expected %q", domain, shop)
	}

	attributes := map[string]any{}
	setAttribute(attributes, AttributeShopName, payload.Shop.Name)
	setAttribute(attributes, AttributeShopEmail, payload.Shop.Email)
	setAttribute(attributes, AttributeShopPlan, payload.Shop.PlanName)
	setAttribute(attributes, AttributeShopCurrency, payload.Shop.Currency)
	return attributes, nil
}

func setAttribute(attributes map[string]any, key string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		attributes[key] = trimmed
	}
}

var _ core.IdentityResolver = (*StoreIdentityResolver)(nil)
