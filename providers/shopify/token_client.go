package shopify

import (
	"context"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storeauth/core"
)

type TokenClientOption func(*TokenResponseClient)

// WithTenantParameter changes the additional parameter, and the URI
// placeholder of the same name, that carries the store identifier.
func WithTenantParameter(key core.ParameterKey[string]) TokenClientOption {
	return func(c *TokenResponseClient) {
		if strings.TrimSpace(key.Name()) != "" {
			c.tenantKey = key
		}
	}
}

// WithHostValidator replaces the check applied to the store identifier
// before it is substituted into the token URI. ValidateTenantHost is the
// default; RequireShopDomain restricts tenants to *.myshopify.com.
func WithHostValidator(validate func(string) error) TokenClientOption {
	return func(c *TokenResponseClient) {
		if validate != nil {
			c.validateHost = validate
		}
	}
}

func WithLogger(logger core.Logger) TokenClientOption {
	return func(c *TokenResponseClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// TokenResponseClient completes the authorization-code grant against the
// token endpoint of the store being installed. The store identifier travels
// in the authorization request's additional parameters; it is substituted
// into the registration's token URI and echoed back on the token response.
type TokenResponseClient struct {
	exchanger    core.AuthorizationCodeExchanger
	tenantKey    core.ParameterKey[string]
	validateHost func(string) error
	logger       core.Logger
}

func NewTokenResponseClient(exchanger core.AuthorizationCodeExchanger, opts ...TokenClientOption) (*TokenResponseClient, error) {
	if exchanger == nil {
		return nil, ErrExchangerNotProvided
	}
	_, logger := glog.Resolve("storeauth.shopify", nil, nil)
	client := &TokenResponseClient{
		exchanger:    exchanger,
		tenantKey:    core.TenantParameter,
		validateHost: ValidateTenantHost,
		logger:       logger,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(client)
	}
	client.logger = glog.Ensure(client.logger)
	return client, nil
}

func (c *TokenResponseClient) GetTokenResponse(
	ctx context.Context,
	req core.AuthorizationCodeGrantRequest,
) (core.AccessTokenResponse, error) {
	if c == nil || c.exchanger == nil {
		return core.AccessTokenResponse{}, ErrExchangerNotProvided
	}

	storeIdentifier, ok := core.LookupTenant(req.Exchange.Request.AdditionalParameters, c.tenantKey)
	if !ok {
		return core.AccessTokenResponse{}, &core.MissingTenantIdentifierError{Parameter: c.tenantKey.Name()}
	}
	if err := c.validateHost(storeIdentifier); err != nil {
		return core.AccessTokenResponse{}, err
	}
	tokenURI, err := ExpandURITemplate(req.Registration.TokenURI, map[string]string{
		c.tenantKey.Name(): storeIdentifier,
	})
	if err != nil {
		return core.AccessTokenResponse{}, fmt.Errorf("providers/shopify: resolve token uri for %q: %w", storeIdentifier, err)
	}
	registration := req.Registration.WithTokenURI(tokenURI)

	c.logger.Debug("exchanging authorization code",
		"store_identifier", storeIdentifier,
		"registration_id", registration.RegistrationID,
		"token_uri", tokenURI,
	)
	response, err := c.exchanger.Exchange(ctx, registration, req.Exchange)
	if err != nil {
		c.logger.Debug("authorization code exchange failed",
			"store_identifier", storeIdentifier,
			"error", err.Error(),
		)
		return core.AccessTokenResponse{}, err
	}

	params := response.AdditionalParameters.Merge(
		core.WithParameter(core.Parameters{}, c.tenantKey, storeIdentifier),
	)
	return response.WithAdditionalParameters(params), nil
}

var _ core.AccessTokenResponseClient = (*TokenResponseClient)(nil)
