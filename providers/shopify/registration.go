package shopify

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-storeauth/core"
)

const (
	RegistrationID = core.DefaultRegistrationID

	AuthorizationURITemplate = "https://{shop}/admin/oauth/authorize"
	TokenURITemplate         = "https://{shop}/admin/oauth/access_token"
	RedirectURITemplate      = "{baseUrl}/login/app/oauth2/code/{registrationId}"
)

const (
	ScopeReadProducts  = "read_products"
	ScopeWriteProducts = "write_products"
	ScopeReadInventory = "read_inventory"
	ScopeReadOrders    = "read_orders"
)

type RegistrationConfig struct {
	ClientID            string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret        string   `koanf:"client_secret" mapstructure:"client_secret"`
	RedirectURITemplate string   `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	Scopes              []string `koanf:"scopes" mapstructure:"scopes"`
	ClientName          string   `koanf:"client_name" mapstructure:"client_name"`
}

func DefaultRegistrationConfig() RegistrationConfig {
	return RegistrationConfig{
		RedirectURITemplate: RedirectURITemplate,
		Scopes:              []string{ScopeReadProducts, ScopeReadInventory, ScopeReadOrders},
		ClientName:          "Shopify",
	}
}

// NewRegistration builds the generic registration shared by every store. Its
// URIs keep the {shop} placeholder; per-store values are derived from it.
func NewRegistration(cfg RegistrationConfig) (core.Registration, error) {
	defaults := DefaultRegistrationConfig()
	if strings.TrimSpace(cfg.ClientID) == "" {
		return core.Registration{}, fmt.Errorf("providers/shopify: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return core.Registration{}, fmt.Errorf("providers/shopify: client secret is required")
	}
	if strings.TrimSpace(cfg.RedirectURITemplate) == "" {
		cfg.RedirectURITemplate = defaults.RedirectURITemplate
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaults.Scopes
	}
	if strings.TrimSpace(cfg.ClientName) == "" {
		cfg.ClientName = defaults.ClientName
	}
	return core.Registration{
		RegistrationID:             RegistrationID,
		ClientID:                   strings.TrimSpace(cfg.ClientID),
		ClientSecret:               strings.TrimSpace(cfg.ClientSecret),
		ClientAuthenticationMethod: core.ClientAuthenticationPost,
		AuthorizationGrantType:     core.GrantTypeAuthorizationCode,
		RedirectURITemplate:        strings.TrimSpace(cfg.RedirectURITemplate),
		Scopes:                     normalizeShopifyScopes(cfg.Scopes),
		AuthorizationURI:           AuthorizationURITemplate,
		TokenURI:                   TokenURITemplate,
		ClientName:                 strings.TrimSpace(cfg.ClientName),
	}, nil
}
