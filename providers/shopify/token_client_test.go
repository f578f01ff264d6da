package shopify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-storeauth/core"
	"github.com/goliatone/go-storeauth/providers"
)

type recordingExchanger struct {
	calls        int
	registration core.Registration
	exchange     core.AuthorizationExchange
	response     core.AccessTokenResponse
	err          error
}

func (e *recordingExchanger) Exchange(_ context.Context, registration core.Registration, exchange core.AuthorizationExchange) (core.AccessTokenResponse, error) {
	e.calls++
	e.registration = registration
	e.exchange = exchange
	return e.response, e.err
}

var tenantKey = core.NewParameterKey[string]("tenant")

func grantRequest(tokenURI string, params core.Parameters) core.AuthorizationCodeGrantRequest {
	return core.AuthorizationCodeGrantRequest{
		Registration: core.Registration{
			RegistrationID: "shopify",
			ClientID:       "client-123",
			ClientSecret:   "secret-456",
			TokenURI:       tokenURI,
			Scopes:         []string{"read_orders"},
		},
		Exchange: core.AuthorizationExchange{
			Request:  core.AuthorizationRequest{AdditionalParameters: params},
			Response: core.AuthorizationResponse{Code: "code-1"},
		},
	}
}

func TestTokenResponseClient_RewritesEndpointAndAddsTenant(t *testing.T) {
	exchanger := &recordingExchanger{response: core.AccessTokenResponse{
		AccessToken: core.AccessToken{Value: "shpat_abc"},
	}}
	client, err := NewTokenResponseClient(exchanger, WithTenantParameter(tenantKey))
	if err != nil {
		t.Fatalf("new token client: %v", err)
	}
	req := grantRequest("https://{tenant}/token", core.WithParameter(core.Parameters{}, tenantKey, "acme"))

	response, err := client.GetTokenResponse(context.Background(), req)
	if err != nil {
		t.Fatalf("get token response: %v", err)
	}
	if exchanger.registration.TokenURI != "https://acme/token" {
		t.Fatalf("expected resolved endpoint https://acme/token, got %q", exchanger.registration.TokenURI)
	}
	if req.Registration.TokenURI != "https://{tenant}/token" {
		t.Fatalf("expected shared registration untouched, got %q", req.Registration.TokenURI)
	}
	if tenant, ok := core.Lookup(response.AdditionalParameters, tenantKey); !ok || tenant != "acme" {
		t.Fatalf("expected tenant=acme on response, got %q %t", tenant, ok)
	}
	if response.AccessToken.Value != "shpat_abc" {
		t.Fatalf("expected exchanged token, got %q", response.AccessToken.Value)
	}
}

func TestTokenResponseClient_OverwritesConflictingTenant(t *testing.T) {
	upstream := core.NewParameters(map[string]any{"tenant": "evil", "scope": "read_orders"})
	exchanger := &recordingExchanger{response: core.AccessTokenResponse{AdditionalParameters: upstream}}
	client, err := NewTokenResponseClient(exchanger, WithTenantParameter(tenantKey))
	if err != nil {
		t.Fatalf("new token client: %v", err)
	}

	response, err := client.GetTokenResponse(context.Background(),
		grantRequest("https://{tenant}/token", core.WithParameter(core.Parameters{}, tenantKey, "acme")))
	if err != nil {
		t.Fatalf("get token response: %v", err)
	}
	if tenant, _ := core.Lookup(response.AdditionalParameters, tenantKey); tenant != "acme" {
		t.Fatalf("expected tenant overwritten to acme, got %q", tenant)
	}
	if scope, _ := response.AdditionalParameters.Get("scope"); scope != "read_orders" {
		t.Fatalf("expected other parameters preserved, got %v", scope)
	}
	if tenant, _ := core.Lookup(exchanger.response.AdditionalParameters, tenantKey); tenant != "evil" {
		t.Fatalf("expected upstream response untouched, got %q", tenant)
	}
}

func TestTokenResponseClient_MissingTenantFailsBeforeExchange(t *testing.T) {
	exchanger := &recordingExchanger{}
	client, err := NewTokenResponseClient(exchanger)
	if err != nil {
		t.Fatalf("new token client: %v", err)
	}

	for name, params := range map[string]core.Parameters{
		"absent": {},
		"blank":  core.WithParameter(core.Parameters{}, core.TenantParameter, " "),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := client.GetTokenResponse(context.Background(), grantRequest(TokenURITemplate, params))
			var missing *core.MissingTenantIdentifierError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingTenantIdentifierError, got %T: %v", err, err)
			}
			if missing.Parameter != "shop" {
				t.Fatalf("expected shop parameter, got %q", missing.Parameter)
			}
		})
	}
	if exchanger.calls != 0 {
		t.Fatalf("expected no exchange attempts, got %d", exchanger.calls)
	}
}

func TestTokenResponseClient_RejectsTenantThatRewritesURI(t *testing.T) {
	exchanger := &recordingExchanger{}
	client, err := NewTokenResponseClient(exchanger)
	if err != nil {
		t.Fatalf("new token client: %v", err)
	}

	for _, shop := range []string{"evil.com/", "evil.com?x=", "evil.com#", "user@evil.com", `evil.com\x`, "acme .myshopify.com", "evil.com%2f"} {
		t.Run(shop, func(t *testing.T) {
			_, err := client.GetTokenResponse(context.Background(),
				grantRequest(TokenURITemplate, core.WithParameter(core.Parameters{}, core.TenantParameter, shop)))
			if !errors.Is(err, ErrInvalidShopDomain) {
				t.Fatalf("expected ErrInvalidShopDomain, got %v", err)
			}
		})
	}
	if exchanger.calls != 0 {
		t.Fatalf("expected no exchange attempts, got %d", exchanger.calls)
	}
}

func TestTokenResponseClient_RequireShopDomainValidator(t *testing.T) {
	exchanger := &recordingExchanger{}
	client, err := NewTokenResponseClient(exchanger, WithHostValidator(RequireShopDomain))
	if err != nil {
		t.Fatalf("new token client: %v", err)
	}

	_, err = client.GetTokenResponse(context.Background(),
		grantRequest(TokenURITemplate, core.WithParameter(core.Parameters{}, core.TenantParameter, "shop.example.com")))
	if !errors.Is(err, ErrInvalidShopDomain) {
		t.Fatalf("expected non-shopify host to be rejected, got %v", err)
	}
	if exchanger.calls != 0 {
		t.Fatalf("expected no exchange attempts, got %d", exchanger.calls)
	}

	if _, err := client.GetTokenResponse(context.Background(),
		grantRequest(TokenURITemplate, core.WithParameter(core.Parameters{}, core.TenantParameter, "acme.myshopify.com"))); err != nil {
		t.Fatalf("expected canonical shop domain to pass, got %v", err)
	}
	if exchanger.registration.TokenURI != "https://acme.myshopify.com/admin/oauth/access_token" {
		t.Fatalf("unexpected token uri %q", exchanger.registration.TokenURI)
	}
}

func TestTokenResponseClient_PropagatesExchangeErrorUnchanged(t *testing.T) {
	sentinel := errors.New("token endpoint unavailable")
	client, err := NewTokenResponseClient(&recordingExchanger{err: sentinel})
	if err != nil {
		t.Fatalf("new token client: %v", err)
	}
	_, err = client.GetTokenResponse(context.Background(),
		grantRequest(TokenURITemplate, core.WithParameter(core.Parameters{}, core.TenantParameter, "acme.myshopify.com")))
	if err != sentinel {
		t.Fatalf("expected exchange error unchanged, got %v", err)
	}
}

func TestTokenResponseClient_RequiresExchanger(t *testing.T) {
	if _, err := NewTokenResponseClient(nil); !errors.Is(err, ErrExchangerNotProvided) {
		t.Fatalf("expected ErrExchangerNotProvided, got %v", err)
	}
}

func TestTokenResponseClient_WithOAuth2Exchanger(t *testing.T) {
	var requestedHost string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedHost = r.Host
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"shpat_live","scope":"read_orders"}`))
	}))
	defer server.Close()

	host := server.Listener.Addr().String()
	client, err := NewTokenResponseClient(providers.NewOAuth2CodeExchanger(providers.WithHTTPClient(server.Client())))
	if err != nil {
		t.Fatalf("new token client: %v", err)
	}
	response, err := client.GetTokenResponse(context.Background(),
		grantRequest("http://{shop}/admin/oauth/access_token", core.WithParameter(core.Parameters{}, core.TenantParameter, host)))
	if err != nil {
		t.Fatalf("get token response: %v", err)
	}
	if requestedHost != host {
		t.Fatalf("expected request to the shop host %q, got %q", host, requestedHost)
	}
	if shop, _ := core.LookupTenant(response.AdditionalParameters, core.TenantParameter); shop != host {
		t.Fatalf("expected shop parameter %q, got %q", host, shop)
	}
	if response.AccessToken.Value != "shpat_live" {
		t.Fatalf("expected live token, got %q", response.AccessToken.Value)
	}
}
