package shopify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	HeaderHMAC        = "X-Shopify-Hmac-Sha256"
	HeaderShopDomain  = "X-Shopify-Shop-Domain"
	HeaderTopic       = "X-Shopify-Topic"
	HeaderWebhookID   = "X-Shopify-Webhook-Id"
	HeaderTriggeredAt = "X-Shopify-Triggered-At"

	TopicAppUninstalled = "app/uninstalled"
)

const defaultWebhookReplayWindow = 5 * time.Minute

type WebhookRequest struct {
	Headers map[string]string
	Body    []byte
}

type WebhookConfig struct {
	Secret             string
	ReplayWindow       time.Duration
	Now                func() time.Time
	RequireTriggeredAt bool
}

func DefaultWebhookConfig(secret string) WebhookConfig {
	return WebhookConfig{
		Secret:       strings.TrimSpace(secret),
		ReplayWindow: defaultWebhookReplayWindow,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WebhookVerifier checks the HMAC signature Shopify computes over the raw body
// with the app's client secret, and rejects deliveries outside the replay
// window.
type WebhookVerifier struct {
	cfg WebhookConfig
}

func NewWebhookVerifier(cfg WebhookConfig) WebhookVerifier {
	return WebhookVerifier{cfg: cfg}
}

func (v WebhookVerifier) Verify(_ context.Context, req WebhookRequest) error {
	secret := strings.TrimSpace(v.cfg.Secret)
	if secret == "" {
		return fmt.Errorf("%w: signature secret is required", ErrInvalidWebhook)
	}
	signature := strings.TrimSpace(headerValue(req.Headers, HeaderHMAC))
	if signature == "" {
		return fmt.Errorf("%w: %s header is required", ErrInvalidWebhook, HeaderHMAC)
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: decode signature: %v", ErrInvalidWebhook, err)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(req.Body)
	if subtle.ConstantTimeCompare(decoded, mac.Sum(nil)) != 1 {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidWebhook)
	}

	triggered := strings.TrimSpace(headerValue(req.Headers, HeaderTriggeredAt))
	if triggered == "" {
		if v.cfg.RequireTriggeredAt {
			return fmt.Errorf("%w: %s header is required", ErrInvalidWebhook, HeaderTriggeredAt)
		}
		return nil
	}
	triggeredAt, err := time.Parse(time.RFC3339Nano, triggered)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidWebhook, HeaderTriggeredAt, err)
	}
	now := time.Now().UTC()
	if v.cfg.Now != nil {
		now = v.cfg.Now().UTC()
	}
	window := v.cfg.ReplayWindow
	if window <= 0 {
		window = defaultWebhookReplayWindow
	}
	delta := now.Sub(triggeredAt.UTC())
	if delta < 0 {
		delta = -delta
	}
	if delta > window {
		return fmt.Errorf("%w: trigger time outside replay window", ErrInvalidWebhook)
	}
	return nil
}

type StoreUninstaller interface {
	UninstallStore(ctx context.Context, storeIdentifier string) error
}

// UninstallWebhookHandler removes a store's credentials when Shopify reports
// that the app was uninstalled.
type UninstallWebhookHandler struct {
	verifier    WebhookVerifier
	uninstaller StoreUninstaller
}

func NewUninstallWebhookHandler(verifier WebhookVerifier, uninstaller StoreUninstaller) (*UninstallWebhookHandler, error) {
	if uninstaller == nil {
		return nil, fmt.Errorf("providers/shopify: store uninstaller is required")
	}
	return &UninstallWebhookHandler{verifier: verifier, uninstaller: uninstaller}, nil
}

// Handle verifies the delivery and uninstalls the shop it names. It returns
// the normalized shop domain.
func (h *UninstallWebhookHandler) Handle(ctx context.Context, req WebhookRequest) (string, error) {
	if h == nil {
		return "", fmt.Errorf("providers/shopify: uninstall handler is nil")
	}
	if err := h.verifier.Verify(ctx, req); err != nil {
		return "", err
	}
	if topic := strings.TrimSpace(headerValue(req.Headers, HeaderTopic)); topic != "" && topic != TopicAppUninstalled {
		return "", fmt.Errorf("%w: unexpected topic %q", ErrInvalidWebhook, topic)
	}
	shop := headerValue(req.Headers, HeaderShopDomain)
	if strings.TrimSpace(shop) == "" {
		var payload struct {
			Domain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(req.Body, &payload); err == nil {
			shop = payload.Domain
		}
	}
	domain, err := NormalizeShopDomain(shop)
	if err != nil {
		return "", err
	}
	if err := h.uninstaller.UninstallStore(ctx, domain); err != nil {
		return "", err
	}
	return domain, nil
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
