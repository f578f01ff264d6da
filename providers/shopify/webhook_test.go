package shopify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

type recordingUninstaller struct {
	stores []string
}

func (u *recordingUninstaller) UninstallStore(_ context.Context, storeIdentifier string) error {
	u.stores = append(u.stores, storeIdentifier)
	return nil
}

func signWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestUninstallWebhookHandler_UninstallsShop(t *testing.T) {
	now := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	cfg := DefaultWebhookConfig("shopify_secret")
	cfg.Now = func() time.Time { return now }
	uninstaller := &recordingUninstaller{}
	handler, err := NewUninstallWebhookHandler(NewWebhookVerifier(cfg), uninstaller)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	body := []byte(`{"id":1,"myshopify_domain":"acme.myshopify.com"}`)
	shop, err := handler.Handle(context.Background(), WebhookRequest{
		Body: body,
		Headers: map[string]string{
			"x-shopify-hmac-sha256":  signWebhookBody("shopify_secret", body),
			"X-Shopify-Topic":        TopicAppUninstalled,
			"X-Shopify-Triggered-At": now.Format(time.RFC3339),
		},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if shop != "acme.myshopify.com" {
		t.Fatalf("expected acme.myshopify.com, got %q", shop)
	}
	if len(uninstaller.stores) != 1 || uninstaller.stores[0] != "acme.myshopify.com" {
		t.Fatalf("expected one uninstall, got %v", uninstaller.stores)
	}
}

func TestUninstallWebhookHandler_RejectsBadSignature(t *testing.T) {
	uninstaller := &recordingUninstaller{}
	handler, err := NewUninstallWebhookHandler(NewWebhookVerifier(DefaultWebhookConfig("shopify_secret")), uninstaller)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	body := []byte(`{"myshopify_domain":"acme.myshopify.com"}`)
	_, err = handler.Handle(context.Background(), WebhookRequest{
		Body: body,
		Headers: map[string]string{
			HeaderHMAC:       signWebhookBody("other_secret", body),
			HeaderShopDomain: "acme.myshopify.com",
		},
	})
	if !errors.Is(err, ErrInvalidWebhook) {
		t.Fatalf("expected ErrInvalidWebhook, got %v", err)
	}
	if len(uninstaller.stores) != 0 {
		t.Fatalf("expected no uninstall on bad signature")
	}
}

func TestWebhookVerifier_ReplayWindow(t *testing.T) {
	now := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	cfg := DefaultWebhookConfig("shopify_secret")
	cfg.Now = func() time.Time { return now }
	body := []byte(`{}`)
	err := NewWebhookVerifier(cfg).Verify(context.Background(), WebhookRequest{
		Body: body,
		Headers: map[string]string{
			HeaderHMAC:        signWebhookBody("shopify_secret", body),
			HeaderTriggeredAt: now.Add(-10 * time.Minute).Format(time.RFC3339),
		},
	})
	if err == nil {
		t.Fatalf("expected stale delivery to fail")
	}
}
