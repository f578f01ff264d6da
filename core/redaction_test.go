package core

import "testing"

func TestRedactSensitiveMap_HidesCredentialMaterial(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"store_identifier": "acme.myshopify.com",
		"token_type":       "bearer",
		"access_token":     "shpat_secret",
		"encrypted_token":  "ciphertext",
		"salt":             "abcd",
		"code":             "auth-code",
		"nested":           map[string]any{"client_secret": "s", "registration_id": "shopify"},
		"events":           []any{map[string]any{"hmac": "sig"}, map[string]any{"shop_domain": "acme.myshopify.com"}},
	})

	for _, key := range []string{"access_token", "encrypted_token", "salt", "code"} {
		if redacted[key] != RedactedValue {
			t.Fatalf("expected %s to be redacted, got %#v", key, redacted[key])
		}
	}
	if redacted["store_identifier"] != "acme.myshopify.com" || redacted["token_type"] != "bearer" {
		t.Fatalf("expected traceability keys to remain visible, got %#v", redacted)
	}
	nested := redacted["nested"].(map[string]any)
	if nested["client_secret"] != RedactedValue || nested["registration_id"] != "shopify" {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	events := redacted["events"].([]any)
	if events[0].(map[string]any)["hmac"] != RedactedValue {
		t.Fatalf("expected slice entries to be redacted")
	}
	if events[1].(map[string]any)["shop_domain"] != "acme.myshopify.com" {
		t.Fatalf("expected shop domain to remain visible")
	}
}

func TestRedactSensitiveMap_EmptyInput(t *testing.T) {
	if got := RedactSensitiveMap(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty map, got %#v", got)
	}
}
