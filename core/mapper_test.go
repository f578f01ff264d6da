package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecordMapper_ToRecordEncryptsWithFreshSalt(t *testing.T) {
	cipher := &hexCipher{}
	client, principal := testClient("acme.myshopify.com", "shpat_secret")

	first, err := RecordMapper{}.ToRecord(client, principal, cipher)
	if err != nil {
		t.Fatalf("to record: %v", err)
	}
	second, err := RecordMapper{}.ToRecord(client, principal, cipher)
	if err != nil {
		t.Fatalf("to record: %v", err)
	}
	if first.TokenAndSalt().Salt() == second.TokenAndSalt().Salt() {
		t.Fatalf("expected distinct salts per record")
	}
	plaintext, err := cipher.Decrypt(first.TokenAndSalt().EncryptedToken(), first.TokenAndSalt().Salt())
	if err != nil || plaintext != "shpat_secret" {
		t.Fatalf("expected recoverable ciphertext, got %q %v", plaintext, err)
	}
	if diff := cmp.Diff([]string{"read_products", "write_products"}, first.GrantedAuthorities()); diff != "" {
		t.Fatalf("authorities mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordMapper_FallsBackToClientPrincipal(t *testing.T) {
	client, _ := testClient("acme.myshopify.com", "shpat_secret")
	record, err := RecordMapper{}.ToRecord(client, Authentication{}, &hexCipher{})
	if err != nil {
		t.Fatalf("to record: %v", err)
	}
	if record.StoreIdentifier() != "acme.myshopify.com" {
		t.Fatalf("expected client principal fallback, got %q", record.StoreIdentifier())
	}
}

func TestRecordMapper_FromRecord(t *testing.T) {
	record, err := NewTenantRecord("acme.myshopify.com", NewEncryptedTokenAndSalt("cipher", "salt"), []string{"read_orders"})
	if err != nil {
		t.Fatalf("new tenant record: %v", err)
	}
	client := RecordMapper{}.FromRecord(record, NewDecryptedTokenAndSalt("plain", "salt"), testRegistration())

	want := AccessToken{TokenType: TokenTypeBearer, Value: "plain", Scopes: []string{"read_orders"}}
	if diff := cmp.Diff(want, client.AccessToken); diff != "" {
		t.Fatalf("access token mismatch (-want +got):\n%s", diff)
	}
	if client.PrincipalName != "acme.myshopify.com" {
		t.Fatalf("expected store principal, got %q", client.PrincipalName)
	}
	if client.Registration.TokenURI != testRegistration().TokenURI {
		t.Fatalf("expected generic registration fields")
	}
}
