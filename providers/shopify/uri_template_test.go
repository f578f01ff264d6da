package shopify

import (
	"errors"
	"testing"
)

func TestExpandURITemplate(t *testing.T) {
	got, err := ExpandURITemplate("https://{tenant}/token", map[string]string{"tenant": "acme"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != "https://acme/token" {
		t.Fatalf("expected https://acme/token, got %q", got)
	}

	if _, err := ExpandURITemplate(TokenURITemplate, map[string]string{"tenant": "acme"}); !errors.Is(err, ErrUnresolvedTemplate) {
		t.Fatalf("expected unresolved placeholder error, got %v", err)
	}
	if _, err := ExpandURITemplate("{shop}/token", map[string]string{"shop": "acme"}); err == nil {
		t.Fatalf("expected relative result to fail")
	}
}

func TestNormalizeShopDomain(t *testing.T) {
	cases := map[string]string{
		"acme":                             "acme.myshopify.com",
		" ACME.myshopify.com ":             "acme.myshopify.com",
		"https://acme.myshopify.com/admin": "acme.myshopify.com",
	}
	for input, want := range cases {
		got, err := NormalizeShopDomain(input)
		if err != nil {
			t.Fatalf("normalize %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("normalize %q: expected %q, got %q", input, want, got)
		}
	}
	for _, input := range []string{"", "acme.example.com", "acme/evil", "myshopify.com"} {
		if _, err := NormalizeShopDomain(input); !errors.Is(err, ErrInvalidShopDomain) {
			t.Fatalf("expected %q to be rejected, got %v", input, err)
		}
	}
}
