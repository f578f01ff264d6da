package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParameters_TypedLookup(t *testing.T) {
	params := WithParameter(Parameters{}, TenantParameter, "acme.myshopify.com")
	shop, ok := Lookup(params, TenantParameter)
	if !ok || shop != "acme.myshopify.com" {
		t.Fatalf("expected shop lookup, got %q %t", shop, ok)
	}

	count := NewParameterKey[int]("count")
	params = params.With("count", "not-an-int")
	if _, ok := Lookup(params, count); ok {
		t.Fatalf("expected mismatched type to miss")
	}
}

func TestParameters_WritesReturnCopies(t *testing.T) {
	original := NewParameters(map[string]any{"scope": "read_orders", " ": "dropped"})
	updated := original.With("shop", "acme")

	if _, ok := original.Get("shop"); ok {
		t.Fatalf("expected original to stay unchanged")
	}
	if diff := cmp.Diff([]string{"scope", "shop"}, updated.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	exported := updated.Map()
	exported["scope"] = "mutated"
	if value, _ := updated.Get("scope"); value != "read_orders" {
		t.Fatalf("expected Map to return a copy")
	}
}

func TestParameters_MergePrefersOther(t *testing.T) {
	base := NewParameters(map[string]any{"shop": "echoed", "scope": "read"})
	merged := base.Merge(WithParameter(Parameters{}, TenantParameter, "acme"))

	if shop, _ := Lookup(merged, TenantParameter); shop != "acme" {
		t.Fatalf("expected merged shop to win, got %q", shop)
	}
	if shop, _ := Lookup(base, TenantParameter); shop != "echoed" {
		t.Fatalf("expected base unchanged, got %q", shop)
	}
	if merged.Len() != 2 {
		t.Fatalf("expected two parameters, got %d", merged.Len())
	}
}

func TestLookupTenant_TreatsBlankAsMissing(t *testing.T) {
	if _, ok := LookupTenant(WithParameter(Parameters{}, TenantParameter, "  "), TenantParameter); ok {
		t.Fatalf("expected blank tenant to be missing")
	}
	if _, ok := LookupTenant(Parameters{}, TenantParameter); ok {
		t.Fatalf("expected absent tenant to be missing")
	}
}
