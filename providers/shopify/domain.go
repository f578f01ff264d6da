package shopify

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"
)

const defaultDomainSuffix = ".myshopify.com"

// NormalizeShopDomain turns a shop handle, domain or admin URL into its
// canonical "<handle>.myshopify.com" form.
func NormalizeShopDomain(value string) (string, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "", fmt.Errorf("%w: shop domain is required", ErrInvalidShopDomain)
	}
	if strings.Contains(trimmed, "://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidShopDomain, err)
		}
		trimmed = strings.TrimSpace(strings.ToLower(parsed.Hostname()))
	}
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" || strings.ContainsAny(trimmed, "/?#@: ") {
		return "", fmt.Errorf("%w: %q", ErrInvalidShopDomain, value)
	}
	if !strings.Contains(trimmed, ".") {
		trimmed += defaultDomainSuffix
	}
	if !strings.HasSuffix(trimmed, defaultDomainSuffix) || trimmed == defaultDomainSuffix[1:] {
		return "", fmt.Errorf("%w: must end with %q", ErrInvalidShopDomain, defaultDomainSuffix)
	}
	return trimmed, nil
}

// ValidateTenantHost rejects store identifiers that would change more than
// the host of a URI they are substituted into. A port is allowed.
func ValidateTenantHost(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: shop domain is required", ErrInvalidShopDomain)
	}
	for _, r := range value {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`/?#@\%`, r) {
			return fmt.Errorf("%w: %q is not a host", ErrInvalidShopDomain, value)
		}
	}
	return nil
}

// RequireShopDomain accepts only identifiers already in canonical
// "<handle>.myshopify.com" form.
func RequireShopDomain(value string) error {
	normalized, err := NormalizeShopDomain(value)
	if err != nil {
		return err
	}
	if normalized != value {
		return fmt.Errorf("%w: %q is not canonical, want %q", ErrInvalidShopDomain, value, normalized)
	}
	return nil
}

func normalizeShopifyScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return []string{}
	}
	set := map[string]struct{}{}
	for _, scope := range scopes {
		for _, part := range strings.Split(scope, ",") {
			normalized := strings.TrimSpace(strings.ToLower(part))
			normalized = strings.TrimPrefix(normalized, "shopify:")
			if normalized == "" {
				continue
			}
			set[normalized] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for scope := range set {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}
