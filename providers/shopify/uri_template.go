package shopify

import (
	"fmt"
	"net/url"
	"strings"
)

func Placeholder(name string) string {
	return "{" + strings.TrimSpace(name) + "}"
}

// ExpandURITemplate substitutes every {name} placeholder with its value and
// checks that the result is an absolute URL. Placeholders without a value are
// an error.
func ExpandURITemplate(template string, values map[string]string) (string, error) {
	expanded := strings.TrimSpace(template)
	for name, value := range values {
		expanded = strings.ReplaceAll(expanded, Placeholder(name), strings.TrimSpace(value))
	}
	if start := strings.Index(expanded, "{"); start >= 0 {
		if end := strings.Index(expanded[start:], "}"); end > 0 {
			return "", fmt.Errorf("%w: %s", ErrUnresolvedTemplate, expanded[start:start+end+1])
		}
	}
	parsed, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("providers/shopify: parse expanded uri: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("providers/shopify: expanded uri %q is not absolute", expanded)
	}
	return expanded, nil
}
