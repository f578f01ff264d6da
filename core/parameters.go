package core

import (
	"sort"
	"strings"
)

// TenantParameter carries the store identifier through the authorization
// request and the token response. Request resolution and identity resolution
// both read it under this name.
var TenantParameter = NewParameterKey[string]("shop")

type ParameterKey[T any] struct {
	name string
}

func NewParameterKey[T any](name string) ParameterKey[T] {
	return ParameterKey[T]{name: strings.TrimSpace(name)}
}

func (k ParameterKey[T]) Name() string { return k.name }

// Parameters is an immutable bag of out-of-band values attached to OAuth2
// requests and responses. Unknown fields are preserved as-is.
type Parameters struct {
	values map[string]any
}

func NewParameters(values map[string]any) Parameters {
	if len(values) == 0 {
		return Parameters{}
	}
	copied := make(map[string]any, len(values))
	for key, value := range values {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		copied[trimmed] = value
	}
	return Parameters{values: copied}
}

func (p Parameters) Get(name string) (any, bool) {
	if len(p.values) == 0 {
		return nil, false
	}
	value, ok := p.values[strings.TrimSpace(name)]
	return value, ok
}

func (p Parameters) Len() int { return len(p.values) }

func (p Parameters) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for key := range p.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (p Parameters) Map() map[string]any {
	out := make(map[string]any, len(p.values))
	for key, value := range p.values {
		out[key] = value
	}
	return out
}

// With returns a copy of p with name set to value.
func (p Parameters) With(name string, value any) Parameters {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return p
	}
	out := p.Map()
	out[trimmed] = value
	return Parameters{values: out}
}

// Merge returns a copy of p overlaid with other. Values in other win.
func (p Parameters) Merge(other Parameters) Parameters {
	out := p.Map()
	for key, value := range other.values {
		out[key] = value
	}
	return Parameters{values: out}
}

func Lookup[T any](params Parameters, key ParameterKey[T]) (T, bool) {
	var zero T
	raw, ok := params.Get(key.Name())
	if !ok || raw == nil {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func WithParameter[T any](params Parameters, key ParameterKey[T], value T) Parameters {
	return params.With(key.Name(), value)
}

// LookupTenant returns the trimmed store identifier carried under key, or
// false when it is absent or blank.
func LookupTenant(params Parameters, key ParameterKey[string]) (string, bool) {
	value, ok := Lookup(params, key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
