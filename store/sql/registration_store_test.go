package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-storeauth/core"
)

type stubRegistrationProvider struct {
	mu           sync.Mutex
	registration core.Registration
	found        bool
	calls        int
	err          error
}

func (s *stubRegistrationProvider) FindByRegistrationID(_ context.Context, _ string) (core.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return core.Registration{}, false, s.err
	}
	return s.registration, s.found, nil
}

func (s *stubRegistrationProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCachedRegistrationProvider_MissFetchThenHit(t *testing.T) {
	base := &stubRegistrationProvider{
		registration: core.Registration{RegistrationID: "shopify", ClientID: "client-123", Scopes: []string{"read_orders"}},
		found:        true,
	}
	provider, err := NewCachedRegistrationProvider(base, newTestRegistrationCacheService(t))
	if err != nil {
		t.Fatalf("new cached registration provider: %v", err)
	}

	for i := 0; i < 2; i++ {
		registration, ok, err := provider.FindByRegistrationID(context.Background(), "shopify")
		if err != nil || !ok {
			t.Fatalf("find registration: ok=%t err=%v", ok, err)
		}
		if registration.ClientID != "client-123" {
			t.Fatalf("unexpected registration %+v", registration)
		}
	}
	if base.callCount() != 1 {
		t.Fatalf("expected second lookup to be a cache hit, base calls=%d", base.callCount())
	}
}

func TestCachedRegistrationProvider_InvalidateRefetches(t *testing.T) {
	base := &stubRegistrationProvider{registration: core.Registration{RegistrationID: "shopify"}, found: true}
	provider, err := NewCachedRegistrationProvider(base, newTestRegistrationCacheService(t))
	if err != nil {
		t.Fatalf("new cached registration provider: %v", err)
	}
	ctx := context.Background()
	if _, _, err := provider.FindByRegistrationID(ctx, "shopify"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := provider.Invalidate(ctx, "shopify"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, _, err := provider.FindByRegistrationID(ctx, "shopify"); err != nil {
		t.Fatalf("find after invalidate: %v", err)
	}
	if base.callCount() != 2 {
		t.Fatalf("expected refetch after invalidate, base calls=%d", base.callCount())
	}
}

func TestCachedRegistrationProvider_PropagatesErrors(t *testing.T) {
	sentinel := errors.New("db down")
	provider, err := NewCachedRegistrationProvider(&stubRegistrationProvider{err: sentinel}, newTestRegistrationCacheService(t))
	if err != nil {
		t.Fatalf("new cached registration provider: %v", err)
	}
	if _, _, err := provider.FindByRegistrationID(context.Background(), "shopify"); !errors.Is(err, sentinel) {
		t.Fatalf("expected base error, got %v", err)
	}
	if _, _, err := provider.FindByRegistrationID(context.Background(), " "); err == nil {
		t.Fatalf("expected blank registration id to fail")
	}
}

func TestRegistrationCacheKey_Contract(t *testing.T) {
	key, err := RegistrationCacheKey(" shopify/partner ")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "storeauth::registration::v1::shopify%2Fpartner" {
		t.Fatalf("unexpected cache key %q", key)
	}
}

func newTestRegistrationCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
