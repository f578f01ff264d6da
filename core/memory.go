package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryTokenRepository keeps tenant records in process memory.
type MemoryTokenRepository struct {
	mu      sync.RWMutex
	records map[string]TenantRecord
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{records: map[string]TenantRecord{}}
}

func (r *MemoryTokenRepository) FindByStoreIdentifier(_ context.Context, storeIdentifier string) (TenantRecord, bool, error) {
	if r == nil {
		return TenantRecord{}, false, fmt.Errorf("core: memory token repository is nil")
	}
	key := NormalizeStoreIdentifier(storeIdentifier)
	if key == "" {
		return TenantRecord{}, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[key]
	return record, ok, nil
}

func (r *MemoryTokenRepository) Create(_ context.Context, record TenantRecord) error {
	if r == nil {
		return fmt.Errorf("core: memory token repository is nil")
	}
	if record.StoreIdentifier() == "" {
		return fmt.Errorf("%w: store identifier is required", ErrInvalidStoreIdentifier)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = map[string]TenantRecord{}
	}
	if _, exists := r.records[record.StoreIdentifier()]; exists {
		return fmt.Errorf("core: store %q already exists", record.StoreIdentifier())
	}
	r.records[record.StoreIdentifier()] = record
	return nil
}

func (r *MemoryTokenRepository) Update(_ context.Context, record TenantRecord) error {
	if r == nil {
		return fmt.Errorf("core: memory token repository is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.StoreIdentifier()]; !exists {
		return fmt.Errorf("core: store %q not found", record.StoreIdentifier())
	}
	r.records[record.StoreIdentifier()] = record
	return nil
}

func (r *MemoryTokenRepository) Delete(_ context.Context, storeIdentifier string) error {
	if r == nil {
		return fmt.Errorf("core: memory token repository is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, NormalizeStoreIdentifier(storeIdentifier))
	return nil
}

func (r *MemoryTokenRepository) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// StaticRegistrationProvider serves registrations fixed at construction.
type StaticRegistrationProvider struct {
	registrations map[string]Registration
}

func NewStaticRegistrationProvider(registrations ...Registration) StaticRegistrationProvider {
	provider := StaticRegistrationProvider{registrations: make(map[string]Registration, len(registrations))}
	for _, registration := range registrations {
		id := strings.TrimSpace(registration.RegistrationID)
		if id == "" {
			continue
		}
		provider.registrations[id] = registration.clone()
	}
	return provider
}

func (p StaticRegistrationProvider) FindByRegistrationID(_ context.Context, registrationID string) (Registration, bool, error) {
	registration, ok := p.registrations[strings.TrimSpace(registrationID)]
	if !ok {
		return Registration{}, false, nil
	}
	return registration.clone(), true, nil
}

var (
	_ TokenRepository      = (*MemoryTokenRepository)(nil)
	_ RegistrationProvider = StaticRegistrationProvider{}
)
