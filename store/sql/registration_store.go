package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-storeauth/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const registrationCacheKeyPrefix = "storeauth::registration::v1"

// RegistrationStore keeps client registrations in client_registrations.
type RegistrationStore struct {
	db   *bun.DB
	repo repository.Repository[*registrationRecord]
}

func NewRegistrationStore(db *bun.DB) (*RegistrationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*registrationRecord](db, registrationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid registration repository wiring: %w", err)
		}
	}
	return &RegistrationStore{db: db, repo: repo}, nil
}

func (s *RegistrationStore) FindByRegistrationID(ctx context.Context, registrationID string) (core.Registration, bool, error) {
	if s == nil || s.repo == nil {
		return core.Registration{}, false, fmt.Errorf("sqlstore: registration store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("registration_id", "=", strings.TrimSpace(registrationID)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Registration{}, false, err
	}
	if len(records) == 0 {
		return core.Registration{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

// Save inserts the registration or replaces the row with the same
// registration id.
func (s *RegistrationStore) Save(ctx context.Context, registration core.Registration) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: registration store is not configured")
	}
	registration.RegistrationID = strings.TrimSpace(registration.RegistrationID)
	if registration.RegistrationID == "" {
		return fmt.Errorf("sqlstore: registration id is required")
	}
	now := time.Now().UTC()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &registrationRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.registration_id = ?", registration.RegistrationID).
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		row := newRegistrationRecord(registration, now)
		if errors.Is(err, sql.ErrNoRows) {
			row.ID = uuid.NewString()
			_, insertErr := tx.NewInsert().Model(row).Exec(ctx)
			return insertErr
		}
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		_, updateErr := tx.NewUpdate().
			Model(row).
			Where("id = ?", row.ID).
			Exec(ctx)
		return updateErr
	})
}

// CachedRegistrationProvider serves registration reads through a
// go-repository-cache cache. Registrations change rarely; Invalidate drops a
// cached entry after an out-of-band edit.
type CachedRegistrationProvider struct {
	base  core.RegistrationProvider
	cache repositorycache.CacheService
}

type cachedRegistration struct {
	Registration core.Registration
	Found        bool
}

func NewCachedRegistrationProvider(
	base core.RegistrationProvider,
	cacheService repositorycache.CacheService,
) (*CachedRegistrationProvider, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base registration provider is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: registration cache service is required")
	}
	return &CachedRegistrationProvider{base: base, cache: cacheService}, nil
}

// RegistrationCacheKey returns storeauth::registration::v1::<registration_id>
// with the id URL-path escaped.
func RegistrationCacheKey(registrationID string) (string, error) {
	trimmed := strings.TrimSpace(registrationID)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: registration id is required")
	}
	return registrationCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (p *CachedRegistrationProvider) FindByRegistrationID(ctx context.Context, registrationID string) (core.Registration, bool, error) {
	if p == nil || p.base == nil || p.cache == nil {
		return core.Registration{}, false, fmt.Errorf("sqlstore: cached registration provider is not configured")
	}
	cacheKey, err := RegistrationCacheKey(registrationID)
	if err != nil {
		return core.Registration{}, false, err
	}
	cached, err := repositorycache.GetOrFetch(ctx, p.cache, cacheKey, func(ctx context.Context) (cachedRegistration, error) {
		registration, found, fetchErr := p.base.FindByRegistrationID(ctx, registrationID)
		if fetchErr != nil {
			return cachedRegistration{}, fetchErr
		}
		return cachedRegistration{Registration: registration, Found: found}, nil
	})
	if err != nil {
		return core.Registration{}, false, err
	}
	if !cached.Found {
		return core.Registration{}, false, nil
	}
	registration := cached.Registration
	registration.Scopes = append([]string(nil), registration.Scopes...)
	return registration, true, nil
}

func (p *CachedRegistrationProvider) Invalidate(ctx context.Context, registrationID string) error {
	if p == nil || p.cache == nil {
		return fmt.Errorf("sqlstore: cached registration provider is not configured")
	}
	cacheKey, err := RegistrationCacheKey(registrationID)
	if err != nil {
		return err
	}
	return p.cache.Delete(ctx, cacheKey)
}
