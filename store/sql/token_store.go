package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storeauth/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrStoreNotFound = errors.New("sqlstore: store not found")
	ErrStoreExists   = errors.New("sqlstore: store already exists")
)

// TokenStore persists tenant records in store_access_tokens, one row per
// store identifier.
type TokenStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenRecord]
	now  func() time.Time
}

func NewTokenStore(db *bun.DB) (*TokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*tokenRecord](db, tokenHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid token repository wiring: %w", err)
		}
	}
	return &TokenStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *TokenStore) FindByStoreIdentifier(ctx context.Context, storeIdentifier string) (core.TenantRecord, bool, error) {
	if s == nil || s.repo == nil {
		return core.TenantRecord{}, false, fmt.Errorf("sqlstore: token store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("store_identifier", "=", core.NormalizeStoreIdentifier(storeIdentifier)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.TenantRecord{}, false, err
	}
	if len(records) == 0 {
		return core.TenantRecord{}, false, nil
	}
	record, err := records[0].toDomain()
	if err != nil {
		return core.TenantRecord{}, false, core.NewCorruptRecordError(storeIdentifier, err)
	}
	return record, true, nil
}

func (s *TokenStore) Create(ctx context.Context, record core.TenantRecord) error {
	if s == nil || s.db == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	if record.IsZero() {
		return fmt.Errorf("sqlstore: tenant record is required")
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := findTokenTx(ctx, tx, record.StoreIdentifier())
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %q", ErrStoreExists, record.StoreIdentifier())
		}
		row := newTokenRecord(record, s.now())
		row.ID = uuid.NewString()
		_, err = s.repo.CreateTx(ctx, tx, row)
		return err
	})
}

// Update replaces the ciphertext, salt and authorities of an existing row.
func (s *TokenStore) Update(ctx context.Context, record core.TenantRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	if record.IsZero() {
		return fmt.Errorf("sqlstore: tenant record is required")
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := findTokenTx(ctx, tx, record.StoreIdentifier())
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %q", ErrStoreNotFound, record.StoreIdentifier())
		}
		token := record.TokenAndSalt()
		existing.EncryptedToken = token.EncryptedToken()
		existing.Salt = token.Salt()
		existing.GrantedAuthorities = record.GrantedAuthorities()
		existing.UpdatedAt = s.now()
		_, err = tx.NewUpdate().
			Model(existing).
			Column("encrypted_token", "salt", "granted_authorities", "updated_at").
			Where("id = ?", existing.ID).
			Exec(ctx)
		return err
	})
}

func (s *TokenStore) Delete(ctx context.Context, storeIdentifier string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("store_identifier = ?", core.NormalizeStoreIdentifier(storeIdentifier)).
		Exec(ctx)
	return err
}

func findTokenTx(ctx context.Context, tx bun.Tx, storeIdentifier string) (*tokenRecord, error) {
	record := &tokenRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.store_identifier = ?", core.NormalizeStoreIdentifier(storeIdentifier)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
