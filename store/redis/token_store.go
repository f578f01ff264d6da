package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-storeauth/core"
	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "storeauth::token"

var (
	ErrStoreNotFound = errors.New("redisstore: store not found")
	ErrStoreExists   = errors.New("redisstore: store already exists")
)

type Config struct {
	Addr      string `koanf:"addr" mapstructure:"addr"`
	Username  string `koanf:"username" mapstructure:"username"`
	Password  string `koanf:"password" mapstructure:"password"`
	DB        int    `koanf:"db" mapstructure:"db"`
	KeyPrefix string `koanf:"key_prefix" mapstructure:"key_prefix"`
}

type storedToken struct {
	StoreIdentifier    string   `json:"store_identifier"`
	EncryptedToken     string   `json:"encrypted_token"`
	Salt               string   `json:"salt"`
	GrantedAuthorities []string `json:"granted_authorities"`
	UpdatedAt          int64    `json:"updated_at"`
}

// TokenStore keeps one JSON document per store under
// <prefix>::<store identifier>. Writes are single commands, so each key is
// updated atomically.
type TokenStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewTokenStore(ctx context.Context, cfg Config) (*TokenStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redisstore: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Addr),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: connect: %w", err)
	}
	return NewTokenStoreWithClient(client, cfg.KeyPrefix), nil
}

func NewTokenStoreWithClient(client redis.UniversalClient, keyPrefix string) *TokenStore {
	keyPrefix = strings.TrimSuffix(strings.TrimSpace(keyPrefix), "::")
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &TokenStore{client: client, keyPrefix: keyPrefix}
}

func (s *TokenStore) Key(storeIdentifier string) string {
	return s.keyPrefix + "::" + core.NormalizeStoreIdentifier(storeIdentifier)
}

func (s *TokenStore) FindByStoreIdentifier(ctx context.Context, storeIdentifier string) (core.TenantRecord, bool, error) {
	if s == nil || s.client == nil {
		return core.TenantRecord{}, false, fmt.Errorf("redisstore: token store is not configured")
	}
	data, err := s.client.Get(ctx, s.Key(storeIdentifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.TenantRecord{}, false, nil
		}
		return core.TenantRecord{}, false, fmt.Errorf("redisstore: get token: %w", err)
	}
	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return core.TenantRecord{}, false, core.NewCorruptRecordError(storeIdentifier, fmt.Errorf("redisstore: decode token: %w", err))
	}
	if strings.TrimSpace(stored.StoreIdentifier) == "" {
		stored.StoreIdentifier = storeIdentifier
	}
	record, err := core.NewTenantRecord(
		stored.StoreIdentifier,
		core.NewEncryptedTokenAndSalt(stored.EncryptedToken, stored.Salt),
		stored.GrantedAuthorities,
	)
	if err != nil {
		return core.TenantRecord{}, false, core.NewCorruptRecordError(storeIdentifier, err)
	}
	return record, true, nil
}

func (s *TokenStore) Create(ctx context.Context, record core.TenantRecord) error {
	data, err := s.encode(record)
	if err != nil {
		return err
	}
	created, err := s.client.SetNX(ctx, s.Key(record.StoreIdentifier()), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redisstore: create token: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %q", ErrStoreExists, record.StoreIdentifier())
	}
	return nil
}

func (s *TokenStore) Update(ctx context.Context, record core.TenantRecord) error {
	data, err := s.encode(record)
	if err != nil {
		return err
	}
	updated, err := s.client.SetXX(ctx, s.Key(record.StoreIdentifier()), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redisstore: update token: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: %q", ErrStoreNotFound, record.StoreIdentifier())
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context, storeIdentifier string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redisstore: token store is not configured")
	}
	if err := s.client.Del(ctx, s.Key(storeIdentifier)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete token: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *TokenStore) encode(record core.TenantRecord) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("redisstore: token store is not configured")
	}
	if record.IsZero() {
		return nil, fmt.Errorf("redisstore: tenant record is required")
	}
	token := record.TokenAndSalt()
	data, err := json.Marshal(storedToken{
		StoreIdentifier:    record.StoreIdentifier(),
		EncryptedToken:     token.EncryptedToken(),
		Salt:               token.Salt(),
		GrantedAuthorities: record.GrantedAuthorities(),
		UpdatedAt:          time.Now().UTC().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode token: %w", err)
	}
	return data, nil
}

var _ core.TokenRepository = (*TokenStore)(nil)
