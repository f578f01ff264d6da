package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-storeauth/core"
	"github.com/uptrace/bun"
)

type FactoryOption func(*RepositoryFactory)

// WithRegistrationCache serves registration reads through the given cache.
func WithRegistrationCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.registrationCache = cacheService
	}
}

type RepositoryFactory struct {
	db                *bun.DB
	registrationCache repositorycache.CacheService

	tokenStore           *TokenStore
	registrationStore    *RegistrationStore
	registrationProvider core.RegistrationProvider
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(factory)
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.tokenStore != nil && f.registrationStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) TokenRepository() core.TokenRepository {
	if f == nil || f.tokenStore == nil {
		return nil
	}
	return f.tokenStore
}

func (f *RepositoryFactory) RegistrationProvider() core.RegistrationProvider {
	if f == nil {
		return nil
	}
	return f.registrationProvider
}

func (f *RepositoryFactory) TokenStore() *TokenStore {
	if f == nil {
		return nil
	}
	return f.tokenStore
}

func (f *RepositoryFactory) RegistrationStore() *RegistrationStore {
	if f == nil {
		return nil
	}
	return f.registrationStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	tokenStore, err := NewTokenStore(f.db)
	if err != nil {
		return err
	}
	registrationStore, err := NewRegistrationStore(f.db)
	if err != nil {
		return err
	}
	f.tokenStore = tokenStore
	f.registrationStore = registrationStore
	f.registrationProvider = registrationStore

	if f.registrationCache != nil {
		cached, cacheErr := NewCachedRegistrationProvider(registrationStore, f.registrationCache)
		if cacheErr != nil {
			return cacheErr
		}
		f.registrationProvider = cached
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
