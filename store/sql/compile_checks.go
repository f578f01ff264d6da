package sqlstore

import "github.com/goliatone/go-storeauth/core"

var (
	_ core.TokenRepository        = (*TokenStore)(nil)
	_ core.RegistrationProvider   = (*RegistrationStore)(nil)
	_ core.RegistrationProvider   = (*CachedRegistrationProvider)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
