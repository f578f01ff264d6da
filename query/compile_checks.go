package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-storeauth/core"
)

var (
	_ gocmd.Querier[DoesStoreExistMessage, bool]             = (*DoesStoreExistQuery)(nil)
	_ gocmd.Querier[GetStoreMessage, *core.AuthorizedClient] = (*GetStoreQuery)(nil)
	_ gocmd.Querier[LookupStoreMessage, core.StoreLookup]    = (*LookupStoreQuery)(nil)
	_ StoreReader                                            = (*core.Service)(nil)
)
