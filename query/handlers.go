package query

import (
	"context"

	"github.com/goliatone/go-storeauth/core"
)

type StoreReader interface {
	DoesStoreExist(ctx context.Context, storeIdentifier string) (bool, error)
	GetStore(ctx context.Context, storeIdentifier string) (*core.AuthorizedClient, error)
	LookupStore(ctx context.Context, storeIdentifier string) (core.StoreLookup, error)
}

type DoesStoreExistQuery struct {
	reader StoreReader
}

func NewDoesStoreExistQuery(reader StoreReader) *DoesStoreExistQuery {
	return &DoesStoreExistQuery{reader: reader}
}

func (q *DoesStoreExistQuery) Query(ctx context.Context, msg DoesStoreExistMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: store reader is required")
	}
	return q.reader.DoesStoreExist(ctx, msg.StoreIdentifier)
}

// GetStoreQuery returns nil when the store is absent or its credential can
// no longer be decrypted.
type GetStoreQuery struct {
	reader StoreReader
}

func NewGetStoreQuery(reader StoreReader) *GetStoreQuery {
	return &GetStoreQuery{reader: reader}
}

func (q *GetStoreQuery) Query(ctx context.Context, msg GetStoreMessage) (*core.AuthorizedClient, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: store reader is required")
	}
	return q.reader.GetStore(ctx, msg.StoreIdentifier)
}

type LookupStoreQuery struct {
	reader StoreReader
}

func NewLookupStoreQuery(reader StoreReader) *LookupStoreQuery {
	return &LookupStoreQuery{reader: reader}
}

func (q *LookupStoreQuery) Query(ctx context.Context, msg LookupStoreMessage) (core.StoreLookup, error) {
	if q == nil || q.reader == nil {
		return core.StoreLookup{}, queryDependencyError("query: store reader is required")
	}
	return q.reader.LookupStore(ctx, msg.StoreIdentifier)
}
