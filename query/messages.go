package query

const (
	TypeDoesStoreExist = "storeauth.query.store.exists"
	TypeGetStore       = "storeauth.query.store.get"
	TypeLookupStore    = "storeauth.query.store.lookup"
)

type DoesStoreExistMessage struct {
	StoreIdentifier string
}

func (DoesStoreExistMessage) Type() string { return TypeDoesStoreExist }

type GetStoreMessage struct {
	StoreIdentifier string
}

func (GetStoreMessage) Type() string { return TypeGetStore }

type LookupStoreMessage struct {
	StoreIdentifier string
}

func (LookupStoreMessage) Type() string { return TypeLookupStore }
