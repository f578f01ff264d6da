package core

type StoreLookupStatus string

const (
	StoreFound      StoreLookupStatus = "found"
	StoreNotFound   StoreLookupStatus = "not_found"
	StoreUnreadable StoreLookupStatus = "unreadable"
)

// StoreLookup is the outcome of reading a store's credentials. Client is set
// only for StoreFound; Cause holds the decryption or decode failure for StoreUnreadable.
type StoreLookup struct {
	StoreIdentifier string
	Status          StoreLookupStatus
	Client          *AuthorizedClient
	Cause           error
}

func (l StoreLookup) Found() bool {
	return l.Status == StoreFound && l.Client != nil
}

type InstallOutcome struct {
	StoreIdentifier string
	Created         bool
}

type AuthorizationResult struct {
	Principal Authentication
	Client    AuthorizedClient
	Response  AccessTokenResponse
	Outcome   InstallOutcome
}
