package core

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// RecordMapper converts between the authorization context produced by a login
// and the persisted TenantRecord.
type RecordMapper struct{}

func (RecordMapper) ToRecord(client AuthorizedClient, principal Authentication, cipher Cipher) (TenantRecord, error) {
	if cipher == nil {
		return TenantRecord{}, fmt.Errorf("core: cipher is required")
	}
	storeIdentifier := NormalizeStoreIdentifier(principal.Name)
	if storeIdentifier == "" {
		storeIdentifier = NormalizeStoreIdentifier(client.PrincipalName)
	}
	if storeIdentifier == "" {
		return TenantRecord{}, goerrors.New("core: store identifier is required", goerrors.CategoryBadInput).
			WithTextCode(ServiceErrorBadInput)
	}
	token := client.AccessToken.Value
	if strings.TrimSpace(token) == "" {
		return TenantRecord{}, goerrors.New("core: access token value is required", goerrors.CategoryBadInput).
			WithTextCode(ServiceErrorBadInput).
			WithMetadata(map[string]any{"store_identifier": storeIdentifier})
	}

	salt, err := cipher.GenerateSalt()
	if err != nil {
		return TenantRecord{}, fmt.Errorf("core: generate salt: %w", err)
	}
	encrypted, err := cipher.Encrypt(token, salt)
	if err != nil {
		return TenantRecord{}, fmt.Errorf("core: encrypt access token: %w", err)
	}
	return NewTenantRecord(
		storeIdentifier,
		NewEncryptedTokenAndSalt(encrypted, salt),
		principal.Authorities,
	)
}

func (RecordMapper) FromRecord(record TenantRecord, token DecryptedTokenAndSalt, registration Registration) AuthorizedClient {
	return AuthorizedClient{
		Registration:  registration.clone(),
		PrincipalName: record.StoreIdentifier(),
		AccessToken: AccessToken{
			TokenType: TokenTypeBearer,
			Value:     token.DecryptedToken(),
			Scopes:    record.GrantedAuthorities(),
		},
	}
}

var _ TenantRecordMapper = RecordMapper{}
