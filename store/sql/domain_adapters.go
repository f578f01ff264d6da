package sqlstore

import (
	"time"

	"github.com/goliatone/go-storeauth/core"
)

func newTokenRecord(record core.TenantRecord, now time.Time) *tokenRecord {
	token := record.TokenAndSalt()
	return &tokenRecord{
		StoreIdentifier:    record.StoreIdentifier(),
		EncryptedToken:     token.EncryptedToken(),
		Salt:               token.Salt(),
		GrantedAuthorities: record.GrantedAuthorities(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (r *tokenRecord) toDomain() (core.TenantRecord, error) {
	return core.NewTenantRecord(
		r.StoreIdentifier,
		core.NewEncryptedTokenAndSalt(r.EncryptedToken, r.Salt),
		r.GrantedAuthorities,
	)
}

func newRegistrationRecord(registration core.Registration, now time.Time) *registrationRecord {
	return &registrationRecord{
		RegistrationID:             registration.RegistrationID,
		ClientID:                   registration.ClientID,
		ClientSecret:               registration.ClientSecret,
		ClientAuthenticationMethod: registration.ClientAuthenticationMethod,
		AuthorizationGrantType:     registration.AuthorizationGrantType,
		RedirectURITemplate:        registration.RedirectURITemplate,
		Scopes:                     append([]string{}, registration.Scopes...),
		AuthorizationURI:           registration.AuthorizationURI,
		TokenURI:                   registration.TokenURI,
		ClientName:                 registration.ClientName,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
}

func (r *registrationRecord) toDomain() core.Registration {
	return core.Registration{
		RegistrationID:             r.RegistrationID,
		ClientID:                   r.ClientID,
		ClientSecret:               r.ClientSecret,
		ClientAuthenticationMethod: r.ClientAuthenticationMethod,
		AuthorizationGrantType:     r.AuthorizationGrantType,
		RedirectURITemplate:        r.RedirectURITemplate,
		Scopes:                     append([]string(nil), r.Scopes...),
		AuthorizationURI:           r.AuthorizationURI,
		TokenURI:                   r.TokenURI,
		ClientName:                 r.ClientName,
	}
}
