package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type tokenRecord struct {
	bun.BaseModel `bun:"table:store_access_tokens,alias:sat"`

	ID                 string    `bun:"id,pk"`
	StoreIdentifier    string    `bun:"store_identifier,notnull"`
	EncryptedToken     string    `bun:"encrypted_token,notnull"`
	Salt               string    `bun:"salt,notnull"`
	GrantedAuthorities []string  `bun:"granted_authorities,type:jsonb,notnull"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type registrationRecord struct {
	bun.BaseModel `bun:"table:client_registrations,alias:cr"`

	ID                         string    `bun:"id,pk"`
	RegistrationID             string    `bun:"registration_id,notnull"`
	ClientID                   string    `bun:"client_id,notnull"`
	ClientSecret               string    `bun:"client_secret,notnull"`
	ClientAuthenticationMethod string    `bun:"client_authentication_method,notnull"`
	AuthorizationGrantType     string    `bun:"authorization_grant_type,notnull"`
	RedirectURITemplate        string    `bun:"redirect_uri_template,notnull"`
	Scopes                     []string  `bun:"scopes,type:jsonb,notnull"`
	AuthorizationURI           string    `bun:"authorization_uri,notnull"`
	TokenURI                   string    `bun:"token_uri,notnull"`
	ClientName                 string    `bun:"client_name,notnull"`
	CreatedAt                  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt                  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
