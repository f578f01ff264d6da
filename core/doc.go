// Package core holds the store credential domain: tenant records, the
// additional-parameter contract, the record mapper and the token lifecycle
// service. Persistence, cryptography and the OAuth2 exchange are consumed
// through the contracts declared here.
package core
