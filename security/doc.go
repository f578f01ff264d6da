// Package security implements the credential ciphers used to protect store
// access tokens at rest.
package security
