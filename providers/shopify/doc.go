// Package shopify adapts the generic authorization-code flow to Shopify, where
// every shop has its own authorize and token endpoints.
package shopify
