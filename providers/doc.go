// Package providers contains the generic authorization-code exchange used by
// provider adapters. Provider-specific behavior lives in subpackages.
package providers
