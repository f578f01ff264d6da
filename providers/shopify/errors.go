package shopify

import "errors"

var (
	ErrInvalidShopDomain    = errors.New("providers/shopify: invalid shop domain")
	ErrUnresolvedTemplate   = errors.New("providers/shopify: unresolved uri template placeholder")
	ErrInvalidWebhook       = errors.New("providers/shopify: webhook verification failed")
	ErrExchangerNotProvided = errors.New("providers/shopify: authorization code exchanger is required")
)
