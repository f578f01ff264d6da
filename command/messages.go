package command

import (
	"strings"

	"github.com/goliatone/go-storeauth/core"
)

const (
	TypeSaveNewStore          = "storeauth.command.store.save"
	TypeUpdateStore           = "storeauth.command.store.update"
	TypeInstallStore          = "storeauth.command.store.install"
	TypeUninstallStore        = "storeauth.command.store.uninstall"
	TypeCompleteAuthorization = "storeauth.command.authorization.complete"
)

type SaveNewStoreMessage struct {
	Client    core.AuthorizedClient
	Principal core.Authentication
}

func (SaveNewStoreMessage) Type() string { return TypeSaveNewStore }

func (m SaveNewStoreMessage) Validate() error {
	return validateStorePayload(m.Client, m.Principal)
}

type UpdateStoreMessage struct {
	Client    core.AuthorizedClient
	Principal core.Authentication
}

func (UpdateStoreMessage) Type() string { return TypeUpdateStore }

func (m UpdateStoreMessage) Validate() error {
	return validateStorePayload(m.Client, m.Principal)
}

type InstallStoreMessage struct {
	Client    core.AuthorizedClient
	Principal core.Authentication
}

func (InstallStoreMessage) Type() string { return TypeInstallStore }

func (m InstallStoreMessage) Validate() error {
	return validateStorePayload(m.Client, m.Principal)
}

// UninstallStoreMessage carries the store to remove. A blank identifier is
// accepted and is a no-op downstream.
type UninstallStoreMessage struct {
	StoreIdentifier string
}

func (UninstallStoreMessage) Type() string { return TypeUninstallStore }

type CompleteAuthorizationMessage struct {
	Request core.AuthorizationCodeGrantRequest
}

func (CompleteAuthorizationMessage) Type() string { return TypeCompleteAuthorization }

func (m CompleteAuthorizationMessage) Validate() error {
	if strings.TrimSpace(m.Request.Exchange.Response.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	return nil
}

func validateStorePayload(client core.AuthorizedClient, principal core.Authentication) error {
	if strings.TrimSpace(client.AccessToken.Value) == "" {
		return commandValidationError("access_token", "access token is required")
	}
	if strings.TrimSpace(principal.Name) == "" && strings.TrimSpace(client.PrincipalName) == "" {
		return commandValidationError("store_identifier", "store identifier is required")
	}
	return nil
}
