package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-storeauth/core"
)

type MutatingService interface {
	SaveNewStore(ctx context.Context, client core.AuthorizedClient, principal core.Authentication) error
	UpdateStore(ctx context.Context, client core.AuthorizedClient, principal core.Authentication) error
	InstallStore(ctx context.Context, client core.AuthorizedClient, principal core.Authentication) (core.InstallOutcome, error)
	UninstallStore(ctx context.Context, storeIdentifier string) error
	CompleteAuthorization(ctx context.Context, req core.AuthorizationCodeGrantRequest) (core.AuthorizationResult, error)
}

type SaveNewStoreCommand struct {
	service MutatingService
}

func NewSaveNewStoreCommand(service MutatingService) *SaveNewStoreCommand {
	return &SaveNewStoreCommand{service: service}
}

func (c *SaveNewStoreCommand) Execute(ctx context.Context, msg SaveNewStoreMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: store service is required")
	}
	return c.service.SaveNewStore(ctx, msg.Client, msg.Principal)
}

type UpdateStoreCommand struct {
	service MutatingService
}

func NewUpdateStoreCommand(service MutatingService) *UpdateStoreCommand {
	return &UpdateStoreCommand{service: service}
}

func (c *UpdateStoreCommand) Execute(ctx context.Context, msg UpdateStoreMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: store service is required")
	}
	return c.service.UpdateStore(ctx, msg.Client, msg.Principal)
}

type InstallStoreCommand struct {
	service MutatingService
}

func NewInstallStoreCommand(service MutatingService) *InstallStoreCommand {
	return &InstallStoreCommand{service: service}
}

func (c *InstallStoreCommand) Execute(ctx context.Context, msg InstallStoreMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: install service is required")
	}
	out, err := c.service.InstallStore(ctx, msg.Client, msg.Principal)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UninstallStoreCommand struct {
	service MutatingService
}

func NewUninstallStoreCommand(service MutatingService) *UninstallStoreCommand {
	return &UninstallStoreCommand{service: service}
}

func (c *UninstallStoreCommand) Execute(ctx context.Context, msg UninstallStoreMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: uninstall service is required")
	}
	return c.service.UninstallStore(ctx, msg.StoreIdentifier)
}

type CompleteAuthorizationCommand struct {
	service MutatingService
}

func NewCompleteAuthorizationCommand(service MutatingService) *CompleteAuthorizationCommand {
	return &CompleteAuthorizationCommand{service: service}
}

func (c *CompleteAuthorizationCommand) Execute(ctx context.Context, msg CompleteAuthorizationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authorization service is required")
	}
	out, err := c.service.CompleteAuthorization(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
