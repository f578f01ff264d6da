package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-storeauth/core"
)

var (
	_ gocmd.Commander[SaveNewStoreMessage]          = (*SaveNewStoreCommand)(nil)
	_ gocmd.Commander[UpdateStoreMessage]           = (*UpdateStoreCommand)(nil)
	_ gocmd.Commander[InstallStoreMessage]          = (*InstallStoreCommand)(nil)
	_ gocmd.Commander[UninstallStoreMessage]        = (*UninstallStoreCommand)(nil)
	_ gocmd.Commander[CompleteAuthorizationMessage] = (*CompleteAuthorizationCommand)(nil)

	_ MutatingService = (*core.Service)(nil)
)
