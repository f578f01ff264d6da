package storeauth

import (
	"fmt"

	storecommand "github.com/goliatone/go-storeauth/command"
	storequery "github.com/goliatone/go-storeauth/query"
)

type CommandQueryService interface {
	storecommand.MutatingService
	storequery.StoreReader
}

type Commands struct {
	SaveNewStore          *storecommand.SaveNewStoreCommand
	UpdateStore           *storecommand.UpdateStoreCommand
	InstallStore          *storecommand.InstallStoreCommand
	UninstallStore        *storecommand.UninstallStoreCommand
	CompleteAuthorization *storecommand.CompleteAuthorizationCommand
}

type Queries struct {
	DoesStoreExist *storequery.DoesStoreExistQuery
	GetStore       *storequery.GetStoreQuery
	LookupStore    *storequery.LookupStoreQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	reader storequery.StoreReader
}

// WithStoreReader routes queries to reader instead of the facade service,
// e.g. a read replica backed service.
func WithStoreReader(reader storequery.StoreReader) FacadeOption {
	return func(options *facadeOptions) {
		options.reader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("storeauth: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.reader
	if reader == nil {
		reader = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SaveNewStore:          storecommand.NewSaveNewStoreCommand(service),
		UpdateStore:           storecommand.NewUpdateStoreCommand(service),
		InstallStore:          storecommand.NewInstallStoreCommand(service),
		UninstallStore:        storecommand.NewUninstallStoreCommand(service),
		CompleteAuthorization: storecommand.NewCompleteAuthorizationCommand(service),
	}
	facade.queries = Queries{
		DoesStoreExist: storequery.NewDoesStoreExistQuery(reader),
		GetStore:       storequery.NewGetStoreQuery(reader),
		LookupStore:    storequery.NewLookupStoreQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
