package core

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service manages the credential lifecycle of installed stores. It keeps no
// tenant state between calls; concurrent writes to the same store identifier
// are ordered by the TokenRepository alone (last write wins).
type Service struct {
	config               Config
	logger               Logger
	loggerProvider       LoggerProvider
	metricsRecorder      MetricsRecorder
	errorFactory         ErrorFactory
	errorMapper          ErrorMapper
	persistenceClient    any
	repositoryFactory    any
	configProvider       ConfigProvider
	optionsResolver      OptionsResolver
	tokenRepository      TokenRepository
	registrationProvider RegistrationProvider
	cipher               Cipher
	recordMapper         TenantRecordMapper
	tokenResponseClient  AccessTokenResponseClient
	identityResolver     IdentityResolver
}

type ServiceDependencies struct {
	Logger               Logger
	LoggerProvider       LoggerProvider
	MetricsRecorder      MetricsRecorder
	ErrorFactory         ErrorFactory
	ErrorMapper          ErrorMapper
	PersistenceClient    any
	RepositoryFactory    any
	ConfigProvider       ConfigProvider
	OptionsResolver      OptionsResolver
	TokenRepository      TokenRepository
	RegistrationProvider RegistrationProvider
	Cipher               Cipher
	RecordMapper         TenantRecordMapper
	TokenResponseClient  AccessTokenResponseClient
	IdentityResolver     IdentityResolver
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("storeauth", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("storeauth"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.recordMapper == nil {
		builder.recordMapper = RecordMapper{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.tokenRepository == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			stores, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if stores != nil {
				builder.tokenRepository = stores.TokenRepository()
			}
		} else if stores, ok := builder.repositoryFactory.(StoreProvider); ok {
			builder.tokenRepository = stores.TokenRepository()
		}
	}
	if builder.registrationProvider == nil && builder.repositoryFactory != nil {
		if registrations, ok := builder.repositoryFactory.(interface{ RegistrationProvider() RegistrationProvider }); ok {
			builder.registrationProvider = registrations.RegistrationProvider()
		}
	}

	return &Service{
		config:               finalConfig,
		logger:               logger,
		loggerProvider:       provider,
		metricsRecorder:      builder.metricsRecorder,
		errorFactory:         builder.errorFactory,
		errorMapper:          builder.errorMapper,
		persistenceClient:    builder.persistenceClient,
		repositoryFactory:    builder.repositoryFactory,
		configProvider:       builder.configProvider,
		optionsResolver:      builder.optionsResolver,
		tokenRepository:      builder.tokenRepository,
		registrationProvider: builder.registrationProvider,
		cipher:               builder.cipher,
		recordMapper:         builder.recordMapper,
		tokenResponseClient:  builder.tokenResponseClient,
		identityResolver:     builder.identityResolver,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:               s.logger,
		LoggerProvider:       s.loggerProvider,
		MetricsRecorder:      s.metricsRecorder,
		ErrorFactory:         s.errorFactory,
		ErrorMapper:          s.errorMapper,
		PersistenceClient:    s.persistenceClient,
		RepositoryFactory:    s.repositoryFactory,
		ConfigProvider:       s.configProvider,
		OptionsResolver:      s.optionsResolver,
		TokenRepository:      s.tokenRepository,
		RegistrationProvider: s.registrationProvider,
		Cipher:               s.cipher,
		RecordMapper:         s.recordMapper,
		TokenResponseClient:  s.tokenResponseClient,
		IdentityResolver:     s.identityResolver,
	}
}

// SaveNewStore encrypts the client's access token under a fresh salt and
// creates the store record.
func (s *Service) SaveNewStore(ctx context.Context, client AuthorizedClient, principal Authentication) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"store_identifier": principalStoreIdentifier(client, principal)}
	defer func() {
		s.observeOperation(ctx, startedAt, "save_new_store", err, fields)
	}()

	record, err := s.buildRecord(client, principal)
	if err != nil {
		return s.mapError(err)
	}
	if err := s.tokenRepository.Create(ctx, record); err != nil {
		return s.mapError(err)
	}
	return nil
}

// UpdateStore replaces the stored token and salt of an existing store.
func (s *Service) UpdateStore(ctx context.Context, client AuthorizedClient, principal Authentication) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"store_identifier": principalStoreIdentifier(client, principal)}
	defer func() {
		s.observeOperation(ctx, startedAt, "update_store", err, fields)
	}()

	record, err := s.buildRecord(client, principal)
	if err != nil {
		return s.mapError(err)
	}
	if err := s.tokenRepository.Update(ctx, record); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) DoesStoreExist(ctx context.Context, storeIdentifier string) (exists bool, err error) {
	startedAt := time.Now().UTC()
	storeIdentifier = NormalizeStoreIdentifier(storeIdentifier)
	fields := map[string]any{"store_identifier": storeIdentifier}
	defer func() {
		fields["exists"] = exists
		s.observeOperation(ctx, startedAt, "does_store_exist", err, fields)
	}()

	if err := s.requireTokenRepository(); err != nil {
		return false, err
	}
	_, found, err := s.tokenRepository.FindByStoreIdentifier(ctx, storeIdentifier)
	if errors.Is(err, ErrCorruptRecord) {
		fields["corrupt"] = true
		return true, nil
	}
	if err != nil {
		return false, s.mapError(err)
	}
	return found, nil
}

// GetStore returns the decrypted credentials of an installed store. A nil
// client with a nil error means the store is not installed or its stored
// credential can no longer be decrypted; both call for a fresh authorization.
func (s *Service) GetStore(ctx context.Context, storeIdentifier string) (*AuthorizedClient, error) {
	lookup, err := s.LookupStore(ctx, storeIdentifier)
	if err != nil {
		return nil, err
	}
	if lookup.Status != StoreFound {
		return nil, nil
	}
	return lookup.Client, nil
}

// LookupStore is GetStore with the not-installed and unreadable outcomes kept
// apart.
func (s *Service) LookupStore(ctx context.Context, storeIdentifier string) (lookup StoreLookup, err error) {
	startedAt := time.Now().UTC()
	storeIdentifier = NormalizeStoreIdentifier(storeIdentifier)
	fields := map[string]any{"store_identifier": storeIdentifier}
	defer func() {
		fields["lookup_status"] = string(lookup.Status)
		s.observeOperation(ctx, startedAt, "get_store", err, fields)
	}()

	lookup = StoreLookup{StoreIdentifier: storeIdentifier, Status: StoreNotFound}
	if err := s.requireTokenRepository(); err != nil {
		return StoreLookup{}, err
	}
	record, found, err := s.tokenRepository.FindByStoreIdentifier(ctx, storeIdentifier)
	if errors.Is(err, ErrCorruptRecord) {
		s.logWarn(ctx, "stored credential is corrupt", map[string]any{
			"store_identifier": storeIdentifier,
			"error":            err.Error(),
		})
		lookup.Status = StoreUnreadable
		lookup.Cause = err
		return lookup, nil
	}
	if err != nil {
		return StoreLookup{}, s.mapError(err)
	}
	if !found {
		return lookup, nil
	}

	registration, err := s.genericRegistration(ctx)
	if err != nil {
		return StoreLookup{}, err
	}
	if err := s.requireCipher(); err != nil {
		return StoreLookup{}, err
	}

	tokenAndSalt := record.TokenAndSalt()
	plaintext, decryptErr := s.cipher.Decrypt(tokenAndSalt.EncryptedToken(), tokenAndSalt.Salt())
	if decryptErr != nil {
		var typed *DecryptionError
		if !errors.As(decryptErr, &typed) {
			typed = &DecryptionError{Cause: decryptErr}
		}
		s.logWarn(ctx, "stored credential could not be decrypted", map[string]any{
			"store_identifier": storeIdentifier,
			"error":            typed.Error(),
		})
		lookup.Status = StoreUnreadable
		lookup.Cause = typed
		return lookup, nil
	}

	client := s.recordMapper.FromRecord(
		record,
		NewDecryptedTokenAndSalt(plaintext, tokenAndSalt.Salt()),
		registration,
	)
	lookup.Status = StoreFound
	lookup.Client = &client
	return lookup, nil
}

// UninstallStore deletes the store record. A blank identifier is ignored and
// never reaches the repository.
func (s *Service) UninstallStore(ctx context.Context, storeIdentifier string) (err error) {
	startedAt := time.Now().UTC()
	storeIdentifier = NormalizeStoreIdentifier(storeIdentifier)
	fields := map[string]any{"store_identifier": storeIdentifier}
	defer func() {
		s.observeOperation(ctx, startedAt, "uninstall_store", err, fields)
	}()

	if storeIdentifier == "" {
		fields["skipped"] = true
		return nil
	}
	if err := s.requireTokenRepository(); err != nil {
		return err
	}
	if err := s.tokenRepository.Delete(ctx, storeIdentifier); err != nil {
		return s.mapError(err)
	}
	return nil
}

// InstallStore creates the store record on first authorization and replaces
// it on every later one.
func (s *Service) InstallStore(ctx context.Context, client AuthorizedClient, principal Authentication) (outcome InstallOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"store_identifier": principalStoreIdentifier(client, principal)}
	defer func() {
		fields["created"] = outcome.Created
		s.observeOperation(ctx, startedAt, "install_store", err, fields)
	}()

	record, err := s.buildRecord(client, principal)
	if err != nil {
		return InstallOutcome{}, s.mapError(err)
	}
	_, found, err := s.tokenRepository.FindByStoreIdentifier(ctx, record.StoreIdentifier())
	if errors.Is(err, ErrCorruptRecord) {
		// the row exists; overwrite it in place
		found, err = true, nil
	}
	if err != nil {
		return InstallOutcome{}, s.mapError(err)
	}
	outcome = InstallOutcome{StoreIdentifier: record.StoreIdentifier(), Created: !found}
	if found {
		err = s.tokenRepository.Update(ctx, record)
	} else {
		err = s.tokenRepository.Create(ctx, record)
	}
	if err != nil {
		return InstallOutcome{}, s.mapError(err)
	}
	return outcome, nil
}

// CompleteAuthorization runs the code exchange, resolves the store principal
// from the token response and installs the store. Exchange failures are
// returned unchanged.
func (s *Service) CompleteAuthorization(ctx context.Context, req AuthorizationCodeGrantRequest) (result AuthorizationResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	if shop, ok := LookupTenant(req.Exchange.Request.AdditionalParameters, TenantParameter); ok {
		fields["store_identifier"] = NormalizeStoreIdentifier(shop)
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "complete_authorization", err, fields)
	}()

	if s.tokenResponseClient == nil {
		return AuthorizationResult{}, s.dependencyError("token response client")
	}
	if s.identityResolver == nil {
		return AuthorizationResult{}, s.dependencyError("identity resolver")
	}
	if strings.TrimSpace(req.Registration.RegistrationID) == "" {
		registration, regErr := s.genericRegistration(ctx)
		if regErr != nil {
			return AuthorizationResult{}, regErr
		}
		req.Registration = registration
	}

	response, err := s.tokenResponseClient.GetTokenResponse(ctx, req)
	if err != nil {
		return AuthorizationResult{}, err
	}
	principal, err := s.identityResolver.Resolve(ctx, req.Registration, response)
	if err != nil {
		return AuthorizationResult{}, s.mapError(err)
	}
	client := AuthorizedClient{
		Registration:  req.Registration.clone(),
		PrincipalName: principal.Name,
		AccessToken:   response.AccessToken,
	}
	outcome, err := s.InstallStore(ctx, client, principal)
	if err != nil {
		return AuthorizationResult{}, err
	}
	return AuthorizationResult{
		Principal: principal,
		Client:    client,
		Response:  response,
		Outcome:   outcome,
	}, nil
}

func (s *Service) buildRecord(client AuthorizedClient, principal Authentication) (TenantRecord, error) {
	if err := s.requireTokenRepository(); err != nil {
		return TenantRecord{}, err
	}
	if err := s.requireCipher(); err != nil {
		return TenantRecord{}, err
	}
	return s.recordMapper.ToRecord(client, principal, s.cipher)
}

func (s *Service) genericRegistration(ctx context.Context) (Registration, error) {
	registrationID := s.config.RegistrationID
	if s.registrationProvider == nil {
		return Registration{}, s.dependencyError("registration provider")
	}
	registration, found, err := s.registrationProvider.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return Registration{}, s.mapError(err)
	}
	if !found {
		return Registration{}, &MissingRegistrationError{RegistrationID: registrationID}
	}
	return registration, nil
}

func (s *Service) requireTokenRepository() error {
	if s.tokenRepository == nil {
		return s.dependencyError("token repository")
	}
	return nil
}

func (s *Service) requireCipher() error {
	if s.cipher == nil {
		return s.dependencyError("cipher")
	}
	return nil
}

func (s *Service) dependencyError(name string) error {
	return s.errorFactory("core: "+name+" is not configured", goerrors.CategoryInternal).
		WithTextCode(ServiceErrorDependencyMissing).
		WithMetadata(map[string]any{"dependency": name})
}

// mapError normalizes collaborator failures into go-errors values. Lifecycle
// errors with their own types are returned as is so callers can match them.
func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	var converter serviceErrorConverter
	if errors.As(err, &converter) {
		return err
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func principalStoreIdentifier(client AuthorizedClient, principal Authentication) string {
	if id := NormalizeStoreIdentifier(principal.Name); id != "" {
		return id
	}
	return NormalizeStoreIdentifier(client.PrincipalName)
}
