package app

import (
	"fmt"

	"github.com/spf13/cobra"

	persistence "github.com/goliatone/go-persistence-bun"
	storeauth "github.com/goliatone/go-storeauth"
	"github.com/goliatone/go-storeauth/adapters/gologger"
	"github.com/goliatone/go-storeauth/core"
	"github.com/goliatone/go-storeauth/security"
	sqlstore "github.com/goliatone/go-storeauth/store/sql"
)

type runtime struct {
	client *persistence.Client
	facade *storeauth.Facade
	logger *gologger.WriterLogger
}

func (o *rootOptions) openClient() (*persistence.Client, error) {
	return sqlstore.Open(sqlstore.Config{Driver: o.driver, DSN: o.dsn})
}

func (o *rootOptions) newLogger(cmd *cobra.Command) *gologger.WriterLogger {
	return gologger.NewWriterLogger(cmd.ErrOrStderr(), gologger.ParseLevel(o.logLevel)).Named("storeauth")
}

// openRuntime connects to the database and builds the store service. The
// cipher is only required by commands that decrypt credentials.
func (o *rootOptions) openRuntime(cmd *cobra.Command, requireCipher bool) (*runtime, error) {
	logger := o.newLogger(cmd)

	cipher, err := o.buildCipher(logger)
	if err != nil {
		return nil, err
	}
	if requireCipher && cipher == nil {
		return nil, fmt.Errorf("cipher passphrase is required (flag --passphrase or env %s)", envPassphrase)
	}

	client, err := o.openClient()
	if err != nil {
		return nil, err
	}

	opts := []storeauth.Option{
		storeauth.WithLoggerProvider(gologger.NewProvider(logger)),
		storeauth.WithPersistenceClient(client),
		storeauth.WithRepositoryFactory(sqlstore.NewRepositoryFactory()),
	}
	if cipher != nil {
		opts = append(opts, storeauth.WithCipher(cipher))
	}
	service, err := storeauth.NewService(storeauth.DefaultConfig(), opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	facade, err := storeauth.NewFacade(service)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &runtime{client: client, facade: facade, logger: logger}, nil
}

func (r *runtime) Close() error {
	if r == nil {
		return nil
	}
	if r.logger != nil {
		_ = r.logger.Sync()
	}
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (o *rootOptions) buildCipher(logger *gologger.WriterLogger) (core.Cipher, error) {
	if o.passphrase == "" {
		return nil, nil
	}
	primary, err := security.NewTextCipher(o.passphrase)
	if err != nil {
		return nil, err
	}
	if o.retiredPassphrase == "" {
		return primary, nil
	}
	retired, err := security.NewTextCipher(o.retiredPassphrase)
	if err != nil {
		return nil, err
	}
	fallback, err := security.NewFallbackCipher(primary,
		security.WithFallbackCipher(retired),
		security.WithFailurePolicy(security.FailurePolicyFallback),
		security.WithCipherDiagnostics(func(event security.CipherDiagnostic) {
			logger.Warn("cipher fallback", "operation", event.Operation, "outcome", event.Outcome, "error", event.Error)
		}),
	)
	if err != nil {
		return nil, err
	}
	return fallback, nil
}
