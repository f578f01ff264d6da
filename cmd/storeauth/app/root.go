// Package app provides the storeauth administration command-line tool.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envDriver           = "STOREAUTH_DB_DRIVER"
	envDSN              = "STOREAUTH_DB_DSN"
	envPassphrase       = "STOREAUTH_CIPHER_PASSPHRASE"
	envRetiredPassphrase = "STOREAUTH_CIPHER_RETIRED_PASSPHRASE"
	envLogLevel         = "STOREAUTH_LOG_LEVEL"
)

type rootOptions struct {
	envFile           string
	driver            string
	dsn               string
	passphrase        string
	retiredPassphrase string
	logLevel          string
}

// NewRootCmd builds the storeauth command tree. Flags fall back to
// STOREAUTH_* environment variables, optionally loaded from --env-file.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "storeauth",
		Short:         "Inspect and manage stored Shopify store credentials",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.complete(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading STOREAUTH_* variables")
	flags.StringVar(&opts.driver, "driver", "", "database driver: postgres|sqlite3 (env "+envDriver+")")
	flags.StringVar(&opts.dsn, "dsn", "", "database connection string (env "+envDSN+")")
	flags.StringVar(&opts.passphrase, "passphrase", "", "credential cipher passphrase (env "+envPassphrase+")")
	flags.StringVar(&opts.retiredPassphrase, "retired-passphrase", "", "previous cipher passphrase still accepted for reads (env "+envRetiredPassphrase+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "trace|debug|info|warn|error (env "+envLogLevel+")")

	root.AddCommand(
		newMigrateCmd(opts),
		newRegisterCmd(opts),
		newExistsCmd(opts),
		newInspectCmd(opts),
		newUninstallCmd(opts),
	)
	return root
}

func (o *rootOptions) complete(cmd *cobra.Command) error {
	if path := strings.TrimSpace(o.envFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	o.driver = firstNonEmpty(o.driver, os.Getenv(envDriver), "postgres")
	o.dsn = firstNonEmpty(o.dsn, os.Getenv(envDSN))
	o.passphrase = firstNonEmpty(o.passphrase, os.Getenv(envPassphrase))
	o.retiredPassphrase = firstNonEmpty(o.retiredPassphrase, os.Getenv(envRetiredPassphrase))
	o.logLevel = firstNonEmpty(o.logLevel, os.Getenv(envLogLevel), "info")

	if o.dsn == "" {
		return fmt.Errorf("database dsn is required (flag --dsn or env %s)", envDSN)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
