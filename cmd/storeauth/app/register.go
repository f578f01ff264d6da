package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-storeauth/providers/shopify"
	sqlstore "github.com/goliatone/go-storeauth/store/sql"
)

const (
	envClientID     = "STOREAUTH_SHOPIFY_CLIENT_ID"
	envClientSecret = "STOREAUTH_SHOPIFY_CLIENT_SECRET"
)

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	cfg := shopify.DefaultRegistrationConfig()
	var scopes string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Store the Shopify client registration shared by every shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.ClientID = firstNonEmpty(cfg.ClientID, os.Getenv(envClientID))
			cfg.ClientSecret = firstNonEmpty(cfg.ClientSecret, os.Getenv(envClientSecret))
			if strings.TrimSpace(scopes) != "" {
				cfg.Scopes = strings.Split(scopes, ",")
			}
			registration, err := shopify.NewRegistration(cfg)
			if err != nil {
				return err
			}

			client, err := opts.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
			if err != nil {
				return err
			}
			if err := factory.RegistrationStore().Save(cmd.Context(), registration); err != nil {
				return fmt.Errorf("save registration: %w", err)
			}
			opts.newLogger(cmd).Info("registration saved", "registration_id", registration.RegistrationID)
			fmt.Fprintln(cmd.OutOrStdout(), registration.RegistrationID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.ClientID, "client-id", "", "Shopify app client id (env "+envClientID+")")
	flags.StringVar(&cfg.ClientSecret, "client-secret", "", "Shopify app client secret (env "+envClientSecret+")")
	flags.StringVar(&cfg.RedirectURITemplate, "redirect-uri", cfg.RedirectURITemplate, "redirect URI template")
	flags.StringVar(&scopes, "scopes", "", "comma-separated scopes (default read_products,read_inventory,read_orders)")
	return cmd
}
