package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	storecommand "github.com/goliatone/go-storeauth/command"
	"github.com/goliatone/go-storeauth/core"
	storequery "github.com/goliatone/go-storeauth/query"
)

func newExistsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <shop>",
		Short: "Report whether credentials are stored for a shop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			exists, err := rt.facade.Queries().DoesStoreExist.Query(cmd.Context(), storequery.DoesStoreExistMessage{
				StoreIdentifier: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		},
	}
}

type inspectOutput struct {
	StoreIdentifier string   `json:"store_identifier"`
	Status          string   `json:"status"`
	TokenType       string   `json:"token_type,omitempty"`
	TokenPresent    bool     `json:"token_present"`
	Scopes          []string `json:"scopes,omitempty"`
	Error           string   `json:"error,omitempty"`
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <shop>",
		Short: "Decrypt and describe a shop's stored credential without printing the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			lookup, err := rt.facade.Queries().LookupStore.Query(cmd.Context(), storequery.LookupStoreMessage{
				StoreIdentifier: args[0],
			})
			if err != nil {
				return err
			}

			out := inspectOutput{
				StoreIdentifier: lookup.StoreIdentifier,
				Status:          string(lookup.Status),
			}
			if lookup.Found() {
				out.TokenType = lookup.Client.AccessToken.TokenType
				out.TokenPresent = lookup.Client.AccessToken.Value != ""
				out.Scopes = lookup.Client.AccessToken.Scopes
			}
			if lookup.Status == core.StoreUnreadable && lookup.Cause != nil {
				out.Error = lookup.Cause.Error()
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(out)
		},
	}
}

func newUninstallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <shop>",
		Short: "Delete the stored credential for a shop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.facade.Commands().UninstallStore.Execute(cmd.Context(), storecommand.UninstallStoreMessage{
				StoreIdentifier: args[0],
			}); err != nil {
				return err
			}
			rt.logger.Info("store uninstalled", "store_identifier", args[0])
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
