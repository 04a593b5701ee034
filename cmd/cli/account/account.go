package account

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/crucial707/bookshelf/cmd/cli/client"
	"github.com/crucial707/bookshelf/cmd/cli/config"
	"github.com/crucial707/bookshelf/cmd/cli/output"
	"github.com/crucial707/bookshelf/cmd/cli/root"
	"github.com/crucial707/bookshelf/internal/account"
	"github.com/spf13/cobra"
)

func init() {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Show or manage your account",
	}
	accountCmd.AddCommand(showCmd(), passwordCmd(), deleteCmd())
	root.GetRoot().AddCommand(accountCmd)
}

func showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your profile and review count",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p account.Profile
			if err := client.New().Do(http.MethodGet, "/account", nil, &p); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), p)
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Email", "Reviews"}, [][]any{
				{p.ID, p.Name, p.Email, len(p.Reviews)},
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func passwordCmd() *cobra.Command {
	var password, confirm string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			if confirm == "" {
				confirm = password
			}
			err := client.New().Do(http.MethodPut, "/account/password", map[string]string{
				"password": password, "password2": confirm,
			}, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password (defaults to --password)")
	return cmd
}

func deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account and all of its reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			if err := client.New().Do(http.MethodDelete, "/account", nil, nil); err != nil {
				return err
			}
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
