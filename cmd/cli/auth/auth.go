package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crucial707/bookshelf/cmd/cli/client"
	"github.com/crucial707/bookshelf/cmd/cli/config"
	"github.com/crucial707/bookshelf/cmd/cli/root"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/spf13/cobra"
)

func init() {
	root.GetRoot().AddCommand(registerCmd(), loginCmd(), logoutCmd())
}

func registerCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := prompt(cmd, "Name", &name); err != nil {
				return err
			}
			if err := prompt(cmd, "Email", &email); err != nil {
				return err
			}
			if err := prompt(cmd, "Password", &password); err != nil {
				return err
			}

			c := client.New()
			var ident models.Identity
			err := c.Do(http.MethodPost, "/auth/register", map[string]string{
				"name": name, "email": email, "password": password,
			}, &ident)
			if err != nil {
				return err
			}
			if err := saveSession(c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s <%s>\n", ident.Name, ident.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := prompt(cmd, "Email", &email); err != nil {
				return err
			}
			if err := prompt(cmd, "Password", &password); err != nil {
				return err
			}

			c := client.New()
			c.Token = ""
			var ident models.Identity
			err := c.Do(http.MethodPost, "/auth/login", map[string]string{
				"email": email, "password": password,
			}, &ident)
			if err != nil {
				return err
			}
			if err := saveSession(c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", ident.Name, ident.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the local token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New()
			if c.Token != "" {
				// The local token is removed even if the server is unreachable.
				if err := c.Do(http.MethodPost, "/auth/logout", nil, nil); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
				}
			}
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func saveSession(c *client.Client) error {
	if c.Token == "" {
		return errors.New("server did not return a session cookie")
	}
	return config.SaveToken(c.Token)
}

// prompt reads a value from the command's input when the flag was left empty.
func prompt(cmd *cobra.Command, label string, v *string) error {
	if *v != "" {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	if _, err := fmt.Fscanln(cmd.InOrStdin(), v); err != nil {
		return fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return nil
}
