package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/panyam/mesto/client"
)

// PasswordEnv supplies the login password when --password is not given.
const PasswordEnv = "MESTO_PASSWORD"

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(PasswordEnv)
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or %s) are required", PasswordEnv)
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			cred, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s (until %s)\n",
				c.ServerURL(), cred.UserEmail, cred.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", c.ServerURL())
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if !c.IsLoggedIn() {
				return errNotLoggedIn
			}
			me, err := c.Me(cmd.Context())
			if err != nil {
				if client.IsStatus(err, http.StatusUnauthorized) {
					return errNotLoggedIn
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:     %s\n", me.ID)
			fmt.Fprintf(out, "Email:  %s\n", me.Email)
			fmt.Fprintf(out, "Name:   %s\n", me.Name)
			fmt.Fprintf(out, "About:  %s\n", me.About)
			fmt.Fprintf(out, "Avatar: %s\n", me.Avatar)
			return nil
		},
	}
}

var errNotLoggedIn = errors.New("not logged in; run 'mesto login'")
