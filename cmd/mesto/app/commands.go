// Package app holds the mesto cobra commands.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/panyam/mesto/client"
	"github.com/panyam/mesto/client/stores/fs"
	"github.com/panyam/mesto/config"
)

const defaultServerURL = "http://localhost:3000"

// NewRootCmd creates the mesto command tree. Each call returns fresh
// commands bound to their own viper instance.
func NewRootCmd() *cobra.Command {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:           "mesto",
		Short:         "Mesto API server and command line client",
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("server", defaultServerURL, "Server URL used by client commands")
	rootCmd.PersistentFlags().String("credentials", "", "File holding saved logins (default <config dir>/mesto/credentials.json)")

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newCardsCmd())
	return rootCmd
}

// bindFlags binds each flag of cmd to its viper key.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// newClient builds an API client whose login is persisted in the
// credentials file.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	serverURL, _ := cmd.Flags().GetString("server")
	path, _ := cmd.Flags().GetString("credentials")
	store, err := fs.NewCredentialStore(path, fs.DefaultAppName)
	if err != nil {
		return nil, err
	}
	return client.New(serverURL, store), nil
}
