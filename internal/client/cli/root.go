package cli

import (
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	serverURL  string
	tokenFile  string
}

// NewRootCmd creates the root command. The App is built before any
// subcommand runs, from --config, the environment and the flags.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var app *App

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront API client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerURL = flags.serverURL
			}
			if cmd.Flags().Changed("token-file") {
				cfg.TokenFile = flags.tokenFile
			}
			app, err = NewApp(cfg)
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "JSON config file path")
	cmd.PersistentFlags().StringVarP(&flags.serverURL, "server", "s", "", "API base URL")
	cmd.PersistentFlags().StringVar(&flags.tokenFile, "token-file", "", "where the session token is stored")

	appFn := func() *App { return app }

	cmd.AddCommand(newRegisterCmd(appFn))
	cmd.AddCommand(newLoginCmd(appFn))
	cmd.AddCommand(newLogoutCmd(appFn))
	cmd.AddCommand(newGetCmd(appFn))
	cmd.AddCommand(newUploadCmd(appFn))
	cmd.AddCommand(newPingCmd(appFn))

	return cmd
}
