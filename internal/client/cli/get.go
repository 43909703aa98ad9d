package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/spf13/cobra"
)

func newGetCmd(app func() *App) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET an API path (e.g. /products or /users/1) and print the JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			token := ""
			s, err := a.authService.Session()
			switch {
			case err == nil:
				token = s.AccessToken
			case !errors.Is(err, services.ErrNotLoggedIn):
				return err
			}

			body, err := a.api.Get(cmd.Context(), args[0], token)
			if err != nil {
				return describe(err)
			}

			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}
			var out bytes.Buffer
			if err := json.Indent(&out, body, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the response as received")
	return cmd
}
