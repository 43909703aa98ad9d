package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/spf13/cobra"
)

type credentialFlags struct {
	passwordStdin bool
}

func newRegisterCmd(app func() *App) *cobra.Command {
	f := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account and log in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, args, f, app().authService.Register, "registered")
		},
	}
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLoginCmd(app func() *App) *cobra.Command {
	f := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and save the session token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, args, f, app().authService.Login, "logged in")
		},
	}
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app().authService.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

type authFunc func(ctx context.Context, username string, password []byte) (*client.Session, error)

func runAuth(cmd *cobra.Command, args []string, f *credentialFlags, do authFunc, verb string) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	var username string
	var err error
	if len(args) == 1 {
		username = args[0]
	} else {
		username, err = GetSimpleText(reader, "Username", cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
	}
	username = strings.TrimSpace(username)

	var password []byte
	if f.passwordStdin {
		line, err := readLine(reader)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = []byte(line)
	} else {
		password, err = GetPassword(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	defer common.WipeByteArray(password)

	s, err := do(cmd.Context(), username, password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s as %s (id %d)\n", verb, s.User.Username, s.User.ID)
	return nil
}

// describe turns API errors into the server's message when there is one.
func describe(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return err
}
