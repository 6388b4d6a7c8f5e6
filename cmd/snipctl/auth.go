package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/snippet-vault/internal/session"
)

const msgPasswordMismatch = "Password does not match!"

// prompt reads one line from the command's stdin.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var username, password, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Long: "Log in with a username and password, or adopt a token returned by\n" +
			"the GitHub login at <api>/auth/github/login with --token.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res session.Result
			if token != "" {
				res = a.session.LoginWithToken(token)
			} else {
				if username != "" && password == "" {
					var err error
					if password, err = prompt(cmd, "Password: "); err != nil {
						return err
					}
				}
				res = a.session.Login(commandContext(cmd), username, password)
			}
			if !res.OK {
				return errors.New(res.Message)
			}
			success(a.out, res.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token from the GitHub login")
	cmd.MarkFlagsMutuallyExclusive("token", "username")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var username, email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" && username != "" && email != "" {
				var err error
				if password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
				if confirm, err = prompt(cmd, "Confirm password: "); err != nil {
					return err
				}
			}
			if confirm != "" && confirm != password {
				return errors.New(msgPasswordMismatch)
			}

			res := a.session.Register(commandContext(cmd), username, email, password)
			if !res.OK {
				return errors.New(res.Message)
			}
			success(a.out, res.Message)
			fmt.Fprintln(a.out, styles.Muted.Render("Log in with `snipctl login -u "+strings.ToLower(username)+"`."))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, at least 8 characters (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout()
			success(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.protected("/me", func() error {
				user, err := a.api.Me(commandContext(cmd), a.session.Token())
				if err != nil {
					a.session.HandleUnauthorized(err)
					return err
				}
				fmt.Fprintf(a.out, "%s %s\n", styles.Title.Render(user.Username), styles.Muted.Render("<"+user.Email+">"))
				return nil
			})
		},
	}
}
