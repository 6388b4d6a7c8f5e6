package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/sakif/snippet-vault/internal/apiclient"
	"github.com/sakif/snippet-vault/internal/config"
	"github.com/sakif/snippet-vault/internal/guard"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/nav"
	"github.com/sakif/snippet-vault/internal/runner"
	"github.com/sakif/snippet-vault/internal/session"
)

var (
	errNotLoggedIn    = errors.New("not logged in, run `snipctl login` first")
	errSessionExpired = errors.New("your session has expired, run `snipctl login` again")
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Client
	logger  *slog.Logger
	api     *apiclient.Client
	session *session.Store
	history *nav.History
	runner  *runner.Runner
	out     io.Writer
}

type globalFlags struct {
	api      string
	runner   string
	tokenDir string
}

func newRootCmd(env envconfig.Lookuper) *cobra.Command {
	var flags globalFlags
	a := &app{}

	root := &cobra.Command{
		Use:           "snipctl",
		Short:         "Manage your code snippets from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, flags, env)
		},
	}
	root.PersistentFlags().StringVar(&flags.api, "api", "", "API base URL (default $SNIPCTL_API_URL or http://localhost:8080)")
	root.PersistentFlags().StringVar(&flags.runner, "runner", "", "execute endpoint (default <api>/api/execute)")
	root.PersistentFlags().StringVar(&flags.tokenDir, "token-dir", "", "directory holding the session token")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newRunCmd(a),
		newLanguagesCmd(a),
	)
	return root
}

// init loads configuration with flags taking precedence over the
// environment, then wires the client core.
func (a *app) init(cmd *cobra.Command, flags globalFlags, env envconfig.Lookuper) error {
	overrides := map[string]string{}
	if flags.api != "" {
		overrides["SNIPCTL_API_URL"] = flags.api
	}
	if flags.runner != "" {
		overrides["SNIPCTL_RUNNER_URL"] = flags.runner
	}
	if flags.tokenDir != "" {
		overrides["SNIPCTL_TOKEN_DIR"] = flags.tokenDir
	}

	cfg, err := config.LoadClientFrom(commandContext(cmd), envconfig.MultiLookuper(envconfig.MapLookuper(overrides), env))
	if err != nil {
		return err
	}

	if cfg.TokenDir == "" {
		if cfg.TokenDir, err = session.DefaultTokenDir(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.LogLevel),
	}))
	a.api = apiclient.New(cfg.APIURL, cfg.Timeout)
	a.session = session.New(a.api, &session.FileTokenStore{Dir: cfg.TokenDir}, a.logger)
	a.history = nav.NewHistory(nav.PathHome)
	a.runner = runner.New(cfg.RunnerURL, cfg.Timeout)

	a.logger.Debug("snipctl configured",
		slog.String("api", cfg.APIURL),
		slog.String("runner", cfg.RunnerURL),
		slog.String("token_dir", cfg.TokenDir),
	)
	return nil
}

// protected runs page at path behind the route guard. A 401 while the page
// runs has already ended the session and is reported as an expiry.
func (a *app) protected(path string, page func() error) error {
	a.history.Navigate(path, nil)
	g := guard.New(a.session, a.history)
	defer g.Close()

	err := g.Protect(page)
	switch {
	case errors.Is(err, guard.ErrRedirected):
		return errNotLoggedIn
	case apiclient.IsUnauthorized(err):
		return errSessionExpired
	}
	return err
}

// parseLanguage accepts a language name in any case.
func parseLanguage(s string) (model.Language, error) {
	for _, l := range model.Languages {
		if strings.EqualFold(string(l), s) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q (see `snipctl languages`)", s)
}

// readSource returns the contents of path, or stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(raw), nil
}

// commandContext returns the command's context, never nil.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
