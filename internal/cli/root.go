// Package cli implements the bizdesk command line front end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/bizdesk/internal/app"
	"github.com/samvad-hq/bizdesk/internal/config"
	"github.com/samvad-hq/bizdesk/internal/logger"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// RuntimeFactory opens the client runtime a command runs against.
type RuntimeFactory func(ctx context.Context) (*app.Runtime, error)

// env carries the per-invocation runtime between cobra hooks and commands.
type env struct {
	open RuntimeFactory
	rt   *app.Runtime
}

const annotationOffline = "offline"

// needsRuntime is false for help, completion and commands annotated offline.
func needsRuntime(cmd *cobra.Command) bool {
	for c := cmd; c.HasParent(); c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return cmd.Annotations[annotationOffline] != "true"
}

// NewRootCmd builds the command tree. open is called once, before any
// command that talks to the backend or the local store.
func NewRootCmd(open RuntimeFactory) *cobra.Command {
	root, _ := newRoot(open)
	return root
}

func newRoot(open RuntimeFactory) (*cobra.Command, *env) {
	e := &env{open: open}

	root := &cobra.Command{
		Use:   "bizdesk [command] [flags]",
		Short: "bizdesk - command line client for the business dashboard",
		Long: `bizdesk talks to the business dashboard backend with the same session
cookie a browser would use. Sign in once with "bizdesk login"; the session is
kept in the local store until it expires or you log out.

Examples:
  # Sign in and stay signed in
  bizdesk login --email me@example.com --remember

  # List contacts
  bizdesk contacts list

  # Sales for January, only my own
  bizdesk dashboard sales --from 2025-01-01 --to 2025-01-31 --user-only`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if e.rt != nil || !needsRuntime(cmd) {
				return nil
			}
			rt, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			e.rt = rt
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) { e.close() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.Annotations = map[string]string{annotationOffline: "true"}

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newRegisterCmd(e),
		newContactsCmd(e),
		newProductsCmd(e),
		newTodosCmd(e),
		newDashboardCmd(e),
		newCountriesCmd(e),
		newPrefsCmd(e),
	)
	return root, e
}

// close releases the runtime. PersistentPostRun is skipped when a command
// fails, so Execute calls it again.
func (e *env) close() {
	if e.rt != nil {
		e.rt.Close()
		e.rt = nil
	}
}

// Execute runs the CLI against the configured backend and returns the process
// exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	open := func(context.Context) (*app.Runtime, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		sugar, err := logger.Init(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		return app.NewRuntime(cfg, logger.NewZap(sugar))
	}
	defer func() { _ = logger.Close() }()

	root, e := newRoot(open)
	defer e.close()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, apiclient.ErrSessionExpired) {
		fmt.Fprintln(w, `Run "bizdesk login" to sign in again.`)
	}
}

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin
