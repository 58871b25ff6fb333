package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/studiowebux/reqflow/internal/cli"
	"github.com/studiowebux/reqflow/internal/config"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/history"
	"github.com/studiowebux/reqflow/internal/logger"
	"github.com/studiowebux/reqflow/internal/parser"
	"github.com/studiowebux/reqflow/internal/session"
	"github.com/studiowebux/reqflow/internal/tui"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// The response was already printed; the status only sets the exit code
		if !errors.Is(err, cli.ErrHTTPStatus) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reqflow",
	Short: "reqflow - HTTP request recipes with chaining",
	Long: `reqflow sends parameterized HTTP requests defined in a collection file.

Placeholders are resolved at send time:
  {{ name }}          profile value or -o override
  {{ chains.<id> }}   value extracted from another request's last response
  {{ env.<VAR> }}     environment variable

Run without a subcommand to start the interactive TUI.

Examples:
  reqflow -c api.yaml                     # Start the TUI
  reqflow request login -c api.yaml       # Send one request
  reqflow request me -p prod -q name      # Query the JSON response
  reqflow check -c api.yaml -p staging    # Render every request without sending
  reqflow history login --limit 5         # Recent attempts`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(true)
		if err != nil {
			return err
		}
		defer app.close()

		return tui.Run(tui.Options{
			CollectionPath: flagCollection,
			Collection:     app.collection,
			Engine:         app.engine,
			Repository:     app.history,
			Session:        app.session,
			Logger:         app.logger,
		})
	},
}

var requestCmd = &cobra.Command{
	Use:   "request [id]",
	Short: "Send one request and print the response",
	Long: `Send one request from the collection and print the response.

Without an id, an interactive selector is shown when stdin is a terminal.
The exit code is 1 when the request fails or the status is 400 or above.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(false)
		if err != nil {
			return err
		}
		defer app.close()

		opts := cli.RunOptions{
			Profile:      flagProfile,
			Overrides:    flagOverrides,
			OutputFormat: flagOutput,
			ShowFull:     flagFull,
			Query:        flagQuery,
		}
		if len(args) > 0 {
			opts.RecipeID = types.RecipeID(args[0])
		}
		return cli.Run(cmd.Context(), app.env(cmd), opts)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Render every request in the collection without sending",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(false)
		if err != nil {
			return err
		}
		defer app.close()

		return cli.Check(cmd.Context(), app.env(cmd), cli.CheckOptions{
			Profile:   flagProfile,
			Overrides: flagOverrides,
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List stored attempts for a request",
	Long: `List stored attempts for a request, newest first.

Without an id, prints the number of stored records.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(false)
		if err != nil {
			return err
		}
		defer app.close()

		opts := cli.HistoryOptions{
			Limit: flagHistoryLimit,
			Clear: flagHistoryClear,
		}
		if len(args) > 0 {
			opts.RecipeID = types.RecipeID(args[0])
		}
		return cli.History(cmd.Context(), app.env(cmd), opts)
	},
}

// Global flags
var (
	flagCollection string
	flagProfile    string
	flagOverrides  []string
	flagEnvFile    string
)

// Flags for request
var (
	flagOutput string
	flagFull   bool
	flagQuery  string
)

// Flags for history
var (
	flagHistoryLimit int
	flagHistoryClear bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagCollection, "collection", "c", "reqflow.yaml", "Collection file (.yaml, .json, .jsonc, .http)")
	rootCmd.PersistentFlags().StringVarP(&flagProfile, "profile", "p", "", "Profile to use (default: session profile, then the first one)")
	rootCmd.PersistentFlags().StringArrayVarP(&flagOverrides, "override", "o", []string{}, "Set a template value (key=value), can be repeated")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Load environment variables from file")

	requestCmd.Flags().StringVar(&flagOutput, "output", "", "Output format (text/json/yaml/body)")
	requestCmd.Flags().BoolVarP(&flagFull, "full", "f", false, "Show full output (status, headers, body)")
	requestCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query applied to a JSON response")

	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum number of records")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete all stored records")

	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
}

// app is everything a command needs, built once per invocation
type app struct {
	collection *types.Collection
	engine     *executor.Engine
	history    *history.Manager
	session    *session.Manager
	logger     *zap.Logger
	closeLog   func() error
}

// setup initializes config, logging, the collection, history and the engine.
// The TUI closes the history database itself on exit.
func setup(interactive bool) (_ *app, err error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	settings, err := config.LoadSettings(config.SettingsFile)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logger.New(settings.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() {
		if err != nil {
			_ = closeLog()
		}
	}()

	if err := cli.LoadEnvFile(flagEnvFile); err != nil {
		return nil, err
	}

	collection, err := parser.LoadCollection(flagCollection)
	if err != nil {
		return nil, err
	}

	hist, err := history.NewManager(settings.Database)
	if err != nil {
		return nil, err
	}

	engine, err := executor.NewEngine(settings.TLSConfig(), log)
	if err != nil {
		hist.Close()
		return nil, err
	}

	mgr := session.NewManager(config.GetSessionFilePath())
	if err := mgr.Load(); err != nil {
		hist.Close()
		return nil, err
	}
	if interactive && flagProfile != "" {
		if _, ok := collection.Profile(flagProfile); !ok {
			hist.Close()
			return nil, fmt.Errorf("profile %q not found", flagProfile)
		}
		mgr.SetActiveProfile(flagProfile)
	}
	if interactive {
		overrides, err := cli.ParseOverrides(flagOverrides)
		if err != nil {
			hist.Close()
			return nil, err
		}
		for k, v := range overrides {
			mgr.SetOverride(k, v)
		}
	}

	log.Debug("Loaded collection",
		zap.String("path", flagCollection),
		zap.Int("requests", len(collection.Requests)),
		zap.Int("profiles", len(collection.Profiles)))

	return &app{
		collection: collection,
		engine:     engine,
		history:    hist,
		session:    mgr,
		logger:     log,
		closeLog:   closeLog,
	}, nil
}

func (a *app) env(cmd *cobra.Command) *cli.Env {
	return &cli.Env{
		Collection: a.collection,
		Engine:     a.engine,
		History:    a.history,
		Logger:     a.logger,
		Out:        cmd.OutOrStdout(),
		Err:        cmd.ErrOrStderr(),
	}
}

// close releases the history database, then flushes and closes the log.
// Closing the database twice is harmless, so it also runs after the TUI's
// own cleanup.
func (a *app) close() {
	if err := a.history.Close(); err != nil {
		a.logger.Debug("History close", zap.Error(err))
	}
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log: %v\n", err)
	}
}
