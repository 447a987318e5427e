package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aristath/todograph/internal/config"
	"github.com/aristath/todograph/internal/events"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/imagesearch"
	"github.com/aristath/todograph/internal/logging"
	"github.com/aristath/todograph/internal/persistence"
	"github.com/aristath/todograph/internal/service"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeRejected indicates a dependency was refused (cycle, self, duplicate).
	ExitCodeRejected = 2
	// ExitCodeNotFound indicates a referenced task does not exist.
	ExitCodeNotFound = 3
)

// Flags shared by every command.
type rootFlags struct {
	db       string
	logLevel string
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "todograph",
		Short: "Todo list with task dependencies and critical path scheduling",
		Long: `todograph keeps a list of tasks where each task may depend on others.
It refuses dependencies that would form a cycle and computes the critical
path: the chain of dependent tasks that determines the earliest finish.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.db, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newTUICmd(flags))
	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newPathCmd(flags))
	rootCmd.AddCommand(newAddCmd(flags))
	rootCmd.AddCommand(newRemoveCmd(flags))
	rootCmd.AddCommand(newImageCmd(flags))
	rootCmd.AddCommand(newDepCmd(flags))
	rootCmd.AddCommand(newCheckCmd(flags))
	rootCmd.AddCommand(newConfigCmd(flags))

	return rootCmd
}

// Execute runs the root command and exits with a code describing the failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the exit code based on the error type.
func getExitCode(err error) int {
	var rej *graph.RejectionError
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.As(err, &rej), errors.Is(err, persistence.ErrDuplicateEdge):
		return ExitCodeRejected
	case errors.Is(err, service.ErrNotFound):
		return ExitCodeNotFound
	default:
		return ExitCodeError
	}
}

// app holds everything a command needs, wired from configuration.
type app struct {
	cfg         *config.Config
	globalPath  string
	projectPath string
	store       *persistence.SQLiteStore
	bus         *events.EventBus
	images      *imagesearch.Client
	svc         *service.Service
}

// loadConfig reads config files and applies flag overrides.
func loadConfig(flags *rootFlags) (*config.Config, string, string, error) {
	globalPath, projectPath, err := config.DefaultPaths()
	if err != nil {
		return nil, "", "", err
	}

	cfg, err := config.Load(globalPath, projectPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("loading config: %w", err)
	}

	if flags.db != "" {
		cfg.Database.Path = flags.db
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, globalPath, projectPath, nil
}

// openApp loads configuration, initializes logging to logOut, and opens the
// store. Close must be called when done.
func openApp(ctx context.Context, flags *rootFlags, logOut io.Writer) (*app, error) {
	cfg, globalPath, projectPath, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	logging.Init(level, logOut)
	if err != nil {
		logging.Warn("Config", "%v; using info", err)
	}

	store, err := persistence.NewSQLiteStore(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logging.Debug("Store", "opened database at %s", cfg.Database.Path)

	bus := events.NewEventBus()
	images := imagesearch.FromConfig(cfg.Images)

	return &app{
		cfg:         cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
		store:       store,
		bus:         bus,
		images:      images,
		svc:         service.New(store, images, bus),
	}, nil
}

// Close releases the store and the event bus.
func (a *app) Close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		logging.Error("Store", err, "closing database")
	}
}

// withApp opens the app for a command's RunE and closes it afterwards.
// Logs go to stderr.
func withApp(flags *rootFlags, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), flags, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

// tuiLogPath is where the TUI logs when no log file is configured.
func tuiLogPath(cfg *config.Config, globalPath string) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(filepath.Dir(globalPath), "todograph.log")
}
