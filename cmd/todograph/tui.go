package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aristath/todograph/internal/logging"
	"github.com/aristath/todograph/internal/tui"
)

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create signal-aware context for graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The screen belongs to the TUI, so logs go to a file.
			cfg, globalPath, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logPath := tuiLogPath(cfg, globalPath)
			if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
				return fmt.Errorf("creating log directory: %w", err)
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer logFile.Close()

			a, err := openApp(ctx, flags, logFile)
			if err != nil {
				return err
			}
			defer a.Close()

			return runTUI(ctx, stop, a)
		},
	}
}

func runTUI(ctx context.Context, stop context.CancelFunc, a *app) error {
	model := tui.New(a.svc, a.bus, a.cfg, a.globalPath, a.projectPath)

	// Start Bubble Tea program in a goroutine so we can handle shutdown
	p := tea.NewProgram(model, tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	select {
	case err := <-errChan:
		// Normal TUI exit (user pressed 'q')
		return err
	case <-ctx.Done():
		// Restore default signal handling so a second Ctrl+C force-exits
		stop()
		logging.Info("TUI", "shutdown signal received")

		p.Quit()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		select {
		case err := <-errChan:
			return err
		case <-shutdownCtx.Done():
			logging.Warn("TUI", "shutdown timeout exceeded, forcing exit")
			return nil
		}
	}
}
