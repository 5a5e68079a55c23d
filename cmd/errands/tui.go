package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/errands/internal/app"
	"github.com/sandeepkv93/errands/internal/logging"
	"github.com/sandeepkv93/errands/internal/update"
)

// runTUI owns the terminal, so logs go to the data directory.
func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, logFile, err := logging.OpenFile(cfg.LogPath(), level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	a, err := app.Open(cmd.Context(), cfg, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	logger.Info("errands started", "data_dir", cfg.DataDir, "backend", cfg.Backend)

	program := tea.NewProgram(update.NewModel(a), tea.WithAltScreen())
	_, runErr := program.Run()
	if runErr != nil {
		runErr = fmt.Errorf("tui failed: %w", runErr)
	}
	return errors.Join(runErr, a.Close())
}
