package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/errands/internal/app"
	"github.com/sandeepkv93/errands/internal/config"
	"github.com/sandeepkv93/errands/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "errands",
	Short:        "errands - keyboard-driven task lists",
	Long:         `errands keeps task lists with repeating tasks and opens an interactive TUI when run without a subcommand.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

var (
	dataDirFlag string
	backendFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding tasks and settings (default $ERRANDS_DATA_DIR or XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: file or sqlite")

	rootCmd.AddCommand(rruleCmd, tasksCmd, settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies command-line overrides on top of config.Load.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if backendFlag != "" {
		cfg.Backend = strings.ToLower(backendFlag)
	}
	return cfg, cfg.Validate()
}

// openCLIApp opens the stores for a one-shot command. Logs go to stderr and
// the caller must Close the app to flush pending saves.
func openCLIApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg, app.Options{
		Logger:       logging.New(cmd.ErrOrStderr(), level),
		DisableWatch: true,
	})
}

func closeApp(a *app.App, err error) error {
	if closeErr := a.Close(); closeErr != nil && err == nil {
		return fmt.Errorf("save: %w", closeErr)
	}
	return err
}
