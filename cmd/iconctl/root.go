package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/di"
	"github.com/boardicon/boardicon-server/internal/logger"
)

var (
	basePath string
	dbPath   string
	envFile  string
	verbose  bool

	// injector is set by PersistentPreRunE and shut down by PersistentPostRunE.
	injector *do.RootScope
)

var rootCmd = &cobra.Command{
	Use:   "iconctl",
	Short: "Administer board icons and the generated stylesheet",
	Long: `iconctl manages uploaded board icons, icon assignments and the
generated boardIcon.less without going through the HTTP API.

Configuration is read like the server does: flags, then environment
variables, then the .env file.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&basePath, "base-path", "", "Application directory holding icons and stylesheet")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(iconsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// initializeApp loads configuration and builds the service container.
func initializeApp(cmd *cobra.Command, _ []string) error {
	args := []string{"-env-file", envFile}
	if basePath != "" {
		args = append(args, "-base-path", basePath)
	}
	if dbPath != "" {
		args = append(args, "-db-path", dbPath)
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	injector = di.NewContainer(cfg)

	// Output goes to stdout, so logs either go to stderr or nowhere.
	log := logger.Discard()
	if verbose {
		log = logger.New(logger.Config{
			Writer:      os.Stderr,
			Level:       logger.ParseLevel(cfg.Logger.Level),
			Environment: cfg.App.Environment,
		})
	}
	do.OverrideValue(injector, log)

	return nil
}

func shutdownApp(_ *cobra.Command, _ []string) error {
	return closeApp()
}

// closeApp shuts the container down once. Cobra skips PersistentPostRunE when
// a command fails, so main calls it again after Execute.
func closeApp() error {
	if injector == nil {
		return nil
	}
	i := injector
	injector = nil
	if err := i.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %v", err)
	}
	return nil
}

func getContext() context.Context {
	return context.Background()
}

// invoke resolves a service from the container.
func invoke[T any]() (T, error) {
	return do.Invoke[T](injector)
}
