package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/peopledesk/peopledesk/internal/config"
)

// app carries state shared by every subcommand.
type app struct {
	configFile string
	backend    string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "peopledesk",
		Short:         "peopledesk HR data service",
		Long:          "Serves the peopledesk HR collections over HTTP, falling back to sample data while the store is unavailable.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", os.Getenv("PEOPLEDESK_CONFIG_FILE"), "YAML config file")
	cmd.PersistentFlags().StringVar(&a.backend, "backend", "", "store backend (postgres|sqlite|memory|offline), overrides configuration")

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newMigrateCommand(a))
	cmd.AddCommand(newProbeCommand(a))

	return cmd
}

func (a *app) load() error {
	cfg, err := config.LoadFrom(a.configFile)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Backend = a.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = setupLogging(cfg)
	return nil
}

// setupLogging configures the global logger and returns the main component
// logger.
func setupLogging(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.DevMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "peopledesk").Str("version", version).Logger()
	}
	return log.With().Str("component", "main").Logger()
}

func componentLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
