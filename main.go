package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arijanluiken/tickscript/internal/tickscript"
	"github.com/arijanluiken/tickscript/pkg/config"
)

// Set via -ldflags at build time.
var version = "dev"

// app is the state shared by every command, prepared before the command runs
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	engine *tickscript.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "tickscript",
		Short:         "Evaluate TickScript indicator scripts over OHLCV bars",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file (default config.yaml, env CONFIG_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (env LOG_LEVEL)")

	rootCmd.AddCommand(
		newValidateCmd(a),
		newRunCmd(a),
		newParseCmd(a),
		newExamplesCmd(a),
		newFunctionsCmd(a),
		newIndicatorsCmd(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log.Logger = logger

	a.cfg = cfg
	a.logger = logger
	a.engine = tickscript.NewEngine(
		logger.With().Str("component", "tickscript_engine").Logger(),
		tickscript.Options{MaxDepth: cfg.Engine.MaxDepth, CacheSize: cfg.Engine.CacheSize},
	)
	return nil
}

func newLogger(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
