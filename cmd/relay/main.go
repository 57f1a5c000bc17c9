package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/contriboost/chat-relay/internal/app"
	"github.com/contriboost/chat-relay/internal/config"
	relaylog "github.com/contriboost/chat-relay/internal/log"
)

type flags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Real-time chat relay for group contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to config file (default ./config.yaml)")
	pf.StringVar(&f.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.overrides.Store.Driver, "store", "", "store driver (sqlite, postgres, memory)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), f)
		},
	}
	for _, cmd := range []*cobra.Command{root, serveCmd} {
		cmd.Flags().StringVar(&f.overrides.Addr, "addr", "", "HTTP listen address")
		cmd.Flags().DurationVar(&f.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the message store schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context(), f)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	return root
}

func loadConfig(f *flags) (*config.Config, *zerolog.Logger, error) {
	bootstrap := relaylog.New("info", "console")

	cfg, path, err := config.Load(bootstrap, f.configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.UpdateFrom(f.overrides)

	logger := relaylog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", path).Msg("configuration loaded")
	return &cfg, logger, nil
}

func serve(ctx context.Context, f *flags) error {
	cfg, logger, err := loadConfig(f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Str("store", cfg.Store.Driver).Msg("starting relay")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("relay stopped")
	return nil
}

func migrate(ctx context.Context, f *flags) error {
	cfg, logger, err := loadConfig(f)
	if err != nil {
		return err
	}

	st, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info().Str("driver", cfg.Store.Driver).Msg("schema up to date")
	return st.Close()
}
