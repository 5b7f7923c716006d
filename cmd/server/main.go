package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirerelay-server/internal/app"
	"github.com/vovakirdan/wirerelay-server/internal/auth"
	"github.com/vovakirdan/wirerelay-server/internal/config"
	"github.com/vovakirdan/wirerelay-server/internal/log"
)

func main() {
	// A missing .env file is fine; deployments set real env vars instead.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	root := &cobra.Command{
		Use:           "wirerelay-server",
		Short:         "Real-time message relay over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, overrides)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	root.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address (overrides config)")
	root.Flags().StringVar(&overrides.Storage.Driver, "storage-driver", "", "storage backend: sqlite, badger, or memory (overrides config)")
	root.Flags().StringVar(&overrides.Storage.Path, "storage-path", "", "storage file or directory (overrides config)")

	root.AddCommand(newTokenCmd(&configPath))

	return root
}

func runServe(configPath string, overrides config.Config) error {
	// The real log level is not known until the config is loaded.
	bootstrapLogger := log.New("info", "console")

	cfg, cfgPath, err := config.Load(bootstrapLogger, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)

	logger := log.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info().Str("config", cfgPath).Msg("configuration loaded")

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// newTokenCmd mints a token for local development, so a client can be
// exercised without going through the REST endpoints.
func newTokenCmd(configPath *string) *cobra.Command {
	var (
		username string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token for a username",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLogger := log.New("error", "console")

			cfg, _, err := config.Load(bootstrapLogger, *configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return errors.New("jwt secret must be configured")
			}
			if ttl > 0 {
				cfg.JWT.TTL = ttl
			}

			token, err := auth.GenerateToken(&auth.JWTConfig{
				Secret:   []byte(cfg.JWT.Secret),
				Issuer:   cfg.JWT.Issuer,
				Audience: cfg.JWT.Audience,
				TTL:      cfg.JWT.TTL,
			}, 0, username, false)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "username to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to the configured ttl)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
