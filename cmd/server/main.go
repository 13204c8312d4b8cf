package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcoot/partygame/internal/api"
	"github.com/mcoot/partygame/internal/api/middleware"
	"github.com/mcoot/partygame/internal/config"
	"github.com/mcoot/partygame/internal/factory"
	"github.com/mcoot/partygame/internal/services/auth"
	"github.com/mcoot/partygame/internal/services/janitor"
	redisstorage "github.com/mcoot/partygame/internal/storage/redis"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	cfg := &config.Config{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "partygame-server",
		Short:         "Serves the party lobby API",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Resolve(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}
	cfg.BindFlags(cmd, v)

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage,
		DatabaseURL: cfg.DatabaseURL,
		AuthConfig:  auth.Config{SessionDuration: cfg.SessionDuration},
	}
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.PartyTTL = cfg.PartyTTL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		PartyRegistry:  app.PartyRegistry,
		HistoryService: app.HistoryService,
		Cookies:        middleware.NewCookieSessions([]byte(cfg.SessionKey), cfg.SessionDuration, cfg.SecureCookies),
		SignInSecret:   cfg.SignInSecret,
		PublicURL:      cfg.PublicURL,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Bind
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	j := janitor.New(app.PartyRegistry, app.AuthService, app.Clock, cfg.FinishedRetention, cfg.JanitorInterval, logger)
	go j.Run(ctx)

	if err := server.Listen(); err != nil {
		return err
	}
	logger.Info("server listening",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
	)

	return server.Run(ctx)
}
