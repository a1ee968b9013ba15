package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cogitator/internal/commands"
	"cogitator/internal/config"
	"cogitator/internal/crypto"
	"cogitator/internal/gateway"
	"cogitator/internal/metrics"
	"cogitator/internal/providers"
	"cogitator/internal/providers/registry"
	"cogitator/internal/ratelimit"
	"cogitator/internal/shell"
	"cogitator/internal/storage"
)

// app holds the long-lived pieces every subcommand shares.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	profiles *config.ProfileStore
	store    *storage.Store
	redis    *redis.Client
	gateway  *gateway.Gateway
}

func openApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.Global()}

	profiles, err := openProfiles(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.profiles = profiles

	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.Open(ctx, cfg.Store, cfg.Paths.DataDir, storage.Options{Logger: logger, Metrics: a.metrics})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = store

	gwCfg := gateway.Config{
		Profiles: profiles,
		Factory:  a.providerFactory(),
		Sampling: gateway.Sampling{
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.Temperature,
			TopP:        cfg.Chat.TopP,
		},
		Logger:  logger,
		Metrics: a.metrics,
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = store.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = rdb
		gwCfg.Quota = ratelimit.NewHourlyQuota(rdb, cfg.Rate.PerHour)
		logger.Info().Str("addr", cfg.Redis.Addr).Int64("per_hour", cfg.Rate.PerHour).Msg("redis chat quota enabled")
	}
	a.gateway = gateway.New(gwCfg)

	logger.Info().
		Str("store", cfg.Store.Driver).
		Str("provider", cfg.Chat.Provider).
		Str("config", profiles.Path()).
		Bool("sealed", len(cfg.Crypto.MasterKey) > 0).
		Msg("cogitator initialized")
	return a, nil
}

func openProfiles(cfg *config.Config, logger zerolog.Logger) (*config.ProfileStore, error) {
	var sealer *crypto.Sealer
	if len(cfg.Crypto.MasterKey) > 0 {
		s, err := crypto.NewSealer(cfg.Crypto.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("init sealer: %w", err)
		}
		sealer = s
	}
	profiles, err := config.OpenProfileStore(config.ProfileStoreOptions{
		Path:           cfg.Paths.ConfigFile,
		Sealer:         sealer,
		APIKeyOverride: cfg.APIKeyOverride,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	return profiles, nil
}

func (a *app) providerFactory() gateway.ProviderFactory {
	client := &http.Client{Timeout: a.cfg.Chat.Timeout}
	return func(apiKey string) (providers.Provider, error) {
		return registry.Build(registry.BuildOptions{
			Kind:    a.cfg.Chat.Provider,
			BaseURL: a.cfg.Chat.BaseURL,
			APIKey:  apiKey,
			Headers: map[string]string{
				"HTTP-Referer": a.cfg.Chat.Referer,
				"X-Title":      a.cfg.Chat.Title,
			},
			HTTPClient: client,
		})
	}
}

// newSession builds a shell with its own router, so listing positions are
// tracked per user.
func (a *app) newSession() *shell.Session {
	router := commands.NewRouter(commands.Config{
		Chat:      a.gateway,
		Store:     a.store,
		Profiles:  a.profiles,
		BackupDir: a.cfg.Paths.BackupDir,
		Logger:    a.logger,
		Metrics:   a.metrics,
	})
	return shell.New(shell.Config{Router: router, Chat: a.gateway, Logger: a.logger})
}

func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
