package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"wabot/internal/adapters/database"
	"wabot/internal/adapters/gateway"
	"wabot/internal/adapters/generator"
	"wabot/internal/adapters/metrics"
	"wabot/internal/adapters/sender"
	"wabot/internal/config"
	"wabot/internal/core/domain"
	"wabot/internal/core/domain/plugin"
	"wabot/internal/core/port"
	"wabot/internal/core/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("starting wabot...")

	log.Info().Msg("reading config...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	zerolog.SetGlobalLevel(cfg.ZerologLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db := connectDatabase(ctx, cfg)
	var store port.Database
	if db != nil {
		store = db
		defer db.Close()
	}

	gw, textSender, err := newGateway(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("gateway", cfg.Gateway).Msg("failed initializing gateway")
	}

	registry := loadPlugins(cfg)

	if err := gw.Connect(ctx); err != nil {
		log.Fatal().Err(err).Str("gateway", cfg.Gateway).Msg("failed to connect")
	}
	defer gw.Disconnect()

	opts := []service.Option{
		service.WithTimeout(cfg.HandlerTimeout),
		service.WithAuthorizer(service.NewAuthorizer(cfg.AllowedChats)),
	}

	if cfg.MetricsAddress != "" {
		opts = append(opts, service.WithRecorder(metrics.New(prometheus.DefaultRegisterer)))

		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddress, prometheus.DefaultGatherer); err != nil {
				log.Error().Err(err).Msg("metrics endpoint stopped")
			}
		}()
	}

	dispatcher := service.NewDispatcher(registry, textSender, store, cfg.Prefix, opts...)

	log.Info().
		Str("prefix", cfg.Prefix).
		Int("plugins", registry.Len()).
		Msg("bot listening")

	if err := dispatcher.Run(ctx, gw.Messages()); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("dispatcher stopped")
	}

	log.Info().Msg("shutting down")
}

// connectDatabase returns nil when persistence is not configured or unreachable. Plugins then run without it.
func connectDatabase(ctx context.Context, cfg *config.Config) *sql.DB {
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	dbCfg.ConnectTimeout = cfg.DatabaseConnectTimeout

	db, err := database.Connect(ctx, dbCfg)
	if errors.Is(err, domain.ErrNoDatabase) {
		log.Warn().Msg("no database configured, plugins run without persistence")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("database unavailable, plugins run without persistence")
		return nil
	}

	return db
}

func newGateway(ctx context.Context, cfg *config.Config) (port.Gateway, port.TextSender, error) {
	switch cfg.Gateway {
	case config.GatewayTelegram:
		gw, err := gateway.NewTelegram(cfg.TelegramToken)
		if err != nil {
			return nil, nil, err
		}
		return gw, sender.NewTelegramSender(gw.Bot()), nil
	default:
		gw, err := gateway.NewWhatsApp(ctx, gateway.WhatsAppConfig{
			SessionPath: cfg.WhatsAppSessionPath,
			PhoneNumber: cfg.BotNumber,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, sender.NewWhatsAppSender(gw.Client()), nil
	}
}

func loadPlugins(cfg *config.Config) *plugin.Registry {
	var registry *plugin.Registry

	units := []plugin.Unit{
		plugin.Static(plugin.NewPing()),
		plugin.Static(plugin.NewHelp(cfg.Prefix, func() []port.Plugin { return registry.List() })),
		plugin.Static(plugin.NewNote(cfg.Prefix)),
		{
			Source: "ask",
			Load: func() (port.Plugin, error) {
				if cfg.OpenRouterAPIKey == "" {
					return nil, errors.New("openrouter api key not configured")
				}
				gen := generator.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.SystemPrompt)
				return plugin.NewAsk(gen, cfg.OpenRouterModel, cfg.Prefix), nil
			},
		},
	}

	var opts []plugin.Option
	if cfg.RejectDuplicates {
		opts = append(opts, plugin.WithRejectDuplicates())
	}

	registry, failures := plugin.Load(units, opts...)
	for _, f := range failures {
		log.Warn().Err(f.Err).Str("source", f.Source).Msg("plugin not loaded")
	}

	return registry
}
