package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tripbrain-dev/tripbrain/internal/agent"
	"github.com/tripbrain-dev/tripbrain/internal/cache"
	"github.com/tripbrain-dev/tripbrain/internal/config"
	"github.com/tripbrain-dev/tripbrain/internal/geocode"
	"github.com/tripbrain-dev/tripbrain/internal/httpapi"
	"github.com/tripbrain-dev/tripbrain/internal/llm"
	"github.com/tripbrain-dev/tripbrain/internal/nlu"
	"github.com/tripbrain-dev/tripbrain/internal/poi"
	"github.com/tripbrain-dev/tripbrain/internal/state"
	"github.com/tripbrain-dev/tripbrain/internal/store"
	"github.com/tripbrain-dev/tripbrain/internal/weather"
)

const defaultConfigPath = "config/tripbrain.yaml"

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	ConfigFile string
	Debug      bool
}

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cfg := &ServeConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Long: `Start the tripbrain HTTP service.

Loads configuration from the given file, falling back to built-in
defaults when the file does not exist.

Examples:
  tripbrain serve
  tripbrain serve --config config/tripbrain.yaml --debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.ConfigFile, "config", defaultConfigPath, "Path to the configuration file")
	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	return cmd
}

func runServe(ctx context.Context, serveCfg *ServeConfig) error {
	setupLogging(serveCfg.Debug)

	cfg, err := loadConfiguration(serveCfg.ConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info().Str("component", "serve").
		Str("storage", cfg.Storage.Backend).
		Str("llm_provider", cfg.LLM.Provider).
		Msgf("starting tripbrain on %s:%d", cfg.Server.Host, cfg.Server.Port)

	kv, err := openStore(cfg)
	if err != nil {
		return err
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}

	nluService := nlu.NewService(generator)
	geocoder := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout.Std())
	weatherClient := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout.Std())
	poiClient := poi.NewClient(cfg.Places.OverpassURL, cfg.Places.RadiusMeters, cfg.Places.Timeout.Std())

	states := state.NewManager(kv)
	agentService := agent.NewService(agent.Deps{
		Extractor:  nluService,
		Classifier: nluService,
		Suggester:  nluService,
		Geocoder:   geocoder,
		Weather:    weatherClient,
		POIs:       poiClient,

		States:       states,
		WeatherCache: cache.New(kv, cfg.Cache.WeatherTTL.Std()),
		PlacesCache:  cache.New(kv, cfg.Cache.PlacesTTL.Std()),
		ChatStore:    kv,

		BatchSize:    cfg.Places.BatchSize,
		PoolLimit:    cfg.Places.PoolLimit,
		RadiusMeters: cfg.Places.RadiusMeters,
	})

	server := httpapi.NewServer(agentService, states)
	httpServer := server.HTTPServer(cfg.Server.Host, cfg.Server.Port)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "serve").Msgf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Str("component", "serve").Msg("shutdown signal received, gracefully stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	log.Info().Str("component", "serve").Msg("shutdown complete")
	return nil
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

func loadConfiguration(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn().Str("component", "serve").Str("path", path).
			Msg("config file not found, using defaults")
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return store.OpenSQLite(cfg.Storage.Path)
	case "postgres":
		return store.OpenPostgres(cfg.Storage.DSN)
	case "file":
		return store.NewFileStore(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// buildGenerator registers every configured provider and returns the
// selected one.
func buildGenerator(cfg *config.Config) (llm.Generator, error) {
	registry := llm.NewRegistry()
	for _, provider := range cfg.LLM.Providers {
		var gen llm.Generator
		switch provider.Name {
		case "openai":
			gen = llm.NewOpenAIGenerator(provider.APIKey, provider.Model)
		case "anthropic":
			gen = llm.NewAnthropicGenerator(provider.APIKey, provider.Model)
		default:
			return nil, fmt.Errorf("unsupported LLM provider: %s", provider.Name)
		}
		if err := registry.Register(gen); err != nil {
			return nil, err
		}
	}
	return registry.Get(cfg.LLM.Provider)
}
