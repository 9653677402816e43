package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/svergara/concierge/agent/agents/orchestrator"
	specialistx "github.com/svergara/concierge/agent/agents/specialist"
	contractx "github.com/svergara/concierge/agent/contract"
	llmx "github.com/svergara/concierge/agent/llm"
	promptx "github.com/svergara/concierge/agent/prompt"
	statex "github.com/svergara/concierge/agent/state"
	toolx "github.com/svergara/concierge/agent/tool"
	apix "github.com/svergara/concierge/api"
	configx "github.com/svergara/concierge/pkg/config"
	_ "github.com/svergara/concierge/pkg/logger/autoload"
	openrouterx "github.com/svergara/concierge/pkg/openrouter"
)

type AppConfig struct {
	StoreBackend string `envconfig:"STORE_BACKEND" split_words:"true" default:"memory"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	apiCfg := configx.MustNew[apix.Config]("API")

	verifyCredentials(ctx, *llmCfg)

	geocoderCfg := configx.MustNew[toolx.GeocoderConfig]("GEOCODER")
	geocoder, err := toolx.NewGeocoder(*geocoderCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize geocoder")
	}
	catalog := toolx.NewCatalog(geocoder)

	specialists, err := specialistx.NewRegistry(ctx, *llmCfg, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("build specialist registry")
	}

	orchModelCfg := llmCfg.OpenRouterFor(contractx.AgentTypeOrchestrator)
	orchModel, err := orchModelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create orchestrator model")
	}

	orch, err := orchestratorx.New(orchModel, promptx.LoadPromptSet().Orchestrator, specialists...)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	history := newHistoryStore(ctx, appCfg.StoreBackend)

	srv := &http.Server{
		Addr:              apiCfg.Addr(),
		Handler:           apix.NewServer(orch, history).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      150 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// verifyCredentials pings the models endpoint once at startup so a bad
// key shows up in the logs immediately instead of on the first chat.
// Transient failures do not block startup.
func verifyCredentials(ctx context.Context, cfg llmx.Config) {
	client := openrouterx.NewClient(cfg.OpenRouterFor(contractx.AgentTypeOrchestrator))
	if client == nil {
		log.Warn().Msg("openrouter client not configured, skipping credential check")
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := client.Models.List(checkCtx); err != nil {
		log.Warn().Err(err).Msg("openrouter credential check failed, continuing anyway")
		return
	}
	log.Info().Msg("openrouter credentials verified")
}

func newHistoryStore(ctx context.Context, backend string) contractx.HistoryStore {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		log.Info().Msg("using in-memory history store")
		return statex.NewMemoryStore()

	case "redis":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("REDIS")
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize redis history store")
		}
		log.Info().Msg("using upstash redis history store")
		return store

	case "postgres":
		cfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		store, err := statex.NewPostgresStore(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize postgres history store")
		}
		if err := store.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("migrate postgres history store")
		}
		log.Info().Msg("using postgres history store")
		return store

	default:
		log.Fatal().Str("backend", backend).Msg("unknown history store backend")
		return nil
	}
}
