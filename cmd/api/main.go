package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/n0tnow/Wisentia-sub006/internal/adapter/repo"
	httpapi "github.com/n0tnow/Wisentia-sub006/internal/http"
	"github.com/n0tnow/Wisentia-sub006/internal/http/handlers"
	"github.com/n0tnow/Wisentia-sub006/internal/infra"
	"github.com/n0tnow/Wisentia-sub006/internal/infra/credentials"
	"github.com/n0tnow/Wisentia-sub006/internal/pipeline"
	"github.com/n0tnow/Wisentia-sub006/internal/providers/genservice"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	serviceToken := strings.TrimSpace(cfg.GenerationServiceToken)
	if serviceToken == "" {
		credStore := credentials.NewStore(pool)
		tokenFromStore, err := credStore.ServiceToken(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load generation service token from store")
		} else {
			serviceToken = tokenFromStore
		}
	}
	if serviceToken == "" {
		logger.Warn().Msg("generation service token missing, calling the service unauthenticated")
	}

	svc, err := genservice.NewClient(genservice.Options{
		BaseURL:       cfg.GenerationServiceURL,
		Token:         serviceToken,
		SubmitTimeout: cfg.SubmitTimeout,
		Logger:        &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generation service client")
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Options{
		Service:     svc,
		Journal:     repo.NewJobJournal(pool),
		Entities:    repo.NewEntityRepository(pool),
		Logger:      logger,
		PollInitial: cfg.PollInitialInterval,
		PollMax:     cfg.PollMaxInterval,
		PollCeiling: cfg.PollCeiling,
	})
	defer orchestrator.Close()

	app := handlers.NewApp(orchestrator, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("AI pipeline API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
