package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"llm-gateway/internal/config"
	"llm-gateway/internal/gateway"
	"llm-gateway/internal/infrastructure/crontab"
	"llm-gateway/internal/infrastructure/logger"
	"llm-gateway/internal/infrastructure/observability"
	"llm-gateway/internal/interfaces/httpserver"

	_ "net/http/pprof"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
	handles    *gateway.HandleSet
	pprofPort  int
}

func (application *Application) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", application.pprofPort), nil)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.crontab.Run(ctx)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.httpServer.Run()
		if err != nil {
			cancel()
		}
		return err
	})

	return eg.Wait()
}

// Close releases the provider backends.
func (application *Application) Close() error {
	return application.handles.Close()
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("configure logger")
	}

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	application, err := buildApplication(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error().Err(err).Msg("close provider backends")
		}
	}()

	log.Info().
		Str("version", config.Version).
		Int("port", cfg.HTTPPort).
		Strs("providers", application.handles.Providers()).
		Msg("starting llm gateway")

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
