package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"llm-gateway/internal/config"
	"llm-gateway/internal/domain/catalog"
	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/domain/tokenusage"
	"llm-gateway/internal/gateway"
	"llm-gateway/internal/infrastructure/backend"
	"llm-gateway/internal/infrastructure/crontab"
	"llm-gateway/internal/interfaces/httpserver"
	"llm-gateway/internal/interfaces/httpserver/handlers/chathandler"
	"llm-gateway/internal/interfaces/httpserver/handlers/modelhandler"
	v1 "llm-gateway/internal/interfaces/httpserver/routes/v1"
	chatroute "llm-gateway/internal/interfaces/httpserver/routes/v1/chat"
	modelroute "llm-gateway/internal/interfaces/httpserver/routes/v1/model"
	"llm-gateway/internal/security"
)

// buildApplication assembles the gateway by hand: registries, provider
// handles, model catalog, sync job and HTTP surface.
func buildApplication(cfg *config.Config, log zerolog.Logger) (*Application, error) {
	chatReg := provider.NewChatRegistry()
	streamReg := provider.NewStreamRegistry()
	backend.Register(chatReg, streamReg)

	gw := gateway.New(chatReg, streamReg, security.NewEvents(log), tokenusage.NewEstimator(), log)

	handles, cat, targets, err := bootstrapProviders(cfg, gw, log)
	if err != nil {
		return nil, err
	}

	cron := crontab.NewCrontab(cfg, cat, targets)

	chatHandler := chathandler.NewChatHandler(gw, handles, log)
	modelHandler := modelhandler.NewModelHandler(cat, cron, log)

	v1Route := v1.NewV1Route(
		modelroute.NewModelRoute(modelHandler),
		chatroute.NewChatCompletionRoute(chatHandler, log),
	)

	return &Application{
		httpServer: httpserver.NewHttpServer(v1Route, cfg, log),
		crontab:    cron,
		handles:    handles,
		pprofPort:  cfg.PprofPort,
	}, nil
}

// bootstrapProviders constructs a handle for every enabled provider
// entry. A provider that fails construction is skipped with an error
// log; the gateway starts as long as one provider works.
func bootstrapProviders(cfg *config.Config, gw *gateway.Gateway, log zerolog.Logger) (*gateway.HandleSet, *catalog.Catalog, []crontab.SyncTarget, error) {
	handles := gateway.NewHandleSet()
	cat := catalog.New()
	var targets []crontab.SyncTarget

	for _, entry := range cfg.ProviderBootstrapEntries() {
		if !entry.Enabled {
			log.Debug().Str("provider", entry.Name).Msg("provider disabled")
			continue
		}

		providerCfg := providerConfig(entry)
		handle, err := gw.Create(entry.Name, providerCfg)
		if err != nil {
			log.Error().Err(err).Str("provider", entry.Name).Msg("skipping provider")
			continue
		}
		handles.AddChat(handle)
		cat.Seed(entry.Name, []string{handle.Model})

		if lister, ok := handle.Backend().(provider.ModelLister); ok {
			targets = append(targets, crontab.SyncTarget{Name: entry.Name, Lister: lister})
		}

		streamHandle, err := gw.CreateStream(entry.Name, providerCfg)
		if err != nil {
			var unknown *provider.UnknownProviderError
			if !errors.As(err, &unknown) {
				log.Error().Err(err).Str("provider", entry.Name).Msg("skipping stream support")
			}
			continue
		}
		handles.AddStream(streamHandle)
	}

	if len(handles.Providers()) == 0 {
		return nil, nil, nil, fmt.Errorf("no providers configured, set at least one API key or enable ollama")
	}

	if cfg.DefaultProvider != "" {
		if _, err := handles.Chat(cfg.DefaultProvider); err != nil {
			return nil, nil, nil, fmt.Errorf("default provider: %w", err)
		}
		handles.SetDefault(cfg.DefaultProvider)
	}

	return handles, cat, targets, nil
}

func providerConfig(entry config.ProviderBootstrapEntry) provider.Config {
	providerCfg := provider.Config{}
	if entry.APIKey != "" {
		providerCfg[provider.ConfigAPIKey] = entry.APIKey
	}
	if entry.Model != "" {
		providerCfg[provider.ConfigModel] = entry.Model
	}
	if entry.BaseURL != "" {
		providerCfg[provider.ConfigBaseURL] = entry.BaseURL
	}
	for k, v := range entry.Extra {
		providerCfg[k] = v
	}
	return providerCfg
}
