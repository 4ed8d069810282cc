package modelhandler

import (
	"context"

	"github.com/rs/zerolog"

	"llm-gateway/internal/domain/catalog"
)

// Refresher re-syncs the model catalog from the live providers. The
// scheduled sync job satisfies this.
type Refresher interface {
	SyncAll(ctx context.Context) error
}

type ModelHandler struct {
	catalog   *catalog.Catalog
	refresher Refresher
	logger    zerolog.Logger
}

func NewModelHandler(cat *catalog.Catalog, refresher Refresher, logger zerolog.Logger) *ModelHandler {
	return &ModelHandler{
		catalog:   cat,
		refresher: refresher,
		logger:    logger,
	}
}

// List returns the catalog entries, optionally forcing a provider sync
// first. A failed sync is logged and the last known catalog served; the
// endpoint stays available while a provider is down.
func (modelHandler *ModelHandler) List(ctx context.Context, refresh bool) []catalog.Entry {
	if refresh && modelHandler.refresher != nil {
		if err := modelHandler.refresher.SyncAll(ctx); err != nil {
			modelHandler.logger.Warn().Err(err).Msg("on-demand model sync failed")
		}
	}
	return modelHandler.catalog.Entries()
}
