package crontab

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mileusna/crontab"

	"llm-gateway/internal/config"
	"llm-gateway/internal/domain/catalog"
	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/infrastructure/logger"
	"llm-gateway/internal/infrastructure/metrics"
)

const (
	DefaultModelSyncInterval = 60               // in minutes
	CronJobTimeout           = 10 * time.Minute // timeout for each sync run
	maxConcurrentSyncs       = 10
)

// SyncTarget pairs a provider name with its model lister.
type SyncTarget struct {
	Name   string
	Lister provider.ModelLister
}

// Crontab owns the periodic model sync. Providers without a lister are
// not targets; their catalog entries stay at the seeded defaults.
type Crontab struct {
	ctab    *crontab.Crontab
	cfg     *config.Config
	catalog *catalog.Catalog
	targets []SyncTarget
}

func NewCrontab(cfg *config.Config, cat *catalog.Catalog, targets []SyncTarget) *Crontab {
	return &Crontab{
		ctab:    crontab.New(),
		cfg:     cfg,
		catalog: cat,
		targets: targets,
	}
}

// Run syncs once immediately, schedules the periodic job, and blocks
// until ctx ends.
func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()

	// execute once on server start
	c.SyncAll(ctx)

	if c.cfg.ModelSyncEnabled && len(c.targets) > 0 {
		syncInterval := c.cfg.ModelSyncIntervalMinutes
		if syncInterval <= 0 {
			syncInterval = DefaultModelSyncInterval
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", syncInterval)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.SyncAll(jobCtx)
		}); err != nil {
			return fmt.Errorf("add model sync job: %w", err)
		}
		log.Info().Int("interval_minutes", syncInterval).Msg("model sync scheduled")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// SyncAll refreshes every target's model list concurrently and reports
// provider health from the outcome. The returned error names the
// providers whose sync failed; the rest still update.
func (c *Crontab) SyncAll(ctx context.Context) error {
	if len(c.targets) == 0 {
		return nil
	}

	sem := make(chan struct{}, maxConcurrentSyncs)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []string

	for _, target := range c.targets {
		wg.Add(1)
		go func(t SyncTarget) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := c.syncTarget(ctx, t); err != nil {
				mu.Lock()
				failed = append(failed, t.Name)
				mu.Unlock()
			}
		}(target)
	}
	wg.Wait()

	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("model sync failed for: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (c *Crontab) syncTarget(ctx context.Context, t SyncTarget) error {
	log := logger.GetLogger()

	models, err := t.Lister.ListModels(ctx)
	if err != nil {
		log.Error().Err(err).Str("provider", t.Name).Msg("failed to fetch models from provider")
		metrics.SetProviderHealth(t.Name, false)
		return err
	}
	metrics.SetProviderHealth(t.Name, true)

	if len(models) == 0 {
		return nil
	}
	c.catalog.Replace(t.Name, models)
	log.Info().Str("provider", t.Name).Int("models", len(models)).Msg("synced models")
	return nil
}
