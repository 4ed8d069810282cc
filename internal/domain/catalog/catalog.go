// Package catalog keeps the in-memory table of models visible through
// the gateway. It is seeded from descriptor defaults at startup and
// replaced per provider by sync runs.
package catalog

import (
	"sort"
	"sync"
	"time"
)

// Entry is one model visible through the gateway.
type Entry struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

type Catalog struct {
	mu       sync.RWMutex
	models   map[string][]string
	lastSync time.Time
}

func New() *Catalog {
	return &Catalog{models: make(map[string][]string)}
}

// Seed records models for a provider only when nothing is known yet, so
// static defaults never clobber a live sync result.
func (c *Catalog) Seed(provider string, models []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.models[provider]; ok {
		return
	}
	c.models[provider] = dedupe(models)
}

// Replace swaps in the authoritative model list for one provider.
func (c *Catalog) Replace(provider string, models []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[provider] = dedupe(models)
	c.lastSync = time.Now()
}

// Entries returns the whole catalog sorted by provider, then model id.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	providers := make([]string, 0, len(c.models))
	for p := range c.models {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	var entries []Entry
	for _, p := range providers {
		ids := append([]string(nil), c.models[p]...)
		sort.Strings(ids)
		for _, id := range ids {
			entries = append(entries, Entry{ID: id, Provider: p})
		}
	}
	return entries
}

// ModelsFor returns a copy of one provider's model list.
func (c *Catalog) ModelsFor(provider string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.models[provider]...)
}

// LastSync reports when a sync run last replaced data. Zero until the
// first Replace.
func (c *Catalog) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

func dedupe(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
