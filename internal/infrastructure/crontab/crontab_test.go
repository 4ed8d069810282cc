package crontab

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"llm-gateway/internal/config"
	"llm-gateway/internal/domain/catalog"
)

type fakeLister struct {
	models []string
	err    error
	calls  atomic.Int32
}

func (f *fakeLister) ListModels(ctx context.Context) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

func TestSyncAllReplacesCatalog(t *testing.T) {
	cat := catalog.New()
	cat.Seed("openai", []string{"gpt-4"})

	lister := &fakeLister{models: []string{"gpt-4", "gpt-4o"}}
	c := NewCrontab(&config.Config{}, cat, []SyncTarget{{Name: "openai", Lister: lister}})

	if err := c.SyncAll(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if got := cat.ModelsFor("openai"); len(got) != 2 {
		t.Errorf("expected synced models to replace seed, got %v", got)
	}
	if lister.calls.Load() != 1 {
		t.Errorf("expected one list call, got %d", lister.calls.Load())
	}
}

func TestSyncAllKeepsCatalogOnFailure(t *testing.T) {
	cat := catalog.New()
	cat.Seed("ollama", []string{"llama3"})

	lister := &fakeLister{err: errors.New("server down")}
	c := NewCrontab(&config.Config{}, cat, []SyncTarget{{Name: "ollama", Lister: lister}})

	err := c.SyncAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ollama") {
		t.Errorf("sync error should name the failed provider, got %v", err)
	}

	if got := cat.ModelsFor("ollama"); len(got) != 1 || got[0] != "llama3" {
		t.Errorf("failed sync should keep seeded models, got %v", got)
	}
}

func TestSyncAllEmptyResultKeepsData(t *testing.T) {
	cat := catalog.New()
	cat.Seed("openai", []string{"gpt-4"})

	lister := &fakeLister{models: nil}
	c := NewCrontab(&config.Config{}, cat, []SyncTarget{{Name: "openai", Lister: lister}})

	c.SyncAll(context.Background())

	if got := cat.ModelsFor("openai"); len(got) != 1 {
		t.Errorf("empty sync result should not wipe the catalog, got %v", got)
	}
}

func TestSyncAllFansOut(t *testing.T) {
	cat := catalog.New()
	a := &fakeLister{models: []string{"m1"}}
	b := &fakeLister{models: []string{"m2"}}
	c := NewCrontab(&config.Config{}, cat, []SyncTarget{
		{Name: "openai", Lister: a},
		{Name: "ollama", Lister: b},
	})

	c.SyncAll(context.Background())

	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Errorf("every target should sync exactly once, got %d and %d", a.calls.Load(), b.calls.Load())
	}
	if entries := cat.Entries(); len(entries) != 2 {
		t.Errorf("expected 2 catalog entries, got %v", entries)
	}
}
