package catalog

import (
	"reflect"
	"sync"
	"testing"
)

func TestSeedDoesNotClobberReplace(t *testing.T) {
	c := New()
	c.Replace("openai", []string{"gpt-4o"})
	c.Seed("openai", []string{"gpt-4"})

	if got := c.ModelsFor("openai"); !reflect.DeepEqual(got, []string{"gpt-4o"}) {
		t.Errorf("seed overwrote synced models: %v", got)
	}
}

func TestSeedFillsEmptyProvider(t *testing.T) {
	c := New()
	c.Seed("anthropic", []string{"claude-3-opus-20240229"})

	if got := c.ModelsFor("anthropic"); len(got) != 1 {
		t.Errorf("expected seeded model, got %v", got)
	}
}

func TestEntriesSortedAndDeduped(t *testing.T) {
	c := New()
	c.Replace("openai", []string{"gpt-4o", "gpt-4", "gpt-4", ""})
	c.Replace("ollama", []string{"llama3"})

	want := []Entry{
		{ID: "llama3", Provider: "ollama"},
		{ID: "gpt-4", Provider: "openai"},
		{ID: "gpt-4o", Provider: "openai"},
	}
	if got := c.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestLastSyncOnlyMovesOnReplace(t *testing.T) {
	c := New()
	if !c.LastSync().IsZero() {
		t.Error("fresh catalog should have zero last sync")
	}
	c.Seed("ollama", []string{"llama3"})
	if !c.LastSync().IsZero() {
		t.Error("seeding should not count as a sync")
	}
	c.Replace("ollama", []string{"llama3"})
	if c.LastSync().IsZero() {
		t.Error("replace should record a sync time")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Replace("openai", []string{"gpt-4", "gpt-4o"})
		}()
		go func() {
			defer wg.Done()
			_ = c.Entries()
			_ = c.ModelsFor("openai")
		}()
	}
	wg.Wait()

	if got := len(c.ModelsFor("openai")); got != 2 {
		t.Errorf("expected 2 models after concurrent writes, got %d", got)
	}
}
