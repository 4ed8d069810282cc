package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProviderBootstrapEntry describes one provider to construct at startup.
// APIKey and BaseURL may come from the environment through ${VAR} or
// ${VAR:-default} references in the providers file.
type ProviderBootstrapEntry struct {
	Name    string
	Model   string
	BaseURL string
	APIKey  string
	Enabled bool
	Extra   map[string]string
}

type providerConfigDocument struct {
	Providers []providerConfigEntry `yaml:"providers"`
}

type providerConfigEntry struct {
	Name    string            `yaml:"name"`
	Model   string            `yaml:"model"`
	BaseURL string            `yaml:"base_url"`
	APIKey  string            `yaml:"api_key"`
	Enabled string            `yaml:"enabled"`
	Extra   map[string]string `yaml:"extra"`
}

// LoadProviderBootstrap reads a providers file and expands environment
// references in every string value. A missing file surfaces as
// os.ErrNotExist so callers can fall back to defaults.
func LoadProviderBootstrap(path string) ([]ProviderBootstrapEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc providerConfigDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	entries := make([]ProviderBootstrapEntry, 0, len(doc.Providers))
	seen := make(map[string]struct{}, len(doc.Providers))
	for i, e := range doc.Providers {
		entry, err := normalizeProviderEntry(e)
		if err != nil {
			return nil, fmt.Errorf("%s: provider %d: %w", path, i, err)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate provider %q", path, entry.Name)
		}
		seen[entry.Name] = struct{}{}
		entries = append(entries, entry)
	}
	return entries, nil
}

func normalizeProviderEntry(e providerConfigEntry) (ProviderBootstrapEntry, error) {
	name := strings.ToLower(strings.TrimSpace(expandWithDefault(e.Name)))
	if name == "" {
		return ProviderBootstrapEntry{}, fmt.Errorf("missing name")
	}

	entry := ProviderBootstrapEntry{
		Name:    name,
		Model:   strings.TrimSpace(expandWithDefault(e.Model)),
		BaseURL: strings.TrimSpace(expandWithDefault(e.BaseURL)),
		APIKey:  strings.TrimSpace(expandWithDefault(e.APIKey)),
		Enabled: parseEnabled(expandWithDefault(e.Enabled), true),
	}
	if len(e.Extra) > 0 {
		entry.Extra = make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			entry.Extra[strings.TrimSpace(k)] = strings.TrimSpace(expandWithDefault(v))
		}
	}
	return entry, nil
}

func parseEnabled(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return fallback
	case "1", "t", "true", "y", "yes", "on", "enabled":
		return true
	case "0", "f", "false", "n", "no", "off", "disabled":
		return false
	default:
		return fallback
	}
}

var envExpansionPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandWithDefault substitutes ${VAR} and ${VAR:-default} references,
// using the default when the variable is unset or empty.
func expandWithDefault(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envExpansionPattern.ReplaceAllStringFunc(s, func(m string) string {
		groups := envExpansionPattern.FindStringSubmatch(m)
		if v, ok := os.LookupEnv(groups[1]); ok && v != "" {
			return v
		}
		return groups[2]
	})
}
