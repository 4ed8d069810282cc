package gateway

import (
	"fmt"
	"sort"
	"strings"
)

// HandleSet holds the provider handles constructed at startup. Like the
// registries it is written during initialization and read-only while
// serving, so lookups need no locking.
type HandleSet struct {
	defaultName string
	chat        map[string]*Handle
	stream      map[string]*StreamHandle
}

func NewHandleSet() *HandleSet {
	return &HandleSet{
		chat:   make(map[string]*Handle),
		stream: make(map[string]*StreamHandle),
	}
}

// SetDefault names the provider used when a request does not pick one.
// The first chat handle added becomes the default unless this is called.
func (s *HandleSet) SetDefault(name string) {
	s.defaultName = name
}

func (s *HandleSet) AddChat(h *Handle) {
	if len(s.chat) == 0 && s.defaultName == "" {
		s.defaultName = h.Provider
	}
	s.chat[h.Provider] = h
}

func (s *HandleSet) AddStream(h *StreamHandle) {
	s.stream[h.Provider] = h
}

// Chat resolves a configured chat handle. An empty name selects the
// default provider.
func (s *HandleSet) Chat(name string) (*Handle, error) {
	if name == "" {
		name = s.defaultName
	}
	h, ok := s.chat[name]
	if !ok {
		return nil, &NotConfiguredError{Provider: name, Configured: s.Providers()}
	}
	return h, nil
}

// Stream resolves a configured stream handle. An empty name selects the
// default provider.
func (s *HandleSet) Stream(name string) (*StreamHandle, error) {
	if name == "" {
		name = s.defaultName
	}
	h, ok := s.stream[name]
	if !ok {
		return nil, &NotConfiguredError{Provider: name, Configured: s.StreamProviders(), Stream: true}
	}
	return h, nil
}

// Providers returns every provider with a configured chat handle, sorted.
func (s *HandleSet) Providers() []string {
	names := make([]string, 0, len(s.chat))
	for name := range s.chat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StreamProviders returns every provider with a configured stream
// handle, sorted.
func (s *HandleSet) StreamProviders() []string {
	names := make([]string, 0, len(s.stream))
	for name := range s.stream {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every handle's backend.
func (s *HandleSet) Close() error {
	var firstErr error
	for _, h := range s.chat {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, h := range s.stream {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotConfiguredError reports a request for a provider that is registered
// but was not configured at startup (or not configured for streaming).
type NotConfiguredError struct {
	Provider   string
	Configured []string
	Stream     bool
}

func (e *NotConfiguredError) Error() string {
	mode := "chat"
	if e.Stream {
		mode = "streaming"
	}
	return fmt.Sprintf("provider %q is not configured for %s. Configured providers: %s",
		e.Provider, mode, strings.Join(e.Configured, ", "))
}
