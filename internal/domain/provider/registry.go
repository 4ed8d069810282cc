package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry namespaces. Blocking request/response constructors live in the
// chat namespace, token-stream constructors in the stream namespace. A
// provider may register independently in each.
const (
	NamespaceChat   = "chat"
	NamespaceStream = "stream"
)

// Descriptor is the immutable registration record for one provider:
// its defaults plus the constructor capability.
type Descriptor[T any] struct {
	Name          string
	DefaultModel  string
	ExtraDefaults map[string]any
	New           func(cfg Config) (T, error)
}

// Registry maps provider names to descriptors within one namespace.
// Registration happens single-threaded during startup, before any lookup;
// afterwards the table is read-only, so lookups need no locking.
type Registry[T any] struct {
	namespace string
	entries   map[string]Descriptor[T]
}

// ChatRegistry holds blocking chat constructors.
type ChatRegistry = Registry[Backend]

// StreamRegistry holds streaming chat constructors.
type StreamRegistry = Registry[StreamBackend]

func NewChatRegistry() *ChatRegistry {
	return NewRegistry[Backend](NamespaceChat)
}

func NewStreamRegistry() *StreamRegistry {
	return NewRegistry[StreamBackend](NamespaceStream)
}

// NewRegistry returns an empty registry for the given namespace.
func NewRegistry[T any](namespace string) *Registry[T] {
	return &Registry[T]{
		namespace: namespace,
		entries:   make(map[string]Descriptor[T]),
	}
}

// Namespace returns the namespace this registry serves.
func (r *Registry[T]) Namespace() string {
	return r.namespace
}

// Register adds a descriptor. Registering a name twice in the same
// namespace is rejected rather than overwritten.
func (r *Registry[T]) Register(d Descriptor[T]) error {
	if d.Name == "" {
		return errors.New("provider name is required")
	}
	if d.New == nil {
		return fmt.Errorf("provider %q has no constructor", d.Name)
	}
	if _, exists := r.entries[d.Name]; exists {
		return fmt.Errorf("provider %q already registered in %s namespace", d.Name, r.namespace)
	}
	r.entries[d.Name] = d
	return nil
}

// MustRegister is Register for startup wiring, where a duplicate name is a
// programming error.
func (r *Registry[T]) MustRegister(d Descriptor[T]) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup resolves a provider name to its descriptor.
func (r *Registry[T]) Lookup(name string) (Descriptor[T], error) {
	d, ok := r.entries[name]
	if !ok {
		return Descriptor[T]{}, &UnknownProviderError{
			Namespace: r.namespace,
			Name:      name,
			Known:     r.Names(),
		}
	}
	return d, nil
}

// Names returns every registered provider name in the namespace, sorted.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownProviderError reports a lookup for a name absent from a
// namespace. Known carries every name registered there at lookup time.
type UnknownProviderError struct {
	Namespace string
	Name      string
	Known     []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unsupported %s provider: %s. Available providers: %s",
		e.Namespace, e.Name, strings.Join(e.Known, ", "))
}
