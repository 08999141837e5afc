package plugins

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
)

var ErrAdapterNotFound = errors.New("adapter not found")

// Hook runs at plugin boot or shutdown. A boot hook returning an error marks
// the plugin skipped; its adapters stay registered.
type Hook func(ctx context.Context) error

type Plugin struct {
	Name       string
	Adapters   []Adapter
	OnRegister Hook
	OnShutdown Hook
}

type pluginEntry struct {
	plugin  Plugin
	skipped bool
}

// Registry holds all registered adapters grouped by adapter type. It is
// constructed once at startup and passed into every director; after Boot it
// is read-mostly and lookups take only a read lock.
type Registry struct {
	mu      sync.RWMutex
	byType  map[AdapterType][]Adapter
	byKey   map[AdapterType]map[string]Adapter
	plugins []*pluginEntry
	booted  bool
}

func NewRegistry() *Registry {
	return &Registry{
		byType: map[AdapterType][]Adapter{},
		byKey:  map[AdapterType]map[string]Adapter{},
	}
}

// RegisterAdapter adds an adapter under its type tag. Re-registration of an
// existing key is a logged no-op.
func (r *Registry) RegisterAdapter(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := adapter.Type()
	if r.byKey[t] == nil {
		r.byKey[t] = map[string]Adapter{}
	}
	if _, exists := r.byKey[t][adapter.Key()]; exists {
		log.Printf("plugins: adapter %s (%s) already registered, skipping", adapter.Key(), t)
		return
	}
	r.byKey[t][adapter.Key()] = adapter

	adapters := append(r.byType[t], adapter)
	sort.SliceStable(adapters, func(i, j int) bool {
		return adapters[i].OrderIndex() < adapters[j].OrderIndex()
	})
	r.byType[t] = adapters
}

// AdapterByKey resolves an adapter of the given type by exact key.
func (r *Registry) AdapterByKey(t AdapterType, key string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.byKey[t][key]
	if !ok {
		return nil, ErrAdapterNotFound
	}
	return adapter, nil
}

// AdaptersOf returns all adapters of a type sorted by ascending order index.
func (r *Registry) AdaptersOf(t AdapterType) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapters := make([]Adapter, len(r.byType[t]))
	copy(adapters, r.byType[t])
	return adapters
}

// RegisterPlugin registers all adapters of the plugin and records its
// lifecycle hooks for Boot/Shutdown.
func (r *Registry) RegisterPlugin(plugin Plugin) {
	for _, adapter := range plugin.Adapters {
		r.RegisterAdapter(adapter)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = append(r.plugins, &pluginEntry{plugin: plugin})
}

// Boot runs OnRegister hooks once, in registration order. A failing hook
// marks its plugin skipped and boot continues with the next plugin.
func (r *Registry) Boot(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booted {
		return
	}
	r.booted = true

	for _, entry := range r.plugins {
		if entry.plugin.OnRegister == nil {
			continue
		}
		if err := entry.plugin.OnRegister(ctx); err != nil {
			log.Printf("plugins: boot hook of %s failed, plugin skipped: %v", entry.plugin.Name, err)
			entry.skipped = true
		}
	}
}

// Skipped lists plugins whose boot hook failed. Their adapters remain
// registered but their outer surfaces should not be mounted.
func (r *Registry) Skipped() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, entry := range r.plugins {
		if entry.skipped {
			names = append(names, entry.plugin.Name)
		}
	}
	return names
}

// Shutdown runs OnShutdown hooks of all non-skipped plugins in registration
// order. Hook errors are logged, not propagated.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.plugins {
		if entry.skipped || entry.plugin.OnShutdown == nil {
			continue
		}
		if err := entry.plugin.OnShutdown(ctx); err != nil {
			log.Printf("plugins: shutdown hook of %s failed: %v", entry.plugin.Name, err)
		}
	}
}
