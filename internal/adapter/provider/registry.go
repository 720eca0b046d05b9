package provider

import (
	"fmt"
	"sort"
	"sync"

	"aissistant/config"
	"aissistant/internal/port"
)

// Factory builds a provider client from configuration.
type Factory func(cfg config.ProviderConfig) (port.Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a provider factory under a name. Panics on duplicates;
// providers register themselves in init().
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("provider %q already registered", name))
	}
	registry[name] = factory
}

// New creates a client for the named provider.
func New(name string, cfg config.ProviderConfig) (port.Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, Available())
	}
	return factory(cfg)
}

// Available returns all registered provider names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("openai", func(cfg config.ProviderConfig) (port.Provider, error) {
		return NewOpenAIClient(cfg, "https://api.openai.com/v1")
	})
	Register("deepseek", func(cfg config.ProviderConfig) (port.Provider, error) {
		return NewOpenAIClient(cfg, "https://api.deepseek.com/v1")
	})
	Register("groq", func(cfg config.ProviderConfig) (port.Provider, error) {
		return NewOpenAIClient(cfg, "https://api.groq.com/openai/v1")
	})
	Register("ollama", func(cfg config.ProviderConfig) (port.Provider, error) {
		return NewOllamaClient(cfg)
	})
	Register("mock", func(cfg config.ProviderConfig) (port.Provider, error) {
		return NewMockProvider(), nil
	})
}
