package provider

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrProviderNotFound   = errors.New("provider not found")
	ErrProviderRegistered = errors.New("provider already registered")
	ErrProviderInvalid    = errors.New("provider name is required")
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Provider{}
)

// Register adds a provider to the registry by name.
func Register(name string, p Provider) error {
	if strings.TrimSpace(name) == "" {
		return ErrProviderInvalid
	}
	if p == nil {
		return errors.New("provider is nil")
	}

	key := strings.ToLower(strings.TrimSpace(name))
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[key]; exists {
		return ErrProviderRegistered
	}

	registry[key] = p
	return nil
}

// Get returns a provider by name.
func Get(name string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, ErrProviderInvalid
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[key]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

// Names returns all registered provider names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultName returns the default provider name.
func DefaultName() string {
	return "openrouter"
}
