package storagetier

import (
	"strings"
	"sync"
)

// MemoryTier is a thread-safe in-process map. It is the last-resort fallback
// tier and also serves as the session-scoped tier when the embedder has no
// longer-lived session medium.
type MemoryTier struct {
	name  Name
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryTier creates an in-process tier reporting the given name.
// An empty name defaults to Memory.
func NewMemoryTier(name Name) *MemoryTier {
	if name == "" {
		name = Memory
	}
	return &MemoryTier{
		name:  name,
		items: make(map[string]string),
	}
}

// Name implements Tier.
func (m *MemoryTier) Name() Name {
	return m.name
}

// SetItem implements Tier.
func (m *MemoryTier) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

// GetItem implements Tier.
func (m *MemoryTier) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	return value, ok, nil
}

// RemoveItem implements Tier.
func (m *MemoryTier) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Keys implements Tier.
func (m *MemoryTier) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Available implements Tier. An in-process map is always writable.
func (m *MemoryTier) Available() bool {
	return true
}
