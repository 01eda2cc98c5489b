package cart

import (
	"errors"
	"sync"
)

// StorageKey is the namespace the cart snapshot is persisted under.
const StorageKey = "shopping-cart"

// ErrNotFound is returned by Storage.Load when nothing was saved under the key.
var ErrNotFound = errors.New("cart snapshot not found")

// Storage is a durable key-value slot for the serialized cart.
type Storage interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// MemoryStorage keeps snapshots in process memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}
