package ward

import "github.com/zhouzirui/z-reception/backend/internal/analysis/intent"

// Store exposes ward lookup for the dialogue engine and HTTP handlers.
type Store interface {
	List() []Ward
	FindByCategory(c intent.Category) (Ward, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Ward
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied wards.
func NewMemoryStore(items []Ward) *MemoryStore {
	return &MemoryStore{items: append([]Ward(nil), items...)}
}

// List returns the configured wards.
func (s *MemoryStore) List() []Ward {
	return append([]Ward(nil), s.items...)
}

// FindByCategory looks up the ward serving a category.
func (s *MemoryStore) FindByCategory(c intent.Category) (Ward, bool) {
	for _, item := range s.items {
		if item.Category == c {
			return item, true
		}
	}
	return Ward{}, false
}
