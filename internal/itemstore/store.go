// Package itemstore populates and reads the per-item cache that backs
// direct item lookups. Population is fire-and-forget: it runs on a
// worker pool off the request's critical path and offers no delivery
// guarantee.
package itemstore

import (
	"encoding/json"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"stacksgw/internal/cache"
	"stacksgw/internal/catalog"
	"stacksgw/internal/errdefs"
)

const (
	cacheTable = "item_cache"
	keyPrefix  = "items_"
)

// Store is the item cache accessor.
type Store struct {
	pool *ants.Pool
}

// NewStore creates a Store that schedules population work on the given pool.
func NewStore(pool *ants.Pool) *Store {
	return &Store{pool: pool}
}

// Populate schedules a write of every item in the collection to the
// shared cache under "items_" + id. The write happens asynchronously;
// completion, ordering and success are not observable to the caller,
// and failures are only logged.
func (s *Store) Populate(collection *catalog.ItemCollection) {
	if collection == nil || len(collection.Items) == 0 {
		return
	}

	// Snapshot the slice so a caller mutating the collection afterwards
	// doesn't race with the background write.
	items := make([]*catalog.Item, len(collection.Items))
	copy(items, collection.Items)

	err := s.pool.Submit(func() {
		s.populateAll(items)
	})
	if err != nil {
		slog.Warn("Failed to schedule item cache population", "error", err)
	}
}

func (s *Store) populateAll(items []*catalog.Item) {
	cacheDB, err := cache.GetGlobalCache()
	if err != nil {
		slog.Warn("Item cache unavailable, skipping population", "error", err)
		return
	}

	stored := 0
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		data, err := json.Marshal(item)
		if err != nil {
			slog.Warn("Failed to serialize item for cache", "id", item.ID, "error", err)
			continue
		}
		if err := cacheDB.Set(cacheTable, keyPrefix+item.ID, string(data)); err != nil {
			slog.Warn("Failed to cache item", "id", item.ID, "error", err)
			continue
		}
		stored++
	}
	slog.Debug("Item cache populated", "stored", stored, "total", len(items))
}

// Get performs a synchronous read-through lookup for a single item.
// A missing entry is errdefs.ErrNotFound, not a failure.
func (s *Store) Get(id string) (*catalog.Item, error) {
	cacheDB, err := cache.GetGlobalCache()
	if err != nil {
		return nil, err
	}

	data, found, err := cacheDB.Get(cacheTable, keyPrefix+id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errdefs.ErrNotFound
	}

	var item catalog.Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, errdefs.NewParseError("cached item", err)
	}
	return &item, nil
}
