package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// SearchCacheSchema defines the schema for cached raw search results,
// keyed by a hex digest of the canonical request URL.
const SearchCacheSchema = `
CREATE TABLE IF NOT EXISTS search_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_search_cached_at ON search_cache(cached_at);
`

// ItemCacheSchema defines the schema for individually cached items,
// keyed by "items_" + item id.
const ItemCacheSchema = `
CREATE TABLE IF NOT EXISTS item_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_item_cached_at ON item_cache(cached_at);
`

// DirectionCacheSchema defines the schema for the serialized wayfinding
// rule table, stored under the single key "item-directions".
const DirectionCacheSchema = `
CREATE TABLE IF NOT EXISTS direction_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_direction_cached_at ON direction_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	SearchCacheSchema,
	ItemCacheSchema,
	DirectionCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	"search_cache":    true,
	"item_cache":      true,
	"direction_cache": true,
}
