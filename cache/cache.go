package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/use-agent/shelfscan/models"
)

// Cache keeps recent search results in memory so repeated keywords within
// the TTL skip the outbound request. It is safe for concurrent use.
type Cache struct {
	store      *gocache.Cache
	maxEntries int
}

// New creates a Cache whose entries live for ttl. Expired entries are
// purged every ttl (at least once a minute).
func New(ttl time.Duration, maxEntries int) *Cache {
	cleanup := ttl
	if cleanup > time.Minute {
		cleanup = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache{
		store:      gocache.New(ttl, cleanup),
		maxEntries: maxEntries,
	}
}

// Key derives a cache key from the site and the normalized keyword.
func Key(site, keyword string) string {
	h := sha256.New()
	h.Write([]byte(site))
	h.Write([]byte("|"))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(keyword))))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns cached products for key, if present and not expired.
func (c *Cache) Get(key string) ([]models.Product, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	products, ok := v.([]models.Product)
	return products, ok
}

// Set stores products under key. If the cache is at capacity, an arbitrary
// entry is evicted to make room.
func (c *Cache) Set(key string, products []models.Product) {
	if c.store.ItemCount() >= c.maxEntries {
		for k := range c.store.Items() {
			c.store.Delete(k)
			break
		}
	}
	c.store.SetDefault(key, products)
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
