// Package catalog serves the categories metadata document. The document lives
// outside the ledger store and is re-read once its cache entry expires.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"financeflow/internal/cache"
	"financeflow/internal/core"
)

const cacheKey = "categories"

type Catalog struct {
	path  string
	cache *cache.LRUCache[json.RawMessage]
}

// New returns a catalog for the JSON document at path, cached for ttl.
func New(path string, ttl time.Duration) *Catalog {
	return &Catalog{
		path:  path,
		cache: cache.NewLRUCache[json.RawMessage](1, ttl),
	}
}

// Cache exposes the underlying cache for registration with a cleanup manager.
func (c *Catalog) Cache() cache.Cleaner {
	return c.cache
}

// Categories returns the raw categories document.
func (c *Catalog) Categories() (json.RawMessage, error) {
	return c.cache.GetOrLoad(cacheKey, c.load)
}

func (c *Catalog) load() (json.RawMessage, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NotFoundf("categories document %s", c.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("categories document %s is not valid JSON", c.path)
	}
	return json.RawMessage(data), nil
}
