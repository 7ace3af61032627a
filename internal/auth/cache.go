package auth

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = 30 * time.Second
)

// IdentityCache is a small positive cache in front of the user store, keyed
// by subject id. Entries expire quickly and are dropped eagerly on logout, so
// a deleted account stops resolving within the cache TTL at worst.
type IdentityCache struct {
	lru *expirable.LRU[string, Identity]
}

// NewIdentityCache builds a cache holding up to size identities for ttl.
// Zero values select the defaults.
func NewIdentityCache(size int, ttl time.Duration) *IdentityCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &IdentityCache{lru: expirable.NewLRU[string, Identity](size, nil, ttl)}
}

// Get returns the cached identity for the subject id, if present and fresh.
func (c *IdentityCache) Get(subjectID string) (Identity, bool) {
	if c == nil || c.lru == nil {
		return Identity{}, false
	}
	return c.lru.Get(subjectID)
}

// Add stores the identity under its subject id.
func (c *IdentityCache) Add(identity Identity) {
	if c == nil || c.lru == nil || identity.ID == "" {
		return
	}
	c.lru.Add(identity.ID, identity)
}

// Remove drops the entry for the subject id. Called on logout.
func (c *IdentityCache) Remove(subjectID string) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Remove(subjectID)
}
