package keyserver

import (
	"time"

	"github.com/fxamacker/cbor/v2"
)

type snapshotEntry[K comparable, V any] struct {
	Key    K
	Value  V
	Expiry int64
}

// Snapshot encodes every non-expired entry as CBOR, for warm-starting
// a freshly launched server from a previous instance's package-version
// cache instead of paying for a GraphQL round trip per package on
// first request.
func (c *Cache[K, V]) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entries := make([]snapshotEntry[K, V], 0, c.lru.Len())
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if !ok || now.After(entry.expiry) {
			continue
		}
		entries = append(entries, snapshotEntry[K, V]{Key: key, Value: entry.value, Expiry: entry.expiry.UnixMilli()})
	}
	return cbor.Marshal(entries)
}

// Restore loads entries produced by Snapshot, dropping any that have
// since expired.
func (c *Cache[K, V]) Restore(data []byte) error {
	var entries []snapshotEntry[K, V]
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return err
	}

	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		expiry := time.UnixMilli(e.Expiry)
		if now.After(expiry) {
			continue
		}
		c.lru.Add(e.Key, cacheEntry[V]{value: e.Value, expiry: expiry})
	}
	return nil
}
