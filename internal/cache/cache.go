// Package cache implements the two-tier (memory + disk) result cache each
// network-client operation consults before issuing a request.
package cache

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/archtk/archtk/internal/core"
)

type entry[V any] struct {
	Value      V     `json:"value"`
	InsertedAt int64 `json:"inserted_at"` // unix seconds
}

// TwoTier is a generic cache keyed by string, with an in-memory LRU tier
// and an optional JSON-on-disk tier. A zero TTL disables expiry checks
// (entries never go stale); a zero-value diskDir disables the disk tier
// entirely, matching spec.md §4.5's "only when the disk-cache capability
// is enabled".
type TwoTier[V any] struct {
	mem     *lru.Cache[string, entry[V]]
	diskDir string
	ttl     time.Duration
	logger  core.Logger

	keyLocksMu sync.Mutex
	keyLocks   map[string]*sync.Mutex
}

// New builds a TwoTier cache. memSize bounds the in-memory LRU; diskDir,
// if non-empty, enables the disk tier under that directory (created if
// missing). logger defaults to core.NopLogger when nil.
func New[V any](memSize int, ttl time.Duration, diskDir string, logger core.Logger) (*TwoTier[V], error) {
	if memSize <= 0 {
		memSize = 1
	}
	mem, err := lru.New[string, entry[V]](memSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger
	}
	if diskDir != "" {
		if err := os.MkdirAll(diskDir, 0o755); err != nil {
			return nil, core.NewCacheError(err)
		}
	}
	return &TwoTier[V]{
		mem:      mem,
		diskDir:  diskDir,
		ttl:      ttl,
		logger:   logger,
		keyLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (c *TwoTier[V]) fresh(insertedAt int64) bool {
	if c.ttl <= 0 {
		return true
	}
	return time.Since(time.Unix(insertedAt, 0)) < c.ttl
}

// Get returns the cached value for key. A memory hit is checked first;
// on a memory miss, a fresh disk entry (if the disk tier is enabled) is
// promoted into memory and returned.
func (c *TwoTier[V]) Get(key string) (V, bool) {
	var zero V

	if e, ok := c.mem.Get(key); ok {
		if c.fresh(e.InsertedAt) {
			return e.Value, true
		}
		c.mem.Remove(key)
	}

	if c.diskDir == "" {
		return zero, false
	}

	e, ok := c.readDisk(key)
	if !ok {
		return zero, false
	}
	if !c.fresh(e.InsertedAt) {
		_ = os.Remove(c.diskPath(key))
		return zero, false
	}
	c.mem.Add(key, e)
	return e.Value, true
}

// Set stores val under key in both tiers (disk, if enabled).
func (c *TwoTier[V]) Set(key string, val V) {
	e := entry[V]{Value: val, InsertedAt: time.Now().Unix()}
	c.mem.Add(key, e)
	if c.diskDir != "" {
		c.writeDisk(key, e)
	}
}

// Delete removes key from both tiers.
func (c *TwoTier[V]) Delete(key string) {
	c.mem.Remove(key)
	if c.diskDir != "" {
		_ = os.Remove(c.diskPath(key))
	}
}

// Clear empties both tiers.
func (c *TwoTier[V]) Clear() {
	c.mem.Purge()
	if c.diskDir == "" {
		return
	}
	entries, err := os.ReadDir(c.diskDir)
	if err != nil {
		c.logger.Printf("cache: clear: reading %s: %v", c.diskDir, err)
		return
	}
	for _, de := range entries {
		_ = os.Remove(filepath.Join(c.diskDir, de.Name()))
	}
}

func (c *TwoTier[V]) diskPath(key string) string {
	return filepath.Join(c.diskDir, url.QueryEscape(key)+".json")
}

func (c *TwoTier[V]) lockFor(key string) *sync.Mutex {
	c.keyLocksMu.Lock()
	defer c.keyLocksMu.Unlock()
	l, ok := c.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.keyLocks[key] = l
	}
	return l
}

func (c *TwoTier[V]) readDisk(key string) (entry[V], bool) {
	var e entry[V]

	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Printf("cache: reading %s: %v", key, err)
		}
		return e, false
	}
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Printf("cache: decoding %s: %v", key, err)
		return e, false
	}
	return e, true
}

func (c *TwoTier[V]) writeDisk(key string, e entry[V]) {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Printf("cache: encoding %s: %v", key, err)
		return
	}
	if err := os.WriteFile(c.diskPath(key), data, 0o644); err != nil {
		c.logger.Printf("cache: writing %s: %v", key, err)
	}
}
