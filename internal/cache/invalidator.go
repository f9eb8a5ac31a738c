package cache

// Invalidatable is the subset of TwoTier's surface the invalidator needs;
// it is satisfied by *TwoTier[V] for any V.
type Invalidatable interface {
	Delete(key string)
	Clear()
}

// Invalidator exposes by-key, by-package, and clear-all invalidation
// across the network client's four per-operation caches. Each operation's
// cache is registered under its operation name ("search", "info",
// "comments", "pkgbuild"); a cache that was never enabled for an
// operation is simply absent from the map and silently skipped.
type Invalidator struct {
	caches map[string]Invalidatable
}

// NewInvalidator builds an Invalidator over the given operation-name to
// cache mapping.
func NewInvalidator(caches map[string]Invalidatable) *Invalidator {
	return &Invalidator{caches: caches}
}

// InvalidateKey removes a single cache key from the named operation's
// cache, e.g. InvalidateKey("search", "search:yay").
func (inv *Invalidator) InvalidateKey(operation, key string) {
	if c, ok := inv.caches[operation]; ok {
		c.Delete(key)
	}
}

// InvalidatePackage removes every cache entry keyed directly by a
// package name: info, comments, and pkgbuild. Search results are
// query-keyed, not name-keyed, so they are unaffected — a caller who
// wants those gone too should call ClearAll or InvalidateKey("search", ...)
// for the specific queries they know mention the package.
func (inv *Invalidator) InvalidatePackage(name string) {
	if c, ok := inv.caches["info"]; ok {
		c.Delete("info:" + name)
	}
	if c, ok := inv.caches["comments"]; ok {
		c.Delete("comments:" + name)
	}
	if c, ok := inv.caches["pkgbuild"]; ok {
		c.Delete("pkgbuild:" + name)
	}
}

// ClearAll empties every registered cache.
func (inv *Invalidator) ClearAll() {
	for _, c := range inv.caches {
		c.Clear()
	}
}
