// Package keymutex serializes concurrent work that shares a cache key,
// so that two builds racing for the same cache fingerprint don't both
// pay the cost of producing it.
package keymutex

import "sync"

// Registry hands out a per-key lock on demand. Keys are never released;
// the set of distinct fingerprints seen over a run is small enough that
// this is cheaper than tracking reference counts and tearing locks down.
type Registry struct {
	locks sync.Map // map[string]*sync.Mutex
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

func (r *Registry) lockFor(key string) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Execute runs fn while holding the lock for key, so concurrent
// Execute calls for the same key never overlap. Calls for distinct keys
// proceed in parallel.
func (r *Registry) Execute(key string, fn func() (any, error)) (any, error) {
	mu := r.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}
