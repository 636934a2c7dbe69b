package storage

import (
	"sync"
	"time"

	"github.com/chazu/dicelang/vm"
)

// DefaultThreshold is the default prune threshold.
const DefaultThreshold = 4

type cacheKey struct {
	owner int64
	name  string
}

type cacheEntry struct {
	value vm.Value
	uses  int
}

// tierCache is the cache of one tier, guarded by its own lock.
type tierCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

// DataStore is a write-through cache in front of a Backend. It implements
// vm.Store.
type DataStore struct {
	backend   Backend
	threshold int
	tiers     [vm.TierCore + 1]*tierCache
}

var _ vm.Store = (*DataStore)(nil)

// NewDataStore returns a DataStore over backend. A threshold of zero or less
// uses DefaultThreshold.
func NewDataStore(backend Backend, threshold int) *DataStore {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	s := &DataStore{backend: backend, threshold: threshold}
	for i := range s.tiers {
		s.tiers[i] = &tierCache{entries: make(map[cacheKey]*cacheEntry)}
	}
	return s
}

// Backend returns the persistence layer.
func (s *DataStore) Backend() Backend { return s.backend }

// Threshold returns the prune threshold.
func (s *DataStore) Threshold() int { return s.threshold }

// Get returns a variable, loading it into the cache on a miss. Each hit or
// load counts as a use.
func (s *DataStore) Get(tier vm.Tier, owner int64, name string) (vm.Value, error) {
	tc := s.tiers[tier]
	tc.mu.Lock()
	defer tc.mu.Unlock()
	k := cacheKey{owner, name}
	if e, ok := tc.entries[k]; ok {
		e.uses++
		return e.value, nil
	}
	v, ok, err := s.backend.Load(tier, owner, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return vm.Undefined, nil
	}
	tc.entries[k] = &cacheEntry{value: v, uses: 1}
	return v, nil
}

// Put writes v to the backend and then to the cache.
func (s *DataStore) Put(tier vm.Tier, owner int64, name string, v vm.Value) error {
	tc := s.tiers[tier]
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if err := s.backend.Store(tier, owner, name, v); err != nil {
		return err
	}
	k := cacheKey{owner, name}
	if e, ok := tc.entries[k]; ok {
		e.value = v
		e.uses++
		return nil
	}
	tc.entries[k] = &cacheEntry{value: v, uses: 1}
	return nil
}

// Drop removes a variable from the backend and the cache and returns its
// previous value, or Undefined.
func (s *DataStore) Drop(tier vm.Tier, owner int64, name string) (vm.Value, error) {
	tc := s.tiers[tier]
	tc.mu.Lock()
	defer tc.mu.Unlock()
	k := cacheKey{owner, name}
	var prev vm.Value = vm.Undefined
	if e, ok := tc.entries[k]; ok {
		prev = e.value
	} else {
		v, ok, err := s.backend.Load(tier, owner, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return vm.Undefined, nil
		}
		prev = v
	}
	if err := s.backend.Delete(tier, owner, name); err != nil {
		return nil, err
	}
	delete(tc.entries, k)
	return prev, nil
}

// Names lists the persisted names of one owner.
func (s *DataStore) Names(tier vm.Tier, owner int64) ([]string, error) {
	return s.backend.Names(tier, owner)
}

// Close closes the backend.
func (s *DataStore) Close() error { return s.backend.Close() }

// PruneStats describes one prune sweep.
type PruneStats struct {
	Examined      int
	Evicted       int
	PerTier       map[vm.Tier]int // evictions per tier
	SweepDuration time.Duration
	Timestamp     time.Time
}

// Prune evicts rarely used cache entries. Functions and aliases survive at
// half the threshold. Survivors start counting from zero again. Core
// variables are never evicted.
func (s *DataStore) Prune() *PruneStats {
	start := time.Now()
	stats := &PruneStats{PerTier: make(map[vm.Tier]int), Timestamp: start}
	for _, tier := range vm.Tiers {
		if tier == vm.TierCore {
			continue
		}
		tc := s.tiers[tier]
		tc.mu.Lock()
		for k, e := range tc.entries {
			stats.Examined++
			limit := s.threshold
			switch e.value.(type) {
			case *vm.Function, *vm.Alias:
				limit = s.threshold / 2
			}
			if e.uses < limit {
				delete(tc.entries, k)
				stats.Evicted++
				stats.PerTier[tier]++
				continue
			}
			e.uses = 0
		}
		tc.mu.Unlock()
	}
	stats.SweepDuration = time.Since(start)
	log.Debugf("prune: examined %d, evicted %d in %s", stats.Examined, stats.Evicted, stats.SweepDuration)
	return stats
}

// cached reports whether a variable is in the cache, and its use count.
func (s *DataStore) cached(tier vm.Tier, owner int64, name string) (int, bool) {
	tc := s.tiers[tier]
	tc.mu.Lock()
	defer tc.mu.Unlock()
	e, ok := tc.entries[cacheKey{owner, name}]
	if !ok {
		return 0, false
	}
	return e.uses, true
}
