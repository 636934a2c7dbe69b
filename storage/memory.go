package storage

import (
	"cmp"
	"slices"
	"sync"

	"github.com/chazu/dicelang/vm"
)

type recordKey struct {
	tier  vm.Tier
	owner int64
	name  string
}

// MemoryBackend keeps records in process memory only.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[recordKey]vm.Value
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[recordKey]vm.Value)}
}

func (b *MemoryBackend) Load(tier vm.Tier, owner int64, name string) (vm.Value, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.records[recordKey{tier, owner, name}]
	return v, ok, nil
}

func (b *MemoryBackend) Store(tier vm.Tier, owner int64, name string, v vm.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[recordKey{tier, owner, name}] = v
	return nil
}

func (b *MemoryBackend) Delete(tier vm.Tier, owner int64, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, recordKey{tier, owner, name})
	return nil
}

func (b *MemoryBackend) Names(tier vm.Tier, owner int64) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := []string{}
	for k := range b.records {
		if k.tier == tier && k.owner == owner {
			names = append(names, k.name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (b *MemoryBackend) Each(fn func(Record) error) error {
	b.mu.RLock()
	recs := make([]Record, 0, len(b.records))
	for k, v := range b.records {
		recs = append(recs, Record{Tier: k.tier, Owner: k.owner, Name: k.name, Value: v})
	}
	b.mu.RUnlock()
	sortRecords(recs)
	for _, r := range recs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

func sortRecords(recs []Record) {
	slices.SortFunc(recs, func(a, b Record) int {
		return cmp.Or(
			cmp.Compare(a.Tier, b.Tier),
			cmp.Compare(a.Owner, b.Owner),
			cmp.Compare(a.Name, b.Name),
		)
	})
}
