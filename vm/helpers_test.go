package vm

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"
)

type storeKey struct {
	tier  Tier
	owner int64
	name  string
}

// mapStore is an in-memory Store for evaluator tests.
type mapStore struct {
	mu   sync.Mutex
	data map[storeKey]Value
}

func newMapStore() *mapStore { return &mapStore{data: map[storeKey]Value{}} }

func (s *mapStore) Get(tier Tier, owner int64, name string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[storeKey{tier, owner, name}]; ok {
		return v, nil
	}
	return Undefined, nil
}

func (s *mapStore) Put(tier Tier, owner int64, name string, v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[storeKey{tier, owner, name}] = v
	return nil
}

func (s *mapStore) Drop(tier Tier, owner int64, name string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := storeKey{tier, owner, name}
	v, ok := s.data[k]
	if !ok {
		return Undefined, nil
	}
	delete(s.data, k)
	return v, nil
}

func (s *mapStore) Names(tier Tier, owner int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.data {
		if k.tier == tier && k.owner == owner {
			out = append(out, k.name)
		}
	}
	slices.Sort(out)
	return out, nil
}

const (
	testUser   int64 = 100
	testServer int64 = 200
)

func newTestInterpreter(t *testing.T, opts Options) (*Interpreter, *mapStore) {
	t.Helper()
	store := newMapStore()
	in, err := NewInterpreter(store, opts)
	if err != nil {
		t.Fatalf("NewInterpreter: %v", err)
	}
	in.SetRand(rand.New(rand.NewPCG(1, 2)))
	return in, store
}

// run executes src and returns the Repr of its result.
func run(t *testing.T, in *Interpreter, src string) string {
	t.Helper()
	res, err := in.Execute(src, testUser, testServer)
	if err != nil {
		t.Fatalf("Execute(%q) error: %v", src, err)
	}
	return Repr(res.Value)
}

func fastOptions() Options {
	o := DefaultOptions()
	o.LoopTimeout = 50 * time.Millisecond
	return o
}
