package storage

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/chazu/dicelang/vm"
)

func mustLiteral(t *testing.T, text string) vm.Value {
	t.Helper()
	v, err := vm.DecodeLiteral(text)
	if err != nil {
		t.Fatalf("DecodeLiteral(%q): %v", text, err)
	}
	return v
}

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()
	file, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "vars.db"))
	if err != nil {
		t.Fatal(err)
	}
	backends := map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
		"sqlite": db,
	}
	t.Cleanup(func() {
		for _, b := range backends {
			b.Close()
		}
	})
	return backends
}

func TestBackends(t *testing.T) {
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			values := []string{
				"42",
				`"tab\there"`,
				`{"a": [1, 2.5, (3,)], 2: Undefined}`,
				"begin k = 3; (x) -> x + k end",
				"Alias(() -> 1d6)",
				"(1+2j)",
			}
			for i, text := range values {
				owner := int64(i % 2)
				if err := b.Store(vm.TierPrivate, owner, "v"+string(rune('a'+i)), mustLiteral(t, text)); err != nil {
					t.Fatalf("Store(%s): %v", text, err)
				}
			}
			for i, text := range values {
				got, ok, err := b.Load(vm.TierPrivate, int64(i%2), "v"+string(rune('a'+i)))
				if err != nil || !ok {
					t.Fatalf("Load(%s) = %v, %v", text, ok, err)
				}
				if lit := vm.EncodeLiteral(got); lit != text {
					t.Errorf("Load = %s, want %s", lit, text)
				}
			}

			names, err := b.Names(vm.TierPrivate, 0)
			if err != nil {
				t.Fatal(err)
			}
			if want := []string{"va", "vc", "ve"}; !slices.Equal(names, want) {
				t.Errorf("Names = %v, want %v", names, want)
			}

			if err := b.Store(vm.TierPrivate, 0, "va", vm.NewInt(7)); err != nil {
				t.Fatal(err)
			}
			if got, _, _ := b.Load(vm.TierPrivate, 0, "va"); vm.Repr(got) != "7" {
				t.Errorf("overwritten va = %s", vm.Repr(got))
			}

			if err := b.Delete(vm.TierPrivate, 0, "va"); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := b.Load(vm.TierPrivate, 0, "va"); ok {
				t.Error("va still present after Delete")
			}
			if err := b.Delete(vm.TierPrivate, 0, "never"); err != nil {
				t.Errorf("Delete of absent name: %v", err)
			}
			if _, ok, _ := b.Load(vm.TierServer, 0, "vc"); ok {
				t.Error("private record visible in the server tier")
			}

			if err := b.Store(vm.TierCore, vm.GlobalOwner, "c", vm.String("core")); err != nil {
				t.Fatal(err)
			}
			var seen []string
			err = b.Each(func(r Record) error {
				seen = append(seen, r.Tier.String()+":"+r.Name)
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"private:vc", "private:ve", "private:vb", "private:vd", "private:vf", "core:c"}
			if !slices.Equal(seen, want) {
				t.Errorf("Each visited %v, want %v", seen, want)
			}
		})
	}
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"", KindFile, KindSQLite, KindMemory} {
		b, err := OpenBackend(kind, dir, "")
		if err != nil {
			t.Errorf("OpenBackend(%q): %v", kind, err)
			continue
		}
		b.Close()
	}
	if _, err := OpenBackend("redis", dir, ""); err == nil {
		t.Error("OpenBackend accepted an unknown kind")
	}
}
