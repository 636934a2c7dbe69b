package engine

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/chazu/dicelang/config"
	"github.com/chazu/dicelang/storage"
	"github.com/chazu/dicelang/vm"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	c := config.Default()
	c.Dir = t.TempDir()
	c.Storage.Backend = backend
	c.Editors.IDs = []int64{1}
	return c
}

func TestEnginePersistsAcrossRestarts(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			e, err := New(cfg)
			if err != nil {
				t.Fatal(err)
			}
			steps := []string{
				"my hp = 12",
				"our party = ['ann', 'bo']",
				"global roll20 = () -> 1d20",
				"core greeting = 'hi'",
			}
			for _, src := range steps {
				if _, err := e.Execute(src, 1, 50); err != nil {
					t.Fatalf("Execute(%q): %v", src, err)
				}
			}
			if err := e.Close(); err != nil {
				t.Fatal(err)
			}

			e, err = New(cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer e.Close()
			res, err := e.Execute("[my hp, party, 1 <= global roll20() <= 20, core greeting]", 1, 50)
			if err != nil {
				t.Fatal(err)
			}
			if got := vm.Repr(res.Value); got != `[12, ["ann", "bo"], True, "hi"]` {
				t.Errorf("after restart = %s", got)
			}
		})
	}
}

func TestEngineListNames(t *testing.T) {
	e, err := New(testConfig(t, "memory"))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, err := e.Execute("our b = 1; our a = 2; global g = 3", 1, 50); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tier  vm.Tier
		owner int64
		want  []string
	}{
		{vm.TierServer, 50, []string{"_", "a", "b"}},
		{vm.TierPrivate, 1, []string{"_"}},
		{vm.TierGlobal, 12345, []string{"_", "g"}},
		{vm.TierServer, 51, []string{}},
	}
	for _, tt := range tests {
		got, err := e.ListNames(tt.tier, tt.owner)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("ListNames(%s, %d) = %v, want %v", tt.tier, tt.owner, got, tt.want)
		}
	}
}

func TestEngineEditors(t *testing.T) {
	cfg := testConfig(t, "memory")
	if err := os.WriteFile(filepath.Join(cfg.Dir, "editors.yaml"), []byte("editors: [2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for _, user := range []int64{1, 2} {
		if _, err := e.Execute("core x = 1", user, 50); err != nil {
			t.Errorf("editor %d refused: %v", user, err)
		}
	}
	if _, err := e.Execute("core x = 2", 3, 50); !vm.IsKind(err, vm.KindPrivilege) {
		t.Errorf("non-editor error = %v, want PrivilegeError", err)
	}
}

func TestEngineOutputOnError(t *testing.T) {
	e, err := NewWithBackend(testConfig(t, "memory"), storage.NewMemoryBackend())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	res, err := e.Execute("println 'rolling'; 1d0", 1, 50)
	if !vm.IsKind(err, vm.KindOperation) {
		t.Errorf("error = %v, want OperationError", err)
	}
	if res.Output != "rolling\n" {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestEngineBadBackend(t *testing.T) {
	cfg := testConfig(t, "tape")
	if _, err := New(cfg); err == nil {
		t.Error("New accepted an unknown backend")
	}
}
