package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[storage]
backend = "sqlite"
dir = "data"
sqlite-path = "/tmp/dice.db"

[limits]
loop-timeout = "2s"
execution-multiplier = 5
max-dice-digits = 4
max-call-depth = 50
max-range = 1000

[cache]
threshold = 8
prune-interval = "1m30s"

[editors]
file = "admins.yaml"
ids = [1, 2]

[log]
verbosity = 2
file = "dice.log"
`)
	t.Setenv(EnvDataStore, "")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Storage.Backend != "sqlite" {
		t.Errorf("backend = %q, want sqlite", c.Storage.Backend)
	}
	if got, want := c.StorageDir(), filepath.Join(dir, "data"); got != want {
		t.Errorf("StorageDir = %q, want %q", got, want)
	}
	if c.SQLitePath() != "/tmp/dice.db" {
		t.Errorf("SQLitePath = %q", c.SQLitePath())
	}
	opts := c.VMOptions()
	if opts.LoopTimeout != 2*time.Second || opts.ExecutionMultiplier != 5 || opts.MaxDiceDigits != 4 ||
		opts.MaxCallDepth != 50 || opts.MaxRange != 1000 {
		t.Errorf("VMOptions = %+v", opts)
	}
	if c.Cache.Threshold != 8 || c.Cache.PruneInterval.Duration != 90*time.Second {
		t.Errorf("cache = %+v", c.Cache)
	}
	if !slices.Equal(c.Editors.IDs, []int64{1, 2}) {
		t.Errorf("editor ids = %v", c.Editors.IDs)
	}
	if c.Log.Verbosity != 2 || c.LogPath() != filepath.Join(dir, "dice.log") {
		t.Errorf("log = %+v, path %q", c.Log, c.LogPath())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[storage]\nbackend = \"memory\"\n")
	t.Setenv(EnvDataStore, "")

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	d := Default()
	if c.Limits != d.Limits || c.Cache != d.Cache {
		t.Errorf("defaults not kept: limits %+v cache %+v", c.Limits, c.Cache)
	}
	if c.Storage.Dir != "vars" {
		t.Errorf("storage dir = %q, want vars", c.Storage.Dir)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[storage\n"},
		{"bad duration", "[limits]\nloop-timeout = \"soon\"\n"},
		{"bad backend", "[storage]\nbackend = \"tape\"\n"},
		{"negative threshold", "[cache]\nthreshold = -1\n"},
	}
	for _, tt := range tests {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), tt.content)
		if _, err := Load(dir); err == nil {
			t.Errorf("%s: Load succeeded", tt.name)
		}
	}
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of a directory without a config succeeded")
	}
}

func TestEnvOverridesDataStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[storage]\ndir = \"data\"\n")
	t.Setenv(EnvDataStore, "/srv/dice")

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.StorageDir() != "/srv/dice" {
		t.Errorf("StorageDir = %q, want /srv/dice", c.StorageDir())
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[cache]\nthreshold = 9\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDataStore, "")

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatal(err)
	}
	if c.Cache.Threshold != 9 {
		t.Errorf("threshold = %d, want 9", c.Cache.Threshold)
	}
	if c.Dir != root {
		t.Errorf("Dir = %q, want %q", c.Dir, root)
	}
}

func TestLoadEditors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[editors]\nids = [7]\n")
	writeFile(t, filepath.Join(dir, "editors.yaml"), "editors: [11, 12]\n")

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	set, err := c.LoadEditors()
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []int64{7, 11, 12} {
		if !set.CanEdit(id) {
			t.Errorf("CanEdit(%d) = false", id)
		}
	}
	if set.CanEdit(8) {
		t.Error("CanEdit(8) = true")
	}
}

func TestLoadEditorsFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    []int64
		wantErr bool
	}{
		{"list", "editors:\n  - 1\n  - 2\n", []int64{1, 2}, false},
		{"empty", "", nil, false},
		{"unknown key", "admins: [1]\n", nil, true},
		{"not ints", "editors: [alice]\n", nil, true},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".yaml")
		writeFile(t, path, tt.content)
		got, err := LoadEditorsFile(path)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	c := Default()
	c.Dir = dir
	c.Editors.File = "missing.yaml"
	if _, err := c.LoadEditors(); err != nil {
		t.Errorf("missing editors file: %v", err)
	}
}
