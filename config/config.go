// Package config handles dicelang.toml configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/chazu/dicelang/vm"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("dicelang.config")

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "dicelang.toml"

// EnvDataStore overrides Storage.Dir when set.
const EnvDataStore = "DICELANG_DATASTORE"

// Config represents a dicelang.toml file.
type Config struct {
	Storage Storage `toml:"storage"`
	Limits  Limits  `toml:"limits"`
	Cache   Cache   `toml:"cache"`
	Editors Editors `toml:"editors"`
	Log     Log     `toml:"log"`

	// Dir is the directory relative paths are resolved against (set at load time).
	Dir string `toml:"-"`
}

// Storage selects and locates the persistence backend.
type Storage struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	SQLitePath string `toml:"sqlite-path"`
}

// Limits bounds the work of one execution.
type Limits struct {
	LoopTimeout         Duration `toml:"loop-timeout"`
	ExecutionMultiplier int      `toml:"execution-multiplier"`
	MaxDiceDigits       int      `toml:"max-dice-digits"`
	MaxCallDepth        int      `toml:"max-call-depth"`
	MaxRange            int      `toml:"max-range"`
}

// Cache configures the variable cache sweeper.
type Cache struct {
	Threshold     int      `toml:"threshold"`
	PruneInterval Duration `toml:"prune-interval"`
}

// Editors lists the users allowed to modify core variables.
type Editors struct {
	File string  `toml:"file"`
	IDs  []int64 `toml:"ids"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Duration is a time.Duration written as a string such as "12s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	opts := vm.DefaultOptions()
	return &Config{
		Storage: Storage{Backend: "file", Dir: "vars"},
		Limits: Limits{
			LoopTimeout:         Duration{opts.LoopTimeout},
			ExecutionMultiplier: opts.ExecutionMultiplier,
			MaxDiceDigits:       opts.MaxDiceDigits,
			MaxCallDepth:        opts.MaxCallDepth,
			MaxRange:            opts.MaxRange,
		},
		Cache:   Cache{Threshold: 4, PruneInterval: Duration{10 * time.Minute}},
		Editors: Editors{File: "editors.yaml"},
		Dir:     ".",
	}
}

// Load parses dicelang.toml from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path. Settings it omits keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Warningf("%s: unknown setting %s", path, key)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.applyEnv()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a dicelang.toml file, then
// loads it. Without one it returns the defaults rooted at startDir.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	c := Default()
	c.Dir, err = filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvDataStore); dir != "" {
		c.Storage.Dir = dir
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Cache.Threshold < 0 {
		return errors.New("cache threshold cannot be negative")
	}
	return nil
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// StorageDir returns the absolute storage directory.
func (c *Config) StorageDir() string { return c.resolve(c.Storage.Dir) }

// SQLitePath returns the database path, empty for the backend default.
func (c *Config) SQLitePath() string { return c.resolve(c.Storage.SQLitePath) }

// EditorsPath returns the editor list file, or "" when none is configured.
func (c *Config) EditorsPath() string { return c.resolve(c.Editors.File) }

// LogPath returns the log file, or "" for stderr.
func (c *Config) LogPath() string { return c.resolve(c.Log.File) }

// VMOptions converts the limits section into interpreter options.
func (c *Config) VMOptions() vm.Options {
	return vm.Options{
		LoopTimeout:         c.Limits.LoopTimeout.Duration,
		ExecutionMultiplier: c.Limits.ExecutionMultiplier,
		MaxDiceDigits:       c.Limits.MaxDiceDigits,
		MaxCallDepth:        c.Limits.MaxCallDepth,
		MaxRange:            c.Limits.MaxRange,
	}
}

// LoadEditors combines the inline ids with those of the editors file. A
// missing file contributes nothing.
func (c *Config) LoadEditors() (vm.EditorSet, error) {
	ids := append([]int64(nil), c.Editors.IDs...)
	if path := c.EditorsPath(); path != "" {
		fromFile, err := LoadEditorsFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		ids = append(ids, fromFile...)
	}
	return vm.NewEditorSet(ids...), nil
}
