package storage

import (
	"fmt"
	"path/filepath"

	"github.com/chazu/dicelang/vm"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("dicelang.storage")

// Record is one persisted variable.
type Record struct {
	Tier  vm.Tier
	Owner int64
	Name  string
	Value vm.Value
}

// Backend persists variables. Implementations must be safe for concurrent use.
type Backend interface {
	// Load returns the stored value, with ok false when the name is absent.
	Load(tier vm.Tier, owner int64, name string) (v vm.Value, ok bool, err error)
	Store(tier vm.Tier, owner int64, name string, v vm.Value) error
	// Delete removes a name. Deleting an absent name is not an error.
	Delete(tier vm.Tier, owner int64, name string) error
	// Names lists the names stored for one owner of a tier, sorted.
	Names(tier vm.Tier, owner int64) ([]string, error)
	// Each calls fn for every record until fn returns an error.
	Each(fn func(Record) error) error
	Close() error
}

// Backend kinds accepted by OpenBackend.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// OpenBackend opens the backend named by kind. dir is the file backend's
// root; sqlitePath defaults to dicelang.db inside dir.
func OpenBackend(kind, dir, sqlitePath string) (Backend, error) {
	switch kind {
	case "", KindFile:
		return NewFileBackend(dir)
	case KindSQLite:
		if sqlitePath == "" {
			sqlitePath = filepath.Join(dir, "dicelang.db")
		}
		return OpenSQLite(sqlitePath)
	case KindMemory:
		return NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("storage: unknown backend %q", kind)
}
