// Package engine assembles a dicelang interpreter from configuration: the
// storage backend and its cache, the pruning sweeper, the editor list and
// the execution limits.
package engine

import (
	"errors"
	"fmt"

	"github.com/chazu/dicelang/config"
	"github.com/chazu/dicelang/storage"
	"github.com/chazu/dicelang/vm"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("dicelang.engine")

// Engine is the host-facing entry point.
type Engine struct {
	cfg    *config.Config
	store  *storage.DataStore
	pruner *storage.Pruner
	interp *vm.Interpreter
}

// New opens the configured backend and starts the pruner.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	backend, err := storage.OpenBackend(cfg.Storage.Backend, cfg.StorageDir(), cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e, err := NewWithBackend(cfg, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	log.Infof("storage: %s backend at %s", cfg.Storage.Backend, cfg.StorageDir())
	return e, nil
}

// NewWithBackend builds an engine over an already open backend, which the
// engine then owns.
func NewWithBackend(cfg *config.Config, backend storage.Backend) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	editors, err := cfg.LoadEditors()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	store := storage.NewDataStore(backend, cfg.Cache.Threshold)
	interp, err := vm.NewInterpreter(store, cfg.VMOptions())
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	interp.SetEditors(editors)

	e := &Engine{
		cfg:    cfg,
		store:  store,
		pruner: storage.NewPruner(store, cfg.Cache.PruneInterval.Duration),
		interp: interp,
	}
	e.pruner.Start()
	return e, nil
}

// Execute runs source on behalf of userID in serverID. On error the result
// still carries the print output queued before the failure.
func (e *Engine) Execute(source string, userID, serverID int64) (vm.Result, error) {
	return e.interp.Execute(source, userID, serverID)
}

// ListNames lists the variables persisted for one owner of a tier. The
// owner is ignored for the global and core tiers.
func (e *Engine) ListNames(tier vm.Tier, owner int64) ([]string, error) {
	if tier == vm.TierGlobal || tier == vm.TierCore {
		owner = vm.GlobalOwner
	}
	return e.store.Names(tier, owner)
}

// Interpreter returns the underlying interpreter.
func (e *Engine) Interpreter() *vm.Interpreter { return e.interp }

// Store returns the variable cache.
func (e *Engine) Store() *storage.DataStore { return e.store }

// Pruner returns the cache sweeper.
func (e *Engine) Pruner() *storage.Pruner { return e.pruner }

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *config.Config { return e.cfg }

// Close stops the pruner and closes the backend.
func (e *Engine) Close() error {
	e.pruner.Stop()
	if err := e.store.Close(); err != nil {
		return errors.Join(errors.New("engine: close storage"), err)
	}
	return nil
}
