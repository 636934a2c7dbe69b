package vm

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/chazu/dicelang/compiler"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("dicelang.vm")

// Options bounds the work a single execution may do.
type Options struct {
	// LoopTimeout bounds each while and do-while loop.
	LoopTimeout time.Duration
	// ExecutionMultiplier scales LoopTimeout into the whole-execution deadline.
	ExecutionMultiplier int
	// MaxDiceDigits bounds the number of decimal digits in a dice count.
	MaxDiceDigits int
	// MaxCallDepth bounds function call nesting.
	MaxCallDepth int
	// MaxRange bounds the length of ranges and repeated sequences.
	MaxRange int
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{
		LoopTimeout:         12 * time.Second,
		ExecutionMultiplier: 3,
		MaxDiceDigits:       7,
		MaxCallDepth:        200,
		MaxRange:            1_000_000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LoopTimeout <= 0 {
		o.LoopTimeout = d.LoopTimeout
	}
	if o.ExecutionMultiplier <= 0 {
		o.ExecutionMultiplier = d.ExecutionMultiplier
	}
	if o.MaxDiceDigits <= 0 {
		o.MaxDiceDigits = d.MaxDiceDigits
	}
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = d.MaxCallDepth
	}
	if o.MaxRange <= 0 {
		o.MaxRange = d.MaxRange
	}
	return o
}

// ExecutionTimeout is the deadline for one Execute call.
func (o Options) ExecutionTimeout() time.Duration {
	return o.LoopTimeout * time.Duration(o.ExecutionMultiplier)
}

// Interpreter evaluates dicelang programs against a Store. It is safe for
// concurrent use; every Execute gets its own scoping context.
type Interpreter struct {
	store    Store
	editors  Editors
	builtins *Builtins
	plugins  *PluginRegistry
	prints   *PrintQueue
	opts     Options

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Result is the outcome of one execution. Output holds queued print output.
type Result struct {
	Value  Value
	Output string
}

// NewInterpreter returns an interpreter over store.
func NewInterpreter(store Store, opts Options) (*Interpreter, error) {
	builtins, err := defaultBuiltins()
	if err != nil {
		return nil, err
	}
	return &Interpreter{
		store:    store,
		builtins: builtins,
		plugins:  NewPluginRegistry(),
		prints:   NewPrintQueue(),
		opts:     opts.withDefaults(),
	}, nil
}

// SetEditors installs the set of users allowed to modify core variables.
func (in *Interpreter) SetEditors(e Editors) { in.editors = e }

// SetRand makes dice and random reductions use r, for reproducible rolls.
func (in *Interpreter) SetRand(r *rand.Rand) {
	in.rngMu.Lock()
	defer in.rngMu.Unlock()
	in.rng = r
}

// Plugins returns the plugin registry.
func (in *Interpreter) Plugins() *PluginRegistry { return in.plugins }

// Builtins returns the builtin namespace.
func (in *Interpreter) Builtins() *Builtins { return in.builtins }

// Options returns the active limits.
func (in *Interpreter) Options() Options { return in.opts }

func (in *Interpreter) randInt64(n int64) int64 {
	in.rngMu.Lock()
	defer in.rngMu.Unlock()
	if in.rng == nil {
		return rand.Int64N(n)
	}
	return in.rng.Int64N(n)
}

func (in *Interpreter) randIntN(n int) int { return int(in.randInt64(int64(n))) }

// Execute parses and evaluates source on behalf of userID in serverID. The
// result is stored as _ in the private, server and global tiers. Queued print
// output is returned in Result.Output even when the execution fails.
func (in *Interpreter) Execute(source string, userID, serverID int64) (res Result, err error) {
	id := uuid.New()
	start := time.Now()
	log.Debugf("execution %s: user %d server %d", id, userID, serverID)

	defer func() {
		res.Output = in.prints.Flush(userID)
		if err != nil {
			log.Debugf("execution %s failed after %s: %v", id, time.Since(start), err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("execution %s: internal error: %v", id, r)
			res.Value = nil
			err = errorf(KindInternal, "%v", r)
		}
	}()

	prog, perr := compiler.Parse(source)
	if perr != nil {
		return Result{}, wrapError(KindSyntax, perr)
	}

	ex := &execution{
		in:       in,
		scope:    NewScopingContext(userID, serverID),
		deadline: start.Add(in.opts.ExecutionTimeout()),
	}
	v, err := ex.program(prog)
	if err != nil {
		if u, ok := err.(*Unwind); ok {
			err = u.outside()
		}
		return Result{}, err
	}

	for _, t := range []struct {
		tier  Tier
		owner int64
	}{
		{TierPrivate, userID},
		{TierServer, serverID},
		{TierGlobal, GlobalOwner},
	} {
		if serr := in.store.Put(t.tier, t.owner, "_", v); serr != nil {
			return Result{Value: v}, wrapError(KindStorage, fmt.Errorf("store _: %w", serr))
		}
	}
	return Result{Value: v}, nil
}
