package vm

import (
	"fmt"
	"slices"
	"sync"

	"github.com/chazu/dicelang/compiler"
)

// builtinSources defines the read-only builtin namespace in dicelang itself.
var builtinSources = map[string]string{
	"sum":      `(v) -> &v`,
	"abs":      `(x) -> |x|`,
	"real":     `(c) -> #c if typeof c == "complex" else c`,
	"imag":     `(c) -> &c if typeof c == "complex" else 0`,
	"len":      `(v) -> #v`,
	"keys":     `(d) -> for k in d do k`,
	"values":   `(d) -> for k in d do d[k]`,
	"apply":    `(f, v) -> f -: v`,
	"compose":  `(f, g) -> (x) -> f(g(x))`,
	"zip":      `(a, b) -> for i in [0 to #a if #a < #b else #b] do (a[i], b[i])`,
	"reduce":   `(f, v) -> begin acc = v[0]; for x in v[1:] do acc = f(acc, x); acc end`,
	"filter":   `(f, v) -> begin out = []; for x in v do if f(x) then out = out + [x]; out end`,
	"copy":     `(x) -> x[:] if typeof x in ["list", "tuple", "str"] else x`,
	"coinflip": `() -> @[True, False]`,
	"max":      `(v) -> !>v`,
	"min":      `(v) -> !<v`,
	"sorted":   `(v) -> <>v`,
}

// Builtins is the parsed builtin namespace.
type Builtins struct {
	funcs map[string]*Function
	names []string
}

// LoadBuiltins parses every builtin definition.
func LoadBuiltins() (*Builtins, error) {
	b := &Builtins{funcs: make(map[string]*Function, len(builtinSources))}
	for name, src := range builtinSources {
		prog, err := compiler.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", name, err)
		}
		if len(prog.Exprs) != 1 {
			return nil, fmt.Errorf("builtin %s: expected a single function", name)
		}
		fn, ok := prog.Exprs[0].(*compiler.Function)
		if !ok {
			return nil, fmt.Errorf("builtin %s: expected a function, got %T", name, prog.Exprs[0])
		}
		b.funcs[name] = &Function{Params: fn.Params, Body: fn.Body}
		b.names = append(b.names, name)
	}
	slices.Sort(b.names)
	return b, nil
}

var defaultBuiltins = sync.OnceValues(LoadBuiltins)

// Lookup returns the builtin function bound to name.
func (b *Builtins) Lookup(name string) (*Function, bool) {
	fn, ok := b.funcs[name]
	return fn, ok
}

// Has reports whether name is a builtin.
func (b *Builtins) Has(name string) bool {
	_, ok := b.funcs[name]
	return ok
}

// Names returns the builtin names in sorted order.
func (b *Builtins) Names() []string { return slices.Clone(b.names) }

// BuiltinSource returns the dicelang definition of a builtin.
func BuiltinSource(name string) (string, bool) {
	src, ok := builtinSources[name]
	return src, ok
}
