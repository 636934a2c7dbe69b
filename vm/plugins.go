package vm

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PluginFunc implements a name :: arg call.
type PluginFunc func(arg Value) (Value, error)

// PluginRegistry maps plugin names to implementations. It is safe for
// concurrent use.
type PluginRegistry struct {
	mu     sync.RWMutex
	byName map[string]PluginFunc
}

// NewPluginRegistry returns a registry holding the standard string plugins.
func NewPluginRegistry() *PluginRegistry {
	r := &PluginRegistry{byName: map[string]PluginFunc{}}
	r.Register(stringPlugin(strings.ToUpper), "upper")
	r.Register(stringPlugin(strings.ToLower), "lower")
	r.Register(stringPlugin(titleCase), "title")
	r.Register(splitPlugin, "split")
	return r
}

// titleCase builds a Caser per call; Casers carry state between calls.
func titleCase(s string) string { return cases.Title(language.Und).String(s) }

// Register binds fn under every given name, replacing earlier bindings.
func (r *PluginRegistry) Register(fn PluginFunc, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.byName[name] = fn
	}
}

// Lookup returns the plugin bound to name.
func (r *PluginRegistry) Lookup(name string) (PluginFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.byName[name]
	return fn, ok
}

// Names returns the registered plugin names.
func (r *PluginRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}

func stringPlugin(f func(string) string) PluginFunc {
	return func(arg Value) (Value, error) {
		s, ok := arg.(String)
		if !ok {
			return nil, errorf(KindOperation, "plugin expects a string, not %s", arg.Type())
		}
		return String(f(string(s))), nil
	}
}

// splitPlugin splits on whitespace, or on the separator when called with a
// (text, separator) tuple.
func splitPlugin(arg Value) (Value, error) {
	var parts []string
	switch x := arg.(type) {
	case String:
		parts = strings.Fields(string(x))
	case *Tuple:
		if len(x.Items) != 2 {
			return nil, errorf(KindOperation, "split expects (text, separator)")
		}
		text, ok1 := x.Items[0].(String)
		sep, ok2 := x.Items[1].(String)
		if !ok1 || !ok2 || sep == "" {
			return nil, errorf(KindOperation, "split expects (text, separator)")
		}
		parts = strings.Split(string(text), string(sep))
	default:
		return nil, errorf(KindOperation, "plugin expects a string, not %s", arg.Type())
	}
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return NewList(out...), nil
}
