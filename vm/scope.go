package vm

import "maps"

// Scope maps names to values for one block, loop or call.
type Scope map[string]Value

// Snapshot is an ordered list of scopes, outermost first, captured as a
// function's closure.
type Snapshot []Scope

// ScopingContext tracks the scopes of one execution. Inside a function call
// only the current frame and the function's closure are visible; outside any
// call the anonymous scopes are used instead.
type ScopingContext struct {
	UserID   int64
	ServerID int64

	frameID   int
	frames    map[int][]Scope
	anonymous []Scope
	closures  []Snapshot
}

// NewScopingContext returns a context for one execution by userID in serverID.
func NewScopingContext(userID, serverID int64) *ScopingContext {
	return &ScopingContext{
		UserID:   userID,
		ServerID: serverID,
		frames:   map[int][]Scope{},
	}
}

// InFrame reports whether a function call is active.
func (c *ScopingContext) InFrame() bool { return c.frameID > 0 }

// Depth returns the number of active frames.
func (c *ScopingContext) Depth() int { return c.frameID }

func (c *ScopingContext) current() []Scope {
	if c.frameID > 0 {
		return c.frames[c.frameID]
	}
	return c.anonymous
}

func (c *ScopingContext) setCurrent(scopes []Scope) {
	if c.frameID > 0 {
		c.frames[c.frameID] = scopes
		return
	}
	c.anonymous = scopes
}

// PushFrame enters a function call.
func (c *ScopingContext) PushFrame() {
	c.frameID++
	c.frames[c.frameID] = nil
}

// PopFrame leaves a function call. It panics when no frame is active.
func (c *ScopingContext) PopFrame() {
	if c.frameID == 0 {
		panic("vm: pop of empty frame stack")
	}
	delete(c.frames, c.frameID)
	c.frameID--
}

// PushScope adds s (or a fresh scope when s is nil) as the innermost scope.
func (c *ScopingContext) PushScope(s Scope) {
	if s == nil {
		s = Scope{}
	}
	c.setCurrent(append(c.current(), s))
}

// PopScope removes the innermost scope. It panics when there is none.
func (c *ScopingContext) PopScope() {
	scopes := c.current()
	if len(scopes) == 0 {
		panic("vm: pop of empty scope stack")
	}
	scopes[len(scopes)-1] = nil
	c.setCurrent(scopes[:len(scopes)-1])
}

// PushClosure activates a function's captured scopes.
func (c *ScopingContext) PushClosure(s Snapshot) {
	c.closures = append(c.closures, s)
}

// PopClosure deactivates the innermost closure. It panics when there is none.
func (c *ScopingContext) PopClosure() {
	if len(c.closures) == 0 {
		panic("vm: pop of empty closure stack")
	}
	c.closures = c.closures[:len(c.closures)-1]
}

func (c *ScopingContext) closure() Snapshot {
	if len(c.closures) == 0 {
		return nil
	}
	return c.closures[len(c.closures)-1]
}

// Get looks name up innermost first: current scopes, then the active closure.
// ok is false when the name is not local.
func (c *ScopingContext) Get(name string) (Value, bool) {
	scopes := c.current()
	for i := len(scopes) - 1; i >= 0; i-- {
		if v, ok := scopes[i][name]; ok {
			return v, true
		}
	}
	cl := c.closure()
	for i := len(cl) - 1; i >= 0; i-- {
		if v, ok := cl[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Put updates the outermost existing binding of name, or creates it in the
// innermost scope. ok is false when there is no scope at all.
func (c *ScopingContext) Put(name string, v Value) bool {
	scopes := c.current()
	if len(scopes) == 0 {
		return false
	}
	for _, s := range scopes {
		if _, ok := s[name]; ok {
			s[name] = v
			return true
		}
	}
	scopes[len(scopes)-1][name] = v
	return true
}

// SetLocal binds name in the innermost scope regardless of outer bindings.
func (c *ScopingContext) SetLocal(name string, v Value) bool {
	scopes := c.current()
	if len(scopes) == 0 {
		return false
	}
	scopes[len(scopes)-1][name] = v
	return true
}

// Drop removes the innermost binding of name and returns its value. Closures
// are never modified.
func (c *ScopingContext) Drop(name string) (Value, bool) {
	scopes := c.current()
	for i := len(scopes) - 1; i >= 0; i-- {
		if v, ok := scopes[i][name]; ok {
			delete(scopes[i], name)
			return v, true
		}
	}
	return nil, false
}

// CallingEnvironment snapshots every scope visible now: the active closure
// followed by the current scopes. Values are immutable, so copying the maps
// is enough.
func (c *ScopingContext) CallingEnvironment() Snapshot {
	cl := c.closure()
	scopes := c.current()
	snap := make(Snapshot, 0, len(cl)+len(scopes))
	for _, s := range cl {
		snap = append(snap, maps.Clone(s))
	}
	for _, s := range scopes {
		snap = append(snap, maps.Clone(s))
	}
	return snap
}

// flatten merges a snapshot into one scope, inner bindings winning.
func (s Snapshot) flatten() Scope {
	out := Scope{}
	for _, sc := range s {
		maps.Copy(out, sc)
	}
	return out
}
