package vm

import (
	"github.com/chazu/dicelang/compiler"
)

// Identifier resolves a name under an access mode. Scoped names are looked up
// in the builtins, then the local scopes and closure, then the server tier.
type Identifier struct {
	Name string
	Mode compiler.Access

	ctx *ScopingContext
	in  *Interpreter
}

// NewIdentifier binds a name to an execution's scoping context.
func (in *Interpreter) NewIdentifier(ctx *ScopingContext, name string, mode compiler.Access) *Identifier {
	return &Identifier{Name: name, Mode: mode, ctx: ctx, in: in}
}

// tier maps the access mode to a storage tier and owner. ok is false for
// scoped names.
func (id *Identifier) tier() (Tier, int64, bool) {
	switch id.Mode {
	case compiler.AccessPrivate:
		return TierPrivate, id.ctx.UserID, true
	case compiler.AccessServer:
		return TierServer, id.ctx.ServerID, true
	case compiler.AccessGlobal:
		return TierGlobal, GlobalOwner, true
	case compiler.AccessCore:
		return TierCore, GlobalOwner, true
	}
	return 0, 0, false
}

// Get returns the bound value, or Undefined.
func (id *Identifier) Get() (Value, error) {
	tier, owner, stored := id.tier()
	if !stored {
		if fn, ok := id.in.builtins.Lookup(id.Name); ok {
			return fn, nil
		}
		if v, ok := id.ctx.Get(id.Name); ok {
			return v, nil
		}
		tier, owner = TierServer, id.ctx.ServerID
	}
	v, err := id.in.store.Get(tier, owner, id.Name)
	if err != nil {
		return nil, wrapError(KindStorage, err)
	}
	if v == nil {
		return Undefined, nil
	}
	return v, nil
}

// Put binds v.
func (id *Identifier) Put(v Value) error {
	tier, owner, stored := id.tier()
	if !stored {
		if id.in.builtins.Has(id.Name) {
			return errorf(KindOperation, "Cannot overwrite builtin %q.", id.Name)
		}
		if id.ctx.Put(id.Name, v) {
			return nil
		}
		tier, owner = TierServer, id.ctx.ServerID
	}
	if err := id.checkPrivilege(tier); err != nil {
		return err
	}
	if err := id.in.store.Put(tier, owner, id.Name, v); err != nil {
		return wrapError(KindStorage, err)
	}
	return nil
}

// Drop unbinds the name and returns its previous value, or Undefined.
func (id *Identifier) Drop() (Value, error) {
	tier, owner, stored := id.tier()
	if !stored {
		if id.in.builtins.Has(id.Name) {
			return nil, errorf(KindOperation, "Cannot delete builtin %q.", id.Name)
		}
		if v, ok := id.ctx.Drop(id.Name); ok {
			return v, nil
		}
		tier, owner = TierServer, id.ctx.ServerID
	}
	if err := id.checkPrivilege(tier); err != nil {
		return nil, err
	}
	v, err := id.in.store.Drop(tier, owner, id.Name)
	if err != nil {
		return nil, wrapError(KindStorage, err)
	}
	if v == nil {
		return Undefined, nil
	}
	return v, nil
}

func (id *Identifier) checkPrivilege(tier Tier) error {
	if tier != TierCore {
		return nil
	}
	if id.in.editors == nil || !id.in.editors.CanEdit(id.ctx.UserID) {
		return errorf(KindPrivilege, "User %d is not permitted to modify core variables.", id.ctx.UserID)
	}
	return nil
}
