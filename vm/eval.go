package vm

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/chazu/dicelang/compiler"
)

// execution is the state of one Execute call.
type execution struct {
	in       *Interpreter
	scope    *ScopingContext
	deadline time.Time
}

func (ex *execution) checkDeadline() error {
	if time.Now().After(ex.deadline) {
		return errorf(KindTimeout, msgTooLong)
	}
	return nil
}

func (ex *execution) ident(n *compiler.Identifier) *Identifier {
	return ex.in.NewIdentifier(ex.scope, n.Name, n.Mode)
}

func (ex *execution) program(p *compiler.Program) (Value, error) {
	var last Value = Undefined
	for _, e := range p.Exprs {
		v, err := ex.eval(e)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// eval evaluates n. Any alias it yields is called straight away.
func (ex *execution) eval(n compiler.Expr) (Value, error) {
	if err := ex.checkDeadline(); err != nil {
		return nil, err
	}
	v, err := ex.dispatch(n)
	if err != nil {
		return nil, err
	}
	if a, ok := v.(*Alias); ok {
		return ex.call(a.Fn, nil)
	}
	return v, nil
}

func (ex *execution) evalAll(exprs []compiler.Expr) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := ex.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ex *execution) dispatch(n compiler.Expr) (Value, error) {
	switch x := n.(type) {
	case *compiler.IntLiteral:
		return IntFromBig(x.Value), nil
	case *compiler.FloatLiteral:
		return Float(x.Value), nil
	case *compiler.ImaginaryLiteral:
		return Complex(complex(0, x.Value)), nil
	case *compiler.StringLiteral:
		return String(x.Value), nil
	case *compiler.BoolLiteral:
		return Bool(x.Value), nil
	case *compiler.UndefinedLiteral:
		return Undefined, nil
	case *compiler.ListLiteral:
		items, err := ex.evalAll(x.Elements)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case *compiler.TupleLiteral:
		items, err := ex.evalAll(x.Elements)
		if err != nil {
			return nil, err
		}
		return NewTuple(items...), nil
	case *compiler.MapLiteral:
		return ex.mapLiteral(x)
	case *compiler.RangeLiteral:
		return ex.rangeLiteral(x)
	case *compiler.Identifier:
		return ex.ident(x).Get()
	case *compiler.Priority:
		return ex.eval(x.Inner)
	case *compiler.BinaryOp:
		return ex.binary(x)
	case *compiler.UnaryOp:
		return ex.unary(x)
	case *compiler.Comparison:
		return ex.comparison(x)
	case *compiler.Ternary:
		return ex.ternary(x)
	case *compiler.Dice:
		return ex.dice(x)
	case *compiler.Call:
		return ex.callExpr(x)
	case *compiler.GetAttr:
		obj, err := ex.eval(x.Object)
		if err != nil {
			return nil, err
		}
		return getAttr(obj, x.Name)
	case *compiler.Subscript:
		obj, err := ex.eval(x.Object)
		if err != nil {
			return nil, err
		}
		key, err := ex.eval(x.Index)
		if err != nil {
			return nil, err
		}
		return Index(obj, key)
	case *compiler.Slice:
		return ex.slice(x)
	case *compiler.Block:
		return ex.block(x)
	case *compiler.Function:
		return ex.function(x)
	case *compiler.Assignment:
		return ex.assign(x)
	case *compiler.Deletion:
		return ex.deletion(x)
	case *compiler.ForLoop:
		return ex.forLoop(x)
	case *compiler.WhileLoop:
		return ex.whileLoop(x.Cond, x.Body, false)
	case *compiler.DoWhileLoop:
		return ex.whileLoop(x.Cond, x.Body, true)
	case *compiler.If:
		return ex.conditional(x)
	case *compiler.Import:
		return ex.importExpr(x)
	case *compiler.AliasDef:
		return ex.aliasDef(x)
	case *compiler.Print:
		v, err := ex.eval(x.Value)
		if err != nil {
			return nil, err
		}
		end := " "
		if x.Newline {
			end = "\n"
		}
		ex.in.prints.Append(ex.scope.UserID, Str(v)+end)
		return v, nil
	case *compiler.Signal:
		u := &Unwind{Kind: x.Kind, Value: Undefined}
		if x.Value != nil {
			v, err := ex.eval(x.Value)
			if err != nil {
				return nil, err
			}
			u.Value, u.HasValue = v, true
		}
		return nil, u
	case *compiler.Inspect:
		v, err := ex.ident(x.Target).Get()
		if err != nil {
			return nil, err
		}
		if a, ok := v.(*Alias); ok {
			return a.Fn, nil
		}
		return v, nil
	}
	panic(fmt.Sprintf("vm: unhandled node %T", n))
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

func (ex *execution) mapLiteral(x *compiler.MapLiteral) (Value, error) {
	m := NewMap()
	for i := range x.Keys {
		k, err := ex.eval(x.Keys[i])
		if err != nil {
			return nil, err
		}
		v, err := ex.eval(x.Values[i])
		if err != nil {
			return nil, err
		}
		if err := m.set(k, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (ex *execution) rangeLiteral(x *compiler.RangeLiteral) (Value, error) {
	start, err := ex.eval(x.Start)
	if err != nil {
		return nil, err
	}
	stop, err := ex.eval(x.Stop)
	if err != nil {
		return nil, err
	}
	var step Value
	if x.Step != nil {
		if step, err = ex.eval(x.Step); err != nil {
			return nil, err
		}
	}
	return makeRange(start, stop, step, x.Closed, ex.in.opts.MaxRange)
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

func (ex *execution) binary(x *compiler.BinaryOp) (Value, error) {
	switch x.Op {
	case compiler.OpOr, compiler.OpAnd:
		l, err := ex.eval(x.Left)
		if err != nil {
			return nil, err
		}
		if Truthy(l) == (x.Op == compiler.OpOr) {
			return l, nil
		}
		return ex.eval(x.Right)
	case compiler.OpRepeat:
		return ex.repeat(x)
	case compiler.OpPlugin:
		return ex.plugin(x)
	}

	l, err := ex.eval(x.Left)
	if err != nil {
		return nil, err
	}
	r, err := ex.eval(x.Right)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case compiler.OpXor:
		return Bool(Truthy(l) != Truthy(r)), nil
	case compiler.OpIn, compiler.OpNotIn:
		ok, err := contains(r, l)
		if err != nil {
			return nil, err
		}
		return Bool(ok == (x.Op == compiler.OpIn)), nil
	case compiler.OpShiftLeft, compiler.OpShiftRight:
		return shift(l, r, x.Op == compiler.OpShiftLeft)
	case compiler.OpAdd:
		return add(l, r)
	case compiler.OpSub:
		return subtract(l, r)
	case compiler.OpCat:
		return catenate(l, r)
	case compiler.OpMul:
		return multiply(l, r, ex.in.opts.MaxRange)
	case compiler.OpDiv:
		return divide(l, r)
	case compiler.OpMod:
		return modulo(l, r)
	case compiler.OpFloorDiv:
		return floorDivide(l, r)
	case compiler.OpPow:
		return power(l, r, ex.powerTick)
	case compiler.OpLog:
		return logarithm(l, r)
	case compiler.OpApply:
		return ex.apply(l, r)
	case compiler.OpSeek:
		return seek(l, r)
	case compiler.OpLike:
		return like(l, r)
	}
	panic(fmt.Sprintf("vm: unhandled binary operator %s", x.Op))
}

func (ex *execution) powerTick() error {
	if time.Now().After(ex.deadline) {
		return errorf(KindTimeout, "Base or exponent too large in magnitude!")
	}
	return nil
}

func (ex *execution) unary(x *compiler.UnaryOp) (Value, error) {
	v, err := ex.eval(x.Operand)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case compiler.OpNot:
		return Bool(!Truthy(v)), nil
	case compiler.OpNeg:
		return negate(v)
	case compiler.OpPos:
		return positive(v)
	case compiler.OpMagnitude:
		return magnitude(v), nil
	case compiler.OpSum:
		return sum(v)
	case compiler.OpLen:
		return length(v), nil
	case compiler.OpPick:
		return ex.pick(v)
	case compiler.OpMin:
		return extreme(v, false)
	case compiler.OpMax:
		return extreme(v, true)
	case compiler.OpFlatten:
		return flatten(v), nil
	case compiler.OpStats:
		return stats(v)
	case compiler.OpSort:
		return sorted(v)
	case compiler.OpShuffle:
		return ex.shuffle(v), nil
	case compiler.OpTypeof:
		return String(v.Type()), nil
	}
	panic(fmt.Sprintf("vm: unhandled prefix operator %s", x.Op))
}

func (ex *execution) comparison(x *compiler.Comparison) (Value, error) {
	left, err := ex.eval(x.Operands[0])
	if err != nil {
		return nil, err
	}
	for i, op := range x.Ops {
		right, err := ex.eval(x.Operands[i+1])
		if err != nil {
			return nil, err
		}
		ok, err := compare(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return Bool(false), nil
		}
		left = right
	}
	return Bool(true), nil
}

func compare(op compiler.Operator, a, b Value) (bool, error) {
	switch op {
	case compiler.OpEQ:
		return Equal(a, b), nil
	case compiler.OpNE:
		return !Equal(a, b), nil
	case compiler.OpIs:
		return Identical(a, b), nil
	case compiler.OpIsNot:
		return !Identical(a, b), nil
	}
	c, unordered, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	if unordered {
		return false, nil
	}
	switch op {
	case compiler.OpLT:
		return c < 0, nil
	case compiler.OpLE:
		return c <= 0, nil
	case compiler.OpGT:
		return c > 0, nil
	case compiler.OpGE:
		return c >= 0, nil
	}
	panic(fmt.Sprintf("vm: unhandled comparison %s", op))
}

func (ex *execution) ternary(x *compiler.Ternary) (Value, error) {
	if x.Cond == nil {
		v, err := ex.eval(x.Then)
		if err != nil {
			return nil, err
		}
		if Truthy(v) {
			return v, nil
		}
		return ex.eval(x.Else)
	}
	c, err := ex.eval(x.Cond)
	if err != nil {
		return nil, err
	}
	if Truthy(c) {
		return ex.eval(x.Then)
	}
	return ex.eval(x.Else)
}

// repeat evaluates the left operand as many times as the right operand says.
func (ex *execution) repeat(x *compiler.BinaryOp) (Value, error) {
	count, err := ex.eval(x.Right)
	if err != nil {
		return nil, err
	}
	n, ok := toBig(count)
	if !ok {
		return nil, errorf(KindOperation, "Repetition count must be an integer, not %s.", count.Type())
	}
	if n.Sign() < 0 {
		return nil, errorf(KindOperation, "Repetition count cannot be negative.")
	}
	if !n.IsInt64() || n.Int64() > int64(ex.in.opts.MaxRange) {
		return nil, errorf(KindOperation, "Repetition count %s exceeds the limit of %d.", n, ex.in.opts.MaxRange)
	}
	out := make([]Value, 0, n.Int64())
	for range n.Int64() {
		v, err := ex.eval(x.Left)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return NewList(out...), nil
}

// plugin dispatches name :: arg. A bare name on the left is used as the
// plugin name without being evaluated.
func (ex *execution) plugin(x *compiler.BinaryOp) (Value, error) {
	var name string
	if id, ok := x.Left.(*compiler.Identifier); ok && id.Mode == compiler.AccessScoped {
		name = id.Name
	} else {
		v, err := ex.eval(x.Left)
		if err != nil {
			return nil, err
		}
		s, ok := v.(String)
		if !ok {
			return nil, errorf(KindOperation, "Plugin name must be a string, not %s.", v.Type())
		}
		name = string(s)
	}
	arg, err := ex.eval(x.Right)
	if err != nil {
		return nil, err
	}
	fn, ok := ex.in.plugins.Lookup(name)
	if !ok {
		return Undefined, nil
	}
	return fn(arg)
}

func (ex *execution) apply(f, xs Value) (Value, error) {
	items, err := Elements(xs)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(items))
	for i, item := range items {
		v, err := ex.callValue(f, []Value{item})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return NewList(out...), nil
}

func (ex *execution) pick(v Value) (Value, error) {
	switch x := v.(type) {
	case *List, *Tuple, String:
		items, _ := Elements(x)
		if len(items) == 0 {
			return nil, errorf(KindOperation, "Cannot choose from an empty sequence.")
		}
		return items[ex.in.randIntN(len(items))], nil
	case *Map:
		if x.Len() == 0 {
			return nil, errorf(KindOperation, "Cannot choose from an empty sequence.")
		}
		i := ex.in.randIntN(x.Len())
		return NewList(x.keys[i], x.vals[i]), nil
	}
	return v, nil
}

func (ex *execution) shuffle(v Value) Value {
	var items []Value
	switch x := v.(type) {
	case *List:
		items = x.Items
	case *Tuple:
		items = x.Items
	case *Map:
		items = x.keys
	case String:
		r := []rune(string(x))
		for i := len(r) - 1; i > 0; i-- {
			j := ex.in.randIntN(i + 1)
			r[i], r[j] = r[j], r[i]
		}
		return String(r)
	default:
		return v
	}
	out := append([]Value(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := ex.in.randIntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return NewList(out...)
}

func (ex *execution) dice(x *compiler.Dice) (Value, error) {
	count, err := ex.eval(x.Count)
	if err != nil {
		return nil, err
	}
	sides, err := ex.eval(x.Sides)
	if err != nil {
		return nil, err
	}
	var keep Value
	if x.Keep != nil {
		if keep, err = ex.eval(x.Keep); err != nil {
			return nil, err
		}
	}
	return ex.roll(count, sides, keep, x.Mode, x.Vector)
}

// seek finds the first match of a pattern, as {"start": i, "end": j} in
// characters, or -1 for both when there is none.
func seek(text, pattern Value) (Value, error) {
	s, re, err := regexOperands("seek", text, pattern)
	if err != nil {
		return nil, err
	}
	start, end := int64(-1), int64(-1)
	if loc := re.FindStringIndex(s); loc != nil {
		start = int64(utf8.RuneCountInString(s[:loc[0]]))
		end = int64(utf8.RuneCountInString(s[:loc[1]]))
	}
	return MapOf(String("start"), NewInt(start), String("end"), NewInt(end))
}

// like reports whether a pattern matches at the start of the text.
func like(text, pattern Value) (Value, error) {
	s, re, err := regexOperands("like", text, pattern)
	if err != nil {
		return nil, err
	}
	loc := re.FindStringIndex(s)
	return Bool(loc != nil && loc[0] == 0), nil
}

func regexOperands(op string, text, pattern Value) (string, *regexp.Regexp, error) {
	s, ok1 := text.(String)
	p, ok2 := pattern.(String)
	if !ok1 || !ok2 {
		return "", nil, typeError(op, text, pattern)
	}
	re, err := regexp.Compile(string(p))
	if err != nil {
		return "", nil, errorf(KindOperation, "Invalid pattern %s: %v", compiler.Quote(string(p)), err)
	}
	return string(s), re, nil
}

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

// getAttr reads a map key by name. Functions read this way are bound to the
// map as this for one call.
func getAttr(obj Value, name string) (Value, error) {
	m, ok := obj.(*Map)
	if !ok {
		return nil, errorf(KindOperation, "'%s' object has no attribute '%s'", obj.Type(), name)
	}
	v, found, _ := m.Get(String(name))
	if !found {
		return nil, errorf(KindOperation, "Key %s not found.", compiler.Quote(name))
	}
	if fn, ok := v.(*Function); ok {
		bound := *fn
		bound.This = m
		return &bound, nil
	}
	return v, nil
}

func (ex *execution) slice(x *compiler.Slice) (Value, error) {
	obj, err := ex.eval(x.Object)
	if err != nil {
		return nil, err
	}
	bounds := [3]Value{}
	for i, e := range []compiler.Expr{x.Start, x.Stop, x.Step} {
		if e == nil {
			continue
		}
		if bounds[i], err = ex.eval(e); err != nil {
			return nil, err
		}
	}
	return SliceValue(obj, bounds[0], bounds[1], bounds[2])
}

// pathKeys evaluates the subscripts of an assignment or deletion target.
func (ex *execution) pathKeys(steps []compiler.PathStep) ([]Value, error) {
	keys := make([]Value, len(steps))
	for i, st := range steps {
		if st.Index == nil {
			keys[i] = String(st.Attr)
			continue
		}
		k, err := ex.eval(st.Index)
		if err != nil {
			return nil, err
		}
		switch k.(type) {
		case *Function, *Alias:
			return nil, errorf(KindOperation, "Functions cannot be used as keys or indices.")
		}
		keys[i] = k
	}
	return keys, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (ex *execution) block(b *compiler.Block) (Value, error) {
	ex.scope.PushScope(nil)
	defer ex.scope.PopScope()
	var last Value = Undefined
	for _, e := range b.Exprs {
		v, err := ex.eval(e)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (ex *execution) function(x *compiler.Function) (Value, error) {
	seen := make(map[string]bool, len(x.Params))
	for _, p := range x.Params {
		if seen[p] {
			return nil, errorf(KindDefinition, "Parameter name duplicated: %s.", compiler.Quote(p))
		}
		seen[p] = true
	}
	return &Function{Params: x.Params, Body: x.Body, Closure: ex.scope.CallingEnvironment()}, nil
}

func (ex *execution) assign(x *compiler.Assignment) (Value, error) {
	v, err := ex.eval(x.Value)
	if err != nil {
		return nil, err
	}
	id := ex.ident(x.Target)
	if len(x.Path) == 0 {
		if err := id.Put(v); err != nil {
			return nil, err
		}
		return v, nil
	}
	keys, err := ex.pathKeys(x.Path)
	if err != nil {
		return nil, err
	}
	root, err := id.Get()
	if err != nil {
		return nil, err
	}
	updated, err := SetPath(root, keys, v)
	if err != nil {
		return nil, err
	}
	if err := id.Put(updated); err != nil {
		return nil, err
	}
	return v, nil
}

func (ex *execution) deletion(x *compiler.Deletion) (Value, error) {
	removed := make([]Value, 0, len(x.Targets))
	for _, t := range x.Targets {
		id := ex.ident(t.Ident)
		if len(t.Path) == 0 {
			v, err := id.Drop()
			if err != nil {
				return nil, err
			}
			removed = append(removed, v)
			continue
		}
		keys, err := ex.pathKeys(t.Path)
		if err != nil {
			return nil, err
		}
		root, err := id.Get()
		if err != nil {
			return nil, err
		}
		updated, v, err := DeletePath(root, keys)
		if err != nil {
			return nil, err
		}
		if err := id.Put(updated); err != nil {
			return nil, err
		}
		removed = append(removed, v)
	}
	if len(removed) == 1 {
		return removed[0], nil
	}
	return NewTuple(removed...), nil
}

// loopSignal reports whether err is a break or skip for the enclosing loop,
// appending any payload to results.
func loopSignal(err error, results *[]Value) (handled, stop bool) {
	var u *Unwind
	if !errors.As(err, &u) || u.Kind == compiler.SignalReturn {
		return false, false
	}
	if u.HasValue {
		*results = append(*results, u.Value)
	}
	return true, u.Kind == compiler.SignalBreak
}

func (ex *execution) forLoop(x *compiler.ForLoop) (Value, error) {
	iterable, err := ex.eval(x.Iterable)
	if err != nil {
		return nil, err
	}
	items, err := Elements(iterable)
	if err != nil {
		return nil, err
	}
	if x.Var.Mode != compiler.AccessScoped {
		return nil, errorf(KindUsage, "Loop variable %s cannot carry a scope prefix.", x.Var.Name)
	}
	ex.scope.PushScope(nil)
	defer ex.scope.PopScope()
	results := []Value{}
	for _, item := range items {
		ex.scope.SetLocal(x.Var.Name, item)
		v, err := ex.block(x.Body)
		if err != nil {
			handled, stop := loopSignal(err, &results)
			if !handled {
				return nil, err
			}
			if stop {
				break
			}
			continue
		}
		results = append(results, v)
	}
	return NewList(results...), nil
}

func (ex *execution) whileLoop(cond compiler.Expr, body *compiler.Block, bodyFirst bool) (Value, error) {
	ex.scope.PushScope(nil)
	defer ex.scope.PopScope()
	limit := time.Now().Add(ex.in.opts.LoopTimeout)
	results := []Value{}
	for first := true; ; first = false {
		if !(bodyFirst && first) {
			c, err := ex.eval(cond)
			if err != nil {
				return nil, err
			}
			if time.Now().After(limit) {
				return nil, loopTimeout(bodyFirst, len(results))
			}
			if !Truthy(c) {
				break
			}
		}
		v, err := ex.block(body)
		if err != nil {
			handled, stop := loopSignal(err, &results)
			if !handled {
				return nil, err
			}
			if stop {
				break
			}
			continue
		}
		results = append(results, v)
	}
	return NewList(results...), nil
}

func loopTimeout(do bool, iterations int) *Error {
	prefix := ""
	if do {
		prefix = "do-"
	}
	e := errorf(KindTimeout, "%swhile loop iterated %d times without terminating, or your loop's "+
		"condition never changed state. You may need to mark certain variables with \"our\" in front.",
		prefix, iterations)
	e.Iterations = iterations
	return e
}

func (ex *execution) conditional(x *compiler.If) (Value, error) {
	ex.scope.PushScope(nil)
	defer ex.scope.PopScope()
	c, err := ex.eval(x.Cond)
	if err != nil {
		return nil, err
	}
	if Truthy(c) {
		return ex.block(x.Then)
	}
	if x.Else != nil {
		return ex.block(x.Else)
	}
	return Undefined, nil
}

// importExpr copies a stored value, or one of its attributes, into the server
// tier under its own name or into the as target.
func (ex *execution) importExpr(x *compiler.Import) (Value, error) {
	v, err := ex.ident(x.Source).Get()
	if err != nil {
		return nil, err
	}
	name := x.Source.Name
	for _, attr := range x.Attrs {
		m, ok := v.(*Map)
		if !ok {
			return nil, errorf(KindOperation, "'%s' object has no attribute '%s'", v.Type(), attr)
		}
		next, found, _ := m.Get(String(attr))
		if !found {
			return Bool(false), nil
		}
		v, name = next, attr
	}
	if _, ok := v.(UndefinedValue); ok {
		return Bool(false), nil
	}
	dest := &compiler.Identifier{Name: name, Mode: compiler.AccessServer}
	if x.As != nil {
		dest = x.As
	}
	if err := ex.ident(dest).Put(v); err != nil {
		return nil, err
	}
	return Bool(true), nil
}

func (ex *execution) aliasDef(x *compiler.AliasDef) (Value, error) {
	v, err := ex.eval(x.Value)
	if err != nil {
		return nil, err
	}
	fn, ok := v.(*Function)
	if !ok {
		return nil, errorf(KindAlias, "Value of type %s cannot be aliased. Only a Function can be aliased.", v.Type())
	}
	if len(fn.Params) != 0 {
		return nil, errorf(KindAlias, "Aliased function must have exactly 0 parameters.")
	}
	if err := ex.ident(x.Target).Put(&Alias{Fn: fn}); err != nil {
		return nil, err
	}
	return fn, nil
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

func (ex *execution) callExpr(x *compiler.Call) (Value, error) {
	callee, err := ex.eval(x.Callee)
	if err != nil {
		return nil, err
	}
	args, err := ex.evalAll(x.Args)
	if err != nil {
		return nil, err
	}
	return ex.callValue(callee, args)
}

// callValue calls a function, or multiplies a number by each argument.
func (ex *execution) callValue(callee Value, args []Value) (Value, error) {
	switch f := callee.(type) {
	case *Function:
		return ex.call(f, args)
	case *Alias:
		return ex.call(f.Fn, args)
	}
	if isNumber(callee) {
		out := make([]Value, len(args))
		for i, a := range args {
			v, err := multiply(callee, a, ex.in.opts.MaxRange)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		if len(out) == 1 {
			return out[0], nil
		}
		return NewTuple(out...), nil
	}
	return nil, errorf(KindOperation, "Cannot call object of type %s as function nor multiply it as a coefficient.", callee.Type())
}

func (ex *execution) call(f *Function, args []Value) (Value, error) {
	if len(args) != len(f.Params) {
		return nil, errorf(KindCall, "Arguments mismatch formal parameters in length.")
	}
	if ex.scope.Depth() >= ex.in.opts.MaxCallDepth {
		return nil, errorf(KindOperation, "Maximum call depth of %d exceeded.", ex.in.opts.MaxCallDepth)
	}
	bound := make(Scope, len(args)+1)
	for i, p := range f.Params {
		bound[p] = args[i]
	}
	if f.This != nil {
		bound["this"] = f.This
	}
	ex.scope.PushFrame()
	ex.scope.PushScope(bound)
	ex.scope.PushClosure(f.Closure)
	defer func() {
		ex.scope.PopClosure()
		ex.scope.PopScope()
		ex.scope.PopFrame()
	}()

	v, err := ex.block(f.Body)
	if err != nil {
		var u *Unwind
		if !errors.As(err, &u) {
			return nil, err
		}
		if u.Kind != compiler.SignalReturn {
			return nil, u.outside()
		}
		return u.Value, nil
	}
	return v, nil
}
