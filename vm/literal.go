package vm

import (
	"fmt"
	"math"

	"github.com/chazu/dicelang/compiler"
)

// DecodeLiteral parses text written by EncodeLiteral. Only literal forms are
// accepted: numbers, strings, containers, functions with an optional block of
// closure assignments, and Alias(...). Nothing is evaluated.
func DecodeLiteral(text string) (Value, error) {
	prog, err := compiler.Parse(text)
	if err != nil {
		return nil, err
	}
	if len(prog.Exprs) != 1 {
		return nil, fmt.Errorf("literal must be a single expression, got %d", len(prog.Exprs))
	}
	return decodeExpr(prog.Exprs[0], nil)
}

func decodeExpr(n compiler.Expr, env Scope) (Value, error) {
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
	case *compiler.Identifier:
		if x.Mode == compiler.AccessScoped {
			switch x.Name {
			case "inf":
				return Float(math.Inf(1)), nil
			case "nan":
				return Float(math.NaN()), nil
			}
		}
	case *compiler.Priority:
		return decodeExpr(x.Inner, env)
	case *compiler.UnaryOp:
		v, err := decodeExpr(x.Operand, env)
		if err != nil {
			return nil, err
		}
		if x.Op == compiler.OpNeg && isNumber(v) {
			return negate(v)
		}
	case *compiler.BinaryOp:
		l, err := decodeExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := decodeExpr(x.Right, env)
		if err != nil {
			return nil, err
		}
		if isNumber(l) && isNumber(r) {
			switch x.Op {
			case compiler.OpAdd:
				return add(l, r)
			case compiler.OpSub:
				return subtract(l, r)
			case compiler.OpMul:
				return numericMul(l, r), nil
			}
		}
	case *compiler.ListLiteral:
		items, err := decodeAll(x.Elements, env)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case *compiler.TupleLiteral:
		items, err := decodeAll(x.Elements, env)
		if err != nil {
			return nil, err
		}
		return NewTuple(items...), nil
	case *compiler.MapLiteral:
		m := NewMap()
		for i := range x.Keys {
			k, err := decodeExpr(x.Keys[i], env)
			if err != nil {
				return nil, err
			}
			v, err := decodeExpr(x.Values[i], env)
			if err != nil {
				return nil, err
			}
			if err := m.set(k, v); err != nil {
				return nil, err
			}
		}
		return m, nil
	case *compiler.Function:
		fn := &Function{Params: x.Params, Body: x.Body}
		if len(env) > 0 {
			fn.Closure = Snapshot{env}
		}
		return fn, nil
	case *compiler.Block:
		return decodeClosure(x)
	case *compiler.Call:
		callee, ok := x.Callee.(*compiler.Identifier)
		if ok && callee.Name == "Alias" && len(x.Args) == 1 {
			v, err := decodeExpr(x.Args[0], env)
			if err != nil {
				return nil, err
			}
			if fn, ok := v.(*Function); ok {
				return &Alias{Fn: fn}, nil
			}
		}
	}
	return nil, fmt.Errorf("not a literal: %s", compiler.DecompileCompact(n))
}

// decodeClosure reads begin a = 1; b = 2; (x) -> ... end.
func decodeClosure(b *compiler.Block) (Value, error) {
	if len(b.Exprs) == 0 {
		return nil, fmt.Errorf("empty block literal")
	}
	env := Scope{}
	for _, e := range b.Exprs[:len(b.Exprs)-1] {
		a, ok := e.(*compiler.Assignment)
		if !ok || len(a.Path) > 0 || a.Target.Mode != compiler.AccessScoped {
			return nil, fmt.Errorf("closure entries must be plain assignments: %s", compiler.DecompileCompact(e))
		}
		v, err := decodeExpr(a.Value, nil)
		if err != nil {
			return nil, err
		}
		env[a.Target.Name] = v
	}
	last := b.Exprs[len(b.Exprs)-1]
	if _, ok := last.(*compiler.Function); !ok {
		return nil, fmt.Errorf("block literal must end in a function")
	}
	return decodeExpr(last, env)
}

func decodeAll(exprs []compiler.Expr, env Scope) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := decodeExpr(e, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
