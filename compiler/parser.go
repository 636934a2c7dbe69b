package compiler

import (
	"math/big"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: Earley parse followed by AST construction
// ---------------------------------------------------------------------------

// Parser parses dicelang source code into an AST.
type Parser struct {
	input  string
	tokens []Token
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	return &Parser{input: input}
}

// Parse parses source into a Program.
func Parse(source string) (*Program, error) {
	return NewParser(source).Parse()
}

// Parse runs the lexer and the Earley recognizer, then builds the AST. Failures
// are reported as *SyntaxError.
func (p *Parser) Parse() (*Program, error) {
	toks := Tokenize(p.input)
	last := toks[len(toks)-1]
	if last.Type == TokenError {
		return nil, newSyntaxError(p.input, last, last.Literal, nil)
	}
	p.tokens = toks[:len(toks)-1]

	c, perr := loadGrammar().recognize(p.tokens)
	if perr != nil {
		at := last
		if perr.at < len(p.tokens) {
			at = p.tokens[perr.at]
		}
		return nil, newSyntaxError(p.input, at, "unexpected "+at.String(), perr.expected)
	}
	return p.program(c.tree()), nil
}

// ---------------------------------------------------------------------------
// Tree walking helpers
// ---------------------------------------------------------------------------

func (p *Parser) span(n *parseNode) Span {
	if n.end <= n.start {
		return Span{}
	}
	first, last := p.tokens[n.start], p.tokens[n.end-1]
	return Span{
		Start: first.Pos,
		End: Position{
			Offset: last.End,
			Line:   last.Pos.Line,
			Column: last.Pos.Column + (last.End - last.Pos.Offset),
		},
	}
}

func child(n *parseNode, i int) *parseNode { return n.children[i].(*parseNode) }
func leaf(n *parseNode, i int) Token       { return n.children[i].(Token) }

// flatten collects the items of a left-recursive list rule such as
// "xs: x | xs sep x", skipping separator tokens.
func flatten(n *parseNode) []any {
	var out []any
	for n != nil {
		var head *parseNode
		items := n.children
		if len(items) > 1 {
			if sub, ok := items[0].(*parseNode); ok && sub.rule.lhs == n.rule.lhs {
				head = sub
				items = items[1:]
			}
		}
		var tail []any
		for _, it := range items {
			if t, ok := it.(Token); ok && (t.Literal == "," || t.Literal == ";") && t.Type == TokenOperator {
				continue
			}
			tail = append(tail, it)
		}
		out = append(tail, out...)
		n = head
	}
	return out
}

func (p *Parser) program(n *parseNode) *Program {
	return &Program{SpanVal: p.span(n), Exprs: p.exprList(child(n, 0))}
}

func (p *Parser) exprList(n *parseNode) []Expr {
	items := flatten(n)
	out := make([]Expr, len(items))
	for i, it := range items {
		out[i] = p.expr(it.(*parseNode))
	}
	return out
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryOps = map[string]Operator{
	"^": OpRepeat, "or": OpOr, "xor": OpXor, "and": OpAnd, "in": OpIn,
	"<<": OpShiftLeft, ">>": OpShiftRight,
	"+": OpAdd, "-": OpSub, "$": OpCat,
	"*": OpMul, "/": OpDiv, "%": OpMod, "//": OpFloorDiv,
	"**": OpPow, "%%": OpLog, "-:": OpApply,
	"::": OpPlugin, "seek": OpSeek, "like": OpLike,
}

var prefixOps = map[string]Operator{
	"not": OpNot, "-": OpNeg, "+": OpPos,
	"&": OpSum, "#": OpLen, "@": OpPick, "!<": OpMin, "!>": OpMax,
	"|": OpFlatten, "?": OpStats, "<>": OpSort, "><": OpShuffle,
	"typeof": OpTypeof,
}

var comparisonOps = map[string]Operator{
	"<": OpLT, "<=": OpLE, "==": OpEQ, "!=": OpNE, ">=": OpGE, ">": OpGT,
}

func (p *Parser) expr(n *parseNode) Expr {
	sp := p.span(n)
	kids := n.children

	switch n.rule.tag {
	case "":
		return p.expr(child(n, 0))

	case "identifier_set":
		return &Assignment{SpanVal: sp, Target: p.ident(child(n, 0)), Value: p.expr(child(n, 2))}
	case "subscript_set":
		return &Assignment{SpanVal: sp, Target: p.ident(child(n, 0)), Path: p.path(child(n, 1)), Value: p.expr(child(n, 3))}

	case "deletion":
		var targets []DeleteTarget
		for _, it := range flatten(child(n, 1)) {
			d := it.(*parseNode)
			t := DeleteTarget{Ident: p.ident(child(d, 0))}
			if len(d.children) > 1 {
				t.Path = p.path(child(d, 1))
			}
			targets = append(targets, t)
		}
		return &Deletion{SpanVal: sp, Targets: targets}

	case "block":
		return &Block{SpanVal: sp, Exprs: p.exprList(child(n, 1))}

	case "function":
		fn := &Function{SpanVal: sp, Body: p.body(child(n, len(kids)-1))}
		if sub, ok := kids[1].(*parseNode); ok {
			for _, it := range flatten(sub) {
				fn.Params = append(fn.Params, it.(Token).Literal)
			}
		}
		return fn

	case "for_loop":
		return &ForLoop{SpanVal: sp, Var: p.ident(child(n, 1)), Iterable: p.expr(child(n, 3)), Body: p.body(child(n, 5))}
	case "while_loop":
		return &WhileLoop{SpanVal: sp, Cond: p.expr(child(n, 1)), Body: p.body(child(n, 3))}
	case "do_while_loop":
		return &DoWhileLoop{SpanVal: sp, Body: p.body(child(n, 1)), Cond: p.expr(child(n, 3))}
	case "if":
		return &If{SpanVal: sp, Cond: p.expr(child(n, 1)), Then: p.body(child(n, 3))}
	case "if_else":
		return &If{SpanVal: sp, Cond: p.expr(child(n, 1)), Then: p.body(child(n, 3)), Else: p.body(child(n, 5))}

	case "import", "import_as":
		imp := &Import{SpanVal: sp, Source: p.ident(child(n, 1))}
		for i := 2; i < len(kids); i++ {
			switch k := kids[i].(type) {
			case *parseNode:
				if k.rule.lhs == "attributes" {
					for _, it := range flatten(k) {
						if t := it.(Token); t.Literal != "." {
							imp.Attrs = append(imp.Attrs, t.Literal)
						}
					}
				} else {
					imp.As = p.ident(k)
				}
			}
		}
		return imp

	case "alias":
		return &AliasDef{SpanVal: sp, Target: p.ident(child(n, 0)), Value: p.expr(child(n, 2))}

	case "println", "print":
		return &Print{SpanVal: sp, Value: p.expr(child(n, 1)), Newline: n.rule.tag == "println"}

	case "break", "skip", "return":
		kind := map[string]SignalKind{"break": SignalBreak, "skip": SignalSkip, "return": SignalReturn}[n.rule.tag]
		sig := &Signal{SpanVal: sp, Kind: kind}
		if len(kids) > 1 {
			sig.Value = p.expr(child(n, 1))
		}
		return sig

	case "inspect":
		return &Inspect{SpanVal: sp, Target: p.ident(child(n, 1))}

	case "ternary":
		return &Ternary{SpanVal: sp, Then: p.expr(child(n, 0)), Cond: p.expr(child(n, 2)), Else: p.expr(child(n, 4))}
	case "ternary_binary":
		return &Ternary{SpanVal: sp, Then: p.expr(child(n, 0)), Else: p.expr(child(n, 3))}

	case "binary":
		return &BinaryOp{SpanVal: sp, Op: binaryOps[leaf(n, 1).Literal], Left: p.expr(child(n, 0)), Right: p.expr(child(n, 2))}
	case "not_in":
		return &BinaryOp{SpanVal: sp, Op: OpNotIn, Left: p.expr(child(n, 0)), Right: p.expr(child(n, 3))}
	case "prefix":
		return &UnaryOp{SpanVal: sp, Op: prefixOps[leaf(n, 0).Literal], Operand: p.expr(child(n, 1))}
	case "magnitude":
		return &UnaryOp{SpanVal: sp, Op: OpMagnitude, Operand: p.expr(child(n, 1))}

	case "comparison":
		cmp := &Comparison{SpanVal: sp, Operands: []Expr{p.expr(child(n, 0))}}
		items := flatten(child(n, 1))
		for i := 0; i+1 < len(items); i += 2 {
			cmp.Ops = append(cmp.Ops, chainOp(items[i].(*parseNode)))
			cmp.Operands = append(cmp.Operands, p.expr(items[i+1].(*parseNode)))
		}
		return cmp

	case "dice":
		d := &Dice{SpanVal: sp, Count: p.expr(child(n, 0)), Sides: p.expr(child(n, 2)), Vector: leaf(n, 1).Literal == "r"}
		if len(kids) > 3 {
			d.Keep = p.expr(child(n, 4))
			d.Mode = KeepHighest
			if leaf(n, 3).Literal == "l" {
				d.Mode = KeepLowest
			}
		}
		return d

	case "getattr":
		return &GetAttr{SpanVal: sp, Object: p.expr(child(n, 0)), Name: leaf(n, 2).Literal}
	case "call":
		call := &Call{SpanVal: sp, Callee: p.expr(child(n, 0))}
		if sub, ok := kids[2].(*parseNode); ok {
			call.Args = p.exprList(sub)
		}
		return call
	case "subscript":
		return p.subscript(sp, p.expr(child(n, 0)), child(n, 2))

	case "number":
		return numberLiteral(sp, leaf(n, 0))
	case "imaginary":
		t := leaf(n, 0)
		f, _ := strconv.ParseFloat(t.Literal, 64)
		return &ImaginaryLiteral{SpanVal: sp, Value: f, Text: t.Literal}
	case "string":
		return &StringLiteral{SpanVal: sp, Value: leaf(n, 0).Literal}
	case "true", "false":
		return &BoolLiteral{SpanVal: sp, Value: n.rule.tag == "true"}
	case "undefined":
		return &UndefinedLiteral{SpanVal: sp}
	case "variable":
		return p.ident(child(n, 0))
	case "priority":
		return &Priority{SpanVal: sp, Inner: p.expr(child(n, 1))}

	case "list":
		lst := &ListLiteral{SpanVal: sp}
		if sub, ok := kids[1].(*parseNode); ok {
			lst.Elements = p.exprList(sub)
		}
		return lst
	case "range", "closed_range":
		r := &RangeLiteral{SpanVal: sp, Start: p.expr(child(n, 1)), Stop: p.expr(child(n, 3)), Closed: n.rule.tag == "closed_range"}
		if len(kids) > 5 {
			r.Step = p.expr(child(n, 5))
		}
		return r
	case "tuple":
		tup := &TupleLiteral{SpanVal: sp}
		if len(kids) > 2 {
			tup.Elements = []Expr{p.expr(child(n, 1))}
		}
		if len(kids) > 4 {
			tup.Elements = append(tup.Elements, p.exprList(child(n, 3))...)
		}
		return tup
	case "map":
		m := &MapLiteral{SpanVal: sp}
		if sub, ok := kids[1].(*parseNode); ok {
			for _, it := range flatten(sub) {
				pair := it.(*parseNode)
				m.Keys = append(m.Keys, p.expr(child(pair, 0)))
				m.Values = append(m.Values, p.expr(child(pair, 2)))
			}
		}
		return m
	}

	panic("compiler: unhandled production " + n.rule.String())
}

func chainOp(n *parseNode) Operator {
	switch n.rule.tag {
	case "is":
		return OpIs
	case "is_not":
		return OpIsNot
	}
	return comparisonOps[leaf(n, 0).Literal]
}

// body wraps a bare expression in a short block so loop and function bodies
// always introduce a scope.
func (p *Parser) body(n *parseNode) *Block {
	e := p.expr(child(n, 0))
	if b, ok := e.(*Block); ok {
		return b
	}
	return &Block{SpanVal: e.Span(), Exprs: []Expr{e}, Short: true}
}

func (p *Parser) ident(n *parseNode) *Identifier {
	id := &Identifier{SpanVal: p.span(n)}
	if len(n.children) == 1 {
		id.Name = leaf(n, 0).Literal
		return id
	}
	id.Name = leaf(n, 1).Literal
	switch leaf(n, 0).Literal {
	case "my":
		id.Mode = AccessPrivate
	case "our":
		id.Mode = AccessServer
	case "global":
		id.Mode = AccessGlobal
	case "core":
		id.Mode = AccessCore
	}
	return id
}

func (p *Parser) path(n *parseNode) []PathStep {
	var steps []PathStep
	for _, it := range flatten(n) {
		s := it.(*parseNode)
		if s.rule.tag == "attribute_step" {
			steps = append(steps, PathStep{Attr: leaf(s, 1).Literal})
		} else {
			steps = append(steps, PathStep{Index: p.expr(child(s, 1))})
		}
	}
	return steps
}

// subscript builds x[i] or a slice. Colons separate the start, stop and step
// slots; "::" counts as two separators.
func (p *Parser) subscript(sp Span, obj Expr, n *parseNode) Expr {
	if n.rule.tag == "index" {
		return &Subscript{SpanVal: sp, Object: obj, Index: p.expr(child(n, 0))}
	}
	var slots [3]Expr
	slot := 0
	for _, k := range n.children {
		switch k := k.(type) {
		case Token:
			if k.Literal == "::" {
				slot += 2
			} else {
				slot++
			}
		case *parseNode:
			slots[slot] = p.expr(k)
		}
	}
	return &Slice{SpanVal: sp, Object: obj, Start: slots[0], Stop: slots[1], Step: slots[2]}
}

func numberLiteral(sp Span, t Token) Expr {
	if t.Type == TokenInteger {
		v, ok := new(big.Int).SetString(t.Literal, 10)
		if ok {
			return &IntLiteral{SpanVal: sp, Value: v, Text: t.Literal}
		}
	}
	// Out-of-range literals saturate to +Inf or 0, as in the source language.
	f, _ := strconv.ParseFloat(t.Literal, 64)
	return &FloatLiteral{SpanVal: sp, Value: f, Text: t.Literal}
}
