package compiler

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Decompiler: renders an AST back into canonical source
// ---------------------------------------------------------------------------

// Decompiler renders AST nodes as source text that parses back to the same
// tree. Compact output keeps everything on one line, which the storage record
// format requires.
type Decompiler struct {
	Compact bool
	sb      strings.Builder
	depth   int
}

// Decompile renders n with one block statement per line.
func Decompile(n Node) string {
	d := &Decompiler{}
	return d.Render(n)
}

// DecompileCompact renders n on a single line.
func DecompileCompact(n Node) string {
	d := &Decompiler{Compact: true}
	return d.Render(n)
}

// Render returns the source for n.
func (d *Decompiler) Render(n Node) string {
	d.sb.Reset()
	d.depth = 0
	d.node(n)
	return d.sb.String()
}

func (d *Decompiler) write(parts ...string) {
	for _, p := range parts {
		d.sb.WriteString(p)
	}
}

func (d *Decompiler) newline() {
	if d.Compact {
		d.sb.WriteByte(' ')
		return
	}
	d.sb.WriteByte('\n')
	d.sb.WriteString(strings.Repeat("  ", d.depth))
}

func (d *Decompiler) list(exprs []Expr, sep string) {
	for i, e := range exprs {
		if i > 0 {
			d.write(sep)
		}
		d.node(e)
	}
}

func (d *Decompiler) node(n Node) {
	switch n := n.(type) {
	case *Program:
		for i, e := range n.Exprs {
			if i > 0 {
				d.write(";")
				d.newline()
			}
			d.node(e)
		}

	// Literals
	case *IntLiteral:
		if n.Text != "" {
			d.write(n.Text)
		} else {
			d.write(n.Value.String())
		}
	case *FloatLiteral:
		d.write(n.Text)
	case *ImaginaryLiteral:
		d.write(n.Text, "j")
	case *StringLiteral:
		d.write(Quote(n.Value))
	case *BoolLiteral:
		if n.Value {
			d.write("True")
		} else {
			d.write("False")
		}
	case *UndefinedLiteral:
		d.write("Undefined")
	case *ListLiteral:
		d.write("[")
		d.list(n.Elements, ", ")
		d.write("]")
	case *TupleLiteral:
		d.write("(")
		d.list(n.Elements, ", ")
		if len(n.Elements) == 1 {
			d.write(",")
		}
		d.write(")")
	case *MapLiteral:
		d.write("{")
		for i := range n.Keys {
			if i > 0 {
				d.write(", ")
			}
			d.node(n.Keys[i])
			d.write(": ")
			d.node(n.Values[i])
		}
		d.write("}")
	case *RangeLiteral:
		d.write("[")
		d.node(n.Start)
		if n.Closed {
			d.write(" through ")
		} else {
			d.write(" to ")
		}
		d.node(n.Stop)
		if n.Step != nil {
			d.write(" by ")
			d.node(n.Step)
		}
		d.write("]")

	case *Identifier:
		if pre := n.Mode.Prefix(); pre != "" {
			d.write(pre, " ")
		}
		d.write(n.Name)

	// Operators
	case *BinaryOp:
		d.node(n.Left)
		d.write(" ", n.Op.String(), " ")
		d.node(n.Right)
	case *UnaryOp:
		switch {
		case n.Op == OpMagnitude:
			d.write("|")
			d.node(n.Operand)
			d.write("|")
		case n.Op.IsWord():
			d.write(n.Op.String(), " ")
			d.node(n.Operand)
		default:
			d.write(n.Op.String())
			d.node(n.Operand)
		}
	case *Comparison:
		d.node(n.Operands[0])
		for i, op := range n.Ops {
			d.write(" ", op.String(), " ")
			d.node(n.Operands[i+1])
		}
	case *Ternary:
		d.node(n.Then)
		if n.Cond != nil {
			d.write(" if ")
			d.node(n.Cond)
			d.write(" else ")
		} else {
			d.write(" if else ")
		}
		d.node(n.Else)
	case *Dice:
		d.node(n.Count)
		if n.Vector {
			d.write(" r ")
		} else {
			d.write(" d ")
		}
		d.node(n.Sides)
		switch n.Mode {
		case KeepHighest:
			d.write(" h ")
			d.node(n.Keep)
		case KeepLowest:
			d.write(" l ")
			d.node(n.Keep)
		}

	// Postfix
	case *Call:
		d.node(n.Callee)
		d.write("(")
		d.list(n.Args, ", ")
		d.write(")")
	case *GetAttr:
		d.node(n.Object)
		d.write(".", n.Name)
	case *Subscript:
		d.node(n.Object)
		d.write("[")
		d.node(n.Index)
		d.write("]")
	case *Slice:
		d.node(n.Object)
		d.write("[")
		if n.Start != nil {
			d.node(n.Start)
		}
		d.write(":")
		if n.Stop != nil {
			d.node(n.Stop)
		}
		if n.Step != nil {
			d.write(":")
			d.node(n.Step)
		}
		d.write("]")
	case *Priority:
		d.write("(")
		d.node(n.Inner)
		d.write(")")

	// Statement forms
	case *Block:
		d.block(n)
	case *Function:
		d.write("(", strings.Join(n.Params, ", "), ") -> ")
		d.block(n.Body)
	case *Assignment:
		d.node(n.Target)
		d.path(n.Path)
		d.write(" = ")
		d.node(n.Value)
	case *Deletion:
		d.write("del ")
		for i, t := range n.Targets {
			if i > 0 {
				d.write(", ")
			}
			d.node(t.Ident)
			d.path(t.Path)
		}
	case *ForLoop:
		d.write("for ")
		d.node(n.Var)
		d.write(" in ")
		d.node(n.Iterable)
		d.write(" do ")
		d.block(n.Body)
	case *WhileLoop:
		d.write("while ")
		d.node(n.Cond)
		d.write(" do ")
		d.block(n.Body)
	case *DoWhileLoop:
		d.write("do ")
		d.block(n.Body)
		d.write(" while ")
		d.node(n.Cond)
	case *If:
		d.write("if ")
		d.node(n.Cond)
		d.write(" then ")
		d.block(n.Then)
		if n.Else != nil {
			d.write(" else ")
			d.block(n.Else)
		}
	case *Import:
		d.write("import ")
		d.node(n.Source)
		for _, a := range n.Attrs {
			d.write(".", a)
		}
		if n.As != nil {
			d.write(" as ")
			d.node(n.As)
		}
	case *AliasDef:
		d.node(n.Target)
		d.write(" aliases ")
		d.node(n.Value)
	case *Print:
		if n.Newline {
			d.write("println ")
		} else {
			d.write("print ")
		}
		d.node(n.Value)
	case *Signal:
		d.write(n.Kind.String())
		if n.Value != nil {
			d.write(" ")
			d.node(n.Value)
		}
	case *Inspect:
		d.write("inspect ")
		d.node(n.Target)
	}
}

func (d *Decompiler) block(b *Block) {
	if b.Short && len(b.Exprs) == 1 {
		d.node(b.Exprs[0])
		return
	}
	d.write("begin")
	d.depth++
	for i, e := range b.Exprs {
		if i > 0 {
			d.write(";")
		}
		d.newline()
		d.node(e)
	}
	d.depth--
	d.newline()
	d.write("end")
}

func (d *Decompiler) path(steps []PathStep) {
	for _, s := range steps {
		if s.Index == nil {
			d.write(".", s.Attr)
			continue
		}
		d.write("[")
		d.node(s.Index)
		d.write("]")
	}
}

// Quote renders s as a double-quoted string literal that the lexer reads back
// unchanged. Control characters are escaped so the result fits on one line.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
