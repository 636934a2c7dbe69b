package compiler

import (
	"errors"
	"strings"
	"testing"
)

func parseOne(t *testing.T, input string) Expr {
	t.Helper()
	prog, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	if len(prog.Exprs) != 1 {
		t.Fatalf("Parse(%q): got %d expressions, want 1", input, len(prog.Exprs))
	}
	return prog.Exprs[0]
}

func intValue(e Expr) int64 {
	lit, ok := e.(*IntLiteral)
	if !ok {
		return -1 << 62
	}
	return lit.Value.Int64()
}

func TestParserLiterals(t *testing.T) {
	tests := []struct {
		input string
		check func(Expr) bool
		desc  string
	}{
		{"42", func(e Expr) bool { return intValue(e) == 42 }, "integer"},
		{"3.14", func(e Expr) bool { return e.(*FloatLiteral).Value == 3.14 }, "float"},
		{"2j", func(e Expr) bool { return e.(*ImaginaryLiteral).Value == 2 }, "imaginary"},
		{"'hello'", func(e Expr) bool { return e.(*StringLiteral).Value == "hello" }, "string"},
		{"True", func(e Expr) bool { return e.(*BoolLiteral).Value }, "true"},
		{"Undefined", func(e Expr) bool { _, ok := e.(*UndefinedLiteral); return ok }, "undefined"},
		{"[]", func(e Expr) bool { return len(e.(*ListLiteral).Elements) == 0 }, "empty list"},
		{"[1, 2, 3,]", func(e Expr) bool { return len(e.(*ListLiteral).Elements) == 3 }, "list"},
		{"()", func(e Expr) bool { return len(e.(*TupleLiteral).Elements) == 0 }, "empty tuple"},
		{"(1,)", func(e Expr) bool { return len(e.(*TupleLiteral).Elements) == 1 }, "mono tuple"},
		{"(1, 2, 3)", func(e Expr) bool { return len(e.(*TupleLiteral).Elements) == 3 }, "tuple"},
		{"(1)", func(e Expr) bool { _, ok := e.(*Priority); return ok }, "priority"},
		{"{}", func(e Expr) bool { return len(e.(*MapLiteral).Keys) == 0 }, "empty map"},
		{"{1: 2, 'a': 3}", func(e Expr) bool { return len(e.(*MapLiteral).Values) == 2 }, "map"},
		{"[1 to 10 by 2]", func(e Expr) bool { r := e.(*RangeLiteral); return !r.Closed && r.Step != nil }, "range"},
		{"[1 thru 3]", func(e Expr) bool { r := e.(*RangeLiteral); return r.Closed && r.Step == nil }, "closed range"},
	}

	for _, tc := range tests {
		e := parseOne(t, tc.input)
		if !tc.check(e) {
			t.Errorf("%s: check failed for %q (got %T)", tc.desc, tc.input, e)
		}
	}
}

func TestParserIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		name  string
		mode  Access
	}{
		{"x", "x", AccessScoped},
		{"my hp", "hp", AccessPrivate},
		{"our gold", "gold", AccessServer},
		{"global board", "board", AccessGlobal},
		{"core table", "table", AccessCore},
		{"d", "d", AccessScoped},
	}

	for _, tc := range tests {
		id, ok := parseOne(t, tc.input).(*Identifier)
		if !ok {
			t.Errorf("Parse(%q): not an identifier", tc.input)
			continue
		}
		if id.Name != tc.name || id.Mode != tc.mode {
			t.Errorf("Parse(%q) = %s/%v, want %s/%v", tc.input, id.Name, id.Mode, tc.name, tc.mode)
		}
	}
}

func TestParserPrecedence(t *testing.T) {
	add := parseOne(t, "1 + 2 * 3").(*BinaryOp)
	if add.Op != OpAdd || add.Right.(*BinaryOp).Op != OpMul {
		t.Errorf("1 + 2 * 3: got %v over %T", add.Op, add.Right)
	}

	sub := parseOne(t, "5 - 2 - 1").(*BinaryOp)
	if sub.Left.(*BinaryOp).Op != OpSub || intValue(sub.Right) != 1 {
		t.Errorf("5 - 2 - 1 should be left associative")
	}

	pow := parseOne(t, "2 ** 3 ** 2").(*BinaryOp)
	if intValue(pow.Left) != 2 || pow.Right.(*BinaryOp).Op != OpPow {
		t.Errorf("2 ** 3 ** 2 should be right associative")
	}

	neg := parseOne(t, "-2 ** 2").(*UnaryOp)
	if neg.Op != OpNeg || neg.Operand.(*BinaryOp).Op != OpPow {
		t.Errorf("-2 ** 2 should negate the power")
	}

	or := parseOne(t, "a or b and not c").(*BinaryOp)
	if or.Op != OpOr || or.Right.(*BinaryOp).Op != OpAnd {
		t.Errorf("a or b and not c: got %v", or.Op)
	}
	if or.Right.(*BinaryOp).Right.(*UnaryOp).Op != OpNot {
		t.Errorf("not should bind tighter than and")
	}

	rep := parseOne(t, "3d6 ^ 4").(*BinaryOp)
	if rep.Op != OpRepeat {
		t.Errorf("3d6 ^ 4: op = %v, want ^", rep.Op)
	}

	sum := parseOne(t, "&xs + 1").(*BinaryOp)
	if sum.Left.(*UnaryOp).Op != OpSum {
		t.Errorf("&xs + 1: reduction should bind tighter than +")
	}

	typ := parseOne(t, "typeof x == 'int'").(*Comparison)
	if typ.Operands[0].(*UnaryOp).Op != OpTypeof {
		t.Errorf("typeof should bind tighter than ==")
	}
}

func TestParserComparisons(t *testing.T) {
	chain := parseOne(t, "a < b <= c").(*Comparison)
	if len(chain.Operands) != 3 || chain.Ops[0] != OpLT || chain.Ops[1] != OpLE {
		t.Errorf("a < b <= c: ops = %v", chain.Ops)
	}

	is := parseOne(t, "a is not b").(*Comparison)
	if len(is.Ops) != 1 || is.Ops[0] != OpIsNot {
		t.Errorf("a is not b: ops = %v", is.Ops)
	}

	in := parseOne(t, "x not in y").(*BinaryOp)
	if in.Op != OpNotIn {
		t.Errorf("x not in y: op = %v", in.Op)
	}
}

func TestParserDice(t *testing.T) {
	d := parseOne(t, "3d6h2").(*Dice)
	if intValue(d.Count) != 3 || intValue(d.Sides) != 6 || intValue(d.Keep) != 2 || d.Mode != KeepHighest || d.Vector {
		t.Errorf("3d6h2 = %+v", d)
	}

	v := parseOne(t, "4 r 6 l 1").(*Dice)
	if !v.Vector || v.Mode != KeepLowest {
		t.Errorf("4 r 6 l 1 = %+v", v)
	}

	nested := parseOne(t, "2d6d4").(*Dice)
	if _, ok := nested.Count.(*Dice); !ok || intValue(nested.Sides) != 4 {
		t.Errorf("2d6d4 should roll 2d6 four-sided dice")
	}

	sum := parseOne(t, "1d20 + 5").(*BinaryOp)
	if _, ok := sum.Left.(*Dice); !ok {
		t.Errorf("1d20 + 5: left = %T, want *Dice", sum.Left)
	}
}

func TestParserPostfix(t *testing.T) {
	get := parseOne(t, "f(1, 2)[0].k").(*GetAttr)
	sub := get.Object.(*Subscript)
	call := sub.Object.(*Call)
	if get.Name != "k" || len(call.Args) != 2 {
		t.Errorf("f(1, 2)[0].k parsed wrong")
	}

	tests := []struct {
		input             string
		start, stop, step bool
	}{
		{"x[1:2]", true, true, false},
		{"x[:]", false, false, false},
		{"x[::2]", false, false, true},
		{"x[1::2]", true, false, true},
		{"x[:3]", false, true, false},
		{"x[1:]", true, false, false},
		{"x[1:5:2]", true, true, true},
		{"x[: :-1]", false, false, true},
	}
	for _, tc := range tests {
		s, ok := parseOne(t, tc.input).(*Slice)
		if !ok {
			t.Errorf("Parse(%q): not a slice", tc.input)
			continue
		}
		if (s.Start != nil) != tc.start || (s.Stop != nil) != tc.stop || (s.Step != nil) != tc.step {
			t.Errorf("Parse(%q) slots = %v %v %v", tc.input, s.Start != nil, s.Stop != nil, s.Step != nil)
		}
	}

	apply := parseOne(t, "f -: [1, 2]").(*BinaryOp)
	if apply.Op != OpApply {
		t.Errorf("f -: [1, 2]: op = %v", apply.Op)
	}
}

func TestParserStatements(t *testing.T) {
	set := parseOne(t, "my x = 5").(*Assignment)
	if set.Target.Mode != AccessPrivate || intValue(set.Value) != 5 {
		t.Errorf("my x = 5 parsed wrong")
	}

	path := parseOne(t, "x[0].a = 5").(*Assignment)
	if len(path.Path) != 2 || path.Path[1].Attr != "a" || path.Path[0].Index == nil {
		t.Errorf("x[0].a = 5 path = %+v", path.Path)
	}

	del := parseOne(t, "del a, b[0]").(*Deletion)
	if len(del.Targets) != 2 || len(del.Targets[1].Path) != 1 {
		t.Errorf("del a, b[0] targets = %+v", del.Targets)
	}

	fn := parseOne(t, "(a, b) -> a + b").(*Function)
	if strings.Join(fn.Params, ",") != "a,b" || !fn.Body.Short {
		t.Errorf("(a, b) -> a + b parsed wrong")
	}

	nullary := parseOne(t, "() -> begin 1; 2 end").(*Function)
	if len(nullary.Params) != 0 || nullary.Body.Short || len(nullary.Body.Exprs) != 2 {
		t.Errorf("() -> begin 1; 2 end parsed wrong")
	}

	loop := parseOne(t, "for i in [1, 2] do i * 2").(*ForLoop)
	if loop.Var.Name != "i" {
		t.Errorf("for loop var = %q", loop.Var.Name)
	}

	dw := parseOne(t, "do x = x + 1 while x < 3").(*DoWhileLoop)
	if _, ok := dw.Body.Exprs[0].(*Assignment); !ok {
		t.Errorf("do-while body = %T", dw.Body.Exprs[0])
	}

	imp := parseOne(t, "import our x.y as my z").(*Import)
	if imp.Source.Mode != AccessServer || len(imp.Attrs) != 1 || imp.As.Mode != AccessPrivate {
		t.Errorf("import parsed wrong: %+v", imp)
	}

	alias := parseOne(t, "hp aliases () -> 3d6").(*AliasDef)
	if _, ok := alias.Value.(*Function); !ok {
		t.Errorf("alias value = %T", alias.Value)
	}

	for _, src := range []string{"break", "skip 2", "return x"} {
		if _, ok := parseOne(t, src).(*Signal); !ok {
			t.Errorf("Parse(%q): not a signal", src)
		}
	}

	tern := parseOne(t, "a if c else b").(*Ternary)
	if tern.Cond == nil {
		t.Errorf("a if c else b: missing condition")
	}
	bin := parseOne(t, "a if else b").(*Ternary)
	if bin.Cond != nil {
		t.Errorf("a if else b: unexpected condition")
	}

	prog, err := Parse("print 1; println 2;")
	if err != nil || len(prog.Exprs) != 2 {
		t.Errorf("print sequence: %v, %d exprs", err, len(prog.Exprs))
	}
}

func TestParserDanglingElse(t *testing.T) {
	outer := parseOne(t, "if a then if b then 1 else 2").(*If)
	if outer.Else != nil {
		t.Fatalf("else bound to the outer if")
	}
	inner := outer.Then.Exprs[0].(*If)
	if inner.Else == nil {
		t.Errorf("else not bound to the inner if")
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input      string
		incomplete bool
	}{
		{"1 +", true},
		{"begin 1", true},
		{"x = 'open", true},
		{"1 + )", false},
		{"for = 3", false},
		{"", true},
	}

	for _, tc := range tests {
		_, err := Parse(tc.input)
		if err == nil {
			t.Errorf("Parse(%q): expected error", tc.input)
			continue
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Parse(%q): error %T, want *SyntaxError", tc.input, err)
			continue
		}
		if IsIncomplete(err) != tc.incomplete {
			t.Errorf("Parse(%q): incomplete = %v, want %v", tc.input, IsIncomplete(err), tc.incomplete)
		}
	}

	_, err := Parse("x = 1 + ) * 2")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected syntax error")
	}
	if !strings.Contains(se.Snippet, ")") || se.Pos.Column != 9 {
		t.Errorf("snippet = %q at column %d", se.Snippet, se.Pos.Column)
	}
}
