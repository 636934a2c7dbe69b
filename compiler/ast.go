package compiler

import "math/big"

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for dicelang
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// Expr is the interface for expression nodes. Every statement form is also an
// expression: it yields a value.
type Expr interface {
	Node
	expr() // marker method
}

// Program is the root of a parse: expressions separated by semicolons.
type Program struct {
	SpanVal Span
	Exprs   []Expr
}

func (n *Program) Span() Span { return n.SpanVal }
func (n *Program) node()      {}

// ---------------------------------------------------------------------------
// Enumerations
// ---------------------------------------------------------------------------

// Access selects where an identifier is resolved.
type Access int

const (
	AccessScoped  Access = iota // bare name: builtins, scopes, then server tier
	AccessPrivate               // my
	AccessServer                // our
	AccessGlobal                // global
	AccessCore                  // core
)

var accessPrefixes = [...]string{"", "my", "our", "global", "core"}

// Prefix returns the source keyword for the access mode, or "" for scoped names.
func (a Access) Prefix() string { return accessPrefixes[a] }

// KeepMode is the dice keep-modifier.
type KeepMode int

const (
	KeepAll KeepMode = iota
	KeepHighest
	KeepLowest
)

// SignalKind names a control-flow signal.
type SignalKind int

const (
	SignalBreak SignalKind = iota
	SignalSkip
	SignalReturn
)

var signalNames = [...]string{"break", "skip", "return"}

func (k SignalKind) String() string { return signalNames[k] }

// PathStep is one subscript in an assignment or deletion target: either an
// index expression or an attribute name.
type PathStep struct {
	Index Expr
	Attr  string
}

// DeleteTarget is one operand of del.
type DeleteTarget struct {
	Ident *Identifier
	Path  []PathStep
}

// ---------------------------------------------------------------------------
// Literal nodes
// ---------------------------------------------------------------------------

// IntLiteral represents an integer literal. Text keeps the source spelling.
type IntLiteral struct {
	SpanVal Span
	Value *big.Int
	Text  string
}

func (n *IntLiteral) Span() Span { return n.SpanVal }
func (n *IntLiteral) node()      {}
func (n *IntLiteral) expr()      {}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	SpanVal Span
	Value float64
	Text  string
}

func (n *FloatLiteral) Span() Span { return n.SpanVal }
func (n *FloatLiteral) node()      {}
func (n *FloatLiteral) expr()      {}

// ImaginaryLiteral represents an imaginary literal such as 2j.
type ImaginaryLiteral struct {
	SpanVal Span
	Value float64
	Text  string
}

func (n *ImaginaryLiteral) Span() Span { return n.SpanVal }
func (n *ImaginaryLiteral) node()      {}
func (n *ImaginaryLiteral) expr()      {}

// StringLiteral represents a string literal.
type StringLiteral struct {
	SpanVal Span
	Value string
}

func (n *StringLiteral) Span() Span { return n.SpanVal }
func (n *StringLiteral) node()      {}
func (n *StringLiteral) expr()      {}

// BoolLiteral represents True or False.
type BoolLiteral struct {
	SpanVal Span
	Value bool
}

func (n *BoolLiteral) Span() Span { return n.SpanVal }
func (n *BoolLiteral) node()      {}
func (n *BoolLiteral) expr()      {}

// UndefinedLiteral represents the Undefined keyword.
type UndefinedLiteral struct {
	SpanVal Span
}

func (n *UndefinedLiteral) Span() Span { return n.SpanVal }
func (n *UndefinedLiteral) node()      {}
func (n *UndefinedLiteral) expr()      {}

// ListLiteral represents [a, b, c].
type ListLiteral struct {
	SpanVal Span
	Elements []Expr
}

func (n *ListLiteral) Span() Span { return n.SpanVal }
func (n *ListLiteral) node()      {}
func (n *ListLiteral) expr()      {}

// TupleLiteral represents (), (a,) and (a, b).
type TupleLiteral struct {
	SpanVal Span
	Elements []Expr
}

func (n *TupleLiteral) Span() Span { return n.SpanVal }
func (n *TupleLiteral) node()      {}
func (n *TupleLiteral) expr()      {}

// MapLiteral represents {k: v}. Keys and Values have equal length.
type MapLiteral struct {
	SpanVal Span
	Keys   []Expr
	Values []Expr
}

func (n *MapLiteral) Span() Span { return n.SpanVal }
func (n *MapLiteral) node()      {}
func (n *MapLiteral) expr()      {}

// RangeLiteral represents [a to b by c]. Closed ranges include Stop.
type RangeLiteral struct {
	SpanVal Span
	Start  Expr
	Stop   Expr
	Step   Expr // nil when omitted
	Closed bool
}

func (n *RangeLiteral) Span() Span { return n.SpanVal }
func (n *RangeLiteral) node()      {}
func (n *RangeLiteral) expr()      {}

// ---------------------------------------------------------------------------
// Names
// ---------------------------------------------------------------------------

// Identifier is a name together with its access mode.
type Identifier struct {
	SpanVal Span
	Name string
	Mode Access
}

func (n *Identifier) Span() Span { return n.SpanVal }
func (n *Identifier) node()      {}
func (n *Identifier) expr()      {}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// BinaryOp represents every infix operator except comparison chains.
type BinaryOp struct {
	SpanVal Span
	Op    Operator
	Left  Expr
	Right Expr
}

func (n *BinaryOp) Span() Span { return n.SpanVal }
func (n *BinaryOp) node()      {}
func (n *BinaryOp) expr()      {}

// UnaryOp represents a prefix operator, or |x| when Op is OpMagnitude.
type UnaryOp struct {
	SpanVal Span
	Op      Operator
	Operand Expr
}

func (n *UnaryOp) Span() Span { return n.SpanVal }
func (n *UnaryOp) node()      {}
func (n *UnaryOp) expr()      {}

// Comparison is a chain such as a < b <= c. len(Ops) == len(Operands)-1.
type Comparison struct {
	SpanVal Span
	Operands []Expr
	Ops      []Operator
}

func (n *Comparison) Span() Span { return n.SpanVal }
func (n *Comparison) node()      {}
func (n *Comparison) expr()      {}

// Ternary represents a if c else b. Cond is nil for the binary form a if else b.
type Ternary struct {
	SpanVal Span
	Then Expr
	Cond Expr
	Else Expr
}

func (n *Ternary) Span() Span { return n.SpanVal }
func (n *Ternary) node()      {}
func (n *Ternary) expr()      {}

// Dice represents count d sides, optionally with a keep modifier.
type Dice struct {
	SpanVal Span
	Count  Expr
	Sides  Expr
	Keep   Expr // nil unless Mode is KeepHighest or KeepLowest
	Mode   KeepMode
	Vector bool // r: return the rolls instead of their sum
}

func (n *Dice) Span() Span { return n.SpanVal }
func (n *Dice) node()      {}
func (n *Dice) expr()      {}

// ---------------------------------------------------------------------------
// Postfix nodes
// ---------------------------------------------------------------------------

// Call represents f(a, b).
type Call struct {
	SpanVal Span
	Callee Expr
	Args   []Expr
}

func (n *Call) Span() Span { return n.SpanVal }
func (n *Call) node()      {}
func (n *Call) expr()      {}

// GetAttr represents x.name.
type GetAttr struct {
	SpanVal Span
	Object Expr
	Name   string
}

func (n *GetAttr) Span() Span { return n.SpanVal }
func (n *GetAttr) node()      {}
func (n *GetAttr) expr()      {}

// Subscript represents x[i].
type Subscript struct {
	SpanVal Span
	Object Expr
	Index  Expr
}

func (n *Subscript) Span() Span { return n.SpanVal }
func (n *Subscript) node()      {}
func (n *Subscript) expr()      {}

// Slice represents x[a:b:c]; omitted parts are nil.
type Slice struct {
	SpanVal Span
	Object Expr
	Start  Expr
	Stop   Expr
	Step   Expr
}

func (n *Slice) Span() Span { return n.SpanVal }
func (n *Slice) node()      {}
func (n *Slice) expr()      {}

// Priority represents a parenthesized expression.
type Priority struct {
	SpanVal Span
	Inner Expr
}

func (n *Priority) Span() Span { return n.SpanVal }
func (n *Priority) node()      {}
func (n *Priority) expr()      {}

// ---------------------------------------------------------------------------
// Statement forms
// ---------------------------------------------------------------------------

// Block represents begin ... end. Short marks a body written as a bare expression.
type Block struct {
	SpanVal Span
	Exprs []Expr
	Short bool
}

func (n *Block) Span() Span { return n.SpanVal }
func (n *Block) node()      {}
func (n *Block) expr()      {}

// Function represents (a, b) -> body.
type Function struct {
	SpanVal Span
	Params []string
	Body   *Block
}

func (n *Function) Span() Span { return n.SpanVal }
func (n *Function) node()      {}
func (n *Function) expr()      {}

// Assignment represents target = value and target[i].k = value.
type Assignment struct {
	SpanVal Span
	Target *Identifier
	Path   []PathStep
	Value  Expr
}

func (n *Assignment) Span() Span { return n.SpanVal }
func (n *Assignment) node()      {}
func (n *Assignment) expr()      {}

// Deletion represents del a, b[0], c.k.
type Deletion struct {
	SpanVal Span
	Targets []DeleteTarget
}

func (n *Deletion) Span() Span { return n.SpanVal }
func (n *Deletion) node()      {}
func (n *Deletion) expr()      {}

// ForLoop represents for x in xs do body.
type ForLoop struct {
	SpanVal Span
	Var      *Identifier
	Iterable Expr
	Body     *Block
}

func (n *ForLoop) Span() Span { return n.SpanVal }
func (n *ForLoop) node()      {}
func (n *ForLoop) expr()      {}

// WhileLoop represents while cond do body.
type WhileLoop struct {
	SpanVal Span
	Cond Expr
	Body *Block
}

func (n *WhileLoop) Span() Span { return n.SpanVal }
func (n *WhileLoop) node()      {}
func (n *WhileLoop) expr()      {}

// DoWhileLoop represents do body while cond.
type DoWhileLoop struct {
	SpanVal Span
	Body *Block
	Cond Expr
}

func (n *DoWhileLoop) Span() Span { return n.SpanVal }
func (n *DoWhileLoop) node()      {}
func (n *DoWhileLoop) expr()      {}

// If represents if cond then body [else body]. Else is nil when absent.
type If struct {
	SpanVal Span
	Cond Expr
	Then *Block
	Else *Block
}

func (n *If) Span() Span { return n.SpanVal }
func (n *If) node()      {}
func (n *If) expr()      {}

// Import represents import src.a.b [as dst].
type Import struct {
	SpanVal Span
	Source *Identifier
	Attrs  []string
	As     *Identifier
}

func (n *Import) Span() Span { return n.SpanVal }
func (n *Import) node()      {}
func (n *Import) expr()      {}

// AliasDef represents name aliases value.
type AliasDef struct {
	SpanVal Span
	Target *Identifier
	Value  Expr
}

func (n *AliasDef) Span() Span { return n.SpanVal }
func (n *AliasDef) node()      {}
func (n *AliasDef) expr()      {}

// Print represents print and println.
type Print struct {
	SpanVal Span
	Value   Expr
	Newline bool
}

func (n *Print) Span() Span { return n.SpanVal }
func (n *Print) node()      {}
func (n *Print) expr()      {}

// Signal represents break, skip and return. Value is nil when no payload is given.
type Signal struct {
	SpanVal Span
	Kind  SignalKind
	Value Expr
}

func (n *Signal) Span() Span { return n.SpanVal }
func (n *Signal) node()      {}
func (n *Signal) expr()      {}

// Inspect represents inspect name.
type Inspect struct {
	SpanVal Span
	Target *Identifier
}

func (n *Inspect) Span() Span { return n.SpanVal }
func (n *Inspect) node()      {}
func (n *Inspect) expr()      {}
