package compiler

// Operator identifies a prefix, infix or comparison operator.
type Operator int

const (
	OpInvalid Operator = iota

	// Infix
	OpOr
	OpXor
	OpAnd
	OpRepeat
	OpIn
	OpNotIn
	OpShiftLeft
	OpShiftRight
	OpAdd
	OpSub
	OpCat
	OpMul
	OpDiv
	OpMod
	OpFloorDiv
	OpPow
	OpLog
	OpApply
	OpPlugin
	OpSeek
	OpLike

	// Comparison chains
	OpLT
	OpLE
	OpEQ
	OpNE
	OpGE
	OpGT
	OpIs
	OpIsNot

	// Prefix
	OpNot
	OpNeg
	OpPos
	OpSum
	OpLen
	OpPick
	OpMin
	OpMax
	OpFlatten
	OpStats
	OpSort
	OpShuffle
	OpTypeof
	OpMagnitude // |x|
)

var opSymbols = map[Operator]string{
	OpOr:         "or",
	OpXor:        "xor",
	OpAnd:        "and",
	OpRepeat:     "^",
	OpIn:         "in",
	OpNotIn:      "not in",
	OpShiftLeft:  "<<",
	OpShiftRight: ">>",
	OpAdd:        "+",
	OpSub:        "-",
	OpCat:        "$",
	OpMul:        "*",
	OpDiv:        "/",
	OpMod:        "%",
	OpFloorDiv:   "//",
	OpPow:        "**",
	OpLog:        "%%",
	OpApply:      "-:",
	OpPlugin:     "::",
	OpSeek:       "seek",
	OpLike:       "like",
	OpLT:         "<",
	OpLE:         "<=",
	OpEQ:         "==",
	OpNE:         "!=",
	OpGE:         ">=",
	OpGT:         ">",
	OpIs:         "is",
	OpIsNot:      "is not",
	OpNot:        "not",
	OpNeg:        "-",
	OpPos:        "+",
	OpSum:        "&",
	OpLen:        "#",
	OpPick:       "@",
	OpMin:        "!<",
	OpMax:        "!>",
	OpFlatten:    "|",
	OpStats:      "?",
	OpSort:       "<>",
	OpShuffle:    "><",
	OpTypeof:     "typeof",
	OpMagnitude:  "|",
}

// String returns the operator's source spelling.
func (op Operator) String() string {
	if s, ok := opSymbols[op]; ok {
		return s
	}
	return "?op"
}

// IsWord reports whether the operator is spelled as a keyword and so needs
// surrounding whitespace when printed as a prefix.
func (op Operator) IsWord() bool {
	switch op {
	case OpNot, OpTypeof:
		return true
	}
	return false
}
