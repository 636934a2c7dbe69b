package compiler

import (
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// The dicelang grammar, loosest binding first
// ---------------------------------------------------------------------------

const grammarText = `
start: sequence
     | sequence ";"

sequence: expression -> sequence
        | sequence ";" expression -> sequence

expression: assignment
          | deletion
          | block
          | function
          | for_loop
          | while_loop
          | do_while_loop
          | conditional
          | import
          | alias
          | keyword_expr

assignment: identifier "=" expression -> identifier_set
          | identifier subscripts "=" expression -> subscript_set

subscripts: subscript -> subscripts
          | subscripts subscript -> subscripts

subscript: "[" expression "]" -> index_step
         | "." IDENT -> attribute_step

deletion: "del" deletables -> deletion

deletables: deletable -> deletables
          | deletables "," deletable -> deletables

deletable: identifier -> deletable
         | identifier subscripts -> deletable

block: "begin" sequence "end" -> block
     | "begin" sequence ";" "end" -> block

body: expression -> body

function: "(" ")" "->" body -> function
        | "(" params ")" "->" body -> function
        | "(" params "," ")" "->" body -> function

params: IDENT -> params
      | params "," IDENT -> params

for_loop: "for" identifier "in" expression "do" body -> for_loop

while_loop: "while" expression "do" body -> while_loop

do_while_loop: "do" body "while" expression -> do_while_loop

conditional: "if" expression "then" body -> if
           | "if" expression "then" body "else" body -> if_else

import: "import" identifier -> import
      | "import" identifier attributes -> import
      | "import" identifier "as" identifier -> import_as
      | "import" identifier attributes "as" identifier -> import_as

attributes: "." IDENT -> attributes
          | attributes "." IDENT -> attributes

alias: identifier "aliases" expression -> alias

keyword_expr: "println" expression -> println
            | "print" expression -> print
            | "break" expression -> break
            | "break" -> break
            | "skip" expression -> skip
            | "skip" -> skip
            | "return" expression -> return
            | "return" -> return
            | "inspect" identifier -> inspect
            | ternary

ternary: repeat "if" repeat "else" ternary -> ternary
       | repeat "if" "else" ternary -> ternary_binary
       | repeat

repeat: repeat "^" disjunction -> binary
      | disjunction

disjunction: disjunction "or" exclusion -> binary
           | exclusion

exclusion: exclusion "xor" conjunction -> binary
         | conjunction

conjunction: conjunction "and" negation -> binary
           | negation

negation: "not" negation -> prefix
        | comparison

comparison: membership math_chain -> comparison
          | membership identity_chain -> comparison
          | membership

math_chain: math_op membership -> chain
          | math_chain math_op membership -> chain

math_op: "<" | "<=" | "==" | "!=" | ">=" | ">"

identity_chain: identity_op membership -> chain
              | identity_chain identity_op membership -> chain

identity_op: "is" -> is
           | "is" "not" -> is_not

membership: shift "in" shift -> binary
          | shift "not" "in" shift -> not_in
          | shift

shift: shift "<<" sum -> binary
     | shift ">>" sum -> binary
     | sum

sum: sum "+" product -> binary
   | sum "-" product -> binary
   | sum "$" product -> binary
   | product

product: product "*" unary -> binary
       | product "/" unary -> binary
       | product "%" unary -> binary
       | product "//" unary -> binary
       | unary

unary: "-" unary -> prefix
     | "+" unary -> prefix
     | power

power: reduction "**" unary -> binary
     | power "%%" reduction -> binary
     | reduction

reduction: "&" reduction -> prefix
         | "#" reduction -> prefix
         | "@" reduction -> prefix
         | "!<" reduction -> prefix
         | "!>" reduction -> prefix
         | "|" reduction -> prefix
         | "?" reduction -> prefix
         | "<>" reduction -> prefix
         | "><" reduction -> prefix
         | application

application: dice "-:" application -> binary
           | dice

dice: dice "d" plugin -> dice
    | dice "d" plugin "h" plugin -> dice
    | dice "d" plugin "l" plugin -> dice
    | dice "r" plugin -> dice
    | dice "r" plugin "h" plugin -> dice
    | dice "r" plugin "l" plugin -> dice
    | plugin

plugin: postfix "::" plugin -> binary
      | postfix "seek" plugin -> binary
      | postfix "like" plugin -> binary
      | "typeof" plugin -> prefix
      | postfix

postfix: postfix "." IDENT -> getattr
       | postfix "(" ")" -> call
       | postfix "(" arguments ")" -> call
       | postfix "(" arguments "," ")" -> call
       | postfix "[" slice "]" -> subscript
       | atom

arguments: expression -> arguments
         | arguments "," expression -> arguments

slice: ":" -> slice
     | "::" -> slice
     | ":" ":" -> slice
     | expression ":" -> slice
     | expression "::" -> slice
     | expression ":" ":" -> slice
     | expression ":" expression -> slice
     | expression ":" expression ":" -> slice
     | expression ":" expression ":" expression -> slice
     | expression ":" ":" expression -> slice
     | expression "::" expression -> slice
     | ":" expression -> slice
     | ":" expression ":" -> slice
     | ":" expression ":" expression -> slice
     | ":" ":" expression -> slice
     | "::" expression -> slice
     | expression -> index

atom: NUMBER -> number
    | IMAGINARY -> imaginary
    | STRING -> string
    | "True" -> true
    | "False" -> false
    | "Undefined" -> undefined
    | identifier -> variable
    | "(" expression ")" -> priority
    | "|" expression "|" -> magnitude
    | list
    | tuple
    | map

list: "[" "]" -> list
    | "[" elements "]" -> list
    | "[" elements "," "]" -> list
    | "[" expression "to" expression "]" -> range
    | "[" expression "to" expression "by" expression "]" -> range
    | "[" expression "through" expression "]" -> closed_range
    | "[" expression "through" expression "by" expression "]" -> closed_range
    | "[" expression "thru" expression "]" -> closed_range
    | "[" expression "thru" expression "by" expression "]" -> closed_range

elements: expression -> elements
        | elements "," expression -> elements

tuple: "(" ")" -> tuple
     | "(" expression "," ")" -> tuple
     | "(" expression "," elements ")" -> tuple
     | "(" expression "," elements "," ")" -> tuple

map: "{" "}" -> map
   | "{" pairs "}" -> map
   | "{" pairs "," "}" -> map

pairs: pair -> pairs
     | pairs "," pair -> pairs

pair: expression ":" expression -> pair

identifier: IDENT -> identifier
          | "my" IDENT -> identifier
          | "our" IDENT -> identifier
          | "global" IDENT -> identifier
          | "core" IDENT -> identifier
`

var tokenClasses = map[string]func(Token) bool{
	"NUMBER": func(t Token) bool { return t.Type == TokenInteger || t.Type == TokenFloat },
	"IMAGINARY": func(t Token) bool { return t.Type == TokenImaginary },
	"STRING": func(t Token) bool { return t.Type == TokenString },
	"IDENT": func(t Token) bool { return t.Type == TokenWord && !reservedWords[t.Literal] },
}

var loadGrammar = sync.OnceValue(func() *grammar {
	g, err := compileGrammar("start", grammarText, tokenClasses)
	if err != nil {
		panic(fmt.Sprintf("compiler: invalid grammar: %v", err))
	}
	return g
})
