package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Earley: general context-free recognizer and tree extraction
// ---------------------------------------------------------------------------

// symbol is a grammar symbol. Terminals carry a predicate over tokens so that a
// single word can satisfy both a keyword terminal and IDENT.
type symbol struct {
	name     string
	terminal bool
	match    func(Token) bool
}

// rule is one production. Tag names the production for the tree builder; an
// empty tag marks a pass-through alternative with a single nonterminal.
type rule struct {
	id  int
	lhs string
	rhs []*symbol
	tag string
}

func (r *rule) String() string {
	parts := make([]string, len(r.rhs))
	for i, s := range r.rhs {
		parts[i] = s.name
	}
	return r.lhs + ": " + strings.Join(parts, " ")
}

// grammar is a compiled rule set. Alternatives of a nonterminal keep their
// declaration order, which is also their priority during tree extraction.
type grammar struct {
	start string
	rules []*rule
	byLHS map[string][]*rule
}

// item is an Earley item: a rule, a dot position and the origin set.
type item struct {
	rule   *rule
	dot    int
	origin int
}

func (it item) key() uint64 {
	return uint64(it.rule.id)<<40 | uint64(it.dot)<<32 | uint64(it.origin)
}

func (it item) next() *symbol {
	if it.dot < len(it.rule.rhs) {
		return it.rule.rhs[it.dot]
	}
	return nil
}

// itemSet is one column of the chart.
type itemSet struct {
	items     []item
	seen      map[uint64]bool
	predicted map[string]bool
	waiting   map[string][]item // items whose next symbol is the key
}

func newItemSet() *itemSet {
	return &itemSet{
		seen:      make(map[uint64]bool),
		predicted: make(map[string]bool),
		waiting:   make(map[string][]item),
	}
}

func (s *itemSet) add(it item) {
	k := it.key()
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.items = append(s.items, it)
}

// chart holds the completed spans found by the recognizer.
type chart struct {
	g      *grammar
	tokens []Token
	done   map[uint64]bool  // rule id, start, end
	ends   []map[string][]int // start -> nonterminal -> ascending ends
}

func spanKey(id, start, end int) uint64 {
	return uint64(id)<<40 | uint64(start)<<20 | uint64(end)
}

// parseError describes where recognition stopped.
type parseError struct {
	at       int // token index
	expected []string
}

// recognize runs the Earley algorithm over tokens (without the trailing EOF).
// The grammar has no empty productions, which keeps completion simple: an item
// completed in set k always has its origin in an earlier, finished set.
func (g *grammar) recognize(tokens []Token) (*chart, *parseError) {
	n := len(tokens)
	sets := make([]*itemSet, n+1)
	for i := range sets {
		sets[i] = newItemSet()
	}
	c := &chart{
		g:      g,
		tokens: tokens,
		done:   make(map[uint64]bool),
		ends:   make([]map[string][]int, n+1),
	}
	for i := range c.ends {
		c.ends[i] = make(map[string][]int)
	}

	sets[0].predicted[g.start] = true
	for _, r := range g.byLHS[g.start] {
		sets[0].add(item{rule: r})
	}

	for k := 0; k <= n; k++ {
		set := sets[k]
		for i := 0; i < len(set.items); i++ {
			it := set.items[i]
			sym := it.next()
			switch {
			case sym == nil:
				c.complete(it, k)
				for _, parent := range sets[it.origin].waiting[it.rule.lhs] {
					set.add(item{rule: parent.rule, dot: parent.dot + 1, origin: parent.origin})
				}
			case !sym.terminal:
				set.waiting[sym.name] = append(set.waiting[sym.name], it)
				if !set.predicted[sym.name] {
					set.predicted[sym.name] = true
					for _, r := range g.byLHS[sym.name] {
						set.add(item{rule: r, origin: k})
					}
				}
			case k < n && sym.match(tokens[k]):
				sets[k+1].add(item{rule: it.rule, dot: it.dot + 1, origin: it.origin})
			}
		}
		if k < n && len(sets[k+1].items) == 0 {
			return nil, &parseError{at: k, expected: expectedTerminals(set)}
		}
	}

	for _, r := range g.byLHS[g.start] {
		if c.done[spanKey(r.id, 0, n)] {
			return c, nil
		}
	}
	return nil, &parseError{at: n, expected: expectedTerminals(sets[n])}
}

func (c *chart) complete(it item, end int) {
	k := spanKey(it.rule.id, it.origin, end)
	if c.done[k] {
		return
	}
	c.done[k] = true
	byName := c.ends[it.origin]
	ends := byName[it.rule.lhs]
	if len(ends) == 0 || ends[len(ends)-1] != end {
		byName[it.rule.lhs] = append(ends, end)
	}
}

func expectedTerminals(set *itemSet) []string {
	uniq := make(map[string]bool)
	for _, it := range set.items {
		if sym := it.next(); sym != nil && sym.terminal {
			uniq[sym.name] = true
		}
	}
	out := make([]string, 0, len(uniq))
	for name := range uniq {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// parseNode is a node of the extracted derivation. Children are *parseNode or
// Token values, in right-hand-side order.
type parseNode struct {
	rule       *rule
	start, end int
	children   []any
}

// extractor rebuilds one derivation from a chart, preferring earlier
// alternatives and, within a rule, longer spans for earlier symbols.
type extractor struct {
	c      *chart
	failed map[uint64]bool
}

func (c *chart) tree() *parseNode {
	x := &extractor{c: c, failed: make(map[uint64]bool)}
	return x.build(c.g.start, 0, len(c.tokens))
}

func (x *extractor) build(lhs string, start, end int) *parseNode {
	for _, r := range x.c.g.byLHS[lhs] {
		if !x.c.done[spanKey(r.id, start, end)] {
			continue
		}
		if kids, ok := x.match(r, 0, start, end); ok {
			return &parseNode{rule: r, start: start, end: end, children: kids}
		}
	}
	panic(fmt.Sprintf("earley: no derivation for %s over [%d,%d)", lhs, start, end))
}

func (x *extractor) match(r *rule, idx, pos, end int) ([]any, bool) {
	if idx == len(r.rhs) {
		return nil, pos == end
	}
	memo := uint64(r.id)<<44 | uint64(idx)<<40 | uint64(pos)<<20 | uint64(end)
	if x.failed[memo] {
		return nil, false
	}

	sym := r.rhs[idx]
	// Every symbol spans at least one token.
	limit := end - (len(r.rhs) - idx - 1)
	if sym.terminal {
		if pos < limit && sym.match(x.c.tokens[pos]) {
			if rest, ok := x.match(r, idx+1, pos+1, end); ok {
				return append([]any{x.c.tokens[pos]}, rest...), true
			}
		}
	} else {
		ends := x.c.ends[pos][sym.name]
		for i := len(ends) - 1; i >= 0; i-- {
			e := ends[i]
			if e > limit || (idx == len(r.rhs)-1 && e != end) {
				continue
			}
			if rest, ok := x.match(r, idx+1, e, end); ok {
				child := x.build(sym.name, pos, e)
				return append([]any{child}, rest...), true
			}
		}
	}

	x.failed[memo] = true
	return nil, false
}

// ---------------------------------------------------------------------------
// Grammar compilation from text
// ---------------------------------------------------------------------------

// compileGrammar reads rules written as
//
//	name: sym sym -> tag
//	    | sym
//
// Quoted symbols are literal operators or keywords, upper-case symbols are token
// classes looked up in classes, and anything else is a nonterminal.
func compileGrammar(start, text string, classes map[string]func(Token) bool) (*grammar, error) {
	g := &grammar{start: start, byLHS: make(map[string][]*rule)}
	terminals := make(map[string]*symbol)
	nonterminals := make(map[string]*symbol)

	lookup := func(field string) (*symbol, error) {
		if strings.HasPrefix(field, `"`) {
			lit := strings.Trim(field, `"`)
			if s, ok := terminals[field]; ok {
				return s, nil
			}
			s := &symbol{name: field, terminal: true, match: literalMatcher(lit)}
			terminals[field] = s
			return s, nil
		}
		if strings.ToUpper(field) == field {
			m, ok := classes[field]
			if !ok {
				return nil, fmt.Errorf("unknown token class %s", field)
			}
			if s, ok := terminals[field]; ok {
				return s, nil
			}
			s := &symbol{name: field, terminal: true, match: m}
			terminals[field] = s
			return s, nil
		}
		if s, ok := nonterminals[field]; ok {
			return s, nil
		}
		s := &symbol{name: field}
		nonterminals[field] = s
		return s, nil
	}

	var lhs string
	for lineNo, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "|" {
			if lhs == "" {
				return nil, fmt.Errorf("line %d: alternative without rule", lineNo+1)
			}
			fields = fields[1:]
		} else {
			if !strings.HasSuffix(fields[0], ":") {
				return nil, fmt.Errorf("line %d: expected rule name", lineNo+1)
			}
			lhs = strings.TrimSuffix(fields[0], ":")
			fields = fields[1:]
		}

		for len(fields) > 0 {
			alt := fields
			fields = nil
			for i, f := range alt {
				if f == "|" {
					alt, fields = alt[:i], alt[i+1:]
					break
				}
			}
			tag := ""
			if n := len(alt); n >= 2 && alt[n-2] == "->" {
				tag = alt[n-1]
				alt = alt[:n-2]
			}
			if len(alt) == 0 {
				return nil, fmt.Errorf("line %d: empty alternative for %s", lineNo+1, lhs)
			}
			r := &rule{id: len(g.rules), lhs: lhs, tag: tag}
			for _, f := range alt {
				s, err := lookup(f)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
				}
				r.rhs = append(r.rhs, s)
			}
			if tag == "" && (len(r.rhs) != 1 || r.rhs[0].terminal) {
				r.tag = lhs
			}
			g.rules = append(g.rules, r)
			g.byLHS[lhs] = append(g.byLHS[lhs], r)
		}
	}

	for name := range nonterminals {
		if len(g.byLHS[name]) == 0 {
			return nil, fmt.Errorf("nonterminal %s has no rules", name)
		}
	}
	if len(g.byLHS[start]) == 0 {
		return nil, fmt.Errorf("start symbol %s has no rules", start)
	}
	return g, nil
}

// literalMatcher matches a keyword word or an operator spelled lit.
func literalMatcher(lit string) func(Token) bool {
	if lit != "" && isLetter(rune(lit[0])) {
		return func(t Token) bool { return t.Type == TokenWord && t.Literal == lit }
	}
	return func(t Token) bool { return t.Type == TokenOperator && t.Literal == lit }
}
