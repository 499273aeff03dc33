package parser

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// Engine runs an Earley parser over a grammar.
//
// Recognition keeps one state set per input position; each state is a rule,
// a dot position and the position where the rule started. After recognition
// the number of derivations of the whole input is counted over the chart
// (saturating at two). Only a unique derivation is turned into a value.
type Engine struct {
	g        Grammar
	byName   map[string][]int
	nullable map[string]bool
}

// NewEngine validates g and prepares it for parsing.
func NewEngine(g Grammar) (*Engine, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		g:        g,
		byName:   make(map[string][]int),
		nullable: make(map[string]bool),
	}
	for i, r := range g.Rules {
		e.byName[r.Name] = append(e.byName[r.Name], i)
	}

	// Nullable nonterminals, to a fixpoint.
	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			if e.nullable[r.Name] {
				continue
			}
			all := true
			for _, s := range r.Symbols {
				if s.IsTerminal() || !e.nullable[s.ref] {
					all = false
					break
				}
			}
			if all {
				e.nullable[r.Name] = true
				changed = true
			}
		}
	}
	return e, nil
}

// item is one in-flight derivation state.
type item struct {
	rule   int
	dot    int
	origin int
}

// stateSet holds the items of one input position.
type stateSet struct {
	items []item
	seen  map[item]struct{}
	ends  map[string][]int // completed nonterminal -> origins
}

func newStateSet() *stateSet {
	return &stateSet{seen: make(map[item]struct{}), ends: make(map[string][]int)}
}

func (s *stateSet) add(it item) {
	if _, ok := s.seen[it]; ok {
		return
	}
	s.seen[it] = struct{}{}
	s.items = append(s.items, it)
}

func (s *stateSet) has(it item) bool {
	_, ok := s.seen[it]
	return ok
}

func (s *stateSet) complete(name string, origin int) {
	for _, o := range s.ends[name] {
		if o == origin {
			return
		}
	}
	s.ends[name] = append(s.ends[name], origin)
}

// chart is the recognizer output for one run.
type chart struct {
	e      *Engine
	sets   []*stateSet
	tokens []token.Token
}

// Run parses the tokens of src and returns the value built by the start
// rule. It fails with *SyntaxError when no derivation exists and with
// *AmbiguousGrammarError when more than one does.
func (e *Engine) Run(src TokenSource) (any, error) {
	c, err := e.recognize(src)
	if err != nil {
		return nil, err
	}
	n := len(c.tokens)
	counter := newCounter(c)
	switch total := counter.deriv(e.g.Start, 0, n); {
	case total == 0:
		return nil, c.syntaxError(n)
	case total > 1:
		return nil, &AmbiguousGrammarError{Start: e.g.Start, Tokens: n}
	}
	return counter.build(e.g.Start, 0, n), nil
}

func (e *Engine) recognize(src TokenSource) (*chart, error) {
	c := &chart{e: e, sets: []*stateSet{newStateSet()}}
	for _, r := range e.byName[e.g.Start] {
		c.sets[0].add(item{rule: r})
	}

	for i := 0; ; i++ {
		tok, hasTok := src.Next()
		var next token.Token
		var hasNext bool
		if hasTok {
			c.tokens = append(c.tokens, tok)
			m := src.Save()
			next, hasNext = src.Next()
			src.Restore(m)
			c.sets = append(c.sets, newStateSet())
		}

		set := c.sets[i]
		for k := 0; k < len(set.items); k++ {
			it := set.items[k]
			rule := e.g.Rules[it.rule]
			if it.dot == len(rule.Symbols) {
				c.completeItem(i, rule.Name, it.origin)
				continue
			}
			sym := rule.Symbols[it.dot]
			if sym.IsTerminal() {
				if hasTok && sym.term.Matches(tok) && sym.term.Follow.Allows(next, hasNext) {
					c.sets[i+1].add(item{rule: it.rule, dot: it.dot + 1, origin: it.origin})
				}
				continue
			}
			for _, r := range e.byName[sym.ref] {
				set.add(item{rule: r, origin: i})
			}
			if e.nullable[sym.ref] {
				set.add(item{rule: it.rule, dot: it.dot + 1, origin: it.origin})
			}
		}

		if !hasTok {
			return c, nil
		}
		if len(c.sets[i+1].items) == 0 {
			return nil, c.syntaxError(i)
		}
	}
}

// completeItem advances every item of the origin set waiting on name.
// Items added to the current set later are covered by the nullable advance
// in prediction.
func (c *chart) completeItem(i int, name string, origin int) {
	c.sets[i].complete(name, origin)
	from := c.sets[origin]
	for k := 0; k < len(from.items); k++ {
		it := from.items[k]
		rule := c.e.g.Rules[it.rule]
		if it.dot < len(rule.Symbols) && !rule.Symbols[it.dot].IsTerminal() && rule.Symbols[it.dot].ref == name {
			c.sets[i].add(item{rule: it.rule, dot: it.dot + 1, origin: it.origin})
		}
	}
}

// syntaxError reports a failure at token index i.
func (c *chart) syntaxError(i int) *SyntaxError {
	err := &SyntaxError{Index: i, Pos: token.StartPosition}
	switch {
	case i < len(c.tokens):
		tok := c.tokens[i]
		err.Found = &tok
		err.Pos = tok.Pos
	case len(c.tokens) > 0:
		err.Pos = c.tokens[len(c.tokens)-1].End()
	}

	expected := make(map[string]struct{})
	for _, it := range c.sets[i].items {
		rule := c.e.g.Rules[it.rule]
		if it.dot < len(rule.Symbols) && rule.Symbols[it.dot].IsTerminal() {
			expected[rule.Symbols[it.dot].String()] = struct{}{}
		}
	}
	for name := range expected {
		err.Expected = append(err.Expected, name)
	}
	sort.Strings(err.Expected)
	return err
}

// Derivation counting. seq(r, k, i, j) counts the ways the first k symbols
// of rule r derive tokens[i:j]; deriv(name, i, j) sums seq over the rules of
// name completed at (i, j). Counts saturate at 2 and a derivation that
// reaches itself counts as ambiguous.

const inProgress = -1

type seqKey struct{ rule, k, i, j int }

type derivKey struct {
	name string
	i, j int
}

type counter struct {
	c      *chart
	seqs   map[seqKey]int
	derivs map[derivKey]int
}

func newCounter(c *chart) *counter {
	return &counter{c: c, seqs: make(map[seqKey]int), derivs: make(map[derivKey]int)}
}

func saturate(n int) int {
	return min(n, 2)
}

func (ct *counter) deriv(name string, i, j int) int {
	key := derivKey{name, i, j}
	if v, ok := ct.derivs[key]; ok {
		if v == inProgress {
			return 2
		}
		return v
	}
	ct.derivs[key] = inProgress
	total := 0
	for _, r := range ct.c.e.byName[name] {
		k := len(ct.c.e.g.Rules[r].Symbols)
		if !ct.c.sets[j].has(item{rule: r, dot: k, origin: i}) {
			continue
		}
		total = saturate(total + ct.seq(r, k, i, j))
	}
	ct.derivs[key] = total
	return total
}

func (ct *counter) seq(r, k, i, j int) int {
	if k == 0 {
		if i == j {
			return 1
		}
		return 0
	}
	key := seqKey{r, k, i, j}
	if v, ok := ct.seqs[key]; ok {
		if v == inProgress {
			return 2
		}
		return v
	}
	ct.seqs[key] = inProgress

	total := 0
	sym := ct.c.e.g.Rules[r].Symbols[k-1]
	if sym.IsTerminal() {
		if j > i && ct.scans(sym.term, j-1) {
			total = ct.seq(r, k-1, i, j-1)
		}
	} else {
		for _, m := range ct.c.sets[j].ends[sym.ref] {
			if m < i || !ct.c.sets[m].has(item{rule: r, dot: k - 1, origin: i}) {
				continue
			}
			left := ct.seq(r, k-1, i, m)
			if left == 0 {
				continue
			}
			total = saturate(total + left*ct.deriv(sym.ref, m, j))
		}
	}
	ct.seqs[key] = total
	return total
}

// scans reports whether term accepts token idx, follow constraint included.
func (ct *counter) scans(term *Terminal, idx int) bool {
	toks := ct.c.tokens
	if !term.Matches(toks[idx]) {
		return false
	}
	if idx+1 < len(toks) {
		return term.Follow.Allows(toks[idx+1], true)
	}
	return term.Follow.Allows(token.Token{}, false)
}

// build constructs the value of the unique derivation of name over
// tokens[i:j]. It must only be called when deriv(name, i, j) == 1.
func (ct *counter) build(name string, i, j int) any {
	for _, r := range ct.c.e.byName[name] {
		rule := ct.c.e.g.Rules[r]
		k := len(rule.Symbols)
		if !ct.c.sets[j].has(item{rule: r, dot: k, origin: i}) || ct.seq(r, k, i, j) == 0 {
			continue
		}
		children := ct.buildSeq(r, k, i, j)
		if rule.Build == nil {
			return children
		}
		return rule.Build(children)
	}
	panic(fmt.Sprintf("parser: no derivation of %s over [%d,%d)", name, i, j))
}

func (ct *counter) buildSeq(r, k, i, j int) []any {
	if k == 0 {
		return make([]any, 0, len(ct.c.e.g.Rules[r].Symbols))
	}
	sym := ct.c.e.g.Rules[r].Symbols[k-1]
	if sym.IsTerminal() {
		return append(ct.buildSeq(r, k-1, i, j-1), ct.c.tokens[j-1])
	}
	for _, m := range ct.c.sets[j].ends[sym.ref] {
		if m < i || !ct.c.sets[m].has(item{rule: r, dot: k - 1, origin: i}) {
			continue
		}
		if ct.seq(r, k-1, i, m) == 0 || ct.deriv(sym.ref, m, j) == 0 {
			continue
		}
		return append(ct.buildSeq(r, k-1, i, m), ct.build(sym.ref, m, j))
	}
	panic(fmt.Sprintf("parser: no split for %s at symbol %d over [%d,%d)", ct.c.e.g.Rules[r].Name, k, i, j))
}
