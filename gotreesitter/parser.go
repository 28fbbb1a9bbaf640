package gotreesitter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/odvcencio/sitter/internal/logutil"
)

// ErrStackOverflow is returned when a parse exceeds the stack depth limit.
var ErrStackOverflow = errors.New("parse stack depth limit exceeded")

const defaultMaxStackDepth = 1 << 20

// Parser is a deterministic LR parser that reads parse tables from a
// Language and produces a syntax tree.
//
// A Parser runs one parse at a time. Independent Parsers may share a
// Language and run concurrently.
type Parser struct {
	language       *Language
	logger         *slog.Logger
	includedRanges []Range
	maxStackDepth  int
	scratch        stackScratch
	reuseScratch   reuseScratch

	rangesErr error // from WithIncludedRanges, logged by NewParser
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger enables trace logging of lexing and parse actions.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) { p.logger = logger }
}

// WithMaxStackDepth bounds the parse stack. Exceeding it aborts the parse.
func WithMaxStackDepth(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxStackDepth = n
		}
	}
}

// WithIncludedRanges restricts lexing to ranges. Invalid ranges are
// ignored with a warning on the parser's logger, or the default logger when
// none is set; use SetIncludedRanges to observe the error.
func WithIncludedRanges(ranges []Range) ParserOption {
	return func(p *Parser) { p.rangesErr = p.SetIncludedRanges(ranges) }
}

// NewParser creates a new Parser for the given language.
func NewParser(lang *Language, opts ...ParserOption) *Parser {
	p := &Parser{language: lang, maxStackDepth: defaultMaxStackDepth}
	for _, opt := range opts {
		opt(p)
	}
	if p.rangesErr != nil {
		logger := p.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("included ranges ignored", "language", lang.Name, "error", p.rangesErr)
		p.rangesErr = nil
	}
	return p
}

// Language returns the parser's language.
func (p *Parser) Language() *Language { return p.language }

// SetIncludedRanges restricts lexing to the given ranges. A nil slice
// includes the whole document.
func (p *Parser) SetIncludedRanges(ranges []Range) error {
	for i, r := range ranges {
		if r.EndByte < r.StartByte {
			return ErrInvalidRanges
		}
		if i > 0 && r.StartByte < ranges[i-1].EndByte {
			return ErrInvalidRanges
		}
	}
	p.includedRanges = append([]Range(nil), ranges...)
	return nil
}

// IncludedRanges returns the ranges set with SetIncludedRanges.
func (p *Parser) IncludedRanges() []Range { return p.includedRanges }

// Parse tokenizes and parses source, returning a syntax tree. Parsing is
// total: malformed input yields ERROR and MISSING nodes, never a nil tree.
func (p *Parser) Parse(source []byte) *Tree {
	return p.ParseIncremental(source, nil)
}

// ParseIncremental parses source reusing unchanged subtrees of oldTree,
// which must have been edited with Tree.Edit to describe the changes.
// Reused nodes move into the new tree; oldTree should not be traversed
// afterwards.
func (p *Parser) ParseIncremental(source []byte, oldTree *Tree) *Tree {
	tree, err := p.ParseIncrementalContext(context.Background(), source, oldTree)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("parse aborted", "language", p.language.Name, "error", err)
		}
		return p.abortedTree(source)
	}
	return tree
}

// ParseContext is Parse with cancellation, checked between tokens. It only
// fails when ctx is done or a resource limit is hit.
func (p *Parser) ParseContext(ctx context.Context, source []byte) (*Tree, error) {
	return p.ParseIncrementalContext(ctx, source, nil)
}

// ParseIncrementalContext is ParseIncremental with cancellation.
func (p *Parser) ParseIncrementalContext(ctx context.Context, source []byte, oldTree *Tree) (*Tree, error) {
	r := p.newRun(ctx, source, oldTree)
	defer r.close()
	return r.run()
}

// abortedTree covers source with a single ERROR leaf.
func (p *Parser) abortedTree(source []byte) *Tree {
	end := uint32(len(source))
	root := NewLeafNode(ErrorSymbol, true, 0, end, Point{}, pointAtOffset(source, len(source)))
	return NewTree(root, source, p.language)
}

type tokenKind uint8

const (
	tokenFound tokenKind = iota
	tokenNotFound
	tokenEOF
)

// lexedToken is a token plus the bookkeeping the parser needs.
type lexedToken struct {
	Token
	kind           tokenKind
	fullStart      uint32 // start of leading trivia
	fullStartPoint Point
	lookaheadEnd   uint32
	external       bool
	scannerBefore  []byte
	scannerAfter   []byte
}

// parseRun is the mutable state of one parse.
type parseRun struct {
	p       *Parser
	lang    *Language
	ctx     context.Context
	source  []byte
	lexer   *Lexer
	stack   parseStack
	scanner *scannerSession
	arena   *nodeArena
	reuse   *reuseIndex
	arenas  []*nodeArena
	trace   bool

	lookahead    lexedToken
	hasLookahead bool
	pos          uint32
	point        Point

	stalled      int
	missingPos   int64
	missingCount int

	viableScratch []StateID
}

func (p *Parser) newRun(ctx context.Context, source []byte, oldTree *Tree) *parseRun {
	lang := p.language
	class := arenaClassFull
	if oldTree != nil {
		class = arenaClassIncremental
	}
	ranges := clampRanges(p.includedRanges, source)
	r := &parseRun{
		p:          p,
		lang:       lang,
		ctx:        ctx,
		source:     source,
		lexer:      newLexer(source, ranges),
		stack:      newParseStack(lang.StartState(), &p.scratch),
		scanner:    newScannerSession(lang),
		arena:      acquireNodeArena(class),
		missingPos: -1,
	}
	r.arenas = []*nodeArena{r.arena}
	r.pos = r.lexer.pos
	r.point = r.lexer.point
	if p.logger != nil && p.logger.Enabled(ctx, logutil.LevelTrace) {
		r.trace = true
	}
	if oldTree != nil && oldTree.language == lang {
		r.reuse = buildReuseIndex(oldTree, source, &p.reuseScratch)
		for _, a := range oldTree.arenas {
			a.Retain()
			r.arenas = append(r.arenas, a)
		}
	}
	return r
}

func (r *parseRun) close() {
	r.scanner.destroy()
	r.stack.release(&r.p.scratch)
}

func (r *parseRun) log(msg string, args ...any) {
	r.p.logger.Log(r.ctx, logutil.LevelTrace, msg, args...)
}

func (r *parseRun) releaseArenas() {
	for _, a := range r.arenas {
		a.Release()
	}
	r.arenas = nil
}

func (r *parseRun) run() (*Tree, error) {
	for {
		state := r.stack.top().state
		if !r.hasLookahead {
			if err := r.ctx.Err(); err != nil {
				r.releaseArenas()
				return nil, err
			}
			r.lookahead = r.lex(state)
			r.hasLookahead = true
		}
		if r.stack.depth() > r.p.maxStackDepth {
			r.releaseArenas()
			return nil, ErrStackOverflow
		}

		r.stalled++
		if r.stalled > 1024+16*r.stack.depth() {
			if r.lookahead.kind == tokenEOF {
				return r.finishWithError(), nil
			}
			r.skipLookahead(state)
			continue
		}

		var action ParseAction
		if r.lookahead.kind != tokenNotFound {
			action = selectAction(r.lang.LookupAction(state, r.lookahead.Symbol))
		}
		switch a := action.(type) {
		case ShiftAction:
			// Old subtrees are only offered where the lookahead would be
			// shifted, so pending reductions have already run.
			if r.reuse != nil && !a.Extra && r.tryReuse(state) {
				continue
			}
			r.shift(state, a)
		case ReduceAction:
			r.reduce(a)
		case AcceptAction:
			return r.accept(), nil
		default:
			if r.recover(state) {
				return r.finishWithError(), nil
			}
		}
	}
}

// selectAction picks the action to apply from an entry. Tables resolve
// conflicts ahead of time, so an entry normally holds one action; entries
// that still list several are collapsed deterministically by rank, keeping
// the earliest action on ties.
func selectAction(entry *ParseActionEntry) ParseAction {
	if entry == nil || len(entry.Actions) == 0 {
		return nil
	}
	best := entry.Actions[0]
	for _, act := range entry.Actions[1:] {
		if actionRank(act) > actionRank(best) {
			best = act
		}
	}
	return best
}

func actionRank(act ParseAction) int {
	switch a := act.(type) {
	case AcceptAction:
		return 1 << 20
	case ReduceAction:
		return int(a.DynamicPrecedence)
	case ShiftAction:
		return 0
	default:
		return -(1 << 20)
	}
}

// lex produces the next token for state: the external scanner gets first
// refusal when the lex mode enables it, then the built-in lexer runs.
func (r *parseRun) lex(state StateID) lexedToken {
	mode := r.lang.lexMode(state)
	start, startPt := r.pos, r.point
	var before []byte
	if r.scanner != nil {
		before = r.scanner.state
	}

	if r.scanner != nil {
		if valid := r.lang.externalValidSymbols(mode.ExternalLexState); anyValid(valid) {
			r.lexer.startToken(start, startPt)
			if r.scanner.scan(r.lexer, valid) {
				idx := int(r.lexer.ResultSymbol())
				if idx < len(valid) && valid[idx] && idx < len(r.lang.ExternalSymbolMap) {
					tok := r.finishToken(r.lang.ExternalSymbolMap[idx], start, startPt)
					tok.external = true
					tok.scannerBefore = before
					tok.scannerAfter = r.scanner.commit()
					if r.trace {
						r.log("lex_external", "symbol", r.lang.SymbolName(tok.Symbol), "start", tok.StartByte, "end", tok.EndByte)
					}
					return tok
				}
			}
		}
	}

	r.lexer.startToken(start, startPt)
	var tok lexedToken
	if r.lang.Lexer != nil && r.lang.Lexer.Lex(r.lexer, mode.LexState) {
		tok = r.finishToken(r.lexer.ResultSymbol(), start, startPt)
		r.reclassifyKeyword(&tok, state)
	} else {
		tok = r.lexError(start, startPt, mode)
	}
	tok.scannerBefore = before
	tok.scannerAfter = before
	if r.trace {
		r.log("lex", "symbol", r.lang.SymbolName(tok.Symbol), "start", tok.StartByte, "end", tok.EndByte, "state", state)
	}
	return tok
}

func anyValid(valid []bool) bool {
	for _, v := range valid {
		if v {
			return true
		}
	}
	return false
}

func (r *parseRun) finishToken(sym Symbol, start uint32, startPt Point) lexedToken {
	tok := lexedToken{
		Token:          r.lexer.token(sym),
		kind:           tokenFound,
		fullStart:      start,
		fullStartPoint: startPt,
		lookaheadEnd:   r.lexer.peekEnd,
	}
	if sym == SymbolEnd {
		tok.kind = tokenEOF
	}
	return tok
}

// reclassifyKeyword reruns the keyword lexer over an identifier-class token
// and adopts the keyword only if it spans the whole token and is valid in
// state.
func (r *parseRun) reclassifyKeyword(tok *lexedToken, state StateID) {
	lang := r.lang
	if lang.KeywordLexer == nil || tok.Symbol != lang.KeywordCaptureToken {
		return
	}
	peek := tok.lookaheadEnd
	r.lexer.startToken(tok.StartByte, tok.StartPoint)
	if lang.KeywordLexer.Lex(r.lexer, 0) &&
		r.lexer.tokenStart == tok.StartByte &&
		r.lexer.tokenEnd == tok.EndByte &&
		lang.HasActions(state, r.lexer.ResultSymbol()) {
		tok.Symbol = r.lexer.ResultSymbol()
	}
	if r.lexer.peekEnd > peek {
		peek = r.lexer.peekEnd
	}
	tok.lookaheadEnd = peek
}

// lexError handles a position no lexer accepts. Trivia skipped by the failed
// attempt stays padding; if only end of input remains the result is the end
// token, otherwise runes are collected into an error token until some token
// can start again.
func (r *parseRun) lexError(start uint32, startPt Point, mode LexMode) lexedToken {
	l := r.lexer
	errStart, errStartPt := l.tokenStart, l.tokenStartPoint
	l.seek(errStart, errStartPt)
	if l.EOF() {
		l.startToken(errStart, errStartPt)
		tok := r.finishToken(SymbolEnd, start, startPt)
		tok.lookaheadEnd = errStart + 1
		return tok
	}

	l.Advance(false)
	for !l.EOF() {
		pos, pt := l.pos, l.point
		l.startToken(pos, pt)
		ok := r.lang.Lexer != nil && r.lang.Lexer.Lex(l, mode.LexState)
		if ok && l.tokenEnd > l.tokenStart {
			l.seek(pos, pt)
			break
		}
		l.seek(pos, pt)
		l.Advance(false)
	}

	end, endPt := l.pos, l.point
	return lexedToken{
		Token: Token{
			Symbol:     ErrorSymbol,
			Text:       string(r.source[errStart:end]),
			StartByte:  errStart,
			EndByte:    end,
			StartPoint: errStartPt,
			EndPoint:   endPt,
		},
		kind:           tokenNotFound,
		fullStart:      start,
		fullStartPoint: startPt,
		lookaheadEnd:   end + 1,
	}
}

// consume drops the lookahead after it was attached to the tree.
func (r *parseRun) consume() {
	r.pos = r.lookahead.EndByte
	r.point = r.lookahead.EndPoint
	if r.lookahead.external && r.scanner != nil {
		r.scanner.restore(r.lookahead.scannerAfter)
	}
	r.hasLookahead = false
	if r.lookahead.kind != tokenEOF {
		r.stalled = 0
		r.missingCount = 0
	}
}

// leaf builds the node for the current lookahead.
func (r *parseRun) leaf(tok *lexedToken) *Node {
	n := r.arena.allocNode()
	n.symbol = tok.Symbol
	r.resolveSymbol(n)
	n.startByte = tok.StartByte
	n.endByte = tok.EndByte
	n.startPoint = tok.StartPoint
	n.endPoint = tok.EndPoint
	n.padding = tok.StartByte - tok.fullStart
	n.parseState = r.stack.top().state
	n.lookaheadEnd = tok.lookaheadEnd
	n.scannerBefore = tok.scannerBefore
	n.scannerAfter = tok.scannerAfter
	if tok.kind == tokenNotFound {
		n.hasError = true
	}
	return n
}

func (r *parseRun) shift(state StateID, a ShiftAction) {
	leaf := r.leaf(&r.lookahead)
	next := a.State
	if a.Extra {
		leaf.extra = true
		next = state
	}
	if r.trace {
		r.log("shift", "symbol", r.lang.SymbolName(leaf.symbol), "state", next, "extra", a.Extra, "repetition", a.Repetition)
	}
	r.stack.push(next, leaf)
	r.consume()
}

func (r *parseRun) reduce(a ReduceAction) {
	children, trailing := r.stack.popCount(int(a.ChildCount))
	parent := r.buildNode(a.Symbol, a.ProductionID, children)
	parent.dynamicPrecedence += int32(a.DynamicPrecedence)
	// The reduction was decided by the lookahead, so an edit to it
	// invalidates the parent.
	if r.lookahead.lookaheadEnd > parent.lookaheadEnd {
		parent.lookaheadEnd = r.lookahead.lookaheadEnd
	}
	if len(parent.children) == 0 {
		r.placeEmpty(parent)
		if len(trailing) > 0 {
			parent.startByte, parent.endByte = trailing[0].startByte, trailing[0].startByte
			parent.startPoint, parent.endPoint = trailing[0].startPoint, trailing[0].startPoint
		}
	}

	top := r.stack.top().state
	next := r.lang.NextState(top, a.Symbol)
	if next == 0 {
		next = top
	}
	if r.trace {
		r.log("reduce", "symbol", r.lang.SymbolName(a.Symbol), "children", a.ChildCount, "production", a.ProductionID, "state", next)
	}
	r.stack.push(next, parent)
	for _, n := range trailing {
		r.stack.push(next, n)
	}
	r.stack.score += int(a.DynamicPrecedence)
}

// placeEmpty gives a childless node a zero-width span at the current
// position.
func (r *parseRun) placeEmpty(n *Node) {
	n.startByte = r.lookahead.fullStart
	n.endByte = r.lookahead.fullStart
	n.startPoint = r.lookahead.fullStartPoint
	n.endPoint = r.lookahead.fullStartPoint
	n.padding = 0
	n.parseState = r.stack.top().state
	n.lookaheadEnd = r.lookahead.fullStart + 1
	n.scannerBefore = r.lookahead.scannerBefore
	n.scannerAfter = r.lookahead.scannerBefore
}

// accept builds the final tree. Extras around the result are folded into
// the root.
func (r *parseRun) accept() *Tree {
	nodes := r.stack.truncate(1)
	var root *Node
	main := -1
	for i, n := range nodes {
		if !n.extra {
			if main >= 0 {
				main = -2
				break
			}
			main = i
		}
	}
	switch {
	case main >= 0 && len(nodes) == 1:
		root = nodes[0]
	case main >= 0:
		root = r.foldExtras(nodes, main)
	default:
		root = r.errorNode(nodes)
	}
	if r.trace {
		r.log("accept", "root", r.lang.SymbolName(root.publicSymbol), "error", root.hasError)
	}
	return r.newTree(root)
}

// foldExtras rebuilds nodes[main] with the surrounding extras as children.
func (r *parseRun) foldExtras(nodes []*Node, main int) *Node {
	inner := nodes[main]
	before, after := nodes[:main], nodes[main+1:]
	base := inner.children
	baseFields := inner.fieldIDs
	if len(base) == 0 {
		base = []*Node{inner}
		baseFields = nil
	}

	children := make([]*Node, 0, len(before)+len(base)+len(after))
	children = append(children, before...)
	children = append(children, base...)
	children = append(children, after...)

	root := r.arena.allocNode()
	root.symbol = inner.symbol
	root.productionID = inner.productionID
	r.resolveSymbol(root)
	root.publicSymbol = inner.publicSymbol
	root.isNamed = inner.isNamed
	root.visible = inner.visible
	if len(baseFields) > 0 {
		root.fieldIDs = make([]FieldID, len(children))
		copy(root.fieldIDs[len(before):], baseFields)
	}
	root.setChildren(children)
	root.dynamicPrecedence = inner.dynamicPrecedence
	if inner.lookaheadEnd > root.lookaheadEnd {
		root.lookaheadEnd = inner.lookaheadEnd
	}
	return root
}

// finishWithError ends a parse whose input ran out during recovery: the
// remaining stack becomes the children of an ERROR root.
func (r *parseRun) finishWithError() *Tree {
	nodes := r.stack.truncate(1)
	var root *Node
	if len(nodes) == 1 && nodes[0].symbol == ErrorSymbol && len(nodes[0].children) > 0 {
		root = nodes[0]
		root.extra = false
	} else {
		root = r.errorNode(nodes)
	}
	if r.trace {
		r.log("finish_with_error", "children", len(root.children))
	}
	return r.newTree(root)
}

func (r *parseRun) newTree(root *Node) *Tree {
	if r.trace && r.arena.Overflow() > 0 {
		r.log("arena_overflow", "allocations", r.arena.Overflow())
	}
	root.parent = nil
	root.extra = false
	r.pruneArenas(root)
	t := NewTree(root, r.source, r.lang)
	t.arenas = r.arenas
	r.arenas = nil
	return t
}

// pruneArenas drops the retained arenas of older trees that no node of root
// lives in, so a chain of incremental edits only pins the generations it
// still shares.
func (r *parseRun) pruneArenas(root *Node) {
	if len(r.arenas) <= 1 {
		return
	}
	used := make([]bool, len(r.arenas))
	used[0] = true
	pending := len(r.arenas) - 1
	var mark func(n *Node)
	mark = func(n *Node) {
		if pending == 0 {
			return
		}
		for i := 1; i < len(r.arenas); i++ {
			if !used[i] && r.arenas[i].holds(n) {
				used[i] = true
				pending--
			}
		}
		for _, c := range n.children {
			mark(c)
		}
	}
	mark(root)

	kept := r.arenas[:0]
	for i, a := range r.arenas {
		if used[i] {
			kept = append(kept, a)
			continue
		}
		a.Release()
	}
	if r.trace && len(kept) < len(used) {
		r.log("arenas_pruned", "kept", len(kept), "released", len(used)-len(kept))
	}
	r.arenas = kept
}

// resolveSymbol fills the public identity and display flags of n from its
// grammar symbol.
func (r *parseRun) resolveSymbol(n *Node) {
	md := r.lang.SymbolMetadataFor(n.symbol)
	n.publicSymbol = r.lang.PublicSymbol(n.symbol)
	n.isNamed = md.Named
	n.visible = md.Visible
	n.supertype = md.Supertype
	if n.symbol == ErrorSymbol {
		n.hasError = true
	}
}

// errorNode wraps nodes in an ERROR node. With no nodes it is zero-width
// at the lookahead, covering the lookahead's trivia.
func (r *parseRun) errorNode(nodes []*Node) *Node {
	n := r.arena.allocNode()
	n.symbol = ErrorSymbol
	r.resolveSymbol(n)
	if len(nodes) == 0 {
		r.placeEmpty(n)
		n.startByte = r.lookahead.StartByte
		n.endByte = r.lookahead.StartByte
		n.startPoint = r.lookahead.StartPoint
		n.endPoint = r.lookahead.StartPoint
		n.padding = r.lookahead.StartByte - r.lookahead.fullStart
		return n
	}
	n.setChildren(nodes)
	return n
}

func clampRanges(ranges []Range, source []byte) []Range {
	if len(ranges) == 0 {
		return nil
	}
	limit := uint32(len(source))
	out := make([]Range, 0, len(ranges))
	for _, rg := range ranges {
		if rg.StartByte > limit {
			break
		}
		if rg.EndByte > limit {
			rg.EndByte = limit
			rg.EndPoint = pointAtOffset(source, int(limit))
		}
		out = append(out, rg)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
