package gotreesitter

const (
	// maxMissingPerPosition bounds MISSING insertions before the parser must
	// consume input.
	maxMissingPerPosition = 8
	// maxRecoverPopDepth bounds how many structural entries below the top
	// are tried when popping to a viable state. The bottom entry is always
	// tried last.
	maxRecoverPopDepth = 16
)

// recover handles a lookahead with no valid action. Strategies are tried in
// order: insert a MISSING token, pop the stack back to a state that accepts
// the lookahead, then skip the lookahead. It reports true when input is
// exhausted and the parse has to end with an error root.
func (r *parseRun) recover(state StateID) bool {
	tok := &r.lookahead
	if tok.kind != tokenNotFound {
		if r.insertMissing(state) {
			return false
		}
		if r.popToViableState() {
			return false
		}
	}
	if tok.kind == tokenEOF {
		return true
	}
	r.skipLookahead(state)
	return false
}

// insertMissing pushes a zero-width MISSING leaf for the first terminal whose
// shift lets the parser continue with the lookahead.
func (r *parseRun) insertMissing(state StateID) bool {
	tok := &r.lookahead
	pos := int64(tok.StartByte)
	if r.missingPos != pos {
		r.missingPos = pos
		r.missingCount = 0
	}
	if r.missingCount >= maxMissingPerPosition {
		return false
	}

	depth := len(r.stack.spine)
	for sym := Symbol(1); uint32(sym) < r.lang.TokenCount; sym++ {
		sh, ok := selectAction(r.lang.LookupAction(state, sym)).(ShiftAction)
		if !ok || sh.Extra {
			continue
		}
		if !r.viable(depth, sh.State, tok.Symbol) {
			continue
		}

		n := r.arena.allocNode()
		n.symbol = sym
		r.resolveSymbol(n)
		n.isMissing = true
		n.hasError = true
		n.startByte = tok.fullStart
		n.endByte = tok.fullStart
		n.startPoint = tok.fullStartPoint
		n.endPoint = tok.fullStartPoint
		n.parseState = state
		n.lookaheadEnd = tok.fullStart + 1
		n.scannerBefore = tok.scannerBefore
		n.scannerAfter = tok.scannerBefore
		r.stack.push(sh.State, n)
		r.missingCount++
		if r.trace {
			r.log("insert_missing", "symbol", r.lang.SymbolName(sym), "position", tok.fullStart, "state", sh.State)
		}
		return true
	}
	return false
}

// popToViableState finds the nearest state below the top that can handle
// the lookahead and wraps everything above it in an ERROR node.
func (r *parseRun) popToViableState() bool {
	spine := r.stack.spine
	lowest := max(len(spine)-1-maxRecoverPopDepth, 0)
	for k := len(spine) - 2; k >= lowest; k-- {
		if r.viable(k+1, 0, r.lookahead.Symbol) {
			r.popTo(k)
			return true
		}
	}
	if lowest > 0 && r.viable(1, 0, r.lookahead.Symbol) {
		r.popTo(0)
		return true
	}
	return false
}

// popTo truncates the stack above the k-th structural entry and pushes the
// popped nodes back as one extra ERROR node.
func (r *parseRun) popTo(k int) {
	keep := r.stack.spine[k] + 1
	target := r.stack.spineState(k)
	popped := r.stack.truncate(keep)
	err := r.wrapError(popped)
	r.stack.push(target, err)
	if r.trace {
		r.log("recover_pop", "popped", len(popped), "state", target, "lookahead", r.lang.SymbolName(r.lookahead.Symbol))
	}
}

// wrapError returns an extra ERROR node holding nodes. ERROR nodes left by
// earlier recoveries are spliced in, and a leading one is extended in place.
func (r *parseRun) wrapError(nodes []*Node) *Node {
	var err *Node
	if len(nodes) > 0 && isRecoveryError(nodes[0]) {
		err, nodes = nodes[0], nodes[1:]
	}
	flat := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if isRecoveryError(n) {
			flat = append(flat, n.children...)
			continue
		}
		flat = append(flat, n)
	}
	if err != nil {
		err.appendChildren(flat...)
		return err
	}
	err = r.errorNode(flat)
	err.extra = true
	return err
}

func isRecoveryError(n *Node) bool {
	return n.extra && n.symbol == ErrorSymbol && len(n.children) > 0
}

// skipLookahead consumes the lookahead as part of an ERROR node, growing
// the ERROR node on top of the stack when there is one.
func (r *parseRun) skipLookahead(state StateID) {
	leaf := r.leaf(&r.lookahead)
	top := r.stack.top()
	if top.node != nil && isRecoveryError(top.node) {
		top.node.appendChildren(leaf)
	} else if leaf.symbol == ErrorSymbol {
		leaf.extra = true
		r.stack.push(state, leaf)
	} else {
		err := r.errorNode([]*Node{leaf})
		err.extra = true
		r.stack.push(state, err)
	}
	if r.trace {
		r.log("skip_token", "symbol", r.lang.SymbolName(leaf.symbol), "start", leaf.startByte, "end", leaf.endByte)
	}
	r.consume()
}

// viable simulates reductions from the first depth structural entries, plus
// pushed when it is non-zero, and reports whether sym is eventually shifted
// or accepted. Reductions that reach below the pushed states read the stack
// in place instead of copying it.
func (r *parseRun) viable(depth int, pushed StateID, sym Symbol) bool {
	over := r.viableScratch[:0]
	if pushed != 0 {
		over = append(over, pushed)
	}
	defer func() { r.viableScratch = over[:0] }()

	top := func() StateID {
		if len(over) > 0 {
			return over[len(over)-1]
		}
		return r.stack.spineState(depth - 1)
	}
	limit := 256 + 4*(depth+len(over))
	for step := 0; step < limit; step++ {
		switch a := selectAction(r.lang.LookupAction(top(), sym)).(type) {
		case ShiftAction, AcceptAction:
			return true
		case ReduceAction:
			n := min(int(a.ChildCount), depth+len(over)-1)
			if n <= len(over) {
				over = over[:len(over)-n]
			} else {
				depth -= n - len(over)
				over = over[:0]
			}
			next := r.lang.NextState(top(), a.Symbol)
			if next == 0 {
				return false
			}
			over = append(over, next)
		default:
			return false
		}
	}
	return false
}
