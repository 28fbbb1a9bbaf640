package gotreesitter

import "bytes"

// reuseIndex groups clean subtrees from a previous tree by start byte.
type reuseIndex struct {
	byStart   map[uint32][]*Node
	offsets   []uint32
	nodes     []*Node
	sourceLen uint32
}

// reuseScratch holds reusable buffers for incremental-index construction.
type reuseScratch struct {
	counts   []uint32
	offsets  []uint32
	nodes    []*Node
	starts   []uint32
	gathered []*Node
	stack    []*Node
}

func (idx *reuseIndex) candidates(start uint32) []*Node {
	if idx == nil {
		return nil
	}
	if idx.offsets != nil {
		i := int(start)
		if i+1 >= len(idx.offsets) {
			return nil
		}
		return idx.nodes[idx.offsets[i]:idx.offsets[i+1]]
	}
	return idx.byStart[start]
}

// buildReuseIndex indexes the nonterminal subtrees of oldTree that an edit
// left untouched.
func buildReuseIndex(oldTree *Tree, source []byte, scratch *reuseScratch) *reuseIndex {
	if oldTree == nil || oldTree.root == nil {
		return nil
	}
	if scratch == nil {
		scratch = &reuseScratch{}
	}
	sourceLen := uint32(len(source))
	gathered, starts := gatherReusableNodes(oldTree.root, sourceLen, scratch)
	total := len(gathered)
	if total == 0 {
		return nil
	}

	// Dense packed buckets avoid map hashing for editor-size files.
	const denseThreshold = 256 * 1024
	if sourceLen > denseThreshold {
		byStart := make(map[uint32][]*Node, total)
		for i, n := range gathered {
			byStart[starts[i]] = append(byStart[starts[i]], n)
		}
		return &reuseIndex{byStart: byStart, sourceLen: sourceLen}
	}

	bucketCount := int(sourceLen) + 1
	counts := ensureUint32Len(scratch.counts, bucketCount)
	clear(counts)
	for _, start := range starts {
		counts[start]++
	}
	offsets := ensureUint32Len(scratch.offsets, bucketCount+1)
	offsets[0] = 0
	for i := 0; i < bucketCount; i++ {
		offsets[i+1] = offsets[i] + counts[i]
	}
	nodes := ensureNodeLen(scratch.nodes, total)
	// counts doubles as the insertion cursor.
	copy(counts, offsets[:bucketCount])
	for i, n := range gathered {
		pos := counts[starts[i]]
		nodes[pos] = n
		counts[starts[i]] = pos + 1
	}

	scratch.counts = counts
	scratch.offsets = offsets
	scratch.nodes = nodes
	return &reuseIndex{offsets: offsets, nodes: nodes[:total], sourceLen: sourceLen}
}

// gatherReusableNodes walks the tree in pre-order, so candidates sharing a
// start byte come out widest first.
func gatherReusableNodes(root *Node, sourceLen uint32, scratch *reuseScratch) ([]*Node, []uint32) {
	gathered := scratch.gathered[:0]
	starts := scratch.starts[:0]
	stack := append(scratch.stack[:0], root)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.hasChanges || cur.hasError {
			// Clean descendants of a changed node are still candidates.
			for i := len(cur.children) - 1; i >= 0; i-- {
				stack = append(stack, cur.children[i])
			}
			continue
		}
		if len(cur.children) == 0 || cur.extra {
			continue
		}
		if cur.endByte > cur.startByte && cur.endByte <= sourceLen {
			gathered = append(gathered, cur)
			starts = append(starts, cur.startByte)
		}
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
	}
	scratch.gathered = gathered
	scratch.starts = starts
	scratch.stack = stack
	return gathered, starts
}

func ensureUint32Len(buf []uint32, n int) []uint32 {
	if cap(buf) < n {
		return make([]uint32, n)
	}
	return buf[:n]
}

func ensureNodeLen(buf []*Node, n int) []*Node {
	if cap(buf) < n {
		return make([]*Node, n)
	}
	return buf[:n]
}

// tryReuse is called when the lookahead is about to be shifted in state. It
// pushes an old subtree starting at the lookahead instead, if that subtree
// was started from the same state and scanner snapshot. On success the
// lookahead is discarded and lexing resumes at the subtree's end.
func (r *parseRun) tryReuse(state StateID) bool {
	tok := &r.lookahead
	if tok.kind != tokenFound {
		return false
	}
	for _, n := range r.reuse.candidates(tok.StartByte) {
		if uint32(n.symbol) < r.lang.TokenCount || n.symbol == ErrorSymbol {
			continue
		}
		if n.parseState != state {
			continue
		}
		if !bytes.Equal(n.scannerBefore, tok.scannerBefore) {
			continue
		}
		first := firstLeaf(n)
		if first.symbol != tok.Symbol || first.endByte != tok.EndByte {
			continue
		}
		next := r.lang.NextState(state, n.symbol)
		if next == 0 {
			continue
		}

		r.resolveSymbol(n)
		n.parent = nil
		padding := tok.StartByte - tok.fullStart
		for c := n; ; c = c.children[0] {
			c.padding = padding
			if len(c.children) == 0 {
				break
			}
		}
		r.stack.push(next, n)
		r.pos = n.endByte
		r.point = n.endPoint
		if r.scanner != nil {
			r.scanner.restore(n.scannerAfter)
		}
		r.hasLookahead = false
		r.stalled = 0
		r.missingCount = 0
		if r.trace {
			r.log("reuse", "symbol", r.lang.SymbolName(n.symbol), "start", n.startByte, "end", n.endByte, "state", next)
		}
		return true
	}
	return false
}

func firstLeaf(n *Node) *Node {
	for len(n.children) > 0 {
		n = n.children[0]
	}
	return n
}
