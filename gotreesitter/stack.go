package gotreesitter

const (
	defaultStackEntrySlabCap = 4 * 1024
	maxRetainedStackEntryCap = 256 * 1024
)

// stackEntry is a single entry on the parser's LR stack, pairing a parser
// state with the syntax tree node that was shifted or reduced into that state.
type stackEntry struct {
	state StateID
	node  *Node
}

// parseStack is the single parse stack of an in-flight parse. The bottom
// entry holds the start state and no node.
type parseStack struct {
	entries []stackEntry
	// spine holds the indexes of the bottom entry and of every entry with a
	// non-extra node: the stack as the parse table sees it.
	spine []int
	// score tracks dynamic precedence accumulated through reduce actions.
	score int
}

// stackScratch keeps entry storage between parses of one Parser.
type stackScratch struct {
	entries []stackEntry
	spine   []int
}

func newParseStack(initial StateID, scratch *stackScratch) parseStack {
	var entries []stackEntry
	var spine []int
	if scratch != nil && cap(scratch.entries) > 0 {
		entries = scratch.entries[:0]
		spine = scratch.spine[:0]
	} else {
		entries = make([]stackEntry, 0, 64)
	}
	entries = append(entries, stackEntry{state: initial})
	spine = append(spine, 0)
	return parseStack{entries: entries, spine: spine}
}

func (s *parseStack) top() stackEntry {
	return s.entries[len(s.entries)-1]
}

func (s *parseStack) depth() int { return len(s.entries) }

func (s *parseStack) push(state StateID, node *Node) {
	s.entries = append(s.entries, stackEntry{state: state, node: node})
	if node != nil && !node.extra {
		s.spine = append(s.spine, len(s.entries)-1)
	}
}

// spineState returns the state of the k-th structural entry.
func (s *parseStack) spineState(k int) StateID {
	return s.entries[s.spine[k]].state
}

// truncate drops entries above depth and returns their nodes bottom-up.
func (s *parseStack) truncate(depth int) []*Node {
	if depth < 1 {
		depth = 1
	}
	if depth >= len(s.entries) {
		return nil
	}
	popped := make([]*Node, 0, len(s.entries)-depth)
	for _, e := range s.entries[depth:] {
		if e.node != nil {
			popped = append(popped, e.node)
		}
	}
	clearEntries(s.entries[depth:])
	s.entries = s.entries[:depth]
	for len(s.spine) > 1 && s.spine[len(s.spine)-1] >= depth {
		s.spine = s.spine[:len(s.spine)-1]
	}
	return popped
}

// popCount pops entries until count non-extra nodes have been collected.
// Extras interleaved with those nodes are kept among the children; extras
// above the topmost counted node are returned separately so the caller can
// push them back above the reduced parent. Extras below the lowest counted
// node stay on the stack.
func (s *parseStack) popCount(count int) (children, trailing []*Node) {
	i := len(s.entries)
	for i > 1 && s.entries[i-1].node != nil && s.entries[i-1].node.extra {
		i--
	}
	trailing = s.collect(i)

	start := i
	remaining := count
	for start > 1 && remaining > 0 {
		start--
		n := s.entries[start].node
		if n != nil && !n.extra {
			remaining--
		}
	}
	children = s.collect(start)
	return children, trailing
}

// collect removes entries at and above idx and returns their nodes in order.
func (s *parseStack) collect(idx int) []*Node {
	n := s.truncate(idx)
	if len(n) == 0 {
		return nil
	}
	return n
}

// release stores entry storage back in scratch, trimming very large stacks.
func (s *parseStack) release(scratch *stackScratch) {
	if scratch == nil {
		return
	}
	clearEntries(s.entries)
	if cap(s.entries) > maxRetainedStackEntryCap {
		scratch.entries = make([]stackEntry, 0, defaultStackEntrySlabCap)
		scratch.spine = nil
	} else {
		scratch.entries = s.entries[:0]
		scratch.spine = s.spine[:0]
	}
	s.entries = nil
	s.spine = nil
}

func clearEntries(entries []stackEntry) {
	for i := range entries {
		entries[i].node = nil
	}
}
