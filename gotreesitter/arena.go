package gotreesitter

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	// incrementalArenaSlab is sized for steady-state edits where only a small
	// frontier of nodes is rebuilt.
	incrementalArenaSlab = 16 * 1024
	// fullParseArenaSlab covers a typical full parse with headroom while
	// staying small enough to keep a warm pool.
	fullParseArenaSlab = 512 * 1024
	minArenaNodeCap    = 64
	// childSlabPerNode approximates children per node for the child
	// pointer slab.
	childSlabPerNode = 2
)

type arenaClass uint8

const (
	arenaClassIncremental arenaClass = iota
	arenaClassFull
)

// nodeArena is a slab-backed allocator for nodes and their child slices.
// It uses ref counting so an incremental tree that adopts subtrees of an
// older tree keeps the older arenas alive until both trees are released.
type nodeArena struct {
	class     arenaClass
	nodes     []Node
	used      int
	children  []*Node
	childUsed int
	refs      atomic.Int32
	overflow  int
}

var (
	incrementalArenaPool = sync.Pool{
		New: func() any {
			return newNodeArena(arenaClassIncremental, incrementalArenaSlab)
		},
	}
	fullArenaPool = sync.Pool{
		New: func() any {
			return newNodeArena(arenaClassFull, fullParseArenaSlab)
		},
	}
)

func nodeCapacityForBytes(slabBytes int) int {
	nodeSize := int(unsafe.Sizeof(Node{}))
	if nodeSize <= 0 {
		return minArenaNodeCap
	}
	capacity := slabBytes / nodeSize
	if capacity < minArenaNodeCap {
		return minArenaNodeCap
	}
	return capacity
}

func newNodeArena(class arenaClass, slabBytes int) *nodeArena {
	capacity := nodeCapacityForBytes(slabBytes)
	return &nodeArena{
		class:    class,
		nodes:    make([]Node, capacity),
		children: make([]*Node, capacity*childSlabPerNode),
	}
}

func acquireNodeArena(class arenaClass) *nodeArena {
	var a *nodeArena
	switch class {
	case arenaClassIncremental:
		a = incrementalArenaPool.Get().(*nodeArena)
	default:
		a = fullArenaPool.Get().(*nodeArena)
	}
	a.refs.Store(1)
	return a
}

func (a *nodeArena) Retain() {
	if a == nil {
		return
	}
	a.refs.Add(1)
}

func (a *nodeArena) Release() {
	if a == nil {
		return
	}
	if a.refs.Add(-1) != 0 {
		return
	}
	a.reset()
	switch a.class {
	case arenaClassIncremental:
		incrementalArenaPool.Put(a)
	default:
		fullArenaPool.Put(a)
	}
}

func (a *nodeArena) reset() {
	for i := 0; i < a.used; i++ {
		a.nodes[i] = Node{}
	}
	a.used = 0
	clear(a.children[:a.childUsed])
	a.childUsed = 0
	a.overflow = 0
}

func (a *nodeArena) allocNode() *Node {
	if a == nil {
		return &Node{}
	}
	if a.used < len(a.nodes) {
		n := &a.nodes[a.used]
		a.used++
		*n = Node{}
		return n
	}
	// Fallback when slab is exhausted.
	a.overflow++
	return &Node{}
}

// allocChildren returns an empty slice with room for n children. Appending
// past n moves the slice to the heap.
func (a *nodeArena) allocChildren(n int) []*Node {
	if a == nil || n == 0 {
		return nil
	}
	if a.childUsed+n <= len(a.children) {
		s := a.children[a.childUsed : a.childUsed : a.childUsed+n]
		a.childUsed += n
		return s
	}
	a.overflow++
	return make([]*Node, 0, n)
}

// Overflow reports how many allocations fell back to the heap.
func (a *nodeArena) Overflow() int { return a.overflow }

// holds reports whether n, or the backing array of its child slice, was
// carved out of one of a's slabs.
func (a *nodeArena) holds(n *Node) bool {
	if len(a.nodes) > 0 {
		lo := uintptr(unsafe.Pointer(&a.nodes[0]))
		p := uintptr(unsafe.Pointer(n))
		if p >= lo && p < lo+uintptr(len(a.nodes))*unsafe.Sizeof(Node{}) {
			return true
		}
	}
	if cap(n.children) > 0 && len(a.children) > 0 {
		lo := uintptr(unsafe.Pointer(&a.children[0]))
		p := uintptr(unsafe.Pointer(unsafe.SliceData(n.children)))
		return p >= lo && p < lo+uintptr(len(a.children))*unsafe.Sizeof((*Node)(nil))
	}
	return false
}
