package gotreesitter

// Node is a syntax tree node.
type Node struct {
	symbol       Symbol // grammar symbol
	publicSymbol Symbol // symbol after alias and public-symbol resolution

	startByte  uint32
	endByte    uint32
	padding    uint32 // trivia bytes before startByte
	startPoint Point
	endPoint   Point

	children []*Node
	fieldIDs []FieldID // parallel to children, 0 = no field
	parent   *Node

	productionID      uint16
	dynamicPrecedence int32

	// parseState is the state the first token was shifted in. lookaheadEnd
	// is the furthest byte examined while building the subtree, including
	// the lookahead that completed it.
	parseState   StateID
	lookaheadEnd uint32

	// External scanner snapshots in effect before the first token and after
	// the last token of this subtree.
	scannerBefore []byte
	scannerAfter  []byte

	isNamed    bool
	visible    bool
	supertype  bool
	extra      bool
	isMissing  bool
	hasError   bool
	hasChanges bool
}

// Symbol returns the node's public symbol (after aliasing).
func (n *Node) Symbol() Symbol { return n.publicSymbol }

// GrammarSymbol returns the symbol the parse table produced for this node.
func (n *Node) GrammarSymbol() Symbol { return n.symbol }

// IsNamed reports whether this is a named node (as opposed to anonymous syntax like punctuation).
func (n *Node) IsNamed() bool { return n.isNamed }

// IsVisible reports whether the node appears in the public tree.
func (n *Node) IsVisible() bool { return n.visible }

// IsSupertype reports whether the node is a supertype wrapper.
func (n *Node) IsSupertype() bool { return n.supertype }

// IsExtra reports whether the node was attached outside the grammar
// structure (trivia or a recovered error).
func (n *Node) IsExtra() bool { return n.extra }

// IsMissing reports whether this node was inserted by error recovery.
func (n *Node) IsMissing() bool { return n.isMissing }

// IsError reports whether this is an ERROR node.
func (n *Node) IsError() bool { return n.symbol == ErrorSymbol }

// HasError reports whether this node or any descendant contains a parse error.
func (n *Node) HasError() bool { return n.hasError }

// HasChanges reports whether an edit touched this node since it was parsed.
func (n *Node) HasChanges() bool { return n.hasChanges }

// DynamicPrecedence returns the summed dynamic precedence of the subtree.
func (n *Node) DynamicPrecedence() int32 { return n.dynamicPrecedence }

// StartByte returns the byte offset where this node begins.
func (n *Node) StartByte() uint32 { return n.startByte }

// EndByte returns the byte offset where this node ends (exclusive).
func (n *Node) EndByte() uint32 { return n.endByte }

// FullStartByte returns the start offset including leading trivia.
func (n *Node) FullStartByte() uint32 { return n.startByte - n.padding }

// StartPoint returns the row/column position where this node begins.
func (n *Node) StartPoint() Point { return n.startPoint }

// EndPoint returns the row/column position where this node ends.
func (n *Node) EndPoint() Point { return n.endPoint }

// Range returns the full span of this node as a Range.
func (n *Node) Range() Range {
	return Range{
		StartByte:  n.startByte,
		EndByte:    n.endByte,
		StartPoint: n.startPoint,
		EndPoint:   n.endPoint,
	}
}

// Parent returns this node's parent, or nil if it is the root.
func (n *Node) Parent() *Node { return n.parent }

// ChildCount returns the number of children (both named and anonymous).
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child, or nil if i is out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns a slice of all children.
func (n *Node) Children() []*Node { return n.children }

// NamedChildren returns the named children. Supertype wrappers are looked
// through: their named children are returned in their place.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.children {
		switch {
		case c.supertype && len(c.children) > 0:
			out = append(out, c.NamedChildren()...)
		case c.isNamed:
			out = append(out, c)
		}
	}
	return out
}

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int { return len(n.NamedChildren()) }

// NamedChild returns the i-th named child, or nil if i is out of range.
func (n *Node) NamedChild(i int) *Node {
	named := n.NamedChildren()
	if i < 0 || i >= len(named) {
		return nil
	}
	return named[i]
}

// FieldIDForChild returns the field of the i-th child, or 0.
func (n *Node) FieldIDForChild(i int) FieldID {
	if i < 0 || i >= len(n.fieldIDs) {
		return 0
	}
	return n.fieldIDs[i]
}

// ChildByFieldID returns the first child assigned to field id, or nil.
func (n *Node) ChildByFieldID(id FieldID) *Node {
	if id == 0 {
		return nil
	}
	for i, fid := range n.fieldIDs {
		if fid == id && i < len(n.children) {
			return n.children[i]
		}
	}
	return nil
}

// ChildByFieldName returns the first child assigned to the given field name,
// or nil if no child has that field.
func (n *Node) ChildByFieldName(name string, lang *Language) *Node {
	fid, ok := lang.FieldByName(name)
	if !ok {
		return nil
	}
	return n.ChildByFieldID(fid)
}

// Text returns the source text covered by this node.
func (n *Node) Text(source []byte) string {
	if int(n.endByte) > len(source) || n.startByte > n.endByte {
		return ""
	}
	return string(source[n.startByte:n.endByte])
}

// Type returns the node's type name from the language.
func (n *Node) Type(lang *Language) string {
	return lang.SymbolName(n.publicSymbol)
}

// Leaves returns the leaf nodes of the subtree in document order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(cur.children) == 0 {
			out = append(out, cur)
			continue
		}
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
	}
	return out
}

// NewLeafNode creates a terminal/leaf node.
func NewLeafNode(sym Symbol, named bool, startByte, endByte uint32, startPoint, endPoint Point) *Node {
	return &Node{
		symbol:       sym,
		publicSymbol: sym,
		isNamed:      named,
		visible:      true,
		startByte:    startByte,
		endByte:      endByte,
		startPoint:   startPoint,
		endPoint:     endPoint,
		lookaheadEnd: endByte,
		hasError:     sym == ErrorSymbol,
	}
}

// NewParentNode creates a non-terminal node with children.
// It sets parent pointers on all children and computes byte/point spans
// from the first and last children. If any child has an error, the parent
// is marked as having an error too.
func NewParentNode(sym Symbol, named bool, children []*Node, fieldIDs []FieldID, productionID uint16) *Node {
	n := &Node{
		symbol:       sym,
		publicSymbol: sym,
		isNamed:      named,
		visible:      true,
		fieldIDs:     fieldIDs,
		productionID: productionID,
		hasError:     sym == ErrorSymbol,
	}
	n.setChildren(children)
	return n
}

// setChildren attaches children and derives span, error and reuse data.
func (n *Node) setChildren(children []*Node) {
	n.children = children
	if len(children) == 0 {
		return
	}
	first := children[0]
	last := children[len(children)-1]
	n.startByte = first.startByte
	n.padding = first.padding
	n.startPoint = first.startPoint
	n.endByte = last.endByte
	n.endPoint = last.endPoint
	n.parseState = first.parseState
	n.scannerBefore = first.scannerBefore
	n.scannerAfter = last.scannerAfter
	n.lookaheadEnd = n.endByte
	n.dynamicPrecedence = 0
	n.hasError = n.symbol == ErrorSymbol || n.isMissing

	for _, c := range children {
		c.parent = n
		if c.hasError || c.isMissing {
			n.hasError = true
		}
		if c.lookaheadEnd > n.lookaheadEnd {
			n.lookaheadEnd = c.lookaheadEnd
		}
		n.dynamicPrecedence += c.dynamicPrecedence
	}
}

// appendChildren adds children after the existing ones, updating the span
// and summary fields without revisiting earlier children.
func (n *Node) appendChildren(children ...*Node) {
	if len(children) == 0 {
		return
	}
	if len(n.children) == 0 {
		n.setChildren(append([]*Node(nil), children...))
		return
	}
	n.children = append(n.children, children...)
	if n.fieldIDs != nil {
		n.fieldIDs = append(n.fieldIDs, make([]FieldID, len(children))...)
	}
	last := children[len(children)-1]
	n.endByte = last.endByte
	n.endPoint = last.endPoint
	n.scannerAfter = last.scannerAfter
	if n.endByte > n.lookaheadEnd {
		n.lookaheadEnd = n.endByte
	}
	for _, c := range children {
		c.parent = n
		if c.hasError || c.isMissing {
			n.hasError = true
		}
		if c.lookaheadEnd > n.lookaheadEnd {
			n.lookaheadEnd = c.lookaheadEnd
		}
		n.dynamicPrecedence += c.dynamicPrecedence
	}
}

// Tree holds a complete syntax tree along with its source text and language.
type Tree struct {
	root     *Node
	source   []byte
	language *Language
	edits    []InputEdit // pending edits applied to this tree
	arenas   []*nodeArena
}

// NewTree creates a new Tree.
func NewTree(root *Node, source []byte, lang *Language) *Tree {
	return &Tree{
		root:     root,
		source:   source,
		language: lang,
	}
}

// RootNode returns the tree's root node.
func (t *Tree) RootNode() *Node { return t.root }

// Source returns the original source text.
func (t *Tree) Source() []byte { return t.source }

// Language returns the language used to parse this tree.
func (t *Tree) Language() *Language { return t.language }

// Release returns node memory to the parser pools. The tree and its nodes
// must not be used afterwards.
func (t *Tree) Release() {
	for _, a := range t.arenas {
		a.Release()
	}
	t.arenas = nil
	t.root = nil
}

// InputEdit describes a single edit to the source text. It tells the parser
// what byte range was replaced and what the new range looks like, so the
// incremental parser can skip unchanged subtrees.
type InputEdit struct {
	StartByte   uint32
	OldEndByte  uint32
	NewEndByte  uint32
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// Edit records an edit on this tree. Call this before ParseIncremental to
// inform the parser which regions changed. Nodes after the edit are shifted
// and nodes whose text or lookahead overlaps it are marked as changed.
func (t *Tree) Edit(edit InputEdit) {
	t.edits = append(t.edits, edit)
	if t.root != nil {
		editNode(t.root, edit, int64(edit.NewEndByte)-int64(edit.OldEndByte))
	}
}

// Edits returns the pending edits recorded on this tree.
func (t *Tree) Edits() []InputEdit { return t.edits }

func addUint32Delta(value uint32, delta int64) uint32 {
	next := int64(value) + delta
	if next < 0 {
		return 0
	}
	if next > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(next)
}

func shiftPoint(p Point, edit InputEdit) Point {
	if p.Row == edit.OldEndPoint.Row {
		col := int64(p.Column) - int64(edit.OldEndPoint.Column) + int64(edit.NewEndPoint.Column)
		return Point{Row: edit.NewEndPoint.Row, Column: addUint32Delta(0, col)}
	}
	rowDelta := int64(edit.NewEndPoint.Row) - int64(edit.OldEndPoint.Row)
	return Point{Row: addUint32Delta(p.Row, rowDelta), Column: p.Column}
}

func editNode(n *Node, edit InputEdit, byteDelta int64) {
	reach := n.endByte
	if n.lookaheadEnd > reach {
		reach = n.lookaheadEnd
	}
	// Neither the text nor anything the lexer looked at reaches the edit.
	if reach <= edit.StartByte {
		return
	}

	// Entirely after the edit, trivia included: shift.
	if n.FullStartByte() >= edit.OldEndByte && n.FullStartByte() > edit.StartByte {
		shiftSubtreeAfterEdit(n, edit, byteDelta)
		return
	}

	n.hasChanges = true
	if n.endByte >= edit.OldEndByte {
		n.endByte = addUint32Delta(n.endByte, byteDelta)
		n.endPoint = shiftPoint(n.endPoint, edit)
	} else if n.endByte > edit.StartByte {
		n.endByte = edit.NewEndByte
		n.endPoint = edit.NewEndPoint
	}
	if n.lookaheadEnd >= edit.OldEndByte {
		n.lookaheadEnd = addUint32Delta(n.lookaheadEnd, byteDelta)
	}

	for _, c := range n.children {
		editNode(c, edit, byteDelta)
	}
}

func shiftSubtreeAfterEdit(root *Node, edit InputEdit, byteDelta int64) {
	if byteDelta == 0 && edit.NewEndPoint == edit.OldEndPoint {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n.startByte = addUint32Delta(n.startByte, byteDelta)
		n.endByte = addUint32Delta(n.endByte, byteDelta)
		n.lookaheadEnd = addUint32Delta(n.lookaheadEnd, byteDelta)
		n.startPoint = shiftPoint(n.startPoint, edit)
		n.endPoint = shiftPoint(n.endPoint, edit)

		stack = append(stack, n.children...)
	}
}
