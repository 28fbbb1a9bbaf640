package gotreesitter

// buildNode creates the parent for a reduce of production productionID over
// children, which are in stack order and include extras.
//
// Field and alias entries address children by structural index, which
// counts only non-extra children. Hidden nonterminals are spliced into the
// new parent; a field assigned to a spliced child moves to its first
// substantive child. Supertypes are kept as wrapper nodes.
func (r *parseRun) buildNode(sym Symbol, productionID uint16, children []*Node) *Node {
	lang := r.lang
	aliases := lang.aliasSequence(productionID)
	entries := lang.fieldMap(productionID)

	structural := make([]int, 0, len(children))
	var dynPrec int32
	for i, c := range children {
		dynPrec += c.dynamicPrecedence
		if !c.extra {
			structural = append(structural, i)
		}
	}

	for j, ci := range structural {
		if j < len(aliases) && aliases[j] != 0 {
			r.applyAlias(children[ci], aliases[j])
		}
	}

	var direct []FieldID
	type inheritedField struct {
		child int
		field FieldID
	}
	var inherited []inheritedField
	for _, e := range entries {
		if int(e.ChildIndex) >= len(structural) {
			continue
		}
		ci := structural[e.ChildIndex]
		if e.Inherited {
			inherited = append(inherited, inheritedField{child: ci, field: e.FieldID})
			continue
		}
		if direct == nil {
			direct = make([]FieldID, len(children))
		}
		if direct[ci] == 0 {
			direct[ci] = e.FieldID
		}
	}

	out := r.arena.allocChildren(len(children))
	var fields []FieldID
	// spans[i] is the range of out occupied by children[i].
	spans := make([][2]int, len(children))
	setField := func(pos int, id FieldID) {
		if id == 0 {
			return
		}
		if fields == nil {
			fields = make([]FieldID, 0, cap(out))
		}
		for len(fields) <= pos {
			fields = append(fields, 0)
		}
		if fields[pos] == 0 {
			fields[pos] = id
		}
	}

	for i, c := range children {
		var fid FieldID
		if direct != nil {
			fid = direct[i]
		}
		start := len(out)
		if !spliceable(c) {
			out = append(out, c)
			setField(start, fid)
			spans[i] = [2]int{start, len(out)}
			continue
		}
		for k, gc := range c.children {
			out = append(out, gc)
			setField(len(out)-1, c.FieldIDForChild(k))
		}
		spans[i] = [2]int{start, len(out)}
		if pos := firstSubstantive(out, start, len(out)); pos >= 0 {
			setField(pos, fid)
		}
	}

	for _, inh := range inherited {
		span := spans[inh.child]
		if hasField(fields, span, inh.field) {
			continue
		}
		if pos := firstSubstantive(out, span[0], span[1]); pos >= 0 {
			setField(pos, inh.field)
		}
	}
	if fields != nil {
		for len(fields) < len(out) {
			fields = append(fields, 0)
		}
	}

	n := r.arena.allocNode()
	n.symbol = sym
	n.productionID = productionID
	r.resolveSymbol(n)
	n.fieldIDs = fields
	n.setChildren(out)
	n.dynamicPrecedence = dynPrec
	return n
}

// applyAlias renames a child in place, taking display flags from the alias.
func (r *parseRun) applyAlias(c *Node, alias Symbol) {
	md := r.lang.SymbolMetadataFor(alias)
	c.publicSymbol = alias
	c.isNamed = md.Named
	c.visible = md.Visible
	c.supertype = false
}

func spliceable(c *Node) bool {
	return len(c.children) > 0 && !c.visible && !c.supertype && c.symbol != ErrorSymbol
}

func firstSubstantive(nodes []*Node, lo, hi int) int {
	for i := lo; i < hi; i++ {
		if !nodes[i].extra {
			return i
		}
	}
	return -1
}

func hasField(fields []FieldID, span [2]int, id FieldID) bool {
	for i := span[0]; i < span[1] && i < len(fields); i++ {
		if fields[i] == id {
			return true
		}
	}
	return false
}
