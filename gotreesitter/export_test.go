package gotreesitter

// RetainedArenas reports how many node arenas t keeps alive.
func RetainedArenas(t *Tree) int { return len(t.arenas) }
