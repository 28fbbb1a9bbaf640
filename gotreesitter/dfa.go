package gotreesitter

// LexState is one state in the table-driven lexer DFA.
//
// Entering a state with HasAccept records Accept as the current candidate
// token and marks its end, so a longer match found later replaces it and a
// failed extension falls back to it.
type LexState struct {
	Accept      Symbol
	HasAccept   bool
	Transitions []LexTransition
	Default     int // next state for runes no transition matches (-1 if none)
	EOF         int // next state at end of input (-1 if none)
}

// LexTransition maps an inclusive rune range to a next state. Skip
// transitions consume the rune as trivia.
type LexTransition struct {
	Lo, Hi rune
	Next   int
	Skip   bool
}

// LexTable is a DFA lexer expressed as data.
type LexTable []LexState

// Lex runs the DFA from state until no transition applies and reports
// whether any state along the way accepted.
func (t LexTable) Lex(l *Lexer, state uint16) bool {
	cur := int(state)
	result := false
	eofSteps := 0
	for cur >= 0 && cur < len(t) {
		st := &t[cur]
		if st.HasAccept {
			result = true
			l.SetResultSymbol(st.Accept)
			l.MarkEnd()
		}

		if l.EOF() {
			// Advancing at end of input is a no-op, so an EOF edge only
			// changes state; bound the walk to avoid table cycles.
			if st.EOF < 0 || eofSteps >= len(t) {
				return result
			}
			eofSteps++
			cur = st.EOF
			continue
		}

		next, skip := st.next(l.Lookahead())
		if next < 0 {
			return result
		}
		l.Advance(skip)
		cur = next
	}
	return result
}

func (st *LexState) next(r rune) (int, bool) {
	for i := range st.Transitions {
		tr := &st.Transitions[i]
		if r >= tr.Lo && r <= tr.Hi {
			return tr.Next, tr.Skip
		}
	}
	return st.Default, false
}
