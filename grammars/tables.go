package grammars

import (
	"slices"

	"github.com/odvcencio/sitter/gotreesitter"
)

// Helpers for writing parse tables by hand in the layout the generator
// emits.

func shift(state gotreesitter.StateID) gotreesitter.ParseActionEntry {
	return gotreesitter.ParseActionEntry{Reusable: true, Actions: []gotreesitter.ParseAction{gotreesitter.ShiftAction{State: state}}}
}

func shiftExtra() gotreesitter.ParseActionEntry {
	return gotreesitter.ParseActionEntry{Reusable: true, Actions: []gotreesitter.ParseAction{gotreesitter.ShiftAction{Extra: true}}}
}

func reduce(sym gotreesitter.Symbol, childCount uint8, dynPrec int16, productionID uint16) gotreesitter.ParseActionEntry {
	return gotreesitter.ParseActionEntry{Reusable: true, Actions: []gotreesitter.ParseAction{gotreesitter.ReduceAction{
		Symbol:            sym,
		ChildCount:        childCount,
		DynamicPrecedence: dynPrec,
		ProductionID:      productionID,
	}}}
}

func accept() gotreesitter.ParseActionEntry {
	return gotreesitter.ParseActionEntry{Actions: []gotreesitter.ParseAction{gotreesitter.AcceptAction{}}}
}

// smallParseTable encodes sparse rows: per state a group count followed by
// {value, symbol count, symbols...} groups, values ascending.
func smallParseTable(rows []map[gotreesitter.Symbol]uint16) ([]uint16, []uint32) {
	var table []uint16
	offsets := make([]uint32, len(rows))
	for i, row := range rows {
		offsets[i] = uint32(len(table))
		groups := make(map[uint16][]uint16)
		var values []uint16
		for sym, v := range row {
			if _, ok := groups[v]; !ok {
				values = append(values, v)
			}
			groups[v] = append(groups[v], uint16(sym))
		}
		slices.Sort(values)
		table = append(table, uint16(len(values)))
		for _, v := range values {
			syms := groups[v]
			slices.Sort(syms)
			table = append(table, v, uint16(len(syms)))
			table = append(table, syms...)
		}
	}
	return table, offsets
}

func uniformLexModes(count int, mode gotreesitter.LexMode) []gotreesitter.LexMode {
	modes := make([]gotreesitter.LexMode, count)
	for i := range modes {
		modes[i] = mode
	}
	return modes
}

func identitySymbolMap(count int) []gotreesitter.Symbol {
	out := make([]gotreesitter.Symbol, count)
	for i := range out {
		out[i] = gotreesitter.Symbol(i)
	}
	return out
}

// whitespaceSkips are DFA transitions that consume ASCII whitespace as
// trivia, looping back to state.
func whitespaceSkips(state int) []gotreesitter.LexTransition {
	return []gotreesitter.LexTransition{
		{Lo: '\t', Hi: '\n', Next: state, Skip: true},
		{Lo: '\r', Hi: '\r', Next: state, Skip: true},
		{Lo: ' ', Hi: ' ', Next: state, Skip: true},
	}
}
