package langfile

import (
	"fmt"

	"github.com/odvcencio/sitter/gotreesitter"
)

// FromLanguage captures the tables of lang. Languages with an external
// scanner are written with the language name as the scanner name.
func FromLanguage(lang *gotreesitter.Language) (*File, error) {
	lexStates, err := lexStatesFrom(lang.Lexer, "lexer")
	if err != nil {
		return nil, err
	}
	var keywordStates []LexState
	if lang.KeywordLexer != nil {
		if keywordStates, err = lexStatesFrom(lang.KeywordLexer, "keyword lexer"); err != nil {
			return nil, err
		}
	}

	f := &File{
		Name:                lang.Name,
		Version:             lang.Version,
		TokenCount:          lang.TokenCount,
		ExternalTokenCount:  lang.ExternalTokenCount,
		AliasCount:          lang.AliasCount,
		StateCount:          lang.StateCount,
		LargeStateCount:     lang.LargeStateCount,
		ProductionIDCount:   lang.ProductionIDCount,
		InitialState:        uint16(lang.InitialState),
		PublicSymbolMap:     symbolsToInts(lang.PublicSymbolMap),
		ParseTable:          lang.ParseTable,
		SmallParseTable:     lang.SmallParseTable,
		SmallParseTableMap:  lang.SmallParseTableMap,
		LexStates:           lexStates,
		KeywordLexStates:    keywordStates,
		KeywordCaptureToken: uint16(lang.KeywordCaptureToken),
		AliasMap:            lang.AliasMap,
		PrimaryStateIDs:     statesToInts(lang.PrimaryStateIDs),
		ExternalStates:      lang.ExternalStates,
		ExternalSymbolMap:   symbolsToInts(lang.ExternalSymbolMap),
	}
	if lang.ExternalScanner != nil {
		f.ExternalScanner = lang.Name
	}

	for i, name := range lang.SymbolNames {
		md := lang.SymbolMetadataFor(gotreesitter.Symbol(i))
		f.Symbols = append(f.Symbols, Symbol{Name: name, Visible: md.Visible, Named: md.Named, Supertype: md.Supertype})
	}
	if len(lang.FieldNames) > 1 {
		f.Fields = append([]string(nil), lang.FieldNames[1:]...)
	}

	for _, entry := range lang.ParseActions {
		out := ActionEntry{Reusable: entry.Reusable}
		for _, act := range entry.Actions {
			out.Actions = append(out.Actions, actionFrom(act))
		}
		f.Actions = append(f.Actions, out)
	}
	for _, m := range lang.LexModes {
		f.LexModes = append(f.LexModes, LexMode{LexState: m.LexState, ExternalLexState: m.ExternalLexState})
	}
	for _, s := range lang.FieldMapSlices {
		f.FieldMapSlices = append(f.FieldMapSlices, FieldMapSlice{Index: s.Index, Length: s.Length})
	}
	for _, e := range lang.FieldMapEntries {
		f.FieldMapEntries = append(f.FieldMapEntries, FieldMapEntry{Field: uint16(e.FieldID), Child: e.ChildIndex, Inherited: e.Inherited})
	}
	for _, seq := range lang.AliasSequences {
		f.AliasSequences = append(f.AliasSequences, symbolsToInts(seq))
	}
	return f, nil
}

// Build turns f into a validated Language. The returned Language shares
// no memory with f.
func (f *File) Build(scanners Scanners) (*gotreesitter.Language, error) {
	if int(f.AliasCount) > len(f.Symbols) {
		return nil, fmt.Errorf("%w: %s: alias count %d exceeds %d symbols", gotreesitter.ErrInvalidLanguage, f.Name, f.AliasCount, len(f.Symbols))
	}

	lang := &gotreesitter.Language{
		Name:                f.Name,
		Version:             f.Version,
		SymbolCount:         uint32(len(f.Symbols)) - f.AliasCount,
		AliasCount:          f.AliasCount,
		TokenCount:          f.TokenCount,
		ExternalTokenCount:  f.ExternalTokenCount,
		StateCount:          f.StateCount,
		LargeStateCount:     f.LargeStateCount,
		ProductionIDCount:   f.ProductionIDCount,
		FieldCount:          uint32(len(f.Fields)),
		FieldNames:          append([]string{""}, f.Fields...),
		PublicSymbolMap:     intsToSymbols(f.PublicSymbolMap),
		SmallParseTable:     append([]uint16(nil), f.SmallParseTable...),
		SmallParseTableMap:  append([]uint32(nil), f.SmallParseTableMap...),
		KeywordCaptureToken: gotreesitter.Symbol(f.KeywordCaptureToken),
		AliasMap:            append([]uint16(nil), f.AliasMap...),
		ExternalSymbolMap:   intsToSymbols(f.ExternalSymbolMap),
		InitialState:        gotreesitter.StateID(f.InitialState),
	}
	for _, s := range f.Symbols {
		lang.SymbolNames = append(lang.SymbolNames, s.Name)
		lang.SymbolMetadata = append(lang.SymbolMetadata, gotreesitter.SymbolMetadata{Visible: s.Visible, Named: s.Named, Supertype: s.Supertype})
	}
	for _, row := range f.ParseTable {
		lang.ParseTable = append(lang.ParseTable, append([]uint16(nil), row...))
	}
	for i, entry := range f.Actions {
		out := gotreesitter.ParseActionEntry{Reusable: entry.Reusable}
		for j, act := range entry.Actions {
			a, err := act.build()
			if err != nil {
				return nil, fmt.Errorf("%w: %s: action %d.%d: %v", gotreesitter.ErrInvalidLanguage, f.Name, i, j, err)
			}
			out.Actions = append(out.Actions, a)
		}
		lang.ParseActions = append(lang.ParseActions, out)
	}
	for _, m := range f.LexModes {
		lang.LexModes = append(lang.LexModes, gotreesitter.LexMode{LexState: m.LexState, ExternalLexState: m.ExternalLexState})
	}
	if len(f.LexStates) > 0 {
		lang.Lexer = buildLexTable(f.LexStates)
	}
	if len(f.KeywordLexStates) > 0 {
		lang.KeywordLexer = buildLexTable(f.KeywordLexStates)
	}
	for _, s := range f.FieldMapSlices {
		lang.FieldMapSlices = append(lang.FieldMapSlices, gotreesitter.FieldMapSlice{Index: s.Index, Length: s.Length})
	}
	for _, e := range f.FieldMapEntries {
		lang.FieldMapEntries = append(lang.FieldMapEntries, gotreesitter.FieldMapEntry{FieldID: gotreesitter.FieldID(e.Field), ChildIndex: e.Child, Inherited: e.Inherited})
	}
	for _, seq := range f.AliasSequences {
		lang.AliasSequences = append(lang.AliasSequences, intsToSymbols(seq))
	}
	for _, id := range f.PrimaryStateIDs {
		lang.PrimaryStateIDs = append(lang.PrimaryStateIDs, gotreesitter.StateID(id))
	}
	for _, row := range f.ExternalStates {
		lang.ExternalStates = append(lang.ExternalStates, append([]bool(nil), row...))
	}

	if f.ExternalScanner != "" {
		scanner, ok := scanners[f.ExternalScanner]
		if !ok || scanner == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScanner, f.ExternalScanner)
		}
		lang.ExternalScanner = scanner
	}

	if !lang.CompatibleWithRuntime() {
		return nil, fmt.Errorf("%w: %s: version %d outside %d..%d", gotreesitter.ErrInvalidLanguage, f.Name,
			f.Version, gotreesitter.MinCompatibleLanguageVersion, gotreesitter.LanguageVersion)
	}
	if err := lang.Validate(); err != nil {
		return nil, err
	}
	return lang, nil
}

func actionFrom(act gotreesitter.ParseAction) Action {
	out := Action{Type: act.Type().String()}
	switch a := act.(type) {
	case gotreesitter.ShiftAction:
		out.State, out.Extra, out.Repetition = uint16(a.State), a.Extra, a.Repetition
	case gotreesitter.ReduceAction:
		out.Symbol = uint16(a.Symbol)
		out.ChildCount = a.ChildCount
		out.DynamicPrecedence = a.DynamicPrecedence
		out.ProductionID = a.ProductionID
	}
	return out
}

func (a Action) build() (gotreesitter.ParseAction, error) {
	switch a.Type {
	case gotreesitter.ParseActionShift.String():
		return gotreesitter.ShiftAction{State: gotreesitter.StateID(a.State), Extra: a.Extra, Repetition: a.Repetition}, nil
	case gotreesitter.ParseActionReduce.String():
		return gotreesitter.ReduceAction{
			Symbol:            gotreesitter.Symbol(a.Symbol),
			ChildCount:        a.ChildCount,
			DynamicPrecedence: a.DynamicPrecedence,
			ProductionID:      a.ProductionID,
		}, nil
	case gotreesitter.ParseActionAccept.String():
		return gotreesitter.AcceptAction{}, nil
	case gotreesitter.ParseActionRecover.String():
		return gotreesitter.RecoverAction{}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", a.Type)
}

func lexStatesFrom(lexer gotreesitter.TokenLexer, what string) ([]LexState, error) {
	table, ok := lexer.(gotreesitter.LexTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrUnsupportedLexer, what, lexer)
	}
	out := make([]LexState, len(table))
	for i, st := range table {
		s := LexState{
			Default: edge(st.Default),
			EOF:     edge(st.EOF),
		}
		if st.HasAccept {
			accept := uint16(st.Accept)
			s.Accept = &accept
		}
		for _, tr := range st.Transitions {
			s.Transitions = append(s.Transitions, LexTransition{Lo: tr.Lo, Hi: tr.Hi, Next: tr.Next, Skip: tr.Skip})
		}
		out[i] = s
	}
	return out, nil
}

func buildLexTable(states []LexState) gotreesitter.LexTable {
	table := make(gotreesitter.LexTable, len(states))
	for i, s := range states {
		st := gotreesitter.LexState{Default: -1, EOF: -1}
		if s.Accept != nil {
			st.Accept, st.HasAccept = gotreesitter.Symbol(*s.Accept), true
		}
		if s.Default != nil {
			st.Default = *s.Default
		}
		if s.EOF != nil {
			st.EOF = *s.EOF
		}
		for _, tr := range s.Transitions {
			st.Transitions = append(st.Transitions, gotreesitter.LexTransition{Lo: tr.Lo, Hi: tr.Hi, Next: tr.Next, Skip: tr.Skip})
		}
		table[i] = st
	}
	return table
}

func edge(next int) *int {
	if next < 0 {
		return nil
	}
	return &next
}

func symbolsToInts(syms []gotreesitter.Symbol) []uint16 {
	if syms == nil {
		return nil
	}
	out := make([]uint16, len(syms))
	for i, s := range syms {
		out[i] = uint16(s)
	}
	return out
}

func intsToSymbols(ids []uint16) []gotreesitter.Symbol {
	if ids == nil {
		return nil
	}
	out := make([]gotreesitter.Symbol, len(ids))
	for i, id := range ids {
		out[i] = gotreesitter.Symbol(id)
	}
	return out
}

func statesToInts(states []gotreesitter.StateID) []uint16 {
	if states == nil {
		return nil
	}
	out := make([]uint16, len(states))
	for i, s := range states {
		out[i] = uint16(s)
	}
	return out
}
