// Package gotreesitter implements a pure Go, table-driven incremental
// parsing runtime.
//
// This file defines the grammar descriptor (Language) and the parse action
// types. A Language is built once, never mutated afterwards, and may be
// shared by any number of concurrent parses.
package gotreesitter

import (
	"errors"
	"fmt"
)

// Symbol is a grammar symbol ID (terminal or nonterminal).
type Symbol uint16

// StateID is a parser state index.
type StateID uint16

// FieldID is a named field index. Zero means "no field".
type FieldID uint16

const (
	// SymbolEnd is the end-of-input token.
	SymbolEnd Symbol = 0
	// ErrorSymbol is the well-known symbol used for ERROR nodes.
	ErrorSymbol Symbol = 65535

	// SerializationBufferSize bounds external scanner snapshots.
	SerializationBufferSize = 1024

	// MinCompatibleLanguageVersion and LanguageVersion bound the table ABI
	// this runtime understands.
	MinCompatibleLanguageVersion = 13
	LanguageVersion              = 15
)

var (
	ErrInvalidLanguage = errors.New("invalid language")
	ErrInvalidRanges   = errors.New("included ranges must be ordered and non-overlapping")
)

// ParseActionType identifies the kind of parse action.
type ParseActionType uint8

const (
	ParseActionShift ParseActionType = iota
	ParseActionReduce
	ParseActionAccept
	ParseActionRecover
)

func (t ParseActionType) String() string {
	switch t {
	case ParseActionShift:
		return "shift"
	case ParseActionReduce:
		return "reduce"
	case ParseActionAccept:
		return "accept"
	case ParseActionRecover:
		return "recover"
	}
	return fmt.Sprintf("action(%d)", uint8(t))
}

// ParseAction is a single parser action from the parse table. The concrete
// types are ShiftAction, ReduceAction, AcceptAction and RecoverAction.
type ParseAction interface {
	Type() ParseActionType
}

// ShiftAction pushes the lookahead token and moves to State.
type ShiftAction struct {
	State      StateID
	Extra      bool // token is attached without changing state
	Repetition bool // self-loop of a repeated construct
}

// ReduceAction pops ChildCount entries and pushes a node for Symbol.
type ReduceAction struct {
	Symbol            Symbol
	ChildCount        uint8
	DynamicPrecedence int16
	ProductionID      uint16
}

// AcceptAction ends the parse successfully.
type AcceptAction struct{}

// RecoverAction sends the parser into error recovery.
type RecoverAction struct{}

func (ShiftAction) Type() ParseActionType   { return ParseActionShift }
func (ReduceAction) Type() ParseActionType  { return ParseActionReduce }
func (AcceptAction) Type() ParseActionType  { return ParseActionAccept }
func (RecoverAction) Type() ParseActionType { return ParseActionRecover }

// ParseActionEntry is a group of actions for a (state, symbol) pair.
type ParseActionEntry struct {
	Reusable bool
	Actions  []ParseAction
}

// LexMode maps a parser state to its lexer configuration.
type LexMode struct {
	LexState         uint16
	ExternalLexState uint16
}

// SymbolMetadata holds display information about a symbol.
type SymbolMetadata struct {
	Visible   bool
	Named     bool
	Supertype bool
}

// FieldMapEntry maps a child index to a field.
type FieldMapEntry struct {
	FieldID    FieldID
	ChildIndex uint8
	Inherited  bool
}

// FieldMapSlice locates a production's entries in FieldMapEntries.
type FieldMapSlice struct {
	Index  uint16
	Length uint16
}

// ExternalScanner is the interface for grammar-supplied scanners. A payload
// is created once per parse, may be snapshotted with Serialize and restored
// with Deserialize any number of times, and is destroyed exactly once.
//
// Scan reports the recognized token through lexer.SetResultSymbol using the
// external token index (not the grammar symbol); validSymbols is indexed
// the same way.
type ExternalScanner interface {
	Create() any
	Destroy(payload any)
	Serialize(payload any, buf []byte) int
	Deserialize(payload any, buf []byte)
	Scan(payload any, lexer *Lexer, validSymbols []bool) bool
}

// Language holds all data needed to parse a specific language.
// It mirrors the generated C descriptor with slice-based tables instead of
// raw pointers.
type Language struct {
	Name    string
	Version uint32

	// Counts
	SymbolCount        uint32
	AliasCount         uint32
	TokenCount         uint32
	ExternalTokenCount uint32
	StateCount         uint32
	LargeStateCount    uint32
	ProductionIDCount  uint32
	FieldCount         uint32

	// Symbol metadata
	SymbolNames     []string
	SymbolMetadata  []SymbolMetadata
	FieldNames      []string // index 0 is ""
	PublicSymbolMap []Symbol

	// Parse tables. Terminal columns hold indexes into ParseActions,
	// nonterminal columns hold the goto state directly.
	ParseTable         [][]uint16 // dense: [state][symbol]
	SmallParseTable    []uint16
	SmallParseTableMap []uint32 // [state-LargeStateCount] -> offset into SmallParseTable
	ParseActions       []ParseActionEntry

	// Lexing
	LexModes            []LexMode
	Lexer               TokenLexer
	KeywordLexer        TokenLexer
	KeywordCaptureToken Symbol

	// Field mapping
	FieldMapSlices  []FieldMapSlice // [production_id]
	FieldMapEntries []FieldMapEntry

	// Aliases
	AliasSequences [][]Symbol // [production_id][child_index] -> alias, 0 = none
	AliasMap       []uint16

	PrimaryStateIDs []StateID

	// External scanner (nil if not needed)
	ExternalScanner   ExternalScanner
	ExternalStates    [][]bool // [external lex state][external token]
	ExternalSymbolMap []Symbol // [external token] -> symbol

	// InitialState is the parser's start state. Generated grammars reserve
	// state 0 for error recovery and start in state 1, which is what a
	// zero value means here.
	InitialState StateID
}

// StartState returns the state a parse begins in.
func (l *Language) StartState() StateID {
	if l.InitialState == 0 {
		return 1
	}
	return l.InitialState
}

// CompatibleWithRuntime reports whether the table ABI version is supported.
// A zero version is treated as current (hand-built tables).
func (l *Language) CompatibleWithRuntime() bool {
	if l.Version == 0 {
		return true
	}
	return l.Version >= MinCompatibleLanguageVersion && l.Version <= LanguageVersion
}

// SymbolName returns the display name of sym.
func (l *Language) SymbolName(sym Symbol) string {
	if sym == ErrorSymbol {
		return "ERROR"
	}
	if int(sym) < len(l.SymbolNames) {
		return l.SymbolNames[sym]
	}
	return ""
}

// SymbolByName returns the first symbol with the given name. Named reports
// whether to look for a named or an anonymous symbol.
func (l *Language) SymbolByName(name string, named bool) (Symbol, bool) {
	if name == "ERROR" {
		return ErrorSymbol, true
	}
	for i, n := range l.SymbolNames {
		if n != name {
			continue
		}
		if l.SymbolMetadataFor(Symbol(i)).Named == named {
			return Symbol(i), true
		}
	}
	return 0, false
}

// SymbolMetadataFor returns metadata for sym; ERROR is visible and named.
func (l *Language) SymbolMetadataFor(sym Symbol) SymbolMetadata {
	if sym == ErrorSymbol {
		return SymbolMetadata{Visible: true, Named: true}
	}
	if int(sym) < len(l.SymbolMetadata) {
		return l.SymbolMetadata[sym]
	}
	return SymbolMetadata{}
}

// PublicSymbol maps an internal symbol to the symbol nodes present.
func (l *Language) PublicSymbol(sym Symbol) Symbol {
	if sym == ErrorSymbol {
		return sym
	}
	if int(sym) < len(l.PublicSymbolMap) {
		return l.PublicSymbolMap[sym]
	}
	return sym
}

// FieldName returns the name of field id, or "".
func (l *Language) FieldName(id FieldID) string {
	if int(id) < len(l.FieldNames) {
		return l.FieldNames[id]
	}
	return ""
}

// FieldByName returns the ID of the named field.
func (l *Language) FieldByName(name string) (FieldID, bool) {
	if name == "" {
		return 0, false
	}
	for i := 1; i < len(l.FieldNames); i++ {
		if l.FieldNames[i] == name {
			return FieldID(i), true
		}
	}
	return 0, false
}

// AliasesFor returns the alias symbols sym may be presented as.
func (l *Language) AliasesFor(sym Symbol) []Symbol {
	for i := 0; i+1 < len(l.AliasMap); {
		original := Symbol(l.AliasMap[i])
		if original == 0 {
			break
		}
		count := int(l.AliasMap[i+1])
		start := i + 2
		end := start + count
		if end > len(l.AliasMap) {
			break
		}
		if original == sym {
			out := make([]Symbol, count)
			for j := range out {
				out[j] = Symbol(l.AliasMap[start+j])
			}
			return out
		}
		i = end
	}
	return nil
}

// lexMode returns the lex mode for state, or the zero mode.
func (l *Language) lexMode(state StateID) LexMode {
	if int(state) < len(l.LexModes) {
		return l.LexModes[state]
	}
	return LexMode{}
}

// tableValue returns the raw parse table cell for (state, sym). Large
// states index a dense row, small states scan their sparse groups.
func (l *Language) tableValue(state StateID, sym Symbol) uint16 {
	if uint32(state) < l.LargeStateCount {
		if int(state) >= len(l.ParseTable) {
			return 0
		}
		row := l.ParseTable[state]
		if int(sym) < len(row) {
			return row[sym]
		}
		return 0
	}

	idx := int(uint32(state) - l.LargeStateCount)
	if idx >= len(l.SmallParseTableMap) {
		return 0
	}
	table := l.SmallParseTable
	i := int(l.SmallParseTableMap[idx])
	if i >= len(table) {
		return 0
	}
	groupCount := int(table[i])
	i++
	for g := 0; g < groupCount; g++ {
		if i+1 >= len(table) {
			return 0
		}
		value := table[i]
		symbolCount := int(table[i+1])
		i += 2
		for s := 0; s < symbolCount && i+s < len(table); s++ {
			if Symbol(table[i+s]) == sym {
				return value
			}
		}
		i += symbolCount
	}
	return 0
}

// LookupAction returns the action entry for a terminal in state, or nil.
func (l *Language) LookupAction(state StateID, sym Symbol) *ParseActionEntry {
	if uint32(sym) >= l.TokenCount && sym != SymbolEnd {
		return nil
	}
	idx := l.tableValue(state, sym)
	if idx == 0 || int(idx) >= len(l.ParseActions) {
		return nil
	}
	entry := &l.ParseActions[idx]
	if len(entry.Actions) == 0 {
		return nil
	}
	return entry
}

// HasActions reports whether sym has any action in state.
func (l *Language) HasActions(state StateID, sym Symbol) bool {
	return l.LookupAction(state, sym) != nil
}

// NextState returns the state reached from state over sym: the goto for a
// nonterminal, or the shift target for a terminal. Zero means none.
func (l *Language) NextState(state StateID, sym Symbol) StateID {
	if uint32(sym) < l.TokenCount {
		entry := l.LookupAction(state, sym)
		if entry == nil {
			return 0
		}
		for _, act := range entry.Actions {
			if sh, ok := act.(ShiftAction); ok {
				if sh.Extra {
					return state
				}
				return sh.State
			}
		}
		return 0
	}
	return StateID(l.tableValue(state, sym))
}

// fieldMap returns the field entries for a production.
func (l *Language) fieldMap(productionID uint16) []FieldMapEntry {
	if int(productionID) >= len(l.FieldMapSlices) {
		return nil
	}
	s := l.FieldMapSlices[productionID]
	end := int(s.Index) + int(s.Length)
	if s.Length == 0 || end > len(l.FieldMapEntries) {
		return nil
	}
	return l.FieldMapEntries[s.Index:end]
}

// aliasSequence returns the alias row of a production.
func (l *Language) aliasSequence(productionID uint16) []Symbol {
	if int(productionID) < len(l.AliasSequences) {
		return l.AliasSequences[productionID]
	}
	return nil
}

// externalValidSymbols returns the external-token gate for a lex state.
func (l *Language) externalValidSymbols(externalLexState uint16) []bool {
	if externalLexState == 0 || int(externalLexState) >= len(l.ExternalStates) {
		return nil
	}
	return l.ExternalStates[externalLexState]
}

// Validate checks that array lengths agree with the declared counts.
func (l *Language) Validate() error {
	check := func(ok bool, format string, args ...any) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidLanguage, l.Name, fmt.Sprintf(format, args...))
	}
	errs := []error{
		check(l.TokenCount <= l.SymbolCount, "token count %d exceeds symbol count %d", l.TokenCount, l.SymbolCount),
		check(len(l.SymbolNames) == int(l.SymbolCount+l.AliasCount), "%d symbol names for %d symbols", len(l.SymbolNames), l.SymbolCount+l.AliasCount),
		check(len(l.SymbolMetadata) == int(l.SymbolCount+l.AliasCount), "%d symbol metadata entries for %d symbols", len(l.SymbolMetadata), l.SymbolCount+l.AliasCount),
		check(len(l.FieldNames) == int(l.FieldCount)+1, "%d field names for %d fields", len(l.FieldNames), l.FieldCount),
		check(l.LargeStateCount <= l.StateCount, "large state count %d exceeds state count %d", l.LargeStateCount, l.StateCount),
		check(len(l.ParseTable) == int(l.LargeStateCount), "%d dense rows for %d large states", len(l.ParseTable), l.LargeStateCount),
		check(len(l.SmallParseTableMap) == int(l.StateCount-l.LargeStateCount), "%d sparse offsets for %d small states", len(l.SmallParseTableMap), l.StateCount-l.LargeStateCount),
		check(len(l.LexModes) == int(l.StateCount), "%d lex modes for %d states", len(l.LexModes), l.StateCount),
		check(l.Lexer != nil, "missing lexer"),
		check(l.KeywordLexer == nil || l.KeywordCaptureToken != 0, "keyword lexer without capture token"),
		check(len(l.FieldMapSlices) == 0 || len(l.FieldMapSlices) == int(l.ProductionIDCount), "%d field map slices for %d productions", len(l.FieldMapSlices), l.ProductionIDCount),
		check(len(l.AliasSequences) == 0 || len(l.AliasSequences) == int(l.ProductionIDCount), "%d alias sequences for %d productions", len(l.AliasSequences), l.ProductionIDCount),
		check(l.ExternalTokenCount == 0 || len(l.ExternalSymbolMap) == int(l.ExternalTokenCount), "%d external symbols for %d external tokens", len(l.ExternalSymbolMap), l.ExternalTokenCount),
		check(l.StartState() < StateID(l.StateCount) || l.StateCount == 0, "start state %d out of range", l.StartState()),
	}
	for i, row := range l.ParseTable {
		errs = append(errs, check(len(row) == int(l.SymbolCount), "dense row %d has %d columns, want %d", i, len(row), l.SymbolCount))
	}
	for _, s := range l.FieldMapSlices {
		errs = append(errs, check(int(s.Index)+int(s.Length) <= len(l.FieldMapEntries), "field map slice %d+%d out of range", s.Index, s.Length))
	}
	return errors.Join(errs...)
}
