// Package langfile reads and writes grammar descriptors as YAML documents.
//
// A descriptor file carries every table the runtime interprets. Lexers must
// be DFA tables; lex functions and external scanners are code, so a file
// names its scanner and the caller supplies the implementation when the
// descriptor is built. JSON input is accepted since it is valid YAML.
package langfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/sitter/gotreesitter"
)

var (
	// ErrUnsupportedLexer is returned when a language lexes with code that
	// cannot be written as a table.
	ErrUnsupportedLexer = errors.New("lexer cannot be encoded as a table")
	// ErrUnknownScanner is returned when a file names an external scanner
	// the caller did not supply.
	ErrUnknownScanner = errors.New("unknown external scanner")
)

// Scanners maps the scanner names used in descriptor files to
// implementations.
type Scanners map[string]gotreesitter.ExternalScanner

// File is the on-disk form of a gotreesitter.Language.
type File struct {
	Name               string `yaml:"name"`
	Version            uint32 `yaml:"version,omitempty"`
	TokenCount         uint32 `yaml:"token_count"`
	ExternalTokenCount uint32 `yaml:"external_token_count,omitempty"`
	AliasCount         uint32 `yaml:"alias_count,omitempty"`
	StateCount         uint32 `yaml:"state_count"`
	LargeStateCount    uint32 `yaml:"large_state_count"`
	ProductionIDCount  uint32 `yaml:"production_id_count,omitempty"`
	InitialState       uint16 `yaml:"initial_state,omitempty"`

	// Symbols lists grammar symbols followed by alias-only symbols.
	Symbols         []Symbol `yaml:"symbols"`
	Fields          []string `yaml:"fields,omitempty"` // without the empty field 0
	PublicSymbolMap []uint16 `yaml:"public_symbol_map,omitempty,flow"`

	ParseTable         [][]uint16    `yaml:"parse_table,omitempty,flow"`
	SmallParseTable    []uint16      `yaml:"small_parse_table,omitempty,flow"`
	SmallParseTableMap []uint32      `yaml:"small_parse_table_map,omitempty,flow"`
	Actions            []ActionEntry `yaml:"actions"`

	LexModes            []LexMode  `yaml:"lex_modes,flow"`
	LexStates           []LexState `yaml:"lex_states"`
	KeywordLexStates    []LexState `yaml:"keyword_lex_states,omitempty"`
	KeywordCaptureToken uint16     `yaml:"keyword_capture_token,omitempty"`

	FieldMapSlices  []FieldMapSlice `yaml:"field_map_slices,omitempty,flow"`
	FieldMapEntries []FieldMapEntry `yaml:"field_map_entries,omitempty,flow"`
	AliasSequences  [][]uint16      `yaml:"alias_sequences,omitempty,flow"`
	AliasMap        []uint16        `yaml:"alias_map,omitempty,flow"`
	PrimaryStateIDs []uint16        `yaml:"primary_state_ids,omitempty,flow"`

	ExternalScanner   string   `yaml:"external_scanner,omitempty"`
	ExternalStates    [][]bool `yaml:"external_states,omitempty,flow"`
	ExternalSymbolMap []uint16 `yaml:"external_symbol_map,omitempty,flow"`
}

type Symbol struct {
	Name      string `yaml:"name"`
	Visible   bool   `yaml:"visible,omitempty"`
	Named     bool   `yaml:"named,omitempty"`
	Supertype bool   `yaml:"supertype,omitempty"`
}

// ActionEntry holds the actions of one parse table cell. Entry 0 is the
// empty entry.
type ActionEntry struct {
	Reusable bool     `yaml:"reusable,omitempty"`
	Actions  []Action `yaml:"actions,omitempty,flow"`
}

// Action is one parse action. Type is shift, reduce, accept or recover and
// selects which of the other fields apply.
type Action struct {
	Type              string `yaml:"type"`
	State             uint16 `yaml:"state,omitempty"`
	Extra             bool   `yaml:"extra,omitempty"`
	Repetition        bool   `yaml:"repetition,omitempty"`
	Symbol            uint16 `yaml:"symbol,omitempty"`
	ChildCount        uint8  `yaml:"child_count,omitempty"`
	DynamicPrecedence int16  `yaml:"dynamic_precedence,omitempty"`
	ProductionID      uint16 `yaml:"production_id,omitempty"`
}

type LexMode struct {
	LexState         uint16 `yaml:"lex_state"`
	ExternalLexState uint16 `yaml:"external_lex_state,omitempty"`
}

// LexState is one DFA state. A nil Accept means the state accepts nothing;
// a nil Default or EOF means there is no such edge.
type LexState struct {
	Accept      *uint16         `yaml:"accept,omitempty"`
	Default     *int            `yaml:"default,omitempty"`
	EOF         *int            `yaml:"eof,omitempty"`
	Transitions []LexTransition `yaml:"transitions,omitempty,flow"`
}

type LexTransition struct {
	Lo   rune `yaml:"lo"`
	Hi   rune `yaml:"hi"`
	Next int  `yaml:"next"`
	Skip bool `yaml:"skip,omitempty"`
}

type FieldMapSlice struct {
	Index  uint16 `yaml:"index"`
	Length uint16 `yaml:"length"`
}

type FieldMapEntry struct {
	Field     uint16 `yaml:"field"`
	Child     uint8  `yaml:"child"`
	Inherited bool   `yaml:"inherited,omitempty"`
}

// Load reads a descriptor file and builds its Language.
func Load(path string, scanners Scanners) (*gotreesitter.Language, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lang, err := f.Build(scanners)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lang, nil
}

// Decode reads one descriptor document. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode descriptor: empty document")
		}
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &f, nil
}

// Encode writes f as YAML.
func Encode(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	return enc.Close()
}
