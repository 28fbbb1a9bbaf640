package grammars

import (
	"sync"

	"github.com/odvcencio/sitter/gotreesitter"
)

// Symbols of the heredoc grammar:
//
//	source_file   := _heredoc_list
//	_heredoc_list := heredoc | _heredoc_list heredoc
//	heredoc       := heredoc_start heredoc_body
//
// heredoc_start ("<<TAG") and heredoc_body (through the line holding only
// TAG) come from the external scanner; the hidden list is spliced into
// source_file.
const (
	hdEnd gotreesitter.Symbol = iota
	hdStart
	hdBody
	hdSourceFile
	hdHeredoc
	hdList
	hdSymbolCount
)

const (
	hdExternalStart = iota
	hdExternalBody
)

const (
	hdFieldDelimiter gotreesitter.FieldID = iota + 1
	hdFieldBody
)

const (
	hdProdHeredoc uint16 = iota
	hdProdSourceFile
	hdProdListOne
	hdProdListMore
)

const (
	_ uint16 = iota
	hdShiftStart
	hdShiftBody
	hdAccept
	hdReduceSourceFile
	hdReduceListOne
	hdReduceListMore
	hdReduceHeredoc
)

// HeredocLanguage returns the heredoc grammar with its external scanner.
var HeredocLanguage = sync.OnceValue(buildHeredocLanguage)

func buildHeredocLanguage() *gotreesitter.Language {
	const stateCount = 8
	small, smallMap := smallParseTable([]map[gotreesitter.Symbol]uint16{
		// 2: source_file .
		{hdEnd: hdAccept},
		// 3: _heredoc_list . heredoc | source_file := _heredoc_list .
		{hdEnd: hdReduceSourceFile, hdStart: hdShiftStart, hdHeredoc: 6},
		// 4: _heredoc_list := heredoc .
		{hdEnd: hdReduceListOne, hdStart: hdReduceListOne},
		// 5: heredoc_start . heredoc_body
		{hdBody: hdShiftBody},
		// 6: _heredoc_list heredoc .
		{hdEnd: hdReduceListMore, hdStart: hdReduceListMore},
		// 7: heredoc_start heredoc_body .
		{hdEnd: hdReduceHeredoc, hdStart: hdReduceHeredoc},
	})

	startMode := gotreesitter.LexMode{ExternalLexState: 1}
	modes := uniformLexModes(stateCount, startMode)
	modes[0] = gotreesitter.LexMode{}
	modes[5] = gotreesitter.LexMode{ExternalLexState: 2}

	return &gotreesitter.Language{
		Name:               "heredoc",
		Version:            gotreesitter.LanguageVersion,
		SymbolCount:        uint32(hdSymbolCount),
		TokenCount:         uint32(hdSourceFile),
		ExternalTokenCount: 2,
		StateCount:         stateCount,
		LargeStateCount:    2,
		ProductionIDCount:  4,
		FieldCount:         2,
		SymbolNames:        []string{"end", "heredoc_start", "heredoc_body", "source_file", "heredoc", "_heredoc_list"},
		SymbolMetadata: []gotreesitter.SymbolMetadata{
			{Named: true},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
			{},
		},
		FieldNames:      []string{"", "delimiter", "body"},
		PublicSymbolMap: identitySymbolMap(int(hdSymbolCount)),
		ParseTable: [][]uint16{
			make([]uint16, hdSymbolCount),
			// 1: start
			{0, hdShiftStart, 0, 2, 4, 3},
		},
		SmallParseTable:    small,
		SmallParseTableMap: smallMap,
		ParseActions: []gotreesitter.ParseActionEntry{
			{},
			shift(5),
			shift(7),
			accept(),
			reduce(hdSourceFile, 1, 0, hdProdSourceFile),
			reduce(hdList, 1, 0, hdProdListOne),
			reduce(hdList, 2, 0, hdProdListMore),
			reduce(hdHeredoc, 2, 0, hdProdHeredoc),
		},
		LexModes: modes,
		Lexer:    heredocLexTable,
		FieldMapSlices: []gotreesitter.FieldMapSlice{
			hdProdHeredoc:    {Index: 0, Length: 2},
			hdProdSourceFile: {},
			hdProdListOne:    {},
			hdProdListMore:   {},
		},
		FieldMapEntries: []gotreesitter.FieldMapEntry{
			{FieldID: hdFieldDelimiter, ChildIndex: 0},
			{FieldID: hdFieldBody, ChildIndex: 1},
		},
		ExternalScanner: heredocScanner{},
		ExternalStates: [][]bool{
			nil,
			{hdExternalStart: true, hdExternalBody: false},
			{hdExternalStart: false, hdExternalBody: true},
		},
		ExternalSymbolMap: []gotreesitter.Symbol{hdStart, hdBody},
	}
}

// heredocLexTable only skips whitespace and recognizes end of input.
var heredocLexTable = gotreesitter.LexTable{
	0: {Default: -1, EOF: 1, Transitions: whitespaceSkips(0)},
	1: {Accept: hdEnd, HasAccept: true, Default: -1, EOF: -1},
}
