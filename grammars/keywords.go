package grammars

import (
	"sync"
	"unicode"

	"github.com/odvcencio/sitter/gotreesitter"
)

// Symbols of the keywords grammar:
//
//	source_file := identifier | "if" identifier
//
// "if" is recognized by a keyword lexer run over identifier tokens, so
// "iffy" stays an identifier and "if" is only a keyword where the parser
// can use one.
const (
	kwEnd gotreesitter.Symbol = iota
	kwIdentifier
	kwIf
	kwSourceFile
	kwSymbolCount
)

const kwFieldName gotreesitter.FieldID = 1

const (
	_ uint16 = iota
	kwShiftIdentifier
	kwShiftIf
	kwShiftIdentifierAfterIf
	kwAccept
	kwReduceBare
	kwReduceGuarded
)

// KeywordsLanguage returns the keyword demonstration grammar.
var KeywordsLanguage = sync.OnceValue(buildKeywordsLanguage)

func buildKeywordsLanguage() *gotreesitter.Language {
	const stateCount = 6
	small, smallMap := smallParseTable([]map[gotreesitter.Symbol]uint16{
		// 2: identifier .
		{kwEnd: kwReduceBare},
		// 3: "if" . identifier
		{kwIdentifier: kwShiftIdentifierAfterIf},
		// 4: source_file .
		{kwEnd: kwAccept},
		// 5: "if" identifier .
		{kwEnd: kwReduceGuarded},
	})
	return &gotreesitter.Language{
		Name:                "keywords",
		Version:             gotreesitter.LanguageVersion,
		SymbolCount:         uint32(kwSymbolCount),
		TokenCount:          uint32(kwSourceFile),
		StateCount:          stateCount,
		LargeStateCount:     2,
		ProductionIDCount:   2,
		FieldCount:          1,
		SymbolNames:         []string{"end", "identifier", "if", "source_file"},
		SymbolMetadata:      []gotreesitter.SymbolMetadata{{Named: true}, {Visible: true, Named: true}, {Visible: true}, {Visible: true, Named: true}},
		FieldNames:          []string{"", "name"},
		PublicSymbolMap:     identitySymbolMap(int(kwSymbolCount)),
		ParseTable:          [][]uint16{make([]uint16, kwSymbolCount), {0, kwShiftIdentifier, kwShiftIf, 4}},
		SmallParseTable:     small,
		SmallParseTableMap:  smallMap,
		LexModes:            uniformLexModes(stateCount, gotreesitter.LexMode{}),
		Lexer:               gotreesitter.LexFunc(lexKeywords),
		KeywordLexer:        gotreesitter.LexFunc(lexKeywordSpellings),
		KeywordCaptureToken: kwIdentifier,
		ParseActions: []gotreesitter.ParseActionEntry{
			{},
			shift(2),
			shift(3),
			shift(5),
			accept(),
			reduce(kwSourceFile, 1, 0, 0),
			reduce(kwSourceFile, 2, 0, 1),
		},
		FieldMapSlices: []gotreesitter.FieldMapSlice{{Index: 0, Length: 1}, {Index: 1, Length: 1}},
		FieldMapEntries: []gotreesitter.FieldMapEntry{
			{FieldID: kwFieldName, ChildIndex: 0},
			{FieldID: kwFieldName, ChildIndex: 1},
		},
	}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentChar(r rune) bool { return isIdentStart(r) || unicode.IsDigit(r) }

// lexKeywords is written the way generated switch-style lex functions are.
func lexKeywords(l *gotreesitter.Lexer, state uint16) bool {
	for {
		switch {
		case l.EOF():
			l.SetResultSymbol(kwEnd)
			l.MarkEnd()
			return true
		case unicode.IsSpace(l.Lookahead()):
			l.Advance(true)
		case isIdentStart(l.Lookahead()):
			for isIdentChar(l.Lookahead()) {
				l.Advance(false)
			}
			l.SetResultSymbol(kwIdentifier)
			l.MarkEnd()
			return true
		default:
			return false
		}
	}
}

func lexKeywordSpellings(l *gotreesitter.Lexer, state uint16) bool {
	if l.Lookahead() != 'i' {
		return false
	}
	l.Advance(false)
	if l.Lookahead() != 'f' {
		return false
	}
	l.Advance(false)
	l.SetResultSymbol(kwIf)
	l.MarkEnd()
	return true
}
