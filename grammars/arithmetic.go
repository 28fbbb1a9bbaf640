package grammars

import (
	"sync"

	"github.com/odvcencio/sitter/gotreesitter"
)

// Symbols of the arithmetic grammar:
//
//	expression := number
//	            | expression "+" expression
//	            | expression "*" expression
//	            | "(" expression ")"
//
// "*" binds tighter than "+" and both associate left. Comments ("#" to end
// of line) are extras.
const (
	arithEnd gotreesitter.Symbol = iota
	arithNumber
	arithPlus
	arithStar
	arithLParen
	arithRParen
	arithComment
	arithExpression
	arithSymbolCount
)

const (
	arithFieldLeft gotreesitter.FieldID = iota + 1
	arithFieldOperator
	arithFieldRight
)

const (
	arithProdNumber uint16 = iota
	arithProdBinary
	arithProdParens
)

// Action indexes.
const (
	_ uint16 = iota
	arithShiftNumber
	arithShiftLParen
	arithShiftPlus
	arithShiftStar
	arithAccept
	arithReduceNumber
	arithReduceSum
	arithReduceProduct
	arithReduceParens
	arithShiftRParen
	arithShiftComment
)

// ArithmeticLanguage returns the arithmetic expression grammar.
var ArithmeticLanguage = sync.OnceValue(buildArithmeticLanguage)

func buildArithmeticLanguage() *gotreesitter.Language {
	const stateCount = 11
	const largeStateCount = 3

	small, smallMap := smallParseTable([]map[gotreesitter.Symbol]uint16{
		// 3: "(" . expression ")"
		{arithNumber: arithShiftNumber, arithLParen: arithShiftLParen, arithComment: arithShiftComment, arithExpression: 7},
		// 4: number .
		{arithEnd: arithReduceNumber, arithPlus: arithReduceNumber, arithStar: arithReduceNumber, arithRParen: arithReduceNumber, arithComment: arithShiftComment},
		// 5: expression "+" . expression
		{arithNumber: arithShiftNumber, arithLParen: arithShiftLParen, arithComment: arithShiftComment, arithExpression: 8},
		// 6: expression "*" . expression
		{arithNumber: arithShiftNumber, arithLParen: arithShiftLParen, arithComment: arithShiftComment, arithExpression: 9},
		// 7: "(" expression . ")"
		{arithRParen: arithShiftRParen, arithPlus: arithShiftPlus, arithStar: arithShiftStar, arithComment: arithShiftComment},
		// 8: expression "+" expression .
		{arithEnd: arithReduceSum, arithPlus: arithReduceSum, arithRParen: arithReduceSum, arithStar: arithShiftStar, arithComment: arithShiftComment},
		// 9: expression "*" expression .
		{arithEnd: arithReduceProduct, arithPlus: arithReduceProduct, arithStar: arithReduceProduct, arithRParen: arithReduceProduct, arithComment: arithShiftComment},
		// 10: "(" expression ")" .
		{arithEnd: arithReduceParens, arithPlus: arithReduceParens, arithStar: arithReduceParens, arithRParen: arithReduceParens, arithComment: arithShiftComment},
	})

	return &gotreesitter.Language{
		Name:              "arithmetic",
		Version:           gotreesitter.LanguageVersion,
		SymbolCount:       uint32(arithSymbolCount),
		TokenCount:        uint32(arithExpression),
		StateCount:        stateCount,
		LargeStateCount:   largeStateCount,
		ProductionIDCount: 3,
		FieldCount:        3,
		SymbolNames:       []string{"end", "number", "+", "*", "(", ")", "comment", "expression"},
		SymbolMetadata: []gotreesitter.SymbolMetadata{
			{Visible: false, Named: true},
			{Visible: true, Named: true},
			{Visible: true},
			{Visible: true},
			{Visible: true},
			{Visible: true},
			{Visible: true, Named: true},
			{Visible: true, Named: true},
		},
		FieldNames:      []string{"", "left", "operator", "right"},
		PublicSymbolMap: identitySymbolMap(int(arithSymbolCount)),
		ParseTable: [][]uint16{
			// 0: error recovery state
			make([]uint16, arithSymbolCount),
			// 1: start
			{0, arithShiftNumber, 0, 0, arithShiftLParen, 0, arithShiftComment, 2},
			// 2: start expression .
			{arithAccept, 0, arithShiftPlus, arithShiftStar, 0, 0, arithShiftComment, 0},
		},
		SmallParseTable:    small,
		SmallParseTableMap: smallMap,
		ParseActions: []gotreesitter.ParseActionEntry{
			{},
			shift(4),
			shift(3),
			shift(5),
			shift(6),
			accept(),
			reduce(arithExpression, 1, 0, arithProdNumber),
			reduce(arithExpression, 3, 1, arithProdBinary),
			reduce(arithExpression, 3, 2, arithProdBinary),
			reduce(arithExpression, 3, 0, arithProdParens),
			shift(10),
			shiftExtra(),
		},
		LexModes: uniformLexModes(stateCount, gotreesitter.LexMode{}),
		Lexer:    arithmeticLexTable,
		FieldMapSlices: []gotreesitter.FieldMapSlice{
			arithProdNumber: {},
			arithProdBinary: {Index: 0, Length: 3},
			arithProdParens: {},
		},
		FieldMapEntries: []gotreesitter.FieldMapEntry{
			{FieldID: arithFieldLeft, ChildIndex: 0},
			{FieldID: arithFieldOperator, ChildIndex: 1},
			{FieldID: arithFieldRight, ChildIndex: 2},
		},
	}
}

var arithmeticLexTable = gotreesitter.LexTable{
	0: {Default: -1, EOF: 7, Transitions: append(whitespaceSkips(0),
		gotreesitter.LexTransition{Lo: '#', Hi: '#', Next: 6},
		gotreesitter.LexTransition{Lo: '(', Hi: '(', Next: 4},
		gotreesitter.LexTransition{Lo: ')', Hi: ')', Next: 5},
		gotreesitter.LexTransition{Lo: '*', Hi: '*', Next: 3},
		gotreesitter.LexTransition{Lo: '+', Hi: '+', Next: 2},
		gotreesitter.LexTransition{Lo: '0', Hi: '9', Next: 1},
	)},
	1: {Accept: arithNumber, HasAccept: true, Default: -1, EOF: -1, Transitions: []gotreesitter.LexTransition{
		{Lo: '0', Hi: '9', Next: 1},
	}},
	2: {Accept: arithPlus, HasAccept: true, Default: -1, EOF: -1},
	3: {Accept: arithStar, HasAccept: true, Default: -1, EOF: -1},
	4: {Accept: arithLParen, HasAccept: true, Default: -1, EOF: -1},
	5: {Accept: arithRParen, HasAccept: true, Default: -1, EOF: -1},
	6: {Accept: arithComment, HasAccept: true, Default: 6, EOF: -1, Transitions: []gotreesitter.LexTransition{
		{Lo: '\n', Hi: '\n', Next: -1},
	}},
	7: {Accept: arithEnd, HasAccept: true, Default: -1, EOF: -1},
}
