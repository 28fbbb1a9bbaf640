package gotreesitter

import "unicode/utf8"

// Point is a row/column position in source text. Column is a byte offset
// from the start of the row.
type Point struct {
	Row    uint32
	Column uint32
}

// Range is a span of source text.
type Range struct {
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// Token is a lexed token with position info.
type Token struct {
	Symbol     Symbol
	Text       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// TokenLexer recognizes one token at the lexer's current position, writing
// the symbol with SetResultSymbol and the end with MarkEnd. It reports
// whether a token was accepted.
type TokenLexer interface {
	Lex(l *Lexer, state uint16) bool
}

// LexFunc adapts a hand-written or generated lex function.
type LexFunc func(l *Lexer, state uint16) bool

// Lex calls f.
func (f LexFunc) Lex(l *Lexer, state uint16) bool { return f(l, state) }

// Lexer is the cursor shared by the built-in lexer and external scanners.
// It is owned by a single parse.
type Lexer struct {
	source []byte
	ranges []Range
	rng    int

	pos       uint32
	point     Point
	lineStart uint32

	lookahead     rune
	lookaheadSize uint32
	peekEnd       uint32

	tokenStart      uint32
	tokenStartPoint Point
	tokenEnd        uint32
	tokenEndPoint   Point

	resultSymbol Symbol
}

func newLexer(source []byte, ranges []Range) *Lexer {
	if len(ranges) == 0 {
		ranges = []Range{{EndByte: uint32(len(source)), EndPoint: pointAtOffset(source, len(source))}}
	}
	l := &Lexer{source: source, ranges: ranges}
	l.seek(ranges[0].StartByte, ranges[0].StartPoint)
	return l
}

// NewLexer returns a cursor at the start of source, for driving lex
// functions and external scanners outside a parse.
func NewLexer(source []byte) *Lexer {
	l := newLexer(source, nil)
	l.startToken(l.pos, l.point)
	return l
}

// Token returns the token between the current token start and the last
// marked end, labeled with the result symbol.
func (l *Lexer) Token() Token { return l.token(l.resultSymbol) }

// Lookahead returns the current rune, or 0 at end of input.
func (l *Lexer) Lookahead() rune { return l.lookahead }

// Advance consumes one rune. When skip is true the consumed text is treated
// as trivia: the token start moves past it.
func (l *Lexer) Advance(skip bool) {
	if l.EOF() {
		return
	}
	if l.lookahead == '\n' {
		l.point.Row++
		l.point.Column = 0
		l.pos += l.lookaheadSize
		l.lineStart = l.pos
	} else {
		l.pos += l.lookaheadSize
		l.point.Column += l.lookaheadSize
	}
	l.settle()
	if skip {
		l.tokenStart = l.pos
		l.tokenStartPoint = l.point
	}
}

// MarkEnd marks the current position as the end of the token. Only the last
// call before the lex function returns counts.
func (l *Lexer) MarkEnd() {
	l.tokenEnd = l.pos
	l.tokenEndPoint = l.point
}

// SetResultSymbol sets the symbol of the recognized token.
func (l *Lexer) SetResultSymbol(sym Symbol) { l.resultSymbol = sym }

// ResultSymbol returns the symbol last set with SetResultSymbol.
func (l *Lexer) ResultSymbol() Symbol { return l.resultSymbol }

// GetColumn returns the current column in codepoints.
func (l *Lexer) GetColumn() uint32 {
	if l.lineStart > l.pos || int(l.pos) > len(l.source) {
		return l.point.Column
	}
	return uint32(utf8.RuneCount(l.source[l.lineStart:l.pos]))
}

// EOF reports whether the cursor is past the last included byte.
func (l *Lexer) EOF() bool {
	return l.rng >= len(l.ranges)-1 && l.pos >= l.rangeEnd()
}

func (l *Lexer) rangeEnd() uint32 {
	end := l.ranges[l.rng].EndByte
	if int(end) > len(l.source) {
		end = uint32(len(l.source))
	}
	return end
}

// IsAtIncludedRangeStart reports whether the cursor sits at the start of
// an included range.
func (l *Lexer) IsAtIncludedRangeStart() bool {
	return l.rng < len(l.ranges) && l.pos == l.ranges[l.rng].StartByte
}

// Position returns the current byte offset.
func (l *Lexer) Position() uint32 { return l.pos }

// seek moves the cursor to pos and recomputes the included range and
// lookahead.
func (l *Lexer) seek(pos uint32, pt Point) {
	l.rng = 0
	for l.rng < len(l.ranges)-1 && pos >= l.ranges[l.rng].EndByte {
		l.rng++
	}
	if pos < l.ranges[l.rng].StartByte {
		pos = l.ranges[l.rng].StartByte
		pt = l.ranges[l.rng].StartPoint
	}
	l.pos = pos
	l.point = pt
	if pt.Column <= pos {
		l.lineStart = pos - pt.Column
	} else {
		l.lineStart = 0
	}
	l.settle()
}

// settle jumps across gaps between included ranges and decodes the
// lookahead rune.
func (l *Lexer) settle() {
	for l.rng < len(l.ranges)-1 && l.pos >= l.ranges[l.rng].EndByte {
		l.rng++
		r := l.ranges[l.rng]
		l.pos = r.StartByte
		l.point = r.StartPoint
		if r.StartPoint.Column <= r.StartByte {
			l.lineStart = r.StartByte - r.StartPoint.Column
		}
	}

	end := l.rangeEnd()
	if l.pos >= end {
		l.lookahead = 0
		l.lookaheadSize = 0
		if l.pos+1 > l.peekEnd {
			l.peekEnd = l.pos + 1
		}
		return
	}
	r, size := utf8.DecodeRune(l.source[l.pos:end])
	l.lookahead = r
	l.lookaheadSize = uint32(size)
	if l.pos+uint32(size) > l.peekEnd {
		l.peekEnd = l.pos + uint32(size)
	}
}

// startToken prepares the cursor for a lex attempt at pos.
func (l *Lexer) startToken(pos uint32, pt Point) {
	if pos != l.pos {
		l.seek(pos, pt)
	}
	l.tokenStart = l.pos
	l.tokenStartPoint = l.point
	l.tokenEnd = l.pos
	l.tokenEndPoint = l.point
	l.resultSymbol = 0
	l.peekEnd = 0
	l.settle()
}

func pointAtOffset(src []byte, offset int) Point {
	var pt Point
	if offset > len(src) {
		offset = len(src)
	}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			pt.Row++
			pt.Column = 0
		} else {
			pt.Column++
		}
	}
	return pt
}

// token builds the token between the marked start and end.
func (l *Lexer) token(sym Symbol) Token {
	start, end := l.tokenStart, l.tokenEnd
	startPt, endPt := l.tokenStartPoint, l.tokenEndPoint
	if end < start {
		end, endPt = start, startPt
	}
	text := ""
	if int(end) <= len(l.source) {
		text = string(l.source[start:end])
	}
	return Token{
		Symbol:     sym,
		Text:       text,
		StartByte:  start,
		EndByte:    end,
		StartPoint: startPt,
		EndPoint:   endPt,
	}
}
