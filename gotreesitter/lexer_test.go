package gotreesitter

import "testing"

// identNumberTable recognizes identifiers [a-z]+ (Symbol 1) and numbers
// [0-9]+ (Symbol 2), skipping spaces and newlines.
func identNumberTable() LexTable {
	return LexTable{
		// 0: start
		{Default: -1, EOF: -1, Transitions: []LexTransition{
			{Lo: '\n', Hi: '\n', Next: 0, Skip: true},
			{Lo: ' ', Hi: ' ', Next: 0, Skip: true},
			{Lo: '0', Hi: '9', Next: 2},
			{Lo: 'a', Hi: 'z', Next: 1},
		}},
		// 1: identifier
		{Accept: 1, HasAccept: true, Default: -1, EOF: -1, Transitions: []LexTransition{
			{Lo: 'a', Hi: 'z', Next: 1},
		}},
		// 2: number
		{Accept: 2, HasAccept: true, Default: -1, EOF: -1, Transitions: []LexTransition{
			{Lo: '0', Hi: '9', Next: 2},
		}},
	}
}

// lexNext runs table from where the previous token ended.
func lexNext(l *Lexer, table TokenLexer) (Token, bool) {
	l.startToken(l.tokenEnd, l.tokenEndPoint)
	if !table.Lex(l, 0) {
		return Token{}, false
	}
	return l.token(l.ResultSymbol()), true
}

func lexAll(l *Lexer, table TokenLexer) []Token {
	var out []Token
	for {
		tok, ok := lexNext(l, table)
		if !ok || tok.EndByte == tok.StartByte {
			return out
		}
		out = append(out, tok)
	}
}

func TestLexTableBasicTokens(t *testing.T) {
	l := newLexer([]byte("hello 42\nworld"), nil)
	toks := lexAll(l, identNumberTable())

	want := []struct {
		sym        Symbol
		text       string
		start, end uint32
		startPt    Point
	}{
		{1, "hello", 0, 5, Point{0, 0}},
		{2, "42", 6, 8, Point{0, 6}},
		{1, "world", 9, 14, Point{1, 0}},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		tok := toks[i]
		if tok.Symbol != w.sym || tok.Text != w.text {
			t.Errorf("token %d = %d %q, want %d %q", i, tok.Symbol, tok.Text, w.sym, w.text)
		}
		if tok.StartByte != w.start || tok.EndByte != w.end {
			t.Errorf("token %d bytes = [%d,%d), want [%d,%d)", i, tok.StartByte, tok.EndByte, w.start, w.end)
		}
		if tok.StartPoint != w.startPt {
			t.Errorf("token %d start point = %v, want %v", i, tok.StartPoint, w.startPt)
		}
	}
	if !l.EOF() {
		t.Error("expected lexer at EOF")
	}
}

func TestLexTableFallsBackToLastAccept(t *testing.T) {
	// "ab" accepts Symbol 1, "abc" accepts Symbol 2.
	table := LexTable{
		{Default: -1, EOF: -1, Transitions: []LexTransition{{Lo: 'a', Hi: 'a', Next: 1}}},
		{Default: -1, EOF: -1, Transitions: []LexTransition{{Lo: 'b', Hi: 'b', Next: 2}}},
		{Accept: 1, HasAccept: true, Default: -1, EOF: -1, Transitions: []LexTransition{{Lo: 'c', Hi: 'c', Next: 3}}},
		{Accept: 2, HasAccept: true, Default: -1, EOF: -1},
	}

	l := newLexer([]byte("abd"), nil)
	tok, ok := lexNext(l, table)
	if !ok || tok.Symbol != 1 || tok.Text != "ab" {
		t.Fatalf("got %v %+v, want Symbol 1 \"ab\"", ok, tok)
	}
	// The lexer looked at "d" to decide.
	if l.peekEnd != 3 {
		t.Errorf("peekEnd = %d, want 3", l.peekEnd)
	}

	l = newLexer([]byte("abc"), nil)
	tok, ok = lexNext(l, table)
	if !ok || tok.Symbol != 2 || tok.Text != "abc" {
		t.Fatalf("got %v %+v, want Symbol 2 \"abc\"", ok, tok)
	}

	l = newLexer([]byte("ax"), nil)
	if _, ok := lexNext(l, table); ok {
		t.Fatal("expected no token for \"ax\"")
	}
}

func TestLexTableEOFEdge(t *testing.T) {
	table := LexTable{
		{Default: -1, EOF: 1, Transitions: []LexTransition{{Lo: ' ', Hi: ' ', Next: 0, Skip: true}}},
		{Accept: SymbolEnd, HasAccept: true, Default: -1, EOF: -1},
	}
	l := newLexer([]byte("   "), nil)
	tok, ok := lexNext(l, table)
	if !ok {
		t.Fatal("expected end token")
	}
	if tok.Symbol != SymbolEnd || tok.StartByte != 3 || tok.EndByte != 3 {
		t.Fatalf("end token = %+v, want zero-width at 3", tok)
	}
}

func TestLexTableDefaultTransition(t *testing.T) {
	// A quoted string: '"' then anything but '"' then '"'.
	table := LexTable{
		{Default: -1, EOF: -1, Transitions: []LexTransition{{Lo: '"', Hi: '"', Next: 1}}},
		{Default: 1, EOF: -1, Transitions: []LexTransition{{Lo: '"', Hi: '"', Next: 2}}},
		{Accept: 3, HasAccept: true, Default: -1, EOF: -1},
	}
	l := newLexer([]byte(`"a b\n"`), nil)
	tok, ok := lexNext(l, table)
	if !ok || tok.Text != `"a b\n"` {
		t.Fatalf("got %v %q", ok, tok.Text)
	}

	l = newLexer([]byte(`"open`), nil)
	if _, ok := lexNext(l, table); ok {
		t.Fatal("unterminated string should not lex")
	}
}

func TestLexFuncAdapter(t *testing.T) {
	digits := LexFunc(func(l *Lexer, _ uint16) bool {
		found := false
		for l.Lookahead() >= '0' && l.Lookahead() <= '9' {
			l.Advance(false)
			found = true
		}
		if found {
			l.SetResultSymbol(7)
			l.MarkEnd()
		}
		return found
	})
	l := newLexer([]byte("123x"), nil)
	tok, ok := lexNext(l, digits)
	if !ok || tok.Symbol != 7 || tok.Text != "123" {
		t.Fatalf("got %v %+v", ok, tok)
	}
}

func TestLexerColumnsAndRows(t *testing.T) {
	l := NewLexer([]byte("αβ\nγx"))
	l.Advance(false)
	l.Advance(false)
	if l.Position() != 4 {
		t.Fatalf("position = %d, want 4", l.Position())
	}
	if got := l.GetColumn(); got != 2 {
		t.Errorf("GetColumn = %d, want 2", got)
	}
	if l.point.Column != 4 {
		t.Errorf("byte column = %d, want 4", l.point.Column)
	}

	l.Advance(false) // newline
	if l.point != (Point{Row: 1, Column: 0}) {
		t.Errorf("point after newline = %v", l.point)
	}
	l.Advance(false)
	if got := l.GetColumn(); got != 1 {
		t.Errorf("GetColumn = %d, want 1", got)
	}
	if l.Lookahead() != 'x' {
		t.Errorf("lookahead = %q, want 'x'", l.Lookahead())
	}
}

func TestLexerInvalidUTF8(t *testing.T) {
	l := NewLexer([]byte{0xff, 'a'})
	if l.Lookahead() != '\uFFFD' {
		t.Fatalf("lookahead = %U, want U+FFFD", l.Lookahead())
	}
	l.Advance(false)
	if l.Position() != 1 || l.Lookahead() != 'a' {
		t.Fatalf("after invalid byte: pos=%d lookahead=%q", l.Position(), l.Lookahead())
	}
}

func TestLexerSkipMovesTokenStart(t *testing.T) {
	l := NewLexer([]byte("  ab"))
	l.Advance(true)
	l.Advance(true)
	l.Advance(false)
	l.Advance(false)
	l.MarkEnd()
	l.SetResultSymbol(1)
	tok := l.Token()
	if tok.StartByte != 2 || tok.EndByte != 4 || tok.Text != "ab" {
		t.Fatalf("token = %+v, want \"ab\" at [2,4)", tok)
	}
}

func TestLexerAdvanceAtEOFIsNoop(t *testing.T) {
	l := NewLexer([]byte("a"))
	l.Advance(false)
	l.Advance(false)
	if !l.EOF() || l.Position() != 1 || l.Lookahead() != 0 {
		t.Fatalf("eof=%v pos=%d lookahead=%q", l.EOF(), l.Position(), l.Lookahead())
	}
}

func TestLexerIncludedRanges(t *testing.T) {
	src := []byte("aa bb cc")
	ranges := []Range{
		{StartByte: 0, EndByte: 3, EndPoint: Point{0, 3}},
		{StartByte: 6, EndByte: 8, StartPoint: Point{0, 6}, EndPoint: Point{0, 8}},
	}
	l := newLexer(src, ranges)
	if !l.IsAtIncludedRangeStart() {
		t.Error("expected cursor at first range start")
	}
	toks := lexAll(l, identNumberTable())
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(toks), toks)
	}
	if toks[0].Text != "aa" || toks[1].Text != "cc" {
		t.Fatalf("tokens = %q %q, want \"aa\" \"cc\"", toks[0].Text, toks[1].Text)
	}
	if toks[1].StartPoint != (Point{0, 6}) {
		t.Errorf("second token start point = %v", toks[1].StartPoint)
	}
}

func TestLexerRangeStartingMidSource(t *testing.T) {
	src := []byte("xx42")
	l := newLexer(src, []Range{{StartByte: 2, EndByte: 4, StartPoint: Point{0, 2}, EndPoint: Point{0, 4}}})
	if l.Position() != 2 {
		t.Fatalf("position = %d, want 2", l.Position())
	}
	toks := lexAll(l, identNumberTable())
	if len(toks) != 1 || toks[0].Text != "42" {
		t.Fatalf("tokens = %+v", toks)
	}
}
