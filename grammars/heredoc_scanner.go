package grammars

import (
	"unicode"

	"github.com/fxamacker/cbor/v2"
	"github.com/odvcencio/sitter/gotreesitter"
	"github.com/odvcencio/sitter/strbuf"
)

// maxDelimiterLen keeps serialized state far below the snapshot limit.
const maxDelimiterLen = 256

// heredocScanner recognizes "<<TAG" openers and the body that follows,
// up to and including a line consisting of TAG alone.
type heredocScanner struct{}

// heredocState is the per-parse payload: the delimiter of the heredoc
// whose body is expected next, empty otherwise.
type heredocState struct {
	delimiter strbuf.String
}

type heredocSnapshot struct {
	Delimiter string `cbor:"1,keyasint"`
}

func (heredocScanner) Create() any { return &heredocState{} }

func (heredocScanner) Destroy(payload any) {
	payload.(*heredocState).delimiter.Delete()
}

func (heredocScanner) Serialize(payload any, buf []byte) int {
	s := payload.(*heredocState)
	if s.delimiter.Len() == 0 {
		return 0
	}
	data, err := cbor.Marshal(heredocSnapshot{Delimiter: s.delimiter.String()})
	if err != nil || len(data) > len(buf) {
		return 0
	}
	return copy(buf, data)
}

// Deserialize restores a snapshot. Anything that does not decode to a
// valid delimiter leaves the scanner in its initial state.
func (heredocScanner) Deserialize(payload any, buf []byte) {
	s := payload.(*heredocState)
	s.delimiter.Delete()
	if len(buf) == 0 {
		return
	}
	var snap heredocSnapshot
	if err := cbor.Unmarshal(buf, &snap); err != nil || !validDelimiter(snap.Delimiter) {
		return
	}
	for _, r := range snap.Delimiter {
		s.delimiter.Push(r)
	}
}

func (heredocScanner) Scan(payload any, l *gotreesitter.Lexer, valid []bool) bool {
	s := payload.(*heredocState)
	if isValid(valid, hdExternalBody) && s.delimiter.Len() > 0 {
		return s.scanBody(l)
	}
	if isValid(valid, hdExternalStart) {
		return s.scanStart(l)
	}
	return false
}

func isValid(valid []bool, idx int) bool {
	return idx < len(valid) && valid[idx]
}

func validDelimiter(d string) bool {
	if d == "" || len(d) > maxDelimiterLen {
		return false
	}
	for _, r := range d {
		if !isIdentChar(r) {
			return false
		}
	}
	return true
}

func (s *heredocState) scanStart(l *gotreesitter.Lexer) bool {
	for unicode.IsSpace(l.Lookahead()) {
		l.Advance(true)
	}
	for range 2 {
		if l.Lookahead() != '<' {
			return false
		}
		l.Advance(false)
	}
	s.delimiter.Delete()
	for isIdentChar(l.Lookahead()) && s.delimiter.Len() < maxDelimiterLen {
		s.delimiter.Push(l.Lookahead())
		l.Advance(false)
	}
	if s.delimiter.Len() == 0 {
		return false
	}
	l.MarkEnd()
	l.SetResultSymbol(gotreesitter.Symbol(hdExternalStart))
	return true
}

func (s *heredocState) scanBody(l *gotreesitter.Lexer) bool {
	skipLine(l)
	for !l.EOF() {
		l.Advance(false) // newline
		if s.matchDelimiter(l) && (l.EOF() || l.Lookahead() == '\n') {
			l.MarkEnd()
			l.SetResultSymbol(gotreesitter.Symbol(hdExternalBody))
			s.delimiter.Delete()
			return true
		}
		skipLine(l)
	}
	return false
}

func (s *heredocState) matchDelimiter(l *gotreesitter.Lexer) bool {
	for i := 0; ; {
		r, next := s.delimiter.CharAt(i)
		if r < 0 {
			return true
		}
		if l.EOF() || l.Lookahead() != r {
			return false
		}
		l.Advance(false)
		i = next
	}
}

func skipLine(l *gotreesitter.Lexer) {
	for !l.EOF() && l.Lookahead() != '\n' {
		l.Advance(false)
	}
}
