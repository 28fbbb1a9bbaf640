package gotreesitter

// scannerSession owns one external scanner payload for the duration of a
// parse. The payload is destroyed exactly once, on every exit path.
type scannerSession struct {
	scanner   ExternalScanner
	payload   any
	buf       [SerializationBufferSize]byte
	state     []byte // snapshot after the last accepted external token
	destroyed bool
}

func newScannerSession(lang *Language) *scannerSession {
	if lang.ExternalScanner == nil {
		return nil
	}
	return &scannerSession{
		scanner: lang.ExternalScanner,
		payload: lang.ExternalScanner.Create(),
	}
}

// restore resets the payload to snapshot. Every scan starts from the state
// left by the last accepted external token, so a failed scan has no effect.
func (s *scannerSession) restore(snapshot []byte) {
	s.state = snapshot
}

// scan offers the scanner the current position.
func (s *scannerSession) scan(l *Lexer, valid []bool) bool {
	s.scanner.Deserialize(s.payload, s.state)
	return s.scanner.Scan(s.payload, l, valid)
}

// commit snapshots the payload after an accepted token and returns the
// snapshot. Snapshots are immutable once returned.
func (s *scannerSession) commit() []byte {
	n := s.scanner.Serialize(s.payload, s.buf[:])
	if n <= 0 {
		s.state = nil
		return nil
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	snapshot := make([]byte, n)
	copy(snapshot, s.buf[:n])
	s.state = snapshot
	return snapshot
}

func (s *scannerSession) destroy() {
	if s == nil || s.destroyed {
		return
	}
	s.destroyed = true
	s.scanner.Destroy(s.payload)
	s.payload = nil
}

// RunExternalScanner invokes the language's external scanner once with a
// fresh payload restored from state. It is intended for testing scanners
// outside a parse.
func RunExternalScanner(lang *Language, state []byte, source []byte, validSymbols []bool) (Token, []byte, bool) {
	s := newScannerSession(lang)
	if s == nil {
		return Token{}, nil, false
	}
	defer s.destroy()
	s.restore(state)

	l := newLexer(source, nil)
	l.startToken(0, Point{})
	if !s.scan(l, validSymbols) {
		return Token{}, state, false
	}
	sym := l.ResultSymbol()
	if int(sym) < len(lang.ExternalSymbolMap) {
		sym = lang.ExternalSymbolMap[sym]
	}
	tok := l.token(sym)
	return tok, s.commit(), true
}
