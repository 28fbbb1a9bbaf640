package langfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/sitter/gotreesitter"
	"github.com/odvcencio/sitter/grammars"
)

func encodeLanguage(t *testing.T, lang *gotreesitter.Language) []byte {
	t.Helper()
	f, err := FromLanguage(lang)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	return buf.Bytes()
}

func parseSExpr(lang *gotreesitter.Language, src string) string {
	tree := gotreesitter.NewParser(lang).Parse([]byte(src))
	defer tree.Release()
	return tree.String()
}

func TestRoundTripParsesLikeBuiltIn(t *testing.T) {
	cases := []struct {
		lang   *gotreesitter.Language
		inputs []string
	}{
		{grammars.ArithmeticLanguage(), []string{"1+2*3", "(1+2", "1 # c\n+ 2", ""}},
		{grammars.HeredocLanguage(), []string{"<<EOF\nhello\nEOF", "<<EOF\nnever closed\n"}},
	}
	for _, tc := range cases {
		t.Run(tc.lang.Name, func(t *testing.T) {
			data := encodeLanguage(t, tc.lang)
			f, err := Decode(bytes.NewReader(data))
			require.NoError(t, err)
			loaded, err := f.Build(grammars.ExternalScanners())
			require.NoError(t, err)

			assert.Equal(t, tc.lang.SymbolNames, loaded.SymbolNames)
			assert.Equal(t, tc.lang.FieldNames, loaded.FieldNames)
			for _, in := range tc.inputs {
				assert.Equal(t, parseSExpr(tc.lang, in), parseSExpr(loaded, in), "input %q", in)
			}
		})
	}
}

func TestBuildDoesNotShareTables(t *testing.T) {
	f, err := FromLanguage(grammars.ArithmeticLanguage())
	require.NoError(t, err)
	lang, err := f.Build(nil)
	require.NoError(t, err)

	lang.ParseTable[1][1] = 0
	lang.SmallParseTable[0] = 0
	assert.NotZero(t, grammars.ArithmeticLanguage().ParseTable[1][1])
	assert.NotZero(t, grammars.ArithmeticLanguage().SmallParseTable[0])
}

func TestFromLanguageRejectsLexFunc(t *testing.T) {
	_, err := FromLanguage(grammars.KeywordsLanguage())
	require.ErrorIs(t, err, ErrUnsupportedLexer)
	assert.Contains(t, err.Error(), "LexFunc")
}

func TestBuildRequiresNamedScanner(t *testing.T) {
	f, err := FromLanguage(grammars.HeredocLanguage())
	require.NoError(t, err)
	assert.Equal(t, "heredoc", f.ExternalScanner)

	_, err = f.Build(nil)
	require.ErrorIs(t, err, ErrUnknownScanner)
	_, err = f.Build(Scanners{"other": grammars.HeredocLanguage().ExternalScanner})
	require.ErrorIs(t, err, ErrUnknownScanner)
}

func TestEncodeLexTableEdges(t *testing.T) {
	data := string(encodeLanguage(t, grammars.ArithmeticLanguage()))
	assert.Contains(t, data, "name: arithmetic")
	assert.Contains(t, data, "lex_states:")
	assert.NotContains(t, data, "default: -1", "missing edges are omitted")
	assert.Contains(t, data, "type: shift")
	assert.Contains(t, data, "type: reduce")
}

const tinyDescriptor = `
name: tiny
token_count: 2
state_count: 3
large_state_count: 3
symbols:
  - {name: end, named: true}
  - {name: x, visible: true, named: true}
  - {name: doc, visible: true, named: true}
parse_table:
  - [0, 0, 0]
  - [0, 1, 2]
  - [2, 0, 0]
actions:
  - {}
  - {reusable: true, actions: [{type: shift, state: 2}]}
  - {actions: [{type: accept}]}
lex_modes: [{lex_state: 0}, {lex_state: 0}, {lex_state: 0}]
lex_states:
  - {eof: 2, transitions: [{lo: 32, hi: 32, next: 0, skip: true}, {lo: 120, hi: 120, next: 1}]}
  - {accept: 1}
  - {accept: 0}
`

func TestDecodeHandWrittenDescriptor(t *testing.T) {
	f, err := Decode(strings.NewReader(tinyDescriptor))
	require.NoError(t, err)
	lang, err := f.Build(nil)
	require.NoError(t, err)

	assert.EqualValues(t, 3, lang.SymbolCount)
	assert.Equal(t, []string{""}, lang.FieldNames)

	table, ok := lang.Lexer.(gotreesitter.LexTable)
	require.True(t, ok)
	assert.Equal(t, -1, table[1].Default)
	assert.Equal(t, 2, table[0].EOF)
	assert.True(t, table[2].HasAccept)
	assert.Equal(t, gotreesitter.SymbolEnd, table[2].Accept)

	entry := lang.LookupAction(1, 1)
	require.NotNil(t, entry)
	assert.Equal(t, gotreesitter.ShiftAction{State: 2}, entry.Actions[0])
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("name: x\nunknown_key: 1\n"))
	assert.Error(t, err)

	f, err := Decode(strings.NewReader(strings.Replace(tinyDescriptor, "type: accept", "type: jump", 1)))
	require.NoError(t, err)
	_, err = f.Build(nil)
	require.ErrorIs(t, err, gotreesitter.ErrInvalidLanguage)
	assert.Contains(t, err.Error(), `"jump"`)
}

func TestBuildValidatesTables(t *testing.T) {
	f, err := Decode(strings.NewReader(tinyDescriptor))
	require.NoError(t, err)

	f.LexModes = f.LexModes[:2]
	_, err = f.Build(nil)
	require.ErrorIs(t, err, gotreesitter.ErrInvalidLanguage)

	f, err = Decode(strings.NewReader(tinyDescriptor))
	require.NoError(t, err)
	f.Version = 99
	_, err = f.Build(nil)
	require.ErrorIs(t, err, gotreesitter.ErrInvalidLanguage)

	f.Version = 0
	f.AliasCount = 10
	_, err = f.Build(nil)
	require.ErrorIs(t, err, gotreesitter.ErrInvalidLanguage)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arithmetic.yaml")
	require.NoError(t, os.WriteFile(path, encodeLanguage(t, grammars.ArithmeticLanguage()), 0o644))

	lang, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "arithmetic", lang.Name)
	assert.Equal(t, parseSExpr(grammars.ArithmeticLanguage(), "1+2*3"), parseSExpr(lang, "1+2*3"))

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unterminated"), 0o644))
	_, err = Load(bad, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
