package gotreesitter_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/sitter/gotreesitter"
	"github.com/odvcencio/sitter/grammars"
	"github.com/odvcencio/sitter/internal/logutil"
)

// nodeSnapshot is a comparable copy of a subtree.
type nodeSnapshot struct {
	Type     string
	Field    string
	Start    uint32
	End      uint32
	Missing  bool
	Error    bool
	Extra    bool
	Children []nodeSnapshot
}

func snapshot(n *gotreesitter.Node, lang *gotreesitter.Language, field string) nodeSnapshot {
	s := nodeSnapshot{
		Type:    n.Type(lang),
		Field:   field,
		Start:   n.StartByte(),
		End:     n.EndByte(),
		Missing: n.IsMissing(),
		Error:   n.IsError(),
		Extra:   n.IsExtra(),
	}
	for i, c := range n.Children() {
		s.Children = append(s.Children, snapshot(c, lang, lang.FieldName(n.FieldIDForChild(i))))
	}
	return s
}

func treeSnapshot(tree *gotreesitter.Tree) nodeSnapshot {
	return snapshot(tree.RootNode(), tree.Language(), "")
}

// assertLossless checks that the leaves, padding included, tile the input
// without gaps or overlaps and that only trivia is left uncovered at the end.
func assertLossless(t *testing.T, tree *gotreesitter.Tree) {
	t.Helper()
	src := tree.Source()
	var covered strings.Builder
	prevEnd := uint32(0)
	for _, leaf := range tree.RootNode().Leaves() {
		start, end := leaf.FullStartByte(), leaf.EndByte()
		if start == end {
			continue
		}
		if start != prevEnd {
			t.Fatalf("leaf %q at [%d,%d) does not continue from %d in %q",
				leaf.Text(src), start, end, prevEnd, src)
		}
		covered.Write(src[start:end])
		prevEnd = end
	}
	if !bytes.Equal([]byte(covered.String()), src[:prevEnd]) {
		t.Fatalf("leaves cover %q, want %q", covered.String(), src[:prevEnd])
	}
	if rest := strings.TrimSpace(string(src[prevEnd:])); rest != "" {
		t.Fatalf("input %q left uncovered in %q", rest, src)
	}
}

type grammarCase struct {
	name  string
	lang  func() *gotreesitter.Language
	input string
}

var recoveryCases = []grammarCase{
	{"arith/clean", grammars.ArithmeticLanguage, "1+2*3"},
	{"arith/unclosed", grammars.ArithmeticLanguage, "(1+2"},
	{"arith/unopened", grammars.ArithmeticLanguage, "1+2)"},
	{"arith/unknown", grammars.ArithmeticLanguage, "1 $ 2"},
	{"arith/operators", grammars.ArithmeticLanguage, "+*+"},
	{"arith/empty", grammars.ArithmeticLanguage, ""},
	{"arith/whitespace", grammars.ArithmeticLanguage, "  \n "},
	{"arith/comment-only", grammars.ArithmeticLanguage, "# nothing\n"},
	{"arith/adjacent", grammars.ArithmeticLanguage, "1 2 3"},
	{"arith/deep", grammars.ArithmeticLanguage, strings.Repeat("(", 40) + "1"},
	{"keywords/prefix", grammars.KeywordsLanguage, "iffy"},
	{"keywords/twice", grammars.KeywordsLanguage, "if if if"},
	{"keywords/bare", grammars.KeywordsLanguage, "if"},
	{"keywords/symbols", grammars.KeywordsLanguage, "if ?? x"},
	{"heredoc/pair", grammars.HeredocLanguage, "<<EOF\nhello\nEOF\n\n<<END\nx\nEND"},
	{"heredoc/unterminated", grammars.HeredocLanguage, "<<EOF\nnever closed\n"},
	{"heredoc/garbage", grammars.HeredocLanguage, "plain words"},
}

func TestParseIsTotalAndLossless(t *testing.T) {
	for _, tc := range recoveryCases {
		t.Run(tc.name, func(t *testing.T) {
			lang := tc.lang()
			tree := gotreesitter.NewParser(lang).Parse([]byte(tc.input))
			if tree == nil || tree.RootNode() == nil {
				t.Fatal("parse returned no tree")
			}
			root := tree.RootNode()
			if int(root.EndByte()) > len(tc.input) {
				t.Fatalf("root ends at %d past input length %d", root.EndByte(), len(tc.input))
			}
			assertLossless(t, tree)
		})
	}
}

func TestParseDeepUnbalancedInput(t *testing.T) {
	parser := gotreesitter.NewParser(grammars.ArithmeticLanguage())
	for name, src := range map[string][]byte{
		"open-parens":   []byte(strings.Repeat("(", 20000) + "1"),
		"dangling-plus": makeUnbalancedSource(5000),
	} {
		t.Run(name, func(t *testing.T) {
			tree := parser.Parse(src)
			defer tree.Release()
			root := tree.RootNode()
			if !root.HasError() {
				t.Fatal("expected an error tree")
			}
			if root.EndByte() != uint32(len(src)) {
				t.Fatalf("root ends at %d, want %d", root.EndByte(), len(src))
			}
			assertLossless(t, tree)
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	for _, tc := range recoveryCases {
		lang := tc.lang()
		first := treeSnapshot(gotreesitter.NewParser(lang).Parse([]byte(tc.input)))
		parser := gotreesitter.NewParser(lang)
		for i := 0; i < 3; i++ {
			again := treeSnapshot(parser.Parse([]byte(tc.input)))
			if diff := cmp.Diff(first, again); diff != "" {
				t.Fatalf("%s: parse %d differs (-first +again):\n%s", tc.name, i, diff)
			}
		}
	}
}

func TestConcurrentParsersShareLanguage(t *testing.T) {
	lang := grammars.ArithmeticLanguage()
	src := []byte("(1+2)*3 + 4*5 # tail")
	want := treeSnapshot(gotreesitter.NewParser(lang).Parse(src))

	var g errgroup.Group
	results := make([]nodeSnapshot, 8)
	for i := range results {
		g.Go(func() error {
			results[i] = treeSnapshot(gotreesitter.NewParser(lang).Parse(src))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, got := range results {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("parser %d differs:\n%s", i, diff)
		}
	}
}

func TestParseContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tree, err := gotreesitter.NewParser(grammars.ArithmeticLanguage()).ParseContext(ctx, []byte("1+2"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if tree != nil {
		t.Fatal("canceled parse returned a tree")
	}
}

func TestParseStackDepthLimit(t *testing.T) {
	lang := grammars.ArithmeticLanguage()
	src := []byte("((((1))))")

	_, err := gotreesitter.NewParser(lang, gotreesitter.WithMaxStackDepth(3)).ParseContext(context.Background(), src)
	if !errors.Is(err, gotreesitter.ErrStackOverflow) {
		t.Fatalf("err = %v, want ErrStackOverflow", err)
	}

	var logs bytes.Buffer
	parser := gotreesitter.NewParser(lang,
		gotreesitter.WithMaxStackDepth(3),
		gotreesitter.WithLogger(logutil.NewLogger(&logs, slog.LevelInfo)))
	tree := parser.Parse(src)
	root := tree.RootNode()
	if !root.IsError() || root.StartByte() != 0 || root.EndByte() != uint32(len(src)) {
		t.Fatalf("aborted parse should cover the input with ERROR, got %s [%d,%d)",
			root.Type(lang), root.StartByte(), root.EndByte())
	}
	if !strings.Contains(logs.String(), `msg="parse aborted"`) {
		t.Errorf("abort not logged: %s", logs.String())
	}

	// The default limit is far above this input.
	if gotreesitter.NewParser(lang).Parse(src).RootNode().HasError() {
		t.Error("default depth limit rejected a shallow input")
	}
}

func TestParseTraceLogging(t *testing.T) {
	lang := grammars.ArithmeticLanguage()

	var trace bytes.Buffer
	gotreesitter.NewParser(lang, gotreesitter.WithLogger(logutil.NewLogger(&trace, logutil.LevelTrace))).Parse([]byte("(1+2"))
	out := trace.String()
	for _, want := range []string{"level=TRACE", "msg=lex", "msg=shift", "msg=reduce", "msg=insert_missing", "msg=accept"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q", want)
		}
	}

	var quiet bytes.Buffer
	gotreesitter.NewParser(lang, gotreesitter.WithLogger(logutil.NewLogger(&quiet, slog.LevelInfo))).Parse([]byte("(1+2"))
	if quiet.Len() != 0 {
		t.Errorf("info logger recorded parser steps: %s", quiet.String())
	}
}

func TestParseIncludedRanges(t *testing.T) {
	lang := grammars.ArithmeticLanguage()
	src := []byte("xx1+2yy")
	parser := gotreesitter.NewParser(lang, gotreesitter.WithIncludedRanges([]gotreesitter.Range{{
		StartByte:  2,
		EndByte:    5,
		StartPoint: gotreesitter.Point{Column: 2},
		EndPoint:   gotreesitter.Point{Column: 5},
	}}))
	tree := parser.Parse(src)
	root := tree.RootNode()
	if root.HasError() {
		t.Fatalf("unexpected error: %s", tree)
	}
	if root.StartByte() != 2 || root.EndByte() != 5 {
		t.Fatalf("root span = [%d,%d), want [2,5)", root.StartByte(), root.EndByte())
	}
	want := gotreesitter.NewParser(lang).Parse([]byte("1+2")).String()
	if got := tree.String(); got != want {
		t.Fatalf("sexpr = %s, want %s", got, want)
	}
	if len(parser.IncludedRanges()) != 1 {
		t.Errorf("IncludedRanges = %v", parser.IncludedRanges())
	}
}

func TestWithIncludedRangesWarnsOnInvalidRanges(t *testing.T) {
	var logs bytes.Buffer
	parser := gotreesitter.NewParser(grammars.ArithmeticLanguage(),
		gotreesitter.WithIncludedRanges([]gotreesitter.Range{{StartByte: 5, EndByte: 2}}),
		gotreesitter.WithLogger(logutil.NewLogger(&logs, slog.LevelInfo)))
	if len(parser.IncludedRanges()) != 0 {
		t.Fatalf("invalid ranges stored: %v", parser.IncludedRanges())
	}
	if !strings.Contains(logs.String(), `msg="included ranges ignored"`) {
		t.Fatalf("invalid ranges not logged: %s", logs.String())
	}
	if got := parser.Parse([]byte("1+2")); got.RootNode().HasError() {
		t.Fatalf("parser with ignored ranges failed: %s", got)
	}
}

func TestSetIncludedRangesRejectsOverlap(t *testing.T) {
	parser := gotreesitter.NewParser(grammars.ArithmeticLanguage())
	err := parser.SetIncludedRanges([]gotreesitter.Range{
		{StartByte: 0, EndByte: 4},
		{StartByte: 3, EndByte: 6},
	})
	if !errors.Is(err, gotreesitter.ErrInvalidRanges) {
		t.Fatalf("err = %v, want ErrInvalidRanges", err)
	}
	if err := parser.SetIncludedRanges([]gotreesitter.Range{{StartByte: 5, EndByte: 2}}); !errors.Is(err, gotreesitter.ErrInvalidRanges) {
		t.Fatalf("inverted range err = %v", err)
	}
	if len(parser.IncludedRanges()) != 0 {
		t.Error("rejected ranges must not be stored")
	}
	if parser.Language() != grammars.ArithmeticLanguage() {
		t.Error("Language() mismatch")
	}
}

func TestParseRecoveryShapes(t *testing.T) {
	lang := grammars.ArithmeticLanguage()
	cases := []struct {
		input string
		want  string
	}{
		{"1+2*3", "(expression left: (expression (number)) right: (expression left: (expression (number)) right: (expression (number))))"},
		{"(1+2", `(expression (expression left: (expression (number)) right: (expression (number))) (MISSING ")"))`},
		{"", "(expression (MISSING number))"},
		{"1 2 3", "(expression (ERROR (number) (number)) (number))"},
	}
	for _, tc := range cases {
		tree := gotreesitter.NewParser(lang).Parse([]byte(tc.input))
		if got := tree.String(); got != tc.want {
			t.Errorf("%q:\n got %s\nwant %s", tc.input, got, tc.want)
		}
	}
}
