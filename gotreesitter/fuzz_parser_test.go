package gotreesitter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/sitter/gotreesitter"
	"github.com/odvcencio/sitter/grammars"
)

func fuzzParse(f *testing.F, lang *gotreesitter.Language, seeds ...string) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	parser := gotreesitter.NewParser(lang)

	f.Fuzz(func(t *testing.T, src []byte) {
		if len(src) > 1<<14 {
			t.Skip()
		}
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic while parsing fuzz input (%d bytes): %v", len(src), r)
			}
		}()

		tree := parser.Parse(src)
		if tree == nil || tree.RootNode() == nil {
			t.Fatal("parse returned nil tree")
		}
		assertLossless(t, tree)
		tree.Release()
	})
}

func FuzzArithmeticParse(f *testing.F) {
	fuzzParse(f, grammars.ArithmeticLanguage(),
		"1+2*3", "(1+2", "1+2)", "((((((((((", "# c\n1 # d", "1 $ 2", "\xff\xfe", "*", "")
}

func FuzzKeywordsParse(f *testing.F) {
	fuzzParse(f, grammars.KeywordsLanguage(), "iffy", "if ready", "if if", "if", "x y z", "if\x00")
}

func FuzzHeredocParse(f *testing.F) {
	fuzzParse(f, grammars.HeredocLanguage(),
		"<<EOF\nhello\nEOF", "<<A\n<<B\nB\nA", "<<EOF\nnever", "<<\n", "<< EOF\n", "EOF\n<<EOF")
}

// spliceSeed is an incremental fuzz seed: src with deleted bytes removed at
// start and inserted put in their place.
type spliceSeed struct {
	src      string
	start    int
	deleted  int
	inserted string
}

// fuzzIncremental parses src, applies a splice edit and checks that the
// incremental reparse equals a fresh parse of the new source.
func fuzzIncremental(f *testing.F, lang *gotreesitter.Language, seeds ...spliceSeed) {
	for _, s := range seeds {
		f.Add([]byte(s.src), uint16(s.start), uint16(s.deleted), []byte(s.inserted))
	}
	parser := gotreesitter.NewParser(lang)
	fresh := gotreesitter.NewParser(lang)

	f.Fuzz(func(t *testing.T, oldSrc []byte, start, deleted uint16, inserted []byte) {
		if len(oldSrc) > 1<<13 || len(inserted) > 1<<10 {
			t.Skip()
		}
		from := int(start) % (len(oldSrc) + 1)
		to := min(from+int(deleted), len(oldSrc))
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic while reparsing %q with [%d,%d) -> %q: %v", oldSrc, from, to, inserted, r)
			}
		}()

		oldTree := parser.Parse(oldSrc)
		newSrc, edit := replaceEdit(oldSrc, from, to, string(inserted))
		oldTree.Edit(edit)
		newTree := parser.ParseIncremental(newSrc, oldTree)
		if newTree == nil || newTree.RootNode() == nil {
			t.Fatal("incremental parse returned nil tree")
		}
		want := fresh.Parse(newSrc)
		if diff := cmp.Diff(treeSnapshot(want), treeSnapshot(newTree)); diff != "" {
			t.Fatalf("reparse of %q after [%d,%d) -> %q differs from fresh parse (-fresh +incremental):\n%s",
				oldSrc, from, to, inserted, diff)
		}
		assertLossless(t, newTree)
		oldTree.Release()
		newTree.Release()
		want.Release()
	})
}

func FuzzArithmeticParseIncremental(f *testing.F) {
	fuzzIncremental(f, grammars.ArithmeticLanguage(),
		spliceSeed{"1+2*3", 5, 0, "+4"},
		spliceSeed{"(1+2", 4, 0, ")"},
		spliceSeed{"1 # c\n+2", 2, 1, "$"},
		spliceSeed{"12785#60$\n", 10, 0, "0"},
		spliceSeed{"(1+2)*3 # x\n", 1, 3, "4"},
	)
}

func FuzzHeredocParseIncremental(f *testing.F) {
	fuzzIncremental(f, grammars.HeredocLanguage(),
		spliceSeed{"<<A\none\nA\n<<B\ntwo\nB\n", 14, 3, "three"},
		spliceSeed{"<<EOF\nhello\nEOF\n", 2, 3, "END"},
		spliceSeed{"<<EOF\nhello\n", 12, 0, "EOF\n"},
		spliceSeed{"<<A\n<<B\nB\nA", 4, 0, "x\n"},
	)
}

func FuzzKeywordsParseIncremental(f *testing.F) {
	fuzzIncremental(f, grammars.KeywordsLanguage(),
		spliceSeed{"if x", 2, 0, "fy"},
		spliceSeed{"iffy x", 2, 2, ""},
		spliceSeed{"if if", 0, 3, ""},
	)
}
