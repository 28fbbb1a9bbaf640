package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/odvcencio/sitter/gotreesitter"
	"github.com/odvcencio/sitter/grammars"
	"github.com/odvcencio/sitter/internal/envconfig"
	"github.com/odvcencio/sitter/internal/logutil"
	"github.com/odvcencio/sitter/langfile"
)

type parseOptions struct {
	lang          string
	grammar       string
	format        string
	manifest      string
	parallel      int
	maxStackDepth int
}

type parseJob struct {
	path string
	lang *gotreesitter.Language
}

func newParseCmd() *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Parse files and print their syntax trees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "built-in language (detected from the file name if empty)")
	cmd.Flags().StringVarP(&opts.grammar, "grammar", "g", "", "grammar descriptor file (YAML or JSON)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "sexp", "output format: sexp or yaml")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "file listing paths to parse, one per line")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", envconfig.NumParallel, "maximum number of files parsed concurrently")
	cmd.Flags().IntVar(&opts.maxStackDepth, "max-stack-depth", envconfig.MaxStackDepth, "parse stack limit, 0 for the default")
	cmd.MarkFlagsMutuallyExclusive("lang", "grammar")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts parseOptions) error {
	if opts.format != "sexp" && opts.format != "yaml" {
		return fmt.Errorf("unknown format: %s", opts.format)
	}
	logger := slog.Default()

	jobs, err := resolveJobs(args, opts)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return errors.New("no input files")
	}

	trees := make([]*gotreesitter.Tree, len(jobs))
	defer func() {
		for _, tree := range trees {
			if tree != nil {
				tree.Release()
			}
		}
	}()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(opts.parallel, 1))
	for i, job := range jobs {
		g.Go(func() error {
			src, err := os.ReadFile(job.path)
			if err != nil {
				return err
			}
			parser := gotreesitter.NewParser(job.lang,
				gotreesitter.WithLogger(logger.With("file", job.path)),
				gotreesitter.WithMaxStackDepth(opts.maxStackDepth))
			tree, err := parser.ParseContext(ctx, src)
			if err != nil {
				return fmt.Errorf("%s: %w", job.path, err)
			}
			if tree.RootNode().HasError() {
				logger.Warn("syntax errors", "file", job.path, "language", job.lang.Name)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Debug("parsed files", "count", len(jobs), "parallel", opts.parallel)
	out := cmd.OutOrStdout()
	if opts.format == "yaml" {
		return writeYAML(out, jobs, trees)
	}
	for i, tree := range trees {
		if len(trees) > 1 {
			fmt.Fprintf(out, "%s: ", jobs[i].path)
		}
		fmt.Fprintln(out, tree.String())
	}
	return nil
}

// resolveJobs pairs every input with a language. A language named in the
// manifest wins over --lang and --grammar, which win over detection.
func resolveJobs(args []string, opts parseOptions) ([]parseJob, error) {
	var fixed *gotreesitter.Language
	switch {
	case opts.grammar != "":
		lang, err := langfile.Load(opts.grammar, grammars.ExternalScanners())
		if err != nil {
			return nil, fmt.Errorf("load grammar: %w", err)
		}
		fixed = lang
	case opts.lang != "":
		lang, err := builtinLanguage(opts.lang)
		if err != nil {
			return nil, err
		}
		fixed = lang
	}

	entries := make([]ManifestEntry, 0, len(args))
	for _, arg := range args {
		entries = append(entries, ManifestEntry{Path: arg})
	}
	if opts.manifest != "" {
		listed, err := ParseManifest(opts.manifest)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		entries = append(entries, listed...)
	}

	jobs := make([]parseJob, 0, len(entries))
	for _, entry := range entries {
		lang := fixed
		var err error
		switch {
		case entry.Lang != "":
			lang, err = builtinLanguage(entry.Lang)
		case lang == nil:
			lang, err = detectLanguage(entry.Path)
		}
		if err != nil {
			return nil, err
		}
		logutil.Trace("language resolved", "file", entry.Path, "language", lang.Name)
		jobs = append(jobs, parseJob{path: entry.Path, lang: lang})
	}
	return jobs, nil
}

func builtinLanguage(name string) (*gotreesitter.Language, error) {
	entry, ok := grammars.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown language %q", name)
	}
	return entry.Language(), nil
}

func detectLanguage(path string) (*gotreesitter.Language, error) {
	if entry := grammars.DetectLanguage(path); entry != nil {
		return entry.Language(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	firstLine, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if entry := grammars.DetectLanguageByShebang(strings.TrimSpace(firstLine)); entry != nil {
		return entry.Language(), nil
	}
	return nil, fmt.Errorf("%s: cannot detect language, use --lang or --grammar", path)
}

type treeDoc struct {
	File     string  `yaml:"file"`
	Language string  `yaml:"language"`
	HasError bool    `yaml:"has_error,omitempty"`
	Root     nodeDoc `yaml:"root"`
}

type nodeDoc struct {
	Type     string    `yaml:"type"`
	Field    string    `yaml:"field,omitempty"`
	Start    uint32    `yaml:"start"`
	End      uint32    `yaml:"end"`
	Named    bool      `yaml:"named,omitempty"`
	Extra    bool      `yaml:"extra,omitempty"`
	Missing  bool      `yaml:"missing,omitempty"`
	Error    bool      `yaml:"error,omitempty"`
	Children []nodeDoc `yaml:"children,omitempty"`
}

func newNodeDoc(n *gotreesitter.Node, lang *gotreesitter.Language, field string) nodeDoc {
	doc := nodeDoc{
		Type:    n.Type(lang),
		Field:   field,
		Start:   n.StartByte(),
		End:     n.EndByte(),
		Named:   n.IsNamed(),
		Extra:   n.IsExtra(),
		Missing: n.IsMissing(),
		Error:   n.IsError(),
	}
	for i, c := range n.Children() {
		doc.Children = append(doc.Children, newNodeDoc(c, lang, lang.FieldName(n.FieldIDForChild(i))))
	}
	return doc
}

func writeYAML(w io.Writer, jobs []parseJob, trees []*gotreesitter.Tree) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for i, tree := range trees {
		root := tree.RootNode()
		doc := treeDoc{
			File:     jobs[i].path,
			Language: jobs[i].lang.Name,
			HasError: root.HasError(),
			Root:     newNodeDoc(root, tree.Language(), ""),
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode %s: %w", jobs[i].path, err)
		}
	}
	return enc.Close()
}
