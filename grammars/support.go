package grammars

import (
	"sort"

	"github.com/odvcencio/sitter/gotreesitter"
)

// ParseBackend describes how a language tokenizes in this runtime.
type ParseBackend string

const (
	ParseBackendUnsupported ParseBackend = "unsupported"
	ParseBackendDFA         ParseBackend = "dfa"
	ParseBackendLexFunc     ParseBackend = "lex_func"
)

// ParseSupport summarizes parser support status for one registered language.
type ParseSupport struct {
	Name                    string
	LanguageVersion         uint32
	VersionCompatible       bool
	Backend                 ParseBackend
	Reason                  string
	HasKeywordLexer         bool
	RequiresExternalScanner bool
	HasExternalScanner      bool
	StateCount              uint32
	LargeStateCount         uint32
	SymbolCount             uint32
	FieldCount              uint32
	// ConflictEntries counts action entries that carry more than one action,
	// which the runtime settles by precedence at parse time.
	ConflictEntries int
}

// EvaluateParseSupport reports whether lang can be parsed and with which
// lexer.
func EvaluateParseSupport(entry LangEntry, lang *gotreesitter.Language) ParseSupport {
	report := ParseSupport{
		Name:                    entry.Name,
		LanguageVersion:         lang.Version,
		VersionCompatible:       lang.CompatibleWithRuntime(),
		HasKeywordLexer:         lang.KeywordLexer != nil,
		RequiresExternalScanner: lang.ExternalTokenCount > 0,
		HasExternalScanner:      lang.ExternalScanner != nil,
		StateCount:              lang.StateCount,
		LargeStateCount:         lang.LargeStateCount,
		SymbolCount:             lang.SymbolCount,
		FieldCount:              lang.FieldCount,
		ConflictEntries:         countConflicts(lang),
		Backend:                 ParseBackendUnsupported,
	}

	if !report.VersionCompatible {
		report.Reason = "language version is incompatible with runtime"
		return report
	}
	if err := lang.Validate(); err != nil {
		report.Reason = err.Error()
		return report
	}
	if report.RequiresExternalScanner && !report.HasExternalScanner {
		report.Reason = "requires external scanner, but none is registered"
		return report
	}

	switch lang.Lexer.(type) {
	case gotreesitter.LexTable:
		report.Backend = ParseBackendDFA
		report.Reason = "dfa lexer"
	default:
		report.Backend = ParseBackendLexFunc
		report.Reason = "lex function"
	}
	if report.HasKeywordLexer {
		report.Reason += " + keywords"
	}
	if report.HasExternalScanner {
		report.Reason += " + external scanner"
	}
	return report
}

func countConflicts(lang *gotreesitter.Language) int {
	n := 0
	for _, entry := range lang.ParseActions {
		if len(entry.Actions) > 1 {
			n++
		}
	}
	return n
}

// AuditParseSupport evaluates parse support for all registered languages.
func AuditParseSupport() []ParseSupport {
	entries := AllLanguages()
	reports := make([]ParseSupport, 0, len(entries))
	for _, entry := range entries {
		reports = append(reports, EvaluateParseSupport(entry, entry.Language()))
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Name < reports[j].Name
	})
	return reports
}
