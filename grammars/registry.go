package grammars

import (
	"strings"

	"github.com/odvcencio/sitter/gotreesitter"
)

// LangEntry holds a registered language with its grammar and file patterns.
type LangEntry struct {
	Name        string
	Extensions  []string                      // e.g. [".calc"]
	Shebangs    []string                      // e.g. ["#!/usr/bin/env calc"]
	Language    func() *gotreesitter.Language // lazy loader
	Description string
}

var registry []LangEntry

func init() {
	Register(LangEntry{
		Name:        "arithmetic",
		Extensions:  []string{".calc", ".arith"},
		Shebangs:    []string{"#!/usr/bin/env calc"},
		Language:    ArithmeticLanguage,
		Description: "integer expressions with + * and parentheses (DFA lexer)",
	})
	Register(LangEntry{
		Name:        "keywords",
		Extensions:  []string{".kw"},
		Language:    KeywordsLanguage,
		Description: "contextual keyword over identifiers (keyword lexer)",
	})
	Register(LangEntry{
		Name:        "heredoc",
		Extensions:  []string{".heredoc", ".hd"},
		Language:    HeredocLanguage,
		Description: "delimited documents (external scanner)",
	})
}

// Register adds a language to the registry. A later entry with the same
// name replaces the earlier one.
func Register(entry LangEntry) {
	for i := range registry {
		if registry[i].Name == entry.Name {
			registry[i] = entry
			return
		}
	}
	registry = append(registry, entry)
}

// Lookup returns the entry registered under name.
func Lookup(name string) (*LangEntry, bool) {
	for i := range registry {
		if registry[i].Name == name {
			return &registry[i], true
		}
	}
	return nil, false
}

// DetectLanguage returns the LangEntry for a filename, or nil if unknown.
func DetectLanguage(filename string) *LangEntry {
	for i := range registry {
		for _, ext := range registry[i].Extensions {
			if strings.HasSuffix(filename, ext) {
				return &registry[i]
			}
		}
	}
	return nil
}

// DetectLanguageByShebang checks the first line of content for shebang matches.
func DetectLanguageByShebang(firstLine string) *LangEntry {
	for i := range registry {
		for _, shebang := range registry[i].Shebangs {
			if strings.HasPrefix(firstLine, shebang) {
				return &registry[i]
			}
		}
	}
	return nil
}

// AllLanguages returns all registered languages.
func AllLanguages() []LangEntry {
	return registry
}

// ExternalScanners returns the external scanners of registered languages,
// keyed by language name.
func ExternalScanners() map[string]gotreesitter.ExternalScanner {
	out := make(map[string]gotreesitter.ExternalScanner)
	for _, entry := range registry {
		if s := entry.Language().ExternalScanner; s != nil {
			out[entry.Name] = s
		}
	}
	return out
}
