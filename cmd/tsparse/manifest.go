package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestEntry is one file listed in a parse manifest.
type ManifestEntry struct {
	Path string
	Lang string // empty means detect from the file name
}

// ParseManifest reads a manifest file with lines of format:
//
//	path [language]
//
// Lines starting with # are comments. Empty lines are skipped. Relative
// paths are resolved against the manifest's directory.
func ParseManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var entries []ManifestEntry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 2 {
			return nil, fmt.Errorf("%s:%d: invalid manifest line: %q", path, lineNo, line)
		}
		entry := ManifestEntry{Path: fields[0]}
		if !filepath.IsAbs(entry.Path) {
			entry.Path = filepath.Join(dir, entry.Path)
		}
		if len(fields) == 2 {
			entry.Lang = fields[1]
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}
