// Package ignore reads gitignore-style files so ingestion skips what a corpus
// directory excludes.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultFiles are read from the corpus root, in order. Later files can
// re-include paths with "!pattern".
var DefaultFiles = []string{".gitignore", ".ragchatignore"}

// Parser reads and parses gitignore-style files.
type Parser struct {
	// IgnoreFiles is the list of ignore file names to look for.
	IgnoreFiles []string
	// FallbackPatterns are used when no ignore file is found.
	FallbackPatterns []string
}

// NewParser creates a new ignore file parser with the given configuration.
func NewParser(ignoreFiles, fallbackPatterns []string) *Parser {
	return &Parser{
		IgnoreFiles:      ignoreFiles,
		FallbackPatterns: fallbackPatterns,
	}
}

// ParseDir reads every ignore file found in root and returns the combined
// pattern lines. If none is found, it returns the fallback patterns.
func (p *Parser) ParseDir(root string) ([]string, error) {
	var lines []string
	foundAny := false

	for _, name := range p.IgnoreFiles {
		fileLines, err := parseFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		lines = append(lines, fileLines...)
		foundAny = true
	}

	if !foundAny {
		return p.FallbackPatterns, nil
	}
	return lines, nil
}

// Matcher parses the ignore files in root into a Matcher.
func (p *Parser) Matcher(root string) (*Matcher, error) {
	lines, err := p.ParseDir(root)
	if err != nil {
		return nil, err
	}
	return NewMatcher(lines), nil
}

func parseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := parseLine(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// parseLine returns "" for comments and blank lines.
func parseLine(line string) string {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}

// Matcher reports whether relative paths are ignored. A nil Matcher ignores
// nothing.
type Matcher struct {
	m gitignore.Matcher
}

// NewMatcher compiles gitignore pattern lines, in order.
func NewMatcher(lines []string) *Matcher {
	if len(lines) == 0 {
		return nil
	}
	patterns := make([]gitignore.Pattern, 0, len(lines))
	for _, l := range lines {
		patterns = append(patterns, gitignore.ParsePattern(l, nil))
	}
	return &Matcher{m: gitignore.NewMatcher(patterns)}
}

// Match reports whether the slash-separated path rel is ignored.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil || rel == "" || rel == "." {
		return false
	}
	return m.m.Match(strings.Split(rel, "/"), isDir)
}
