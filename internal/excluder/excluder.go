package excluder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mahyarmirrashed/dotignore/pkg/dotignore"
)

// Excluder matches file paths in a tree against the nearest ignore file.
type Excluder struct {
	matcher *dotignore.Matcher
}

// New finds the ignore file named ignoreFile at or above root and compiles it
// followed by the extra patterns.
func New(root, ignoreFile string, patterns []string) (*Excluder, error) {
	m, err := dotignore.Discover(dotignore.Options{
		Cwd:      root,
		Filename: ignoreFile,
		Extra:    patterns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}
	return &Excluder{matcher: m}, nil
}

// IsExcluded returns true if the given path is ignored. Relative paths are
// resolved against the working directory; paths outside the ignore file's
// directory are never excluded.
func (e *Excluder) IsExcluded(path string) bool {
	rel, ok := e.Rel(path)
	if !ok {
		return false
	}
	return e.matcher.Ignore(rel)
}

// Explain returns the rule deciding the verdict for path.
func (e *Excluder) Explain(path string) (dotignore.Rule, bool) {
	rel, ok := e.Rel(path)
	if !ok {
		return dotignore.Rule{}, false
	}
	return e.matcher.Explain(rel)
}

// Rel returns path relative to the directory the rules are anchored at.
func (e *Excluder) Rel(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(e.matcher.Dir(), abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// IgnoreFile returns the ignore file in use, or "" if none was found.
func (e *Excluder) IgnoreFile() string {
	return e.matcher.Path()
}

// RuleCount returns the number of compiled rules, extra patterns included.
func (e *Excluder) RuleCount() int {
	return e.matcher.Rules().Len()
}

// Base returns the directory rules are anchored at.
func (e *Excluder) Base() string {
	return e.matcher.Dir()
}
