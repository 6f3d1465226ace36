package dotignore

import (
	"path/filepath"
	"strings"
)

// IsIgnored reports whether path is excluded by the rule set. Every rule is
// evaluated in order and the last one that matches decides: a negated rule
// re-includes the path, any other rule excludes it. A path no rule matches
// is not ignored.
func (rs *RuleSet) IsIgnored(path string) bool {
	rule, ok := rs.Explain(path)
	return ok && !rule.Negated
}

// Explain returns the rule that decides the verdict for path, that is the
// last rule matching it. The boolean is false when no rule matches.
func (rs *RuleSet) Explain(path string) (Rule, bool) {
	if rs.Len() == 0 {
		return Rule{}, false
	}

	path = filepath.ToSlash(path)
	segments := splitSegments(path)

	var (
		last  Rule
		found bool
	)
	for _, r := range rs.rules {
		if r.match(path, segments) {
			last, found = r, true
		}
	}
	return last, found
}

func splitSegments(path string) []string {
	parts := strings.Split(path, string(Separator))
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
