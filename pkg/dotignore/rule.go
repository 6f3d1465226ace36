package dotignore

import (
	"strings"

	"github.com/gobwas/glob"
)

// Separator is the path separator the compiled globs are built around.
// Candidate paths are converted to slash form before matching.
const Separator = '/'

// Rule is one compiled line of an ignore file.
type Rule struct {
	Source    string // glob source after prefix stripping and directory expansion
	Line      int    // 1-based line number in the source text
	Negated   bool   // line began with '!'
	Rooted    bool   // matched against the whole path instead of single segments
	Directory bool   // line ended with '/'

	matcher glob.Glob
}

// match reports whether the rule applies to path. The path must already be
// in slash form; segments are the non-empty pieces of path split on '/'.
func (r Rule) match(path string, segments []string) bool {
	if r.Rooted {
		return r.matcher.Match(path)
	}
	for _, s := range segments {
		if r.matcher.Match(s) {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	prefix := ""
	if r.Negated {
		prefix = "!"
	}
	return prefix + r.Source
}

// RuleSet is an ordered, immutable list of rules. Later rules take precedence
// over earlier ones.
type RuleSet struct {
	rules []Rule
}

// Compile turns ignore-file text into a RuleSet. Blank lines and comments
// produce no rule. The first pattern that fails to compile aborts the whole
// set with a *PatternCompileError.
func Compile(text string) (*RuleSet, error) {
	lines := splitLines(text)
	rs := &RuleSet{rules: make([]Rule, 0, len(lines))}
	for i, line := range lines {
		rule, ok, err := compileLine(line, i+1)
		if err != nil {
			return nil, err
		}
		if ok {
			rs.rules = append(rs.rules, rule)
		}
	}
	return rs, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string) *RuleSet {
	rs, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return rs
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns a copy of the rules in precedence order.
func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// splitLines splits on "\n", "\r\n" and a lone "\r".
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func compileLine(line string, lineNo int) (Rule, bool, error) {
	if line == "" || line[0] == '#' {
		return Rule{}, false, nil
	}

	negated := line[0] == '!'
	rooted := line[0] == '/'
	directory := line[len(line)-1] == '/'

	pattern := line
	if negated || rooted {
		pattern = pattern[1:]
	}
	rooted = rooted || strings.ContainsRune(pattern, Separator)

	rule := Rule{
		Source:    pattern,
		Line:      lineNo,
		Negated:   negated,
		Rooted:    rooted,
		Directory: directory,
	}

	// "!", "/", "!/" and other all-slash lines name nothing.
	if strings.Trim(pattern, "/") == "" {
		rule.matcher = never{}
		return rule, true, nil
	}
	name := strings.TrimSuffix(pattern, "/")

	if !directory {
		g, err := glob.Compile(pattern, Separator)
		if err != nil {
			return Rule{}, false, &PatternCompileError{Line: lineNo, Pattern: pattern, Err: err}
		}
		rule.matcher = g
		return rule, true, nil
	}

	rule.Source = pattern + "**"
	self, err := glob.Compile(name, Separator)
	if err != nil {
		return Rule{}, false, &PatternCompileError{Line: lineNo, Pattern: rule.Source, Err: err}
	}
	below, err := glob.Compile(rule.Source, Separator)
	if err != nil {
		return Rule{}, false, &PatternCompileError{Line: lineNo, Pattern: rule.Source, Err: err}
	}
	rule.matcher = directoryGlob{self: self, below: below}
	return rule, true, nil
}

// directoryGlob matches a directory name and everything nested beneath it.
type directoryGlob struct {
	self  glob.Glob
	below glob.Glob
}

func (d directoryGlob) Match(s string) bool {
	return d.self.Match(s) || d.below.Match(s)
}

type never struct{}

func (never) Match(string) bool { return false }
