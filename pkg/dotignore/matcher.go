package dotignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is the ignore file Discover looks for.
const DefaultFilename = ".gitignore"

// Options control how Discover locates the ignore file.
type Options struct {
	// Cwd is the directory the upward search starts from. Defaults to the
	// process working directory.
	Cwd string
	// Filename is the ignore file name. Defaults to DefaultFilename.
	Filename string
	// Extra holds additional rule lines evaluated after the file's rules.
	Extra []string
}

// Matcher answers ignore queries for one compiled rule set.
type Matcher struct {
	rules *RuleSet
	path  string
	dir   string
}

// New compiles ignore-file text into a Matcher.
func New(text string) (*Matcher, error) {
	rs, err := Compile(text)
	if err != nil {
		return nil, err
	}
	return &Matcher{rules: rs}, nil
}

// Discover finds the nearest ignore file at or above opts.Cwd and compiles
// it. A missing file is not an error: the Matcher then ignores nothing
// except what opts.Extra names.
func Discover(opts Options) (*Matcher, error) {
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cwd = wd
	}
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cwd, err)
	}

	name := opts.Filename
	if name == "" {
		name = DefaultFilename
	}

	path, err := FindUp(name, cwd)
	if err != nil {
		return nil, err
	}

	var text string
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		text = string(data)
	}
	if len(opts.Extra) > 0 {
		text = joinRules(text, opts.Extra)
	}

	rs, err := Compile(text)
	if err != nil {
		if path != "" {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}

	m := &Matcher{rules: rs, path: path, dir: cwd}
	if path != "" {
		m.dir = filepath.Dir(path)
	}
	return m, nil
}

// FindUp returns the path of the first regular file called name in dir or
// one of its parents. It returns "" when there is none.
func FindUp(name, dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Ignore reports whether path is excluded by the matcher's rules.
func (m *Matcher) Ignore(path string) bool {
	return m.rules.IsIgnored(path)
}

// Explain returns the rule deciding the verdict for path.
func (m *Matcher) Explain(path string) (Rule, bool) {
	return m.rules.Explain(path)
}

// Rules returns the compiled rule set.
func (m *Matcher) Rules() *RuleSet {
	return m.rules
}

// Path returns the ignore file the rules were read from, or "" when the
// matcher was built from text or no file was found.
func (m *Matcher) Path() string {
	return m.path
}

// Dir returns the directory rooted rules are anchored at: the directory
// holding the ignore file, or the search start when there is none. It is
// empty for matchers built with New.
func (m *Matcher) Dir() string {
	return m.dir
}

func joinRules(text string, extra []string) string {
	var b strings.Builder
	b.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") && !strings.HasSuffix(text, "\r") {
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(extra, "\n"))
	return b.String()
}
