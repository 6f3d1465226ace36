package dotignore

import (
	"errors"
	"fmt"
)

// ErrInvalidPattern indicates a rule whose pattern could not be compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

// PatternCompileError reports the ignore-file line that failed to compile.
type PatternCompileError struct {
	Line    int    // 1-based line number in the source text
	Pattern string // glob source handed to the compiler
	Err     error  // underlying glob error
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("line %d: %s %q: %v", e.Line, ErrInvalidPattern, e.Pattern, e.Err)
}

func (e *PatternCompileError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidPattern.
func (e *PatternCompileError) Is(target error) bool {
	return target == ErrInvalidPattern
}
