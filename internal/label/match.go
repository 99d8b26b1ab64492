package label

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// DefaultPattern matches the label file extensions, case-sensitively
const DefaultPattern = "*.{zpl,lbl}"

// Matcher decides which file names are label files
type Matcher struct {
	pattern string
	g       glob.Glob
}

// NewMatcher compiles a glob pattern matched against base names
func NewMatcher(pattern string) (*Matcher, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid label pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, g: g}, nil
}

// DefaultMatcher matches .zpl and .lbl files
func DefaultMatcher() *Matcher {
	return &Matcher{pattern: DefaultPattern, g: glob.MustCompile(DefaultPattern)}
}

// Match reports whether the file at path is a label file
func (m *Matcher) Match(path string) bool {
	return m.g.Match(filepath.Base(path))
}

// Pattern returns the source glob
func (m *Matcher) Pattern() string {
	return m.pattern
}
