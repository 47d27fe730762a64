package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/roadgraph/export"
)

// ErrNoInputs is returned when an input glob matches no files.
var ErrNoInputs = errors.New("no input files match")

// Target is one input file and the output file it converts to.
type Target struct {
	Input  string
	Output string
}

// IsGlob reports whether an input setting is a glob pattern rather than a path.
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// ResolveInputs expands an input setting to concrete files. A plain path is
// returned unchanged whether or not it exists; a glob must match at least one
// regular file. Supports both single-level wildcards (*) and recursive
// wildcards (**).
func ResolveInputs(pattern string) ([]string, error) {
	if !IsGlob(pattern) {
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputs, pattern)
	}

	seen := make(map[string]bool, len(matches))
	var resolved []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			resolved = append(resolved, m)
		}
	}
	return resolved, nil
}

// MatchInput reports whether path is selected by an input setting.
func MatchInput(pattern, path string) bool {
	if !IsGlob(pattern) {
		return filepath.Clean(pattern) == filepath.Clean(path)
	}
	ok, err := doublestar.PathMatch(filepath.Clean(pattern), filepath.Clean(path))
	return err == nil && ok
}

// WatchRoot returns the directory that has to be watched for an input
// setting: the static prefix of a glob, or the parent of a plain path.
func WatchRoot(pattern string) string {
	if !IsGlob(pattern) {
		return filepath.Dir(pattern)
	}
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}

// OutputFor maps an input file to its output file. A glob input writes into
// output as a directory, one file per input named after the input with the
// format's extension. A plain input writes to output itself.
func OutputFor(pattern, input, output string, format export.Format) string {
	if !IsGlob(pattern) {
		return output
	}
	ext := ".ttl"
	if info, ok := export.GetFormatInfo(format); ok {
		ext = info.Extension
	}
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(output, base+ext)
}
