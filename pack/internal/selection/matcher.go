package selection

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides whether a file path belongs to a set. The set of
// implementations is closed: ExactPath, PathPrefix, PackageName and
// PathPattern.
type Matcher interface {
	Matches(p string) bool
	String() string
	isMatcher()
}

// normPath converts any separator style to forward slashes and cleans p.
func normPath(p string) string {
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}

// ExactPath matches a single file.
type ExactPath struct{ Path string }

func (m ExactPath) Matches(p string) bool { return normPath(p) == normPath(m.Path) }
func (m ExactPath) String() string        { return normPath(m.Path) }
func (ExactPath) isMatcher()              {}

// PathPrefix matches Dir itself and everything below it.
type PathPrefix struct{ Dir string }

func (m PathPrefix) Matches(p string) bool {
	dir := normPath(m.Dir)
	np := normPath(p)
	if dir == "/" {
		return strings.HasPrefix(np, "/")
	}
	return np == dir || strings.HasPrefix(np, dir+"/")
}
func (m PathPrefix) String() string { return normPath(m.Dir) + "/" }
func (PathPrefix) isMatcher()       {}

// PackageName matches files of an installed package, at any node_modules
// depth. Name may be scoped ("@solana/errors"). When Subdir is set only
// files below that directory of the package match.
type PackageName struct {
	Name   string
	Subdir string
}

func (m PackageName) Matches(p string) bool {
	np := normPath(p)
	if !strings.HasPrefix(np, "/") {
		np = "/" + np
	}
	needle := "/node_modules/" + m.Name
	if m.Subdir != "" {
		needle += "/" + strings.Trim(m.Subdir, "/")
	}
	for i := 0; ; {
		j := strings.Index(np[i:], needle)
		if j < 0 {
			return false
		}
		end := i + j + len(needle)
		if end == len(np) || np[end] == '/' {
			return true
		}
		i = end
	}
}

func (m PackageName) String() string {
	s := "node_modules/" + m.Name
	if m.Subdir != "" {
		s += "/" + strings.Trim(m.Subdir, "/")
	}
	return s
}
func (PackageName) isMatcher() {}

// PathPattern matches a doublestar glob against the path with any leading
// slash removed, so "**/node_modules/x/**" works for absolute paths.
type PathPattern struct{ Glob string }

func (m PathPattern) Matches(p string) bool {
	np := strings.TrimPrefix(normPath(p), "/")
	ok, err := doublestar.Match(m.Glob, np)
	return err == nil && ok
}
func (m PathPattern) String() string { return m.Glob }
func (PathPattern) isMatcher()       {}

// AnyOf reports whether any matcher in ms matches p.
func AnyOf(ms []Matcher, p string) bool {
	for _, m := range ms {
		if m.Matches(p) {
			return true
		}
	}
	return false
}

// Strings renders matchers for descriptors.
func Strings(ms []Matcher) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}
	return out
}
