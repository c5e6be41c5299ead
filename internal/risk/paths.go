package risk

import (
	"path/filepath"
	"regexp"
	"strings"
)

// pathPattern is a gitignore-style glob compiled to a regular expression.
type pathPattern struct {
	original string
	regex    *regexp.Regexp
	weight   float64
}

// compilePathPattern converts a glob into an anchored regex.
//
// "**/" matches zero or more directories, "**" matches anything, "*" matches
// within one path segment and "?" matches one character. Patterns without a
// slash match the basename at any depth.
func compilePathPattern(pattern string, weight float64) (pathPattern, error) {
	p := regexp.QuoteMeta(strings.TrimPrefix(pattern, "/"))

	p = strings.ReplaceAll(p, `\*\*/`, `(.*/)?`)
	p = strings.ReplaceAll(p, `\*\*`, `.*`)
	p = strings.ReplaceAll(p, `\*`, `[^/]*`)
	p = strings.ReplaceAll(p, `\?`, `[^/]`)

	var expr string
	if strings.HasPrefix(pattern, "/") {
		expr = "^" + p + "$"
	} else {
		expr = "(^|.*/)" + p + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return pathPattern{}, err
	}
	return pathPattern{original: pattern, regex: re, weight: weight}, nil
}

// matches reports whether path matches the pattern.
func (p pathPattern) matches(path string) bool {
	return p.regex.MatchString(filepath.ToSlash(path))
}
