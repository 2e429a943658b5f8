package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultCodePattern matches anything starting with "A" (Birds Directive
// codes such as A072) or made only of digits (Habitats Directive species
// codes such as 1166).
const DefaultCodePattern = `^(A|\d+$)`

// CodeMatcher reports whether a query looks like a policy code.
type CodeMatcher func(query string) bool

// PatternMatcher compiles pattern into a CodeMatcher. The pattern is applied
// to the upper-cased, trimmed query.
func PatternMatcher(pattern string) (CodeMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid policy code pattern %q: %w", pattern, err)
	}
	return func(query string) bool {
		return re.MatchString(strings.ToUpper(strings.TrimSpace(query)))
	}, nil
}

// DefaultMatcher returns the matcher for DefaultCodePattern.
func DefaultMatcher() CodeMatcher {
	m, _ := PatternMatcher(DefaultCodePattern)
	return m
}
