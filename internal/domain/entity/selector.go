package entity

import "strings"

// SelectorStrategy is an ordered list of query patterns for one intent.
// Patterns are CSS selectors, or XPath when prefixed with "xpath=" or
// starting with "/" or "(".
type SelectorStrategy struct {
	Label    string
	Patterns []string
}

func NewStrategy(label string, patterns ...string) SelectorStrategy {
	return SelectorStrategy{Label: label, Patterns: patterns}
}

func (s SelectorStrategy) String() string {
	return s.Label + "[" + strings.Join(s.Patterns, " | ") + "]"
}

func IsXPath(pattern string) bool {
	return strings.HasPrefix(pattern, "xpath=") ||
		strings.HasPrefix(pattern, "/") ||
		strings.HasPrefix(pattern, "(")
}

func TrimXPath(pattern string) string {
	return strings.TrimPrefix(pattern, "xpath=")
}
