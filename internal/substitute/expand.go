// Package substitute expands $key tokens in typed text to the link saved
// under that key.
package substitute

import (
	"regexp"
	"strings"
)

var token = regexp.MustCompile(`\$([a-zA-Z0-9]+)`)

// Lookup resolves a key to its replacement text.
type Lookup func(key string) (string, bool)

// Expand replaces every $key whose key resolves; any other token is kept
// verbatim. lookup is not called when text has no '$'.
func Expand(text string, lookup Lookup) string {
	if !strings.Contains(text, "$") {
		return text
	}
	return token.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := lookup(m[1:]); ok {
			return v
		}
		return m
	})
}

// Keys lists the identifiers referenced by text, in order of appearance.
func Keys(text string) []string {
	ms := token.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m[1])
	}
	return out
}
