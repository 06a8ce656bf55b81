// Package grammar renders the small amount of English inflection the
// driver needs for room and inventory descriptions: pluralizing an item
// name for a stack count, and picking "a"/"an" for its singular form.
package grammar

import (
	"strings"

	"github.com/gertd/go-pluralize"
)

var client = pluralize.NewClient()

// Pluralize returns word in its singular or plural form depending on n,
// e.g. Pluralize("torch", 1) == "torch", Pluralize("torch", 2) == "torches".
func Pluralize(word string, n int) string {
	return client.Pluralize(word, n, false)
}

// Article returns "a" or "an" for word's leading sound, using the common
// English heuristic (vowel letters take "an") rather than a full phonetic
// lookup — good enough for item and room names, which are plain nouns.
func Article(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return "a"
	}
	switch strings.ToLower(trimmed)[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	default:
		return "a"
	}
}
