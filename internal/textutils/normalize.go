// Package textutils holds the text normalization every matcher in the
// pipeline relies on.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents decomposes text and drops combining marks, so "é" becomes "e".
// transform chains are stateful, so a fresh one is built per call.
func foldAccents(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// Normalize lowercases text, folds accents, replaces punctuation with spaces
// and collapses whitespace. Dots and slashes survive inside tokens so that
// domain-style merchant codes like "apple.com/bill" stay intact.
//
// Normalize is idempotent.
func Normalize(text string) string {
	folded := strings.ToLower(foldAccents(strings.ToLower(text)))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '/' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}

	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, token := range tokens {
		token = strings.Trim(token, "./")
		if token != "" {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, " ")
}

// Fold lowercases text, folds accents and collapses whitespace but keeps
// punctuation. Category names are compared through Fold.
func Fold(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(foldAccents(strings.ToLower(text)))), " ")
}

// ContainsPhrase reports whether the normalized phrase occurs in the
// normalized text on token boundaries: "gym" matches "gym membership" but not
// "gymnastics".
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// HasPhrasePrefix reports whether text starts with prefix on a token
// boundary.
func HasPhrasePrefix(text, prefix string) bool {
	if prefix == "" {
		return false
	}
	return text == prefix || strings.HasPrefix(text, prefix+" ")
}

// FirstWords returns the first n whitespace separated tokens of text.
func FirstWords(text string, n int) []string {
	tokens := strings.Fields(text)
	if n >= 0 && len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}
