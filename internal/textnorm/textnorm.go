// Package textnorm normalizes reference and transcribed text into words.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, drops every rune that is not a letter, digit,
// combining mark or whitespace, and splits on whitespace.
func Normalize(text string) []string {
	if text == "" {
		return []string{}
	}
	lowered := cases.Lower(language.Und).String(norm.NFC.String(text))
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	words := strings.Fields(b.String())
	if words == nil {
		return []string{}
	}
	return words
}

// Join renders normalized words back into a single-spaced string.
func Join(words []string) string {
	return strings.Join(words, " ")
}

// String normalizes text and joins the result.
func String(text string) string {
	return Join(Normalize(text))
}
