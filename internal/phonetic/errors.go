package phonetic

import "strings"

// ErrorPattern names a recognizable kind of word-level reading slip.
type ErrorPattern string

// Known error patterns.
const (
	LetterReversal      ErrorPattern = "letter_reversal"
	PhonemeSubstitution ErrorPattern = "phoneme_substitution"
	SyllableOmission    ErrorPattern = "syllable_omission"
)

var letterSwaps = [][2]string{
	{"b", "d"}, {"d", "b"},
	{"p", "q"}, {"q", "p"},
}

var wordReversals = map[string]string{
	"was": "saw",
	"saw": "was",
	"on":  "no",
	"no":  "on",
}

// ClassifyError lists the slip patterns that explain reading expected as actual.
func ClassifyError(expected, actual string) []ErrorPattern {
	expected = strings.ToLower(strings.TrimSpace(expected))
	actual = strings.ToLower(strings.TrimSpace(actual))
	if expected == "" || actual == "" || expected == actual {
		return nil
	}
	var out []ErrorPattern
	if isReversal(expected, actual) {
		out = append(out, LetterReversal)
	}
	if len([]rune(expected)) == len([]rune(actual)) {
		out = append(out, PhonemeSubstitution)
	}
	if len([]rune(actual)) < len([]rune(expected)) {
		out = append(out, SyllableOmission)
	}
	return out
}

func isReversal(expected, actual string) bool {
	if rev, ok := wordReversals[expected]; ok && rev == actual {
		return true
	}
	for _, swap := range letterSwaps {
		if strings.Contains(expected, swap[0]) && strings.ReplaceAll(expected, swap[0], swap[1]) == actual {
			return true
		}
	}
	return false
}
