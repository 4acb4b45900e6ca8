// Package phonetic compares words by how they sound so that a misread word
// can be told apart from a pronunciation slip.
//
// Words are encoded with Double Metaphone, which yields a primary code and,
// for words with ambiguous spellings, an alternate code. Two encodings are
// compared position by position (primary with primary, alternate with
// alternate) over the positions both words actually have.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Code is the Double Metaphone encoding of a word. Alternate is empty when
// the word has no distinct secondary pronunciation.
type Code struct {
	Primary   string
	Alternate string
}

// Empty reports whether the word produced no phonetic code at all.
func (c Code) Empty() bool {
	return c.Primary == "" && c.Alternate == ""
}

func (c Code) variants() [2]string {
	return [2]string{c.Primary, c.Alternate}
}

// Encode returns the phonetic code for word.
func Encode(word string) Code {
	word = strings.TrimSpace(word)
	if word == "" {
		return Code{}
	}
	primary, alternate := matchr.DoubleMetaphone(word)
	if alternate == primary {
		alternate = ""
	}
	return Code{Primary: primary, Alternate: alternate}
}

// Similarity returns the fraction of positional variants that match, counting
// only positions where both codes have a value. It is 0 when either code is
// empty or no position is comparable.
func Similarity(a, b Code) float64 {
	if a.Empty() || b.Empty() {
		return 0
	}
	av, bv := a.variants(), b.variants()
	total, matches := 0, 0
	for i := range av {
		if av[i] == "" || bv[i] == "" {
			continue
		}
		total++
		if av[i] == bv[i] {
			matches++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

// Compare encodes both words and returns their Similarity.
func Compare(expected, actual string) float64 {
	return Similarity(Encode(expected), Encode(actual))
}
