// Package catalog holds the phonics-pattern catalog used to attribute words
// to the sound patterns they exercise.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Pattern is one phonics category.
//
// Substrings are matched against normalized words. An underscore stands for
// exactly one consonant, so "a_e" matches "cake" but not "cae".
type Pattern struct {
	Name       string   `yaml:"name"`
	Substrings []string `yaml:"substrings"`
	Examples   []string `yaml:"examples"`
	Difficulty int      `yaml:"difficulty"`
}

// Catalog is an ordered set of patterns.
type Catalog struct {
	Patterns []Pattern `yaml:"patterns"`
}

// Default returns the built-in English catalog.
func Default() Catalog {
	return Catalog{Patterns: []Pattern{
		{
			Name:       "short_vowels",
			Substrings: []string{"a", "e", "i", "o", "u"},
			Examples:   []string{"cat", "bed", "sit", "pot", "cut"},
			Difficulty: 1,
		},
		{
			Name:       "long_vowels",
			Substrings: []string{"a_e", "e_e", "i_e", "o_e", "u_e"},
			Examples:   []string{"cake", "here", "bike", "hope", "cube"},
			Difficulty: 2,
		},
		{
			Name: "consonant_blends",
			Substrings: []string{
				"bl", "br", "cl", "cr", "dr", "fl", "fr", "gl", "gr", "pl",
				"pr", "sc", "sk", "sl", "sm", "sn", "sp", "st", "sw", "tr",
			},
			Examples:   []string{"blue", "tree", "clap", "crab", "drum", "flag", "frog", "glad", "green", "play"},
			Difficulty: 2,
		},
		{
			Name:       "digraphs",
			Substrings: []string{"ch", "sh", "th", "wh", "ph", "ck", "ng"},
			Examples:   []string{"chair", "ship", "think", "whale", "phone", "duck", "ring"},
			Difficulty: 3,
		},
		{
			Name:       "vowel_teams",
			Substrings: []string{"ai", "ay", "ea", "ee", "ie", "oa", "ow", "ue"},
			Examples:   []string{"rain", "play", "read", "tree", "pie", "boat", "show", "blue"},
			Difficulty: 3,
		},
		{
			Name:       "r_controlled",
			Substrings: []string{"ar", "er", "ir", "or", "ur"},
			Examples:   []string{"car", "her", "bird", "for", "turn"},
			Difficulty: 4,
		},
	}}
}

// Load reads a YAML catalog from path. A missing file yields the default catalog.
func Load(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Catalog{}, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer func() {
		_ = f.Close() // Best-effort close.
	}()
	c, err := Decode(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return c, nil
}

// Decode parses a YAML catalog and validates it.
func Decode(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks that pattern names are present and unique.
func (c Catalog) Validate() error {
	if len(c.Patterns) == 0 {
		return errors.New("catalog: no patterns defined")
	}
	seen := map[string]struct{}{}
	for i, p := range c.Patterns {
		if p.Name == "" {
			return fmt.Errorf("catalog: pattern %d has no name", i)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("catalog: duplicate pattern %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if len(p.Substrings) == 0 {
			return fmt.Errorf("catalog: pattern %q has no substrings", p.Name)
		}
	}
	return nil
}

// Lookup returns the named pattern.
func (c Catalog) Lookup(name string) (Pattern, bool) {
	for _, p := range c.Patterns {
		if p.Name == name {
			return p, true
		}
	}
	return Pattern{}, false
}

// Names lists pattern names sorted alphabetically.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		out = append(out, p.Name)
	}
	sort.Strings(out)
	return out
}

// PatternsFor returns every pattern the word exercises, in catalog order.
func (c Catalog) PatternsFor(word string) []Pattern {
	var out []Pattern
	for _, p := range c.Patterns {
		if p.Matches(word) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether word contains any of the pattern's substrings.
func (p Pattern) Matches(word string) bool {
	w := []rune(word)
	for _, sub := range p.Substrings {
		if containsPattern(w, []rune(sub)) {
			return true
		}
	}
	return false
}

func containsPattern(word, pat []rune) bool {
	if len(pat) == 0 || len(pat) > len(word) {
		return false
	}
	for start := 0; start+len(pat) <= len(word); start++ {
		ok := true
		for k, pr := range pat {
			wr := word[start+k]
			if pr == '_' {
				if !isConsonant(wr) {
					ok = false
					break
				}
				continue
			}
			if pr != wr {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func isConsonant(r rune) bool {
	if !unicode.IsLetter(r) {
		return false
	}
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	}
	return true
}
