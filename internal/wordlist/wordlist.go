// Package wordlist loads practice word lists from files.
package wordlist

import (
	"bufio"
	"fmt"
	"os"

	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/textnorm"
)

// LoadWords reads one word per line from the provided file path. Lines are
// normalized the same way reading passages are, so "Don't" becomes "dont".
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		for _, w := range textnorm.Normalize(scanner.Text()) {
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// CatalogWords returns every example word in the catalog, without repeats.
// It serves as the practice pool when no word list file is configured.
func CatalogWords(cat catalog.Catalog) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range cat.Patterns {
		for _, w := range p.Examples {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}
