package stats

import (
	"sort"
	"strings"

	"github.com/verte-zerg/umeed/internal/model"
)

// MissedWord tallies how a reference word went wrong across sessions.
type MissedWord struct {
	Word        string
	Substituted int
	Omitted     int
	ReadAs      []string
}

// Total is the number of times the word was missed.
func (m MissedWord) Total() int { return m.Substituted + m.Omitted }

// TopMissedWords returns the n reference words missed most often. Grouped
// mistakes are split back into single words; insertions are ignored.
func TopMissedWords(sessions []model.SessionResult, n int) []MissedWord {
	if n <= 0 {
		return nil
	}
	byWord := map[string]*MissedWord{}
	get := func(word string) *MissedWord {
		m, ok := byWord[word]
		if !ok {
			m = &MissedWord{Word: word}
			byWord[word] = m
		}
		return m
	}
	for _, s := range sessions {
		for _, mk := range s.Mistakes {
			expected := strings.Fields(mk.Expected)
			switch mk.Kind {
			case model.MistakeOmission:
				for _, word := range expected {
					get(word).Omitted++
				}
			case model.MistakeSubstitution:
				actual := strings.Fields(mk.Actual)
				for i, word := range expected {
					m := get(word)
					m.Substituted++
					if i < len(actual) && !contains(m.ReadAs, actual[i]) {
						m.ReadAs = append(m.ReadAs, actual[i])
					}
				}
			}
		}
	}

	items := make([]MissedWord, 0, len(byWord))
	for _, m := range byWord {
		items = append(items, *m)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Total() == items[j].Total() {
			return items[i].Word < items[j].Word
		}
		return items[i].Total() > items[j].Total()
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
