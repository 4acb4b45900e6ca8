// Package practice builds phonics practice from a learner's weak patterns.
package practice

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/umeed/internal/catalog"
	"github.com/verte-zerg/umeed/internal/wordlist"
)

// ExerciseType names the kind of activity.
type ExerciseType string

// Exercise types, easiest first.
const (
	WordRecognition ExerciseType = "word_recognition"
	SoundMatching   ExerciseType = "sound_matching"
	WordBuilding    ExerciseType = "word_building"
)

// MinutesPerExercise is the time budgeted for one exercise in a plan.
const MinutesPerExercise = 3

var fallbackDistractors = []string{"cat", "dog", "run", "sun", "map", "big", "hop", "wet"}

// Exercise is one activity for one pattern.
type Exercise struct {
	Type         ExerciseType `json:"type"`
	Pattern      string       `json:"pattern"`
	Instructions string       `json:"instructions"`
	Activity     string       `json:"activity"`
	Words        []string     `json:"words"`
	Distractors  []string     `json:"distractors,omitempty"`
	WordParts    []string     `json:"word_parts,omitempty"`
}

// Plan is a practice session made of exercises.
type Plan struct {
	Patterns         []string   `json:"patterns"`
	Exercises        []Exercise `json:"exercises"`
	Instructions     string     `json:"instructions"`
	EstimatedMinutes int        `json:"estimated_minutes"`
}

// Builder picks practice words and exercises.
type Builder struct {
	rnd *rand.Rand
	cat catalog.Catalog
}

// New returns a Builder seeded with the current time.
func New(cat catalog.Catalog) *Builder {
	return NewSeeded(cat, time.Now().UnixNano())
}

// NewSeeded returns a Builder with a fixed seed.
func NewSeeded(cat catalog.Catalog, seed int64) *Builder {
	if len(cat.Patterns) == 0 {
		cat = catalog.Default()
	}
	return &Builder{rnd: rand.New(rand.NewSource(seed)), cat: cat}
}

// TypeFor picks the exercise type for a pattern difficulty.
func TypeFor(difficulty int) ExerciseType {
	switch {
	case difficulty <= 1:
		return WordRecognition
	case difficulty == 2:
		return SoundMatching
	default:
		return WordBuilding
	}
}

// DefaultFocus returns the patterns to start with when a learner has no history.
func DefaultFocus(readingLevel int) []string {
	if readingLevel <= 2 {
		return []string{"short_vowels", "consonant_blends"}
	}
	return []string{"long_vowels", "digraphs"}
}

// Words draws count words from pool, favouring words that exercise the focus
// patterns. Each focus pattern a word matches adds factor to its weight.
func (b *Builder) Words(pool []string, count int, focus []string, factor float64) []string {
	if len(pool) == 0 || count <= 0 {
		return nil
	}
	var patterns []catalog.Pattern
	for _, name := range focus {
		if p, ok := b.cat.Lookup(name); ok {
			patterns = append(patterns, p)
		}
	}

	weights := make([]float64, len(pool))
	total := 0.0
	for i, word := range pool {
		hits := 0
		for _, p := range patterns {
			if p.Matches(word) {
				hits++
			}
		}
		w := 1.0 + float64(hits)*factor
		weights[i] = w
		total += w
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		r := b.rnd.Float64() * total
		acc := 0.0
		idx := len(pool) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		result = append(result, pool[idx])
	}
	return result
}

// Exercise builds an exercise for pattern. Extra words come from pool; the
// pattern's own examples are always used first.
func (b *Builder) Exercise(p catalog.Pattern, pool []string) Exercise {
	label := strings.ReplaceAll(p.Name, "_", " ")
	matching := uniq(append(append([]string(nil), p.Examples...), wordlist.Filter(pool, wordlist.FilterForPattern(p))...))

	ex := Exercise{Type: TypeFor(p.Difficulty), Pattern: p.Name}
	switch ex.Type {
	case WordRecognition:
		ex.Instructions = fmt.Sprintf("Read these %s words:", label)
		ex.Activity = "Read each word clearly and listen for the sound pattern"
		ex.Words = b.pick(matching, 6)
	case SoundMatching:
		ex.Instructions = fmt.Sprintf("Which words have the %s sound?", label)
		ex.Activity = "Identify which words contain the target sound pattern"
		ex.Words = b.pick(matching, 3)
		others := wordlist.Filter(append(append([]string(nil), pool...), fallbackDistractors...), func(w string) bool {
			return !p.Matches(w)
		})
		ex.Distractors = b.pick(uniq(others), 3)
	default:
		ex.Instructions = fmt.Sprintf("Build words with %s sounds:", label)
		ex.Activity = "Use the sound patterns to build new words"
		ex.Words = b.pick(matching, 4)
		ex.WordParts = append([]string(nil), p.Substrings...)
	}
	return ex
}

// Plan builds one exercise per focus pattern. Unknown pattern names are
// skipped; an empty focus falls back to DefaultFocus.
func (b *Builder) Plan(focus []string, readingLevel int, pool []string) Plan {
	if len(focus) == 0 {
		focus = DefaultFocus(readingLevel)
	}
	var plan Plan
	for _, name := range focus {
		p, ok := b.cat.Lookup(name)
		if !ok {
			continue
		}
		plan.Patterns = append(plan.Patterns, name)
		plan.Exercises = append(plan.Exercises, b.Exercise(p, pool))
	}
	plan.Instructions = instructions(plan.Patterns)
	plan.EstimatedMinutes = len(plan.Exercises) * MinutesPerExercise
	return plan
}

func instructions(patterns []string) string {
	if len(patterns) == 0 {
		return "Nothing to practice right now."
	}
	labels := make([]string, len(patterns))
	for i, p := range patterns {
		labels[i] = strings.ReplaceAll(p, "_", " ")
	}
	if len(labels) == 1 {
		return fmt.Sprintf("Today we're going to practice %s sounds. Take your time and sound out each word carefully.", labels[0])
	}
	return fmt.Sprintf("Today we're going to practice %s and %s sounds. Listen carefully to each sound pattern.",
		strings.Join(labels[:len(labels)-1], ", "), labels[len(labels)-1])
}

// pick returns up to n words. The first words keep their order so examples
// lead; the rest are shuffled in.
func (b *Builder) pick(words []string, n int) []string {
	if len(words) <= n {
		return append([]string(nil), words...)
	}
	out := append([]string(nil), words[:n/2]...)
	rest := append([]string(nil), words[n/2:]...)
	b.rnd.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	return append(out, rest[:n-len(out)]...)
}

func uniq(words []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok || w == "" {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
