package practice

import (
	"reflect"
	"strings"
	"testing"

	"github.com/verte-zerg/umeed/internal/catalog"
)

func mustPattern(t *testing.T, name string) catalog.Pattern {
	t.Helper()
	p, ok := catalog.Default().Lookup(name)
	if !ok {
		t.Fatalf("pattern %q missing", name)
	}
	return p
}

func TestTypeForDifficulty(t *testing.T) {
	cases := map[int]ExerciseType{0: WordRecognition, 1: WordRecognition, 2: SoundMatching, 3: WordBuilding, 4: WordBuilding}
	for d, want := range cases {
		if got := TypeFor(d); got != want {
			t.Fatalf("difficulty %d: expected %s, got %s", d, want, got)
		}
	}
}

func TestWordsFavourFocusPatterns(t *testing.T) {
	b := NewSeeded(catalog.Default(), 7)
	words := b.Words([]string{"cat", "ship"}, 400, []string{"digraphs"}, 20)
	if len(words) != 400 {
		t.Fatalf("expected 400 words, got %d", len(words))
	}
	ship := 0
	for _, w := range words {
		if w == "ship" {
			ship++
		}
	}
	if ship < 300 {
		t.Fatalf("expected focus word to dominate, got %d/400", ship)
	}
}

func TestWordsEmptyPool(t *testing.T) {
	b := NewSeeded(catalog.Default(), 1)
	if got := b.Words(nil, 5, nil, 1); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestWordsSeededIsDeterministic(t *testing.T) {
	pool := []string{"cat", "ship", "rain", "car"}
	a := NewSeeded(catalog.Default(), 42).Words(pool, 10, []string{"vowel_teams"}, 2)
	b := NewSeeded(catalog.Default(), 42).Words(pool, 10, []string{"vowel_teams"}, 2)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected same sequence, got %v and %v", a, b)
	}
}

func TestWordRecognitionUsesExamples(t *testing.T) {
	b := NewSeeded(catalog.Default(), 1)
	p := mustPattern(t, "short_vowels")
	ex := b.Exercise(p, nil)
	if ex.Type != WordRecognition {
		t.Fatalf("unexpected type %s", ex.Type)
	}
	if !reflect.DeepEqual(ex.Words, p.Examples) {
		t.Fatalf("unexpected words: %v", ex.Words)
	}
	if !strings.Contains(ex.Instructions, "short vowels") {
		t.Fatalf("unexpected instructions: %q", ex.Instructions)
	}
}

func TestSoundMatchingDistractorsMissPattern(t *testing.T) {
	b := NewSeeded(catalog.Default(), 3)
	p := mustPattern(t, "long_vowels")
	ex := b.Exercise(p, []string{"bike", "dog", "map"})
	if ex.Type != SoundMatching {
		t.Fatalf("unexpected type %s", ex.Type)
	}
	if len(ex.Words) != 3 || ex.Words[0] != "cake" {
		t.Fatalf("unexpected words: %v", ex.Words)
	}
	for _, w := range ex.Words {
		if !p.Matches(w) {
			t.Fatalf("target %q should match pattern", w)
		}
	}
	if len(ex.Distractors) != 3 {
		t.Fatalf("expected 3 distractors, got %v", ex.Distractors)
	}
	for _, w := range ex.Distractors {
		if p.Matches(w) {
			t.Fatalf("distractor %q matches pattern", w)
		}
	}
}

func TestWordBuildingCarriesParts(t *testing.T) {
	b := NewSeeded(catalog.Default(), 5)
	p := mustPattern(t, "digraphs")
	ex := b.Exercise(p, []string{"shop", "cat"})
	if ex.Type != WordBuilding {
		t.Fatalf("unexpected type %s", ex.Type)
	}
	if !reflect.DeepEqual(ex.WordParts, p.Substrings) {
		t.Fatalf("unexpected parts: %v", ex.WordParts)
	}
	if len(ex.Words) != 4 || ex.Words[0] != "chair" || ex.Words[1] != "ship" {
		t.Fatalf("unexpected words: %v", ex.Words)
	}
	for _, w := range ex.Words {
		if w == "cat" {
			t.Fatalf("non-matching pool word leaked into exercise")
		}
	}
}

func TestPlanDefaultsByLevel(t *testing.T) {
	b := NewSeeded(catalog.Default(), 1)
	plan := b.Plan(nil, 1, nil)
	if !reflect.DeepEqual(plan.Patterns, []string{"short_vowels", "consonant_blends"}) {
		t.Fatalf("unexpected patterns: %v", plan.Patterns)
	}
	if plan.EstimatedMinutes != 2*MinutesPerExercise {
		t.Fatalf("unexpected minutes: %d", plan.EstimatedMinutes)
	}
	if !strings.Contains(plan.Instructions, "short vowels and consonant blends") {
		t.Fatalf("unexpected instructions: %q", plan.Instructions)
	}

	plan = b.Plan(nil, 4, nil)
	if !reflect.DeepEqual(plan.Patterns, []string{"long_vowels", "digraphs"}) {
		t.Fatalf("unexpected patterns: %v", plan.Patterns)
	}
}

func TestPlanSkipsUnknownPatterns(t *testing.T) {
	b := NewSeeded(catalog.Default(), 1)
	plan := b.Plan([]string{"nope", "r_controlled"}, 3, nil)
	if len(plan.Exercises) != 1 || plan.Exercises[0].Pattern != "r_controlled" {
		t.Fatalf("unexpected exercises: %+v", plan.Exercises)
	}
	if plan.EstimatedMinutes != MinutesPerExercise {
		t.Fatalf("unexpected minutes: %d", plan.EstimatedMinutes)
	}
}
