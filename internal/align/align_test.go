package align

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/umeed/internal/model"
)

func words(s string) []string {
	return strings.Fields(s)
}

func TestAlignIdentical(t *testing.T) {
	ref := words("the cat sat on the mat")
	res := Align(ref, ref)
	assert.Equal(t, 1.0, res.Accuracy)
	assert.Empty(t, res.Mistakes)
	assert.Equal(t, ref, res.Aligned)
	assert.Equal(t, 6, res.Matched)
	assert.False(t, res.InsufficientData)
}

func TestAlignSingleSubstitution(t *testing.T) {
	res := Align(words("the cat sat on the mat"), words("the dog sat on the mat"))
	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, model.Mistake{Kind: model.MistakeSubstitution, Expected: "cat", Actual: "dog", Position: 1}, res.Mistakes[0])
	assert.InDelta(t, 5.0/6.0, res.Accuracy, 1e-9)
	assert.Equal(t, []Pair{{Position: 1, Expected: "cat", Actual: "dog"}}, res.Pairs)
	assert.Equal(t, "dog", res.Aligned[1])
}

func TestAlignSingleOmission(t *testing.T) {
	res := Align(words("the cat sat on the mat"), words("the cat sat the mat"))
	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, model.Mistake{Kind: model.MistakeOmission, Expected: "on", Position: 3}, res.Mistakes[0])
	assert.InDelta(t, 5.0/6.0, res.Accuracy, 1e-9)
	assert.Equal(t, "", res.Aligned[3])
}

func TestAlignInsertionDoesNotReduceAccuracy(t *testing.T) {
	res := Align(words("the cat sat"), words("the big cat sat"))
	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, model.MistakeInsertion, res.Mistakes[0].Kind)
	assert.Equal(t, "big", res.Mistakes[0].Actual)
	assert.Equal(t, 1, res.Mistakes[0].Position)
	assert.Equal(t, 1.0, res.Accuracy)
	assert.Equal(t, 1, res.Inserted)
}

func TestAlignGroupsAdjacentSubstitutions(t *testing.T) {
	res := Align(words("a big red dog ran"), words("a small blue dog ran"))
	require.Len(t, res.Mistakes, 1)
	m := res.Mistakes[0]
	assert.Equal(t, model.MistakeSubstitution, m.Kind)
	assert.Equal(t, "big red", m.Expected)
	assert.Equal(t, "small blue", m.Actual)
	assert.Equal(t, 1, m.Position)
	assert.Equal(t, 2, res.Substituted)
	assert.InDelta(t, 3.0/5.0, res.Accuracy, 1e-9)
}

func TestAlignPrefersFewerGroups(t *testing.T) {
	// "x y" can align around the repeated "a" two ways with the same number
	// of matches; the grouped reading should be reported.
	res := Align(words("a b a"), words("a x y a"))
	assert.Len(t, res.Mistakes, 1)
	assert.Equal(t, 2, res.Matched)
}

func TestAlignEmptyReference(t *testing.T) {
	res := Align(nil, words("hello there"))
	assert.True(t, res.InsufficientData)
	assert.Equal(t, 0.0, res.Accuracy)
	assert.Empty(t, res.Mistakes)
}

func TestAlignEmptyTranscript(t *testing.T) {
	res := Align(words("one two three"), nil)
	assert.Equal(t, 0.0, res.Accuracy)
	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, model.MistakeOmission, res.Mistakes[0].Kind)
	assert.Equal(t, "one two three", res.Mistakes[0].Expected)
	assert.Equal(t, 3, res.Omitted)
}

func TestAlignAccuracyBounds(t *testing.T) {
	refs := []string{"a", "a b c", "the quick brown fox", "one one one"}
	gots := []string{"", "a", "b a c", "the the the the", "x y z w v u", "one"}
	for _, r := range refs {
		for _, g := range gots {
			res := Align(words(r), words(g))
			assert.GreaterOrEqual(t, res.Accuracy, 0.0)
			assert.LessOrEqual(t, res.Accuracy, 1.0)
			assert.Equal(t, len(words(r)), res.Matched+res.Substituted+res.Omitted, "ref=%q got=%q", r, g)
		}
	}
}

func TestAlignMoreCorrectWordsNeverLowersAccuracy(t *testing.T) {
	ref := words("we went to the park after lunch")
	read := words("xx xx xx xx xx xx xx")
	prev := Align(ref, read).Accuracy
	for i := range ref {
		read[i] = ref[i]
		acc := Align(ref, read).Accuracy
		assert.GreaterOrEqual(t, acc, prev)
		prev = acc
	}
	assert.Equal(t, 1.0, prev)
}
