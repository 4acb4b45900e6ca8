// Package align matches transcribed words against reference words and
// reports the divergences as grouped mistakes.
package align

import (
	"strings"

	"github.com/verte-zerg/umeed/internal/model"
)

// Pair is one reference word read as a different word inside a substitution run.
type Pair struct {
	Position int
	Expected string
	Actual   string
}

// Result is the outcome of aligning one reading attempt.
type Result struct {
	Accuracy float64
	Mistakes []model.Mistake
	// Aligned holds, for every reference word, the transcribed word it was
	// aligned with, or "" when the reference word was not read.
	Aligned []string
	// Pairs lists substituted reference words paired positionally with the
	// words read in their place.
	Pairs []Pair

	Matched     int
	Substituted int
	Omitted     int
	Inserted    int

	// InsufficientData is set when the reference is empty and no accuracy
	// can be computed.
	InsufficientData bool
}

type opKind uint8

const (
	opMatch opKind = iota
	opDelete
	opInsert
)

type score struct {
	matches int
	groups  int
}

func (s score) better(o score) bool {
	if s.matches != o.matches {
		return s.matches > o.matches
	}
	return s.groups < o.groups
}

// Align computes the edit script between reference and transcribed words.
// Matches are maximized first; among equally good alignments the one with
// the fewest mistake groups wins, so a misread phrase is reported once.
func Align(reference, transcribed []string) Result {
	n := len(reference)
	if n == 0 {
		res := Result{
			InsufficientData: true,
			Mistakes:         []model.Mistake{},
			Aligned:          []string{},
		}
		return res
	}

	ops := editScript(reference, transcribed)
	res := Result{
		Mistakes: []model.Mistake{},
		Aligned:  make([]string, n),
	}

	i, j := 0, 0
	for k := 0; k < len(ops); {
		if ops[k] == opMatch {
			res.Aligned[i] = transcribed[j]
			res.Matched++
			i++
			j++
			k++
			continue
		}
		i1, j1 := i, j
		for k < len(ops) && ops[k] != opMatch {
			if ops[k] == opDelete {
				i++
			} else {
				j++
			}
			k++
		}
		res.addRun(reference, transcribed, i1, i, j1, j)
	}

	res.Accuracy = clamp01(float64(n-res.Substituted-res.Omitted) / float64(n))
	return res
}

func (r *Result) addRun(reference, transcribed []string, i1, i2, j1, j2 int) {
	refRun := reference[i1:i2]
	gotRun := transcribed[j1:j2]
	switch {
	case len(refRun) > 0 && len(gotRun) > 0:
		r.Mistakes = append(r.Mistakes, model.Mistake{
			Kind:     model.MistakeSubstitution,
			Expected: strings.Join(refRun, " "),
			Actual:   strings.Join(gotRun, " "),
			Position: i1,
		})
		r.Substituted += len(refRun)
		for k := 0; k < len(refRun) && k < len(gotRun); k++ {
			r.Aligned[i1+k] = gotRun[k]
			r.Pairs = append(r.Pairs, Pair{Position: i1 + k, Expected: refRun[k], Actual: gotRun[k]})
		}
	case len(refRun) > 0:
		r.Mistakes = append(r.Mistakes, model.Mistake{
			Kind:     model.MistakeOmission,
			Expected: strings.Join(refRun, " "),
			Position: i1,
		})
		r.Omitted += len(refRun)
	case len(gotRun) > 0:
		r.Mistakes = append(r.Mistakes, model.Mistake{
			Kind:     model.MistakeInsertion,
			Actual:   strings.Join(gotRun, " "),
			Position: i1,
		})
		r.Inserted += len(gotRun)
	}
}

// editScript fills a suffix table best[i][j][gap] holding the best score for
// aligning reference[i:] with transcribed[j:], where gap records whether the
// previous step was an edit (so a further edit extends the same group).
func editScript(reference, transcribed []string) []opKind {
	n, m := len(reference), len(transcribed)
	cols := m + 1
	best := make([]score, (n+1)*cols*2)
	at := func(i, j, gap int) int { return (i*cols+j)*2 + gap }

	for i := n; i >= 0; i-- {
		for j := m; j >= 0; j-- {
			for gap := 0; gap < 2; gap++ {
				if i == n && j == m {
					continue
				}
				var cur score
				set := false
				for _, op := range []opKind{opMatch, opDelete, opInsert} {
					cand, ok := step(reference, transcribed, best, at, i, j, gap, op)
					if !ok {
						continue
					}
					if !set || cand.better(cur) {
						cur = cand
						set = true
					}
				}
				best[at(i, j, gap)] = cur
			}
		}
	}

	ops := make([]opKind, 0, n+m)
	i, j, gap := 0, 0, 0
	for i < n || j < m {
		want := best[at(i, j, gap)]
		for _, op := range []opKind{opMatch, opDelete, opInsert} {
			cand, ok := step(reference, transcribed, best, at, i, j, gap, op)
			if !ok || cand != want {
				continue
			}
			ops = append(ops, op)
			switch op {
			case opMatch:
				i, j, gap = i+1, j+1, 0
			case opDelete:
				i, gap = i+1, 1
			case opInsert:
				j, gap = j+1, 1
			}
			break
		}
	}
	return ops
}

func step(reference, transcribed []string, best []score, at func(i, j, gap int) int, i, j, gap int, op opKind) (score, bool) {
	n, m := len(reference), len(transcribed)
	switch op {
	case opMatch:
		if i >= n || j >= m || reference[i] != transcribed[j] {
			return score{}, false
		}
		s := best[at(i+1, j+1, 0)]
		s.matches++
		return s, true
	case opDelete:
		if i >= n {
			return score{}, false
		}
		s := best[at(i+1, j, 1)]
		if gap == 0 {
			s.groups++
		}
		return s, true
	case opInsert:
		if j >= m {
			return score{}, false
		}
		s := best[at(i, j+1, 1)]
		if gap == 0 {
			s.groups++
		}
		return s, true
	}
	return score{}, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
