package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/umeed/internal/align"
	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/textnorm"
)

type wordState int

const (
	wordCorrect wordState = iota
	wordMisread
	wordSkipped
	wordInserted
)

var (
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FBF7F"))
	misreadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Underline(true)
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Strikethrough(true)
	insertedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Italic(true)
)

type passageWord struct {
	text  string
	state wordState
}

func (w passageWord) width() int {
	return runewidth.StringWidth(w.text)
}

func (w passageWord) render() string {
	switch w.state {
	case wordMisread:
		return misreadStyle.Render(w.text)
	case wordSkipped:
		return skippedStyle.Render(w.text)
	case wordInserted:
		return insertedStyle.Render(w.text)
	default:
		return correctStyle.Render(w.text)
	}
}

// passageWords realigns a stored session and labels every word. Misread
// words show what was said after an arrow; extra words sit where they were
// spoken, in brackets.
func passageWords(reference, transcript string) []passageWord {
	ref := textnorm.Normalize(reference)
	res := align.Align(ref, textnorm.Normalize(transcript))
	if res.InsufficientData {
		return nil
	}
	inserted := map[int][]string{}
	for _, mk := range res.Mistakes {
		if mk.Kind == model.MistakeInsertion {
			inserted[mk.Position] = append(inserted[mk.Position], strings.Fields(mk.Actual)...)
		}
	}
	addInserted := func(out []passageWord, pos int) []passageWord {
		for _, w := range inserted[pos] {
			out = append(out, passageWord{text: "[" + w + "]", state: wordInserted})
		}
		return out
	}

	out := make([]passageWord, 0, len(ref))
	for i, word := range ref {
		out = addInserted(out, i)
		got := res.Aligned[i]
		switch {
		case got == word:
			out = append(out, passageWord{text: word, state: wordCorrect})
		case got == "":
			out = append(out, passageWord{text: word, state: wordSkipped})
		default:
			out = append(out, passageWord{text: word + "→" + got, state: wordMisread})
		}
	}
	return addInserted(out, len(ref))
}

// renderPassage colours the reference by how each word was read and wraps
// it to width.
func renderPassage(reference, transcript string, width int) string {
	words := passageWords(reference, transcript)
	if len(words) == 0 {
		return "Nothing to show."
	}
	return wrapWords(words, width)
}

func wrapWords(words []passageWord, width int) string {
	var out strings.Builder
	lineWidth := 0
	for i, w := range words {
		ww := w.width()
		if i > 0 {
			if width > 0 && lineWidth+1+ww > width {
				out.WriteRune('\n')
				lineWidth = 0
			} else {
				out.WriteRune(' ')
				lineWidth++
			}
		}
		out.WriteString(w.render())
		lineWidth += ww
	}
	return out.String()
}

func passageLegend() string {
	return strings.Join([]string{
		correctStyle.Render("read"),
		misreadStyle.Render("misread→said"),
		skippedStyle.Render("skipped"),
		insertedStyle.Render("[extra]"),
	}, "  ")
}
