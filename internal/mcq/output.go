package mcq

import (
	"fmt"
	"strings"
)

// OutputConfig drives the plain-text rendering of a row model. Zero-value
// suffixes fall back to the ")" style.
type OutputConfig struct {
	StartNumber  int    `json:"start_number"`
	NumberSuffix string `json:"number_suffix"`
	LetterSuffix string `json:"letter_suffix"`
	Lowercase    bool   `json:"lowercase"`
}

const (
	defaultNumberSuffix = ")"
	defaultLetterSuffix = ") "
)

// GenerateOutput renders a row model to exam text. Questions are numbered
// with a running counter seeded at StartNumber regardless of their parsed
// labels; answer letters are emitted as stored, lowercased on request.
func GenerateOutput(rows []Row, cfg OutputConfig) string {
	numberSuffix := cfg.NumberSuffix
	if numberSuffix == "" {
		numberSuffix = defaultNumberSuffix
	}
	letterSuffix := cfg.LetterSuffix
	if letterSuffix == "" {
		letterSuffix = defaultLetterSuffix
	}
	counter := cfg.StartNumber

	var b strings.Builder
	for _, r := range rows {
		switch r.Kind {
		case KindSection:
			b.WriteString(r.Text)
			b.WriteString("\n")
		case KindQuestion:
			fmt.Fprintf(&b, "%d%s %s\n", counter, numberSuffix, r.Text)
			counter++
		case KindAnswer:
			letter := r.Label
			if cfg.Lowercase {
				letter = strings.ToLower(letter)
			}
			b.WriteString(letter)
			b.WriteString(letterSuffix)
			b.WriteString(r.Text)
			b.WriteString("\n")
		case KindEmpty:
			b.WriteString("\n")
		case KindError:
			b.WriteString(r.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// GenerateAnswerKey renders one summary line per question, in the form
// "3. B, D", numbering questions with a running counter seeded at
// startNumber. Questions with no keyed answer still get a line.
func GenerateAnswerKey(rows []Row, startNumber int) []string {
	var out []string
	for _, t := range BubbleTuples(rows, startNumber) {
		line := fmt.Sprintf("%d. %s", t.Number, strings.Join(t.Letters, ", "))
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

// BubbleTuple pairs a rendered question number with the letters of its
// keyed answers, for answer-key summaries and bubble-sheet rendering.
type BubbleTuple struct {
	Number  int      `json:"number"`
	Letters []string `json:"letters"`
}

// BubbleTuples groups keyed-answer letters per question, flushing on each
// new Question row and at end of input.
func BubbleTuples(rows []Row, startNumber int) []BubbleTuple {
	var out []BubbleTuple
	counter := startNumber
	open := false
	var letters []string

	flush := func() {
		if open {
			out = append(out, BubbleTuple{Number: counter, Letters: letters})
			counter++
		}
	}

	for _, r := range rows {
		switch r.Kind {
		case KindQuestion:
			flush()
			open = true
			letters = nil
		case KindAnswer:
			if r.IsCorrectKey {
				letters = append(letters, r.Label)
			}
		}
	}
	flush()
	return out
}
