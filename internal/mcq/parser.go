package mcq

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Block start markers are matched at line starts only: a short decimal
// number followed by "." or ")" opens a question block, "###" opens a
// section block. Answer markers may appear anywhere inside a question
// block: an optional correctness star, one option letter, a "." or ")"
// delimiter, then whitespace.
var (
	blockMarkerRe    = regexp.MustCompile(`(?m)^(?:\d{1,3}[.)]|###)`)
	questionLeadRe   = regexp.MustCompile(`^(\d{1,3})[.)]`)
	pointAnnotateRe  = regexp.MustCompile(`^\s*\([^)]*\)`)
	answerMarkerRe   = regexp.MustCompile(`(\*?)([A-Ea-e])[.)]\s+`)
	sectionHeaderRe  = regexp.MustCompile(`^###[ \t]*`)
	lineBreakVariant = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\v", "\n",
		"\f", "\n",
		"", "\n",
		" ", "\n",
		" ", "\n",
	)
)

var errNoQuestionNumber = errors.New("question block has no leading number")

// Parse converts raw pasted exam text into a row model. It never fails:
// question blocks that cannot be parsed degrade to a single error row
// carrying the offending text, and the rest of the document still parses.
func Parse(raw string) []Row {
	text := strings.TrimSpace(lineBreakVariant.Replace(raw))
	if text == "" {
		return nil
	}

	marks := blockMarkerRe.FindAllStringIndex(text, -1)
	if len(marks) == 0 {
		rows := []Row{
			{Kind: KindSection, Label: labelSection, Text: text},
			{Kind: KindEmpty},
		}
		return renumber(rows)
	}

	var rows []Row
	lead := strings.TrimSpace(text[:marks[0][0]])
	if lead != "" || !strings.HasPrefix(text[marks[0][0]:], "###") {
		// Questions always belong to a section: a document that opens with
		// a question marker gets an implicit leading section carrying
		// whatever text (possibly none) preceded the marker.
		rows = append(rows,
			Row{Kind: KindSection, Label: labelSection, Text: lead},
			Row{Kind: KindEmpty},
		)
	}

	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		blockText := strings.TrimSpace(text[m[0]:end])
		if strings.HasPrefix(blockText, "###") {
			title := strings.TrimSpace(sectionHeaderRe.ReplaceAllString(blockText, ""))
			rows = append(rows,
				Row{Kind: KindSection, Label: labelSection, Text: title},
				Row{Kind: KindEmpty},
			)
			continue
		}

		qRows, err := parseQuestionBlock(blockText)
		if err != nil {
			rows = append(rows,
				Row{Kind: KindError, Label: labelError, Text: blockText},
				Row{Kind: KindEmpty},
			)
			continue
		}
		rows = append(rows, qRows...)
		rows = append(rows, Row{Kind: KindEmpty})
	}

	return renumber(rows)
}

// parseQuestionBlock turns one question block (leading number through the
// last answer) into a Question row plus zero or more Answer rows. A block
// without a leading number fails; a block without any answer marker yields
// the Question row alone.
func parseQuestionBlock(blockText string) ([]Row, error) {
	lead := questionLeadRe.FindStringSubmatch(blockText)
	if lead == nil {
		return nil, errNoQuestionNumber
	}
	number, err := strconv.Atoi(lead[1])
	if err != nil {
		return nil, errNoQuestionNumber
	}

	rest := blockText[len(lead[0]):]
	// An annotation right after the number, like "(2 pts)", is consumed
	// and discarded.
	if ann := pointAnnotateRe.FindStringIndex(rest); ann != nil {
		rest = rest[ann[1]:]
	}

	marks := answerMarkerRe.FindAllStringSubmatchIndex(rest, -1)
	if len(marks) == 0 {
		return []Row{{
			Kind:           KindQuestion,
			Label:          lead[1],
			Text:           strings.TrimSpace(rest),
			OriginalNumber: number,
		}}, nil
	}

	rows := []Row{{
		Kind:           KindQuestion,
		Label:          lead[1],
		Text:           strings.TrimSpace(rest[:marks[0][0]]),
		OriginalNumber: number,
	}}

	for i, m := range marks {
		contentEnd := len(rest)
		if i+1 < len(marks) {
			contentEnd = marks[i+1][0]
		}
		star := rest[m[2]:m[3]] == "*"
		letter := strings.ToUpper(rest[m[4]:m[5]])
		rows = append(rows, Row{
			Kind:         KindAnswer,
			Label:        letter,
			Text:         strings.TrimSpace(rest[m[1]:contentEnd]),
			IsCorrectKey: star,
		})
	}
	return rows, nil
}

// renumber assigns dense, monotonic ids in document order.
func renumber(rows []Row) []Row {
	for i := range rows {
		rows[i].ID = i
	}
	return rows
}
