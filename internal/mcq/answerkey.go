package mcq

import (
	"regexp"
	"strconv"
	"strings"
)

// An answer-key line is a question number, one or more of "." ")" ":" or
// whitespace, then letters separated freely by commas and spaces.
var keyLineRe = regexp.MustCompile(`^(\d+)[.):\s]+([A-Za-z ,]+)$`)

// ParseAnswerKey reads a pasted answer-key text into a question number to
// letters mapping. Lines that do not look like key lines are skipped
// silently so free-form paste is tolerated. Duplicate letters and their
// order are preserved as matched.
func ParseAnswerKey(text string) map[int][]string {
	out := make(map[int][]string)

	for _, line := range strings.Split(lineBreakVariant.Replace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := keyLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		var letters []string
		for _, r := range strings.ToUpper(m[2]) {
			if r >= 'A' && r <= 'E' {
				letters = append(letters, string(r))
			}
		}
		if len(letters) > 0 {
			out[number] = letters
		}
	}
	return out
}

// ApplyAnswerKey merges a parsed key into a row model: every answer's
// correctness mark is cleared first, then set wherever the answer's letter
// appears under its question's number in the key. Questions absent from
// the key end up fully unkeyed. The input is not mutated.
func ApplyAnswerKey(rows []Row, keyMap map[int][]string) []Row {
	out := cloneRows(rows)

	current := 0
	for i := range out {
		switch out[i].Kind {
		case KindQuestion:
			current, _ = strconv.Atoi(out[i].Label)
		case KindAnswer:
			out[i].IsCorrectKey = false
			for _, l := range keyMap[current] {
				if l == out[i].Label {
					out[i].IsCorrectKey = true
					break
				}
			}
		}
	}
	return out
}
