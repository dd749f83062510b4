package mcq

import "strconv"

// Result is the outcome of validating a row model. Rows is a full copy of
// the input with Kind flipped to error on every offending row.
type Result struct {
	Valid           bool  `json:"valid"`
	FirstErrorRowID *int  `json:"first_error_row_id,omitempty"`
	Rows            []Row `json:"rows"`
}

// Validate checks a row model against the structural grammar using only
// each row's immediate neighbors. The legal label sequence is
//
//	Empty -> Section -> Empty -> Question -> A -> B -> ... -> Empty -> Question -> ...
//
// where an answer run may stop early after B..D. Validation never heals:
// rows that are already errors stay errors. The input is not mutated.
func Validate(rows []Row) Result {
	out := cloneRows(rows)

	for i := range out {
		if out[i].Kind == KindError {
			continue
		}
		if !rowLegal(out, i) {
			out[i].Kind = KindError
		}
	}

	res := Result{Valid: true, Rows: out}
	for i := range out {
		if out[i].Kind == KindError {
			res.Valid = false
			id := out[i].ID
			res.FirstErrorRowID = &id
			break
		}
	}
	return res
}

func rowLegal(rows []Row, i int) bool {
	prev := neighborLabel(rows, i-1)
	next := neighborLabel(rows, i+1)
	label := rows[i].Label

	switch {
	case label == labelSection:
		// A section needs a blank (or document start) before it, a blank
		// after it, and a question two rows ahead.
		if prev != "" || next != "" {
			return false
		}
		return i+2 < len(rows) && isNumericLabel(rows[i+2].Label)

	case label == "":
		if prev == "A" || isNumericLabel(prev) {
			return false
		}
		return !isAnswerLabel(next)

	case isNumericLabel(label):
		return prev == "" && next == "A"

	case label == "A":
		return isNumericLabel(prev) && next == "B"

	case label == "B" || label == "C" || label == "D":
		want := string(label[0] - 1)
		after := string(label[0] + 1)
		return prev == want && (next == after || next == "")

	case label == "E":
		return prev == "D" && next == ""

	default:
		return false
	}
}

// neighborLabel treats positions outside the sequence as blank, so the
// document edges behave like empty rows.
func neighborLabel(rows []Row, i int) string {
	if i < 0 || i >= len(rows) {
		return ""
	}
	return rows[i].Label
}

// FindQuestionsWithoutKeys reports the number of every question whose
// answers carry no correctness mark at all, including the final question
// in the sequence. Advisory only.
func FindQuestionsWithoutKeys(rows []Row) []int {
	var out []int
	current := 0
	inQuestion := false
	hasKey := false

	flush := func() {
		if inQuestion && !hasKey {
			out = append(out, current)
		}
	}

	for _, r := range rows {
		switch r.Kind {
		case KindQuestion:
			flush()
			current, _ = strconv.Atoi(r.Label)
			inQuestion = true
			hasKey = false
		case KindAnswer:
			if r.IsCorrectKey {
				hasKey = true
			}
		}
	}
	flush()
	return out
}
