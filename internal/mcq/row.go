// Package mcq implements the exam text engine: parsing free-form pasted
// multiple-choice exam text into a flat row model, validating the model's
// structure, shuffling sections/questions/answers under per-row locks, and
// rendering the result back to text.
package mcq

import "strconv"

type RowKind string

const (
	KindSection  RowKind = "section"
	KindQuestion RowKind = "question"
	KindAnswer   RowKind = "answer"
	KindEmpty    RowKind = "empty"
	KindError    RowKind = "error"
)

const (
	labelSection = "S"
	labelError   = "error"
)

// Row is the atomic unit of a parsed exam. A document is a flat ordered
// []Row; hierarchy (sections owning questions owning answers) is never
// stored, it is re-derived by segmentation whenever an operation needs it.
type Row struct {
	ID             int     `json:"id"`
	Kind           RowKind `json:"kind"`
	Label          string  `json:"label"`
	Text           string  `json:"text"`
	IsCorrectKey   bool    `json:"is_correct_key"`
	Locked         bool    `json:"locked"`
	OriginalNumber int     `json:"original_number,omitempty"`
}

// cloneRows returns an independent copy of rows. Row has no reference
// fields, so a slice copy is a deep copy.
func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

func isAnswerLabel(label string) bool {
	return len(label) == 1 && label[0] >= 'A' && label[0] <= 'E'
}

func isNumericLabel(label string) bool {
	if label == "" {
		return false
	}
	_, err := strconv.Atoi(label)
	return err == nil
}

// sections splits rows into contiguous section runs. A run starts at each
// Section row; rows before the first Section row form an implicit leading
// section.
func sections(rows []Row) [][]Row {
	var out [][]Row
	start := 0
	for i, r := range rows {
		if r.Kind == KindSection && i > start {
			out = append(out, rows[start:i])
			start = i
		}
	}
	if start < len(rows) {
		out = append(out, rows[start:])
	}
	return out
}

// block is a contiguous run of rows belonging to one question (the Question
// row plus its trailing Answer/Empty rows) or to a section header.
type block struct {
	rows   []Row
	header bool
}

// questionBlocks splits one section into its header block (the rows before
// the first Question row, if any) followed by one block per question.
func questionBlocks(section []Row) []block {
	var out []block
	start := 0
	for i, r := range section {
		if r.Kind != KindQuestion {
			continue
		}
		if i > start {
			out = append(out, block{rows: section[start:i], header: start == 0 && section[0].Kind != KindQuestion})
		}
		start = i
	}
	if len(section) == 0 {
		return out
	}
	if start == 0 && section[0].Kind != KindQuestion {
		return []block{{rows: section, header: true}}
	}
	out = append(out, block{rows: section[start:]})
	return out
}

func flattenBlocks(blocks []block) []Row {
	n := 0
	for _, b := range blocks {
		n += len(b.rows)
	}
	out := make([]Row, 0, n)
	for _, b := range blocks {
		out = append(out, b.rows...)
	}
	return out
}
