package mcq

import (
	"reflect"
	"testing"
)

type rowSpec struct {
	kind  RowKind
	label string
	text  string
	key   bool
}

func assertRows(t *testing.T, got []Row, want []rowSpec) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("row count = %d, want %d\nrows: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		r := got[i]
		if r.ID != i {
			t.Errorf("row %d: id = %d, want %d", i, r.ID, i)
		}
		if r.Kind != w.kind {
			t.Errorf("row %d: kind = %q, want %q", i, r.Kind, w.kind)
		}
		if r.Label != w.label {
			t.Errorf("row %d: label = %q, want %q", i, r.Label, w.label)
		}
		if r.Text != w.text {
			t.Errorf("row %d: text = %q, want %q", i, r.Text, w.text)
		}
		if r.IsCorrectKey != w.key {
			t.Errorf("row %d: isCorrectKey = %v, want %v", i, r.IsCorrectKey, w.key)
		}
	}
}

func TestParse_TwoQuestions(t *testing.T) {
	rows := Parse("1. Q1? A. a1 B. a2\n2. Q2? A. a1 B. a2")
	assertRows(t, rows, []rowSpec{
		{kind: KindSection, label: "S"},
		{kind: KindEmpty},
		{kind: KindQuestion, label: "1", text: "Q1?"},
		{kind: KindAnswer, label: "A", text: "a1"},
		{kind: KindAnswer, label: "B", text: "a2"},
		{kind: KindEmpty},
		{kind: KindQuestion, label: "2", text: "Q2?"},
		{kind: KindAnswer, label: "A", text: "a1"},
		{kind: KindAnswer, label: "B", text: "a2"},
		{kind: KindEmpty},
	})

	if rows[2].OriginalNumber != 1 || rows[6].OriginalNumber != 2 {
		t.Errorf("original numbers = %d, %d, want 1, 2", rows[2].OriginalNumber, rows[6].OriginalNumber)
	}
}

func TestParse_SectionHeaders(t *testing.T) {
	rows := Parse("### Part One\n1. Q? A. x B. y\n### Part Two\n2. Q2? A. x B. y")
	assertRows(t, rows, []rowSpec{
		{kind: KindSection, label: "S", text: "Part One"},
		{kind: KindEmpty},
		{kind: KindQuestion, label: "1", text: "Q?"},
		{kind: KindAnswer, label: "A", text: "x"},
		{kind: KindAnswer, label: "B", text: "y"},
		{kind: KindEmpty},
		{kind: KindSection, label: "S", text: "Part Two"},
		{kind: KindEmpty},
		{kind: KindQuestion, label: "2", text: "Q2?"},
		{kind: KindAnswer, label: "A", text: "x"},
		{kind: KindAnswer, label: "B", text: "y"},
		{kind: KindEmpty},
	})
}

func TestParse_LeadingTextBecomesSection(t *testing.T) {
	rows := Parse("Final Exam, Spring Term\n1. Q? A. x B. y")
	assertRows(t, rows, []rowSpec{
		{kind: KindSection, label: "S", text: "Final Exam, Spring Term"},
		{kind: KindEmpty},
		{kind: KindQuestion, label: "1", text: "Q?"},
		{kind: KindAnswer, label: "A", text: "x"},
		{kind: KindAnswer, label: "B", text: "y"},
		{kind: KindEmpty},
	})
}

func TestParse_NoMarkersAtAll(t *testing.T) {
	rows := Parse("just instructions,\nno questions here")
	assertRows(t, rows, []rowSpec{
		{kind: KindSection, label: "S", text: "just instructions,\nno questions here"},
		{kind: KindEmpty},
	})
}

func TestParse_Empty(t *testing.T) {
	if rows := Parse("  \n\t \n"); len(rows) != 0 {
		t.Fatalf("rows = %+v, want none", rows)
	}
}

func TestParse_QuestionDetails(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []rowSpec
	}{
		{
			name: "point annotation is discarded",
			in:   "1. (2 pts) What is it? A. this B. that",
			want: []rowSpec{
				{kind: KindSection, label: "S"},
				{kind: KindEmpty},
				{kind: KindQuestion, label: "1", text: "What is it?"},
				{kind: KindAnswer, label: "A", text: "this"},
				{kind: KindAnswer, label: "B", text: "that"},
				{kind: KindEmpty},
			},
		},
		{
			name: "star marks the correct option",
			in:   "1. Q? *A. right B. wrong",
			want: []rowSpec{
				{kind: KindSection, label: "S"},
				{kind: KindEmpty},
				{kind: KindQuestion, label: "1", text: "Q?"},
				{kind: KindAnswer, label: "A", text: "right", key: true},
				{kind: KindAnswer, label: "B", text: "wrong"},
				{kind: KindEmpty},
			},
		},
		{
			name: "lowercase letters and paren delimiters",
			in:   "7) Q? a) one b) two *c) three",
			want: []rowSpec{
				{kind: KindSection, label: "S"},
				{kind: KindEmpty},
				{kind: KindQuestion, label: "7", text: "Q?"},
				{kind: KindAnswer, label: "A", text: "one"},
				{kind: KindAnswer, label: "B", text: "two"},
				{kind: KindAnswer, label: "C", text: "three", key: true},
			},
		},
		{
			name: "answer text may contain punctuation",
			in:   "1. Q? A. first option B. second, with comma C. third",
			want: []rowSpec{
				{kind: KindSection, label: "S"},
				{kind: KindEmpty},
				{kind: KindQuestion, label: "1", text: "Q?"},
				{kind: KindAnswer, label: "A", text: "first option"},
				{kind: KindAnswer, label: "B", text: "second, with comma"},
				{kind: KindAnswer, label: "C", text: "third"},
			},
		},
		{
			name: "question without answers stays a question",
			in:   "1. Explain the water cycle.",
			want: []rowSpec{
				{kind: KindSection, label: "S"},
				{kind: KindEmpty},
				{kind: KindQuestion, label: "1", text: "Explain the water cycle."},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := tc.want
			// Every question block is terminated by one empty row.
			if want[len(want)-1].kind != KindEmpty {
				want = append(want, rowSpec{kind: KindEmpty})
			}
			assertRows(t, Parse(tc.in), want)
		})
	}
}

func TestParse_NormalizesLineBreaks(t *testing.T) {
	rows := Parse("Intro text\r\n1. Q? A. x B. y")
	if rows[0].Text != "Intro\ntext" {
		t.Errorf("section text = %q, want %q", rows[0].Text, "Intro\ntext")
	}
	if rows[2].Kind != KindQuestion || rows[2].Label != "1" {
		t.Errorf("row 2 = %+v, want question 1", rows[2])
	}
}

func TestParse_Deterministic(t *testing.T) {
	in := "### Header\n1. (1pt) Q? *A. x B. y C. z\n2. Q2? A. x B. y"
	a := Parse(in)
	b := Parse(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parse is not deterministic:\n%+v\nvs\n%+v", a, b)
	}
}

func TestParseQuestionBlock_NoLeadingNumber(t *testing.T) {
	if _, err := parseQuestionBlock("not a question at all"); err == nil {
		t.Fatal("expected an error for a block without a leading number")
	}
}
