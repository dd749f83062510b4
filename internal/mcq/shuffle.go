package mcq

import "math/rand"

// Rand supplies uniform random indices for shuffling. *rand.Rand satisfies
// it; tests inject a seeded source to pin down permutations.
type Rand interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

func orDefault(rng Rand) Rand {
	if rng == nil {
		return globalRand{}
	}
	return rng
}

// shuffleLocked runs Fisher-Yates over items while every index for which
// pinned returns true keeps its absolute position. Pinned items are pulled
// out by ascending index, the remainder is shuffled, and the pinned items
// go back to their original slots.
func shuffleLocked[T any](items []T, pinned func(int) bool, rng Rand) []T {
	free := make([]T, 0, len(items))
	for i, it := range items {
		if !pinned(i) {
			free = append(free, it)
		}
	}

	for i := len(free) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		free[i], free[j] = free[j], free[i]
	}

	out := make([]T, len(items))
	next := 0
	for i := range items {
		if pinned(i) {
			out[i] = items[i]
		} else {
			out[i] = free[next]
			next++
		}
	}
	return out
}

// ShuffleSections reorders whole sections (header-to-header row runs).
// A section whose first row is locked keeps its position. Question order
// inside each section is untouched. The input is not mutated.
func ShuffleSections(rows []Row, rng Rand) []Row {
	rng = orDefault(rng)
	secs := sections(cloneRows(rows))

	shuffled := shuffleLocked(secs, func(i int) bool {
		return len(secs[i]) > 0 && secs[i][0].Locked
	}, rng)

	out := make([]Row, 0, len(rows))
	for _, s := range shuffled {
		out = append(out, s...)
	}
	return out
}

// ShuffleQuestions reorders question blocks within each section. The
// section header block always keeps its position, as does any block whose
// Question row is locked. Blocks never cross section boundaries. The input
// is not mutated.
func ShuffleQuestions(rows []Row, rng Rand) []Row {
	rng = orDefault(rng)
	out := make([]Row, 0, len(rows))

	for _, sec := range sections(cloneRows(rows)) {
		blocks := questionBlocks(sec)
		shuffled := shuffleLocked(blocks, func(i int) bool {
			b := blocks[i]
			return b.header || (len(b.rows) > 0 && b.rows[0].Locked)
		}, rng)
		out = append(out, flattenBlocks(shuffled)...)
	}
	return out
}

// ShuffleAnswers reorders the answer rows inside every question block,
// pinning each block's Question row, its trailing empty row, and any
// individually locked answer, then reletters the whole document so every
// question reads A, B, C, ... again. The correctness mark travels with its
// row, so which option is correct survives the reletter. The input is not
// mutated.
func ShuffleAnswers(rows []Row, rng Rand) []Row {
	rng = orDefault(rng)
	out := make([]Row, 0, len(rows))

	for _, sec := range sections(cloneRows(rows)) {
		for _, b := range questionBlocks(sec) {
			if b.header {
				out = append(out, b.rows...)
				continue
			}
			rs := b.rows
			shuffled := shuffleLocked(rs, func(i int) bool {
				return i == 0 || i == len(rs)-1 || rs[i].Locked
			}, rng)
			out = append(out, shuffled...)
		}
	}

	return reletter(out)
}

// reletter walks the document and reassigns sequential letters to each
// question's answer rows in their current order.
func reletter(rows []Row) []Row {
	letter := byte('A')
	for i := range rows {
		switch rows[i].Kind {
		case KindQuestion:
			letter = 'A'
		case KindAnswer:
			rows[i].Label = string(letter)
			letter++
		}
	}
	return rows
}
