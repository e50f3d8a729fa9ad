package game

import (
	"sort"
	"time"
)

// Active describes the single clue a team may currently attempt.
// StartedAt anchors elapsed-time scoring: the global event start for the
// first clue, otherwise the moment the previous clue left the queue.
// Consecutive scoring windows chain end-to-end with no gaps.
type Active struct {
	Clue      Clue
	Index     int
	StartedAt time.Time
}

// SortClues orders clues by ascending ID, the sequence position within
// a domain. The input slice is not modified.
func SortClues(clues []Clue) []Clue {
	sorted := make([]Clue, len(clues))
	copy(sorted, clues)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

// ActiveClue scans the sorted clue list for the first clue without a
// progress entry. The sequence is strictly linear: a clue is unlocked
// only when its predecessor is done, so the first unsolved clue is
// always the active one and everything after it is locked.
//
// Returns ok=false when the list is empty or every clue is done.
func ActiveClue(sorted []Clue, solvedAt map[int64]time.Time, eventStart time.Time) (Active, bool) {
	for i, clue := range sorted {
		if _, done := solvedAt[clue.ID]; done {
			continue
		}

		start := eventStart
		if i > 0 {
			start = solvedAt[sorted[i-1].ID]
		}
		return Active{Clue: clue, Index: i, StartedAt: start}, true
	}
	return Active{}, false
}

// ProgressIndex converts progress rows into the solved-at lookup used
// by ActiveClue.
func ProgressIndex(progress []Progress) map[int64]time.Time {
	solved := make(map[int64]time.Time, len(progress))
	for _, p := range progress {
		solved[p.ClueID] = p.SolvedAt
	}
	return solved
}
