package game

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func domainClues(ids ...int64) []Clue {
	clues := make([]Clue, 0, len(ids))
	for _, id := range ids {
		clues = append(clues, Clue{ID: id, Domain: "Banking"})
	}
	return clues
}

func TestActiveClueFirstUnsolved(t *testing.T) {
	clues := domainClues(3, 7, 12)

	active, ok := ActiveClue(clues, map[int64]time.Time{}, t0)
	if !ok {
		t.Fatal("expected an active clue")
	}
	if active.Clue.ID != 3 || active.Index != 0 {
		t.Errorf("expected clue 3 at index 0, got clue %d at index %d", active.Clue.ID, active.Index)
	}
	if !active.StartedAt.Equal(t0) {
		t.Errorf("first clue should start at event start, got %v", active.StartedAt)
	}
}

func TestActiveClueChainsStartTime(t *testing.T) {
	clues := domainClues(3, 7, 12)
	firstSolved := t0.Add(250 * time.Second)

	active, ok := ActiveClue(clues, map[int64]time.Time{3: firstSolved}, t0)
	if !ok {
		t.Fatal("expected an active clue")
	}
	if active.Clue.ID != 7 || active.Index != 1 {
		t.Errorf("expected clue 7 at index 1, got clue %d at index %d", active.Clue.ID, active.Index)
	}
	if !active.StartedAt.Equal(firstSolved) {
		t.Errorf("second clue should start when the first was solved, got %v", active.StartedAt)
	}
}

func TestActiveClueSolvedNeverActiveAgain(t *testing.T) {
	clues := domainClues(1, 2, 3)
	solved := map[int64]time.Time{
		1: t0.Add(time.Minute),
		2: t0.Add(2 * time.Minute),
	}

	active, ok := ActiveClue(clues, solved, t0)
	if !ok {
		t.Fatal("expected an active clue")
	}
	if active.Clue.ID != 3 {
		t.Errorf("expected clue 3, got %d", active.Clue.ID)
	}
}

func TestActiveClueAllSolved(t *testing.T) {
	clues := domainClues(1, 2)
	solved := map[int64]time.Time{1: t0, 2: t0}

	if _, ok := ActiveClue(clues, solved, t0); ok {
		t.Error("expected no active clue when every clue is solved")
	}
}

func TestActiveClueEmptyList(t *testing.T) {
	if _, ok := ActiveClue(nil, map[int64]time.Time{}, t0); ok {
		t.Error("expected no active clue for an empty clue list")
	}
}

func TestSortCluesAscendingByID(t *testing.T) {
	clues := []Clue{{ID: 9}, {ID: 2}, {ID: 5}}
	sorted := SortClues(clues)

	want := []int64{2, 5, 9}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("position %d: expected clue %d, got %d", i, id, sorted[i].ID)
		}
	}
	if clues[0].ID != 9 {
		t.Error("SortClues must not modify its input")
	}
}

func TestProgressIndex(t *testing.T) {
	progress := []Progress{
		{TeamID: 1, ClueID: 4, SolvedAt: t0},
		{TeamID: 1, ClueID: 8, SolvedAt: t0.Add(time.Minute)},
	}

	solved := ProgressIndex(progress)
	if len(solved) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(solved))
	}
	if !solved[8].Equal(t0.Add(time.Minute)) {
		t.Errorf("wrong solved time for clue 8: %v", solved[8])
	}
}
