package game

import (
	"sort"
	"time"
)

// Standing is one leaderboard row. Score folds a purchased problem
// statement's cost back into the balance so that buying a brief never
// costs a team its rank.
type Standing struct {
	Rank          int        `json:"rank"`
	TeamID        int64      `json:"teamId"`
	Team          string     `json:"team"`
	Domain        string     `json:"domain"`
	Coins         int        `json:"coins"`
	Score         int        `json:"score"`
	CluesSolved   int        `json:"cluesSolved"`
	LastSolveTime *time.Time `json:"lastSolveTime"`
}

// Standings computes the full ranked board from scratch. Rank order is
// globally order-dependent, so callers recompute on every change to
// teams, progress, or purchases rather than patching incrementally.
//
// Sort axes: score desc, clues solved desc, last solve asc (earlier is
// better, never-solved sorts last), then team ID asc so equal teams
// always land in the same order.
func Standings(teams []Team, progress []Progress, purchases []Purchase) []Standing {
	solvedCount := make(map[int64]int)
	lastSolve := make(map[int64]time.Time)
	for _, p := range progress {
		solvedCount[p.TeamID]++
		if p.SolvedAt.After(lastSolve[p.TeamID]) {
			lastSolve[p.TeamID] = p.SolvedAt
		}
	}

	purchaseCost := make(map[int64]int)
	for _, p := range purchases {
		purchaseCost[p.TeamID] = p.Cost
	}

	board := make([]Standing, 0, len(teams))
	for _, t := range teams {
		s := Standing{
			TeamID:      t.ID,
			Team:        t.Name,
			Domain:      t.Domain,
			Coins:       t.Coins,
			Score:       t.Coins + purchaseCost[t.ID],
			CluesSolved: solvedCount[t.ID],
		}
		if last, ok := lastSolve[t.ID]; ok {
			s.LastSolveTime = &last
		}
		board = append(board, s)
	}

	sort.Slice(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CluesSolved != b.CluesSolved {
			return a.CluesSolved > b.CluesSolved
		}
		switch {
		case a.LastSolveTime != nil && b.LastSolveTime != nil:
			if !a.LastSolveTime.Equal(*b.LastSolveTime) {
				return a.LastSolveTime.Before(*b.LastSolveTime)
			}
		case a.LastSolveTime != nil:
			return true
		case b.LastSolveTime != nil:
			return false
		}
		return a.TeamID < b.TeamID
	})

	for i := range board {
		board[i].Rank = i + 1
	}
	return board
}

// FilterDomain narrows a board to one domain and re-ranks it.
func FilterDomain(board []Standing, domain string) []Standing {
	filtered := make([]Standing, 0, len(board))
	for _, s := range board {
		if s.Domain == domain {
			s.Rank = len(filtered) + 1
			filtered = append(filtered, s)
		}
	}
	return filtered
}
