// Package game holds the core event rules: clue sequencing, time-decayed
// scoring, and leaderboard ranking. Everything here is a pure function
// of its inputs.
package game

import "time"

// Event phases. The admin moves the event through these in order;
// Stop resets back to Stopped from anywhere.
const (
	StatusStopped = "stopped"
	StatusRunning = "running"
	StatusEnded   = "ended"
	StatusMarket  = "market"
)

// Domains are the fixed competitive tracks. Teams and clues are
// partitioned by domain; a team only ever sees its own track.
var Domains = []string{"HealthCare", "Banking", "Food", "Airlines"}

func ValidDomain(d string) bool {
	for _, known := range Domains {
		if known == d {
			return true
		}
	}
	return false
}

// Event is the singleton phase snapshot. StartTime is non-nil only
// while the hunt has been started and not reset.
type Event struct {
	Status          string
	StartTime       *time.Time
	PSPurchaseLimit int
}

type Team struct {
	ID     int64
	Name   string
	Email  string
	Coins  int
	Domain string
	UserID string
}

// Clue is one step in a domain's sequence. Ordering is by ID ascending;
// Answer is stored trimmed and upper-cased.
type Clue struct {
	ID       int64
	Text     string
	Answer   string
	Domain   string
	ImageURL string
	LinkURL  string
	VideoURL string
}

// Progress marks a clue as no longer pending for a team, whether it was
// solved or skipped. At most one row exists per (team, clue).
type Progress struct {
	TeamID   int64
	ClueID   int64
	SolvedAt time.Time
}

type ProblemStatement struct {
	ID          int64
	Title       string
	Description string
	Cost        int
	Domain      string
}

type Purchase struct {
	TeamID             int64
	ProblemStatementID int64
	Cost               int
	CreatedAt          time.Time
}
