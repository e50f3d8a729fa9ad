package server

import (
	"net/http"
	"time"

	"github.com/cipherhunt/api/internal/game"
)

type TeamInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Coins  int    `json:"coins"`
	Domain string `json:"domain"`
}

// ClueInfo is a clue as seen by its team. The answer never leaves the
// server; solved and locked clues carry progressively less detail.
type ClueInfo struct {
	ID         int64      `json:"id"`
	ClueNumber int        `json:"clueNumber"`
	Text       string     `json:"text,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	LinkURL    string     `json:"linkUrl,omitempty"`
	VideoURL   string     `json:"videoUrl,omitempty"`
	Status     string     `json:"status"`
	SolvedAt   *time.Time `json:"solvedAt,omitempty"`
}

type ActiveClueInfo struct {
	ID             int64     `json:"id"`
	ClueNumber     int       `json:"clueNumber"`
	StartedAt      time.Time `json:"startedAt"`
	ElapsedSeconds int64     `json:"elapsedSeconds"`
}

type GameStateResponse struct {
	Event      EventResponse   `json:"event"`
	Team       TeamInfo        `json:"team"`
	Clues      []ClueInfo      `json:"clues"`
	ActiveClue *ActiveClueInfo `json:"activeClue"`
	TotalClues int             `json:"totalClues"`
	Solved     int             `json:"solved"`
	AllSolved  bool            `json:"allSolved"`
}

func handleGameState(store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		ev, err := store.Event(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		clues, err := store.CluesByDomain(r.Context(), team.Domain)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		progress, err := store.ProgressByTeam(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		solved := game.ProgressIndex(progress)

		resp := GameStateResponse{
			Event: eventResponse(ev),
			Team: TeamInfo{
				ID:     team.ID,
				Name:   team.Name,
				Coins:  team.Coins,
				Domain: team.Domain,
			},
			Clues:      []ClueInfo{},
			TotalClues: len(clues),
			Solved:     len(progress),
			AllSolved:  len(clues) > 0 && len(progress) >= len(clues),
		}

		var active game.Active
		var hasActive bool
		if ev.Status == game.StatusRunning && ev.StartTime != nil {
			active, hasActive = game.ActiveClue(clues, solved, *ev.StartTime)
		}

		for i, clue := range clues {
			info := ClueInfo{
				ID:         clue.ID,
				ClueNumber: i + 1,
				Status:     "locked",
			}
			if at, done := solved[clue.ID]; done {
				solvedAt := at
				info.Status = "solved"
				info.SolvedAt = &solvedAt
			} else if hasActive && clue.ID == active.Clue.ID {
				info.Status = "active"
				info.Text = clue.Text
				info.ImageURL = clue.ImageURL
				info.LinkURL = clue.LinkURL
				info.VideoURL = clue.VideoURL
			}
			resp.Clues = append(resp.Clues, info)
		}

		if hasActive {
			elapsed := now().Sub(active.StartedAt)
			if elapsed < 0 {
				elapsed = 0
			}
			resp.ActiveClue = &ActiveClueInfo{
				ID:             active.Clue.ID,
				ClueNumber:     active.Index + 1,
				StartedAt:      active.StartedAt,
				ElapsedSeconds: int64(elapsed.Seconds()),
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
