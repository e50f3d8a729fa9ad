package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/cipherhunt/api/internal/game"
)

type SkipRequest struct {
	ClueID int64 `json:"clueId"`
}

type SkipResponse struct {
	ClueID     int64 `json:"clueId"`
	Penalty    int   `json:"penalty"`
	Coins      int   `json:"coins"`
	NextClueID int64 `json:"nextClueId,omitempty"`
	AllSolved  bool  `json:"allSolved,omitempty"`
}

// handleSkip records a skip for the active clue. The client confirms
// with the user before calling; the server only validates and debits.
func handleSkip(store Store, broker *Broker, cache *StandingsCache, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req SkipRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ev, err := store.Event(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if ev.Status != game.StatusRunning || ev.StartTime == nil {
			writeError(w, http.StatusConflict, "clue hunt is not running")
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

		active, ok := game.ActiveClue(clues, game.ProgressIndex(progress), *ev.StartTime)
		if !ok {
			writeError(w, http.StatusConflict, "all clues solved")
			return
		}
		if req.ClueID != active.Clue.ID {
			writeError(w, http.StatusConflict, "clue is not active")
			return
		}

		err = store.RecordSkip(r.Context(), sess.TeamID, active.Clue.ID, now(), game.SkipPenalty)
		if errors.Is(err, ErrAlreadySolved) {
			writeError(w, http.StatusConflict, "clue already recorded")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cache.Invalidate(r.Context())
		broker.Publish(ChangeEvent{Table: topicProgress, Action: "insert", TeamID: sess.TeamID})
		broker.Publish(ChangeEvent{Table: topicTeams, Action: "update", TeamID: sess.TeamID})

		coins := team.Coins - game.SkipPenalty
		if coins < 0 {
			coins = 0
		}

		resp := SkipResponse{
			ClueID:  active.Clue.ID,
			Penalty: game.SkipPenalty,
			Coins:   coins,
		}
		if active.Index+1 < len(clues) {
			resp.NextClueID = clues[active.Index+1].ID
		} else {
			resp.AllSolved = true
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
