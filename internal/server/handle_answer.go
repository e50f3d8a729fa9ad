package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cipherhunt/api/internal/game"
)

type AnswerRequest struct {
	ClueID int64  `json:"clueId"`
	Answer string `json:"answer"`
}

type AnswerResponse struct {
	IsCorrect     bool  `json:"isCorrect"`
	ClueID        int64 `json:"clueId"`
	CoinsAwarded  int   `json:"coinsAwarded,omitempty"`
	Coins         int   `json:"coins"`
	AlreadySolved bool  `json:"alreadySolved,omitempty"`
	NextClueID    int64 `json:"nextClueId,omitempty"`
	AllSolved     bool  `json:"allSolved,omitempty"`
}

func handleAnswer(store Store, broker *Broker, cache *StandingsCache, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Answer = strings.TrimSpace(req.Answer)
		if req.Answer == "" {
			writeError(w, http.StatusBadRequest, "answer is required")
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
		solved := game.ProgressIndex(progress)

		active, ok := game.ActiveClue(clues, solved, *ev.StartTime)
		if !ok {
			writeError(w, http.StatusConflict, "all clues solved")
			return
		}
		if req.ClueID != active.Clue.ID {
			writeError(w, http.StatusConflict, "clue is not active")
			return
		}

		// Answers are stored trimmed and upper-cased; comparison is
		// case-insensitive exact match.
		if !strings.EqualFold(req.Answer, active.Clue.Answer) {
			writeJSON(w, http.StatusOK, AnswerResponse{
				IsCorrect: false,
				ClueID:    active.Clue.ID,
				Coins:     team.Coins,
			})
			return
		}

		solvedAt := now()
		coins := game.Award(solvedAt.Sub(active.StartedAt))

		err = store.RecordSolve(r.Context(), sess.TeamID, active.Clue.ID, solvedAt, coins)
		if errors.Is(err, ErrAlreadySolved) {
			// Duplicate submission: exactly one progress row and one
			// credit exist, report success without a second award.
			writeJSON(w, http.StatusOK, AnswerResponse{
				IsCorrect:     true,
				ClueID:        active.Clue.ID,
				Coins:         team.Coins,
				AlreadySolved: true,
			})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cache.Invalidate(r.Context())
		broker.Publish(ChangeEvent{Table: topicProgress, Action: "insert", TeamID: sess.TeamID})
		broker.Publish(ChangeEvent{Table: topicTeams, Action: "update", TeamID: sess.TeamID})

		resp := AnswerResponse{
			IsCorrect:    true,
			ClueID:       active.Clue.ID,
			CoinsAwarded: coins,
			Coins:        team.Coins + coins,
		}
		if active.Index+1 < len(clues) {
			resp.NextClueID = clues[active.Index+1].ID
		} else {
			resp.AllSolved = true
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
