package server

import (
	"encoding/json"
	"net/http"

	"github.com/cipherhunt/api/internal/game"
)

type LeaderboardResponse struct {
	Standings []game.Standing `json:"standings"`
}

// handleLeaderboard recomputes the full board from teams, progress, and
// purchases on every request, behind an optional Redis cache. The board
// is public and independent of the event phase.
func handleLeaderboard(store Store, cache *StandingsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := r.URL.Query().Get("domain")
		if domain != "" && !game.ValidDomain(domain) {
			writeError(w, http.StatusBadRequest, "unknown domain")
			return
		}

		cacheKey := "all"
		if domain != "" {
			cacheKey = domain
		}
		if data, ok := cache.Get(r.Context(), cacheKey); ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
			return
		}

		teams, err := store.Teams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		progress, err := store.AllProgress(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		purchases, err := store.AllPurchases(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		board := game.Standings(teams, progress, purchases)
		if domain != "" {
			board = game.FilterDomain(board, domain)
		}

		resp := LeaderboardResponse{Standings: board}
		data, err := json.Marshal(resp)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		cache.Set(r.Context(), cacheKey, data)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
