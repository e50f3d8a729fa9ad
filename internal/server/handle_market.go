package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/cipherhunt/api/internal/game"
)

type MarketItem struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Cost           int    `json:"cost"`
	Purchased      int    `json:"purchased"`
	SlotsRemaining int    `json:"slotsRemaining"`
}

type MarketResponse struct {
	Items       []MarketItem `json:"items"`
	Limit       int          `json:"limit"`
	Coins       int          `json:"coins"`
	OwnPurchase *MarketItem  `json:"ownPurchase"`
}

type PurchaseRequest struct {
	ProblemStatementID int64 `json:"problemStatementId"`
}

type PurchaseResponse struct {
	ProblemStatementID int64 `json:"problemStatementId"`
	Cost               int   `json:"cost"`
	Coins              int   `json:"coins"`
}

// PurchaseRejection carries the specific precondition that failed, so
// clients can show the right message instead of a generic error.
type PurchaseRejection struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func handleMarket(store Store) http.HandlerFunc {
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

		stmts, err := store.ProblemStatementsByDomain(r.Context(), team.Domain)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		counts, err := store.PurchaseCounts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := MarketResponse{
			Items: []MarketItem{},
			Limit: ev.PSPurchaseLimit,
			Coins: team.Coins,
		}
		byID := make(map[int64]game.ProblemStatement, len(stmts))
		for _, ps := range stmts {
			byID[ps.ID] = ps
			remaining := ev.PSPurchaseLimit - counts[ps.ID]
			if remaining < 0 {
				remaining = 0
			}
			resp.Items = append(resp.Items, MarketItem{
				ID:             ps.ID,
				Title:          ps.Title,
				Description:    ps.Description,
				Cost:           ps.Cost,
				Purchased:      counts[ps.ID],
				SlotsRemaining: remaining,
			})
		}

		own, err := store.PurchaseByTeam(r.Context(), sess.TeamID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err == nil {
			if ps, ok := byID[own.ProblemStatementID]; ok {
				resp.OwnPurchase = &MarketItem{
					ID:          ps.ID,
					Title:       ps.Title,
					Description: ps.Description,
					Cost:        ps.Cost,
					Purchased:   counts[ps.ID],
				}
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handlePurchase(store Store, broker *Broker, cache *StandingsCache, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req PurchaseRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ProblemStatementID == 0 {
			writeError(w, http.StatusBadRequest, "problemStatementId is required")
			return
		}

		purchase, err := store.Purchase(r.Context(), sess.TeamID, req.ProblemStatementID, now())
		switch {
		case errors.Is(err, ErrPhaseConflict):
			writeError(w, http.StatusConflict, "marketplace is not open")
			return
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "problem statement not found")
			return
		case errors.Is(err, ErrSlotsExhausted):
			writeJSON(w, http.StatusConflict, PurchaseRejection{
				Error:  "all purchase slots for this problem statement are taken",
				Reason: "slots_exhausted",
			})
			return
		case errors.Is(err, ErrAlreadyPurchased):
			writeJSON(w, http.StatusConflict, PurchaseRejection{
				Error:  "your team has already purchased a problem statement",
				Reason: "already_purchased",
			})
			return
		case errors.Is(err, ErrInsufficientFunds):
			writeJSON(w, http.StatusConflict, PurchaseRejection{
				Error:  "not enough coins for this problem statement",
				Reason: "insufficient_funds",
			})
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cache.Invalidate(r.Context())
		broker.Publish(ChangeEvent{Table: topicPurchases, Action: "insert", TeamID: sess.TeamID})
		broker.Publish(ChangeEvent{Table: topicTeams, Action: "update", TeamID: sess.TeamID})

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, PurchaseResponse{
			ProblemStatementID: purchase.ProblemStatementID,
			Cost:               purchase.Cost,
			Coins:              team.Coins,
		})
	}
}
