package server

import (
	"net/http"
	"time"

	"github.com/cipherhunt/api/internal/game"
)

// EventResponse is the public phase snapshot. Every consumer treats it
// as a value and re-reads on each change notification.
type EventResponse struct {
	Status          string     `json:"status"`
	StartTime       *time.Time `json:"startTime"`
	PSPurchaseLimit int        `json:"psPurchaseLimit"`
}

func eventResponse(ev game.Event) EventResponse {
	return EventResponse{
		Status:          ev.Status,
		StartTime:       ev.StartTime,
		PSPurchaseLimit: ev.PSPurchaseLimit,
	}
}

func handleEvent(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := store.Event(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, eventResponse(ev))
	}
}
