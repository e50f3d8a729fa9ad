package server

import (
	"errors"
	"net/http"
	"time"
)

type PurchaseLimitRequest struct {
	PSPurchaseLimit int `json:"psPurchaseLimit"`
}

// handleAdminEventStart anchors start_time the moment the hunt opens.
// A start against any phase other than stopped is rejected so the
// anchor is set exactly once per run.
func handleAdminEventStart(store Store, broker *Broker, now func() time.Time) http.HandlerFunc {
	return adminTransition(store, broker, "event is not stopped", func(r *http.Request) error {
		return store.StartEvent(r.Context(), now())
	})
}

func handleAdminEventEnd(store Store, broker *Broker) http.HandlerFunc {
	return adminTransition(store, broker, "event is not running", func(r *http.Request) error {
		return store.EndEvent(r.Context())
	})
}

func handleAdminEventMarket(store Store, broker *Broker) http.HandlerFunc {
	return adminTransition(store, broker, "clue hunt has not ended", func(r *http.Request) error {
		return store.OpenMarket(r.Context())
	})
}

func handleAdminEventStop(store Store, broker *Broker) http.HandlerFunc {
	return adminTransition(store, broker, "", func(r *http.Request) error {
		return store.StopEvent(r.Context())
	})
}

// adminTransition wraps the shared shape of a phase change: admin auth,
// the store-side compare-and-swap, a change broadcast, and the fresh
// snapshot in the response. A failed write leaves the stored phase
// untouched and is reported, never assumed to have applied.
func adminTransition(store Store, broker *Broker, conflictMsg string, apply func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		err := apply(r)
		if errors.Is(err, ErrPhaseConflict) {
			writeError(w, http.StatusConflict, conflictMsg)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(ChangeEvent{Table: topicEvent, Action: "update"})

		ev, err := store.Event(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, eventResponse(ev))
	}
}

func handleAdminSetPurchaseLimit(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req PurchaseLimitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PSPurchaseLimit < 1 {
			writeError(w, http.StatusBadRequest, "psPurchaseLimit must be at least 1")
			return
		}

		if err := store.SetPurchaseLimit(r.Context(), req.PSPurchaseLimit); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(ChangeEvent{Table: topicEvent, Action: "update"})

		ev, err := store.Event(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, eventResponse(ev))
	}
}
