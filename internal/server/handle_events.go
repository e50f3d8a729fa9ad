package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleGameEvents streams change notifications to an authenticated
// team session. EventSource cannot set headers, so the token rides in
// the query string.
func handleGameEvents(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}
		if _, err := store.TeamFromSession(r.Context(), token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		streamEvents(w, r, broker,
			topicEvent, topicTeams, topicProgress, topicPurchases, topicMessages)
	}
}

// handleLeaderboardEvents is the public stream for standings viewers.
func handleLeaderboardEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamEvents(w, r, broker,
			topicEvent, topicTeams, topicProgress, topicPurchases)
	}
}

func streamEvents(w http.ResponseWriter, r *http.Request, broker *Broker, topics ...string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	ch := broker.Subscribe(topics...)
	defer broker.Unsubscribe(ch)

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
