package server

import (
	"net/http"
	"strings"
)

const chatHistoryLimit = 100

type ChatMessage struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

func handleChatHistory(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := teamFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		msgs, err := store.Messages(r.Context(), chatHistoryLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if msgs == nil {
			msgs = []ChatMessage{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleChatPost(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req ChatRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Text = strings.TrimSpace(req.Text)
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		msg, err := store.AddMessage(r.Context(), team.Name, req.Text)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(ChangeEvent{Table: topicMessages, Action: "insert", TeamID: sess.TeamID})

		writeJSON(w, http.StatusCreated, msg)
	}
}
