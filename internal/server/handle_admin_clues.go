package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cipherhunt/api/internal/game"
)

// AdminClueItem exposes the stored answer to the admin only.
type AdminClueItem struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Answer   string `json:"answer"`
	Domain   string `json:"domain"`
	ImageURL string `json:"imageUrl,omitempty"`
	LinkURL  string `json:"linkUrl,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
}

type AdminClueRequest struct {
	Text     string `json:"text"`
	Answer   string `json:"answer"`
	Domain   string `json:"domain"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl"`
	VideoURL string `json:"videoUrl"`
}

func (req *AdminClueRequest) validate() string {
	req.Text = strings.TrimSpace(req.Text)
	// Answers are normalized to upper-case at write time so submission
	// matching stays case-insensitive.
	req.Answer = strings.ToUpper(strings.TrimSpace(req.Answer))
	if req.Text == "" {
		return "text is required"
	}
	if req.Answer == "" {
		return "answer is required"
	}
	if !game.ValidDomain(req.Domain) {
		return "domain must be one of: " + strings.Join(game.Domains, ", ")
	}
	return ""
}

func (req *AdminClueRequest) clue() game.Clue {
	return game.Clue{
		Text:     req.Text,
		Answer:   req.Answer,
		Domain:   req.Domain,
		ImageURL: strings.TrimSpace(req.ImageURL),
		LinkURL:  strings.TrimSpace(req.LinkURL),
		VideoURL: strings.TrimSpace(req.VideoURL),
	}
}

func adminClueItem(c game.Clue) AdminClueItem {
	return AdminClueItem{
		ID:       c.ID,
		Text:     c.Text,
		Answer:   c.Answer,
		Domain:   c.Domain,
		ImageURL: c.ImageURL,
		LinkURL:  c.LinkURL,
		VideoURL: c.VideoURL,
	}
}

func handleAdminListClues(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		clues, err := store.ListClues(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := []AdminClueItem{}
		for _, c := range clues {
			items = append(items, adminClueItem(c))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminCreateClue(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req AdminClueRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		created, err := store.CreateClue(r.Context(), req.clue())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(ChangeEvent{Table: "clues", Action: "insert"})

		writeJSON(w, http.StatusCreated, adminClueItem(created))
	}
}

func handleAdminUpdateClue(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		id, err := idParam(r, "clueID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid clue id")
			return
		}

		var req AdminClueRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		clue := req.clue()
		clue.ID = id
		updated, err := store.UpdateClue(r.Context(), clue)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "clue not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(ChangeEvent{Table: "clues", Action: "update"})

		writeJSON(w, http.StatusOK, adminClueItem(updated))
	}
}

// handleAdminDeleteClue also removes the clue's progress rows; both
// happen in one transaction so other teams' sequences never see a
// half-deleted clue.
func handleAdminDeleteClue(store Store, broker *Broker, cache *StandingsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		id, err := idParam(r, "clueID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid clue id")
			return
		}

		err = store.DeleteClue(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "clue not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cache.Invalidate(r.Context())
		broker.Publish(ChangeEvent{Table: "clues", Action: "delete"})
		broker.Publish(ChangeEvent{Table: topicProgress, Action: "delete"})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
