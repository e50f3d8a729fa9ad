package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cipherhunt/api/internal/game"
)

type AdminProblemStatementItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Domain      string `json:"domain"`
}

type AdminProblemStatementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Domain      string `json:"domain"`
}

func (req *AdminProblemStatementRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" {
		return "title is required"
	}
	if req.Cost < 0 {
		return "cost must not be negative"
	}
	if !game.ValidDomain(req.Domain) {
		return "domain must be one of: " + strings.Join(game.Domains, ", ")
	}
	return ""
}

func adminProblemStatementItem(ps game.ProblemStatement) AdminProblemStatementItem {
	return AdminProblemStatementItem{
		ID:          ps.ID,
		Title:       ps.Title,
		Description: ps.Description,
		Cost:        ps.Cost,
		Domain:      ps.Domain,
	}
}

func handleAdminListProblemStatements(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		stmts, err := store.ListProblemStatements(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := []AdminProblemStatementItem{}
		for _, ps := range stmts {
			items = append(items, adminProblemStatementItem(ps))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminCreateProblemStatement(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req AdminProblemStatementRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		created, err := store.CreateProblemStatement(r.Context(), game.ProblemStatement{
			Title:       req.Title,
			Description: req.Description,
			Cost:        req.Cost,
			Domain:      req.Domain,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, adminProblemStatementItem(created))
	}
}

func handleAdminUpdateProblemStatement(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		id, err := idParam(r, "psID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid problem statement id")
			return
		}

		var req AdminProblemStatementRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		updated, err := store.UpdateProblemStatement(r.Context(), game.ProblemStatement{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			Cost:        req.Cost,
			Domain:      req.Domain,
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem statement not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, adminProblemStatementItem(updated))
	}
}

// handleAdminDeleteProblemStatement removes the statement together with
// any purchases of it. Coins already spent are not refunded.
func handleAdminDeleteProblemStatement(store Store, broker *Broker, cache *StandingsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		id, err := idParam(r, "psID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid problem statement id")
			return
		}

		err = store.DeleteProblemStatement(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem statement not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cache.Invalidate(r.Context())
		broker.Publish(ChangeEvent{Table: topicPurchases, Action: "delete"})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
