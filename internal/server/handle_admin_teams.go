package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cipherhunt/api/internal/game"
)

// AdminTeamItem represents a team in admin listings. The password hash
// never leaves the store layer.
type AdminTeamItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Coins       int    `json:"coins"`
	Domain      string `json:"domain"`
	UserID      string `json:"userId"`
	CluesSolved int    `json:"cluesSolved"`
	CreatedAt   string `json:"createdAt"`
}

// AdminTeamRequest is the request body for creating a team. Creation
// also provisions the team's login credential.
type AdminTeamRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Domain   string `json:"domain"`
}

// AdminTeamUpdateRequest is the request body for updating a team.
// Admin edits may set coins directly, but never below zero.
type AdminTeamUpdateRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Domain string `json:"domain"`
	Coins  int    `json:"coins"`
}

func (req *AdminTeamRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		return "name is required"
	}
	if req.Email == "" {
		return "email is required"
	}
	if len(req.Password) < 6 {
		return "password must be at least 6 characters"
	}
	if !game.ValidDomain(req.Domain) {
		return "domain must be one of: " + strings.Join(game.Domains, ", ")
	}
	return ""
}

func (req *AdminTeamUpdateRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		return "name is required"
	}
	if req.Email == "" {
		return "email is required"
	}
	if !game.ValidDomain(req.Domain) {
		return "domain must be one of: " + strings.Join(game.Domains, ", ")
	}
	if req.Coins < 0 {
		return "coins must not be negative"
	}
	return ""
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func handleAdminListTeams(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		teams, err := store.ListTeams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if teams == nil {
			teams = []AdminTeamItem{}
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func handleAdminCreateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req AdminTeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		item, err := store.CreateTeam(r.Context(), req, string(hash), uuid.NewString())
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "a team with that name or email already exists")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, item)
	}
}

func handleAdminUpdateTeam(store Store, broker *Broker, cache *StandingsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		id, err := idParam(r, "teamID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid team id")
			return
		}

		var req AdminTeamUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		item, err := store.UpdateTeam(r.Context(), id, req)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "a team with that name or email already exists")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cache.Invalidate(r.Context())
		broker.Publish(ChangeEvent{Table: topicTeams, Action: "update", TeamID: id})

		writeJSON(w, http.StatusOK, item)
	}
}

func handleAdminDeleteTeam(store Store, broker *Broker, cache *StandingsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		id, err := idParam(r, "teamID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid team id")
			return
		}

		err = store.DeleteTeam(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cache.Invalidate(r.Context())
		broker.Publish(ChangeEvent{Table: topicTeams, Action: "delete", TeamID: id})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
