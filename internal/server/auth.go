package server

import (
	"errors"
	"net/http"
	"strings"
)

var errNoSession = errors.New("no valid session")

func teamFromRequest(r *http.Request, store Store) (teamSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return teamSession{}, errNoSession
	}
	return store.TeamFromSession(r.Context(), token)
}

// sessionToken extracts the bearer token itself, for logout and for the
// SSE endpoint where EventSource cannot set headers and the token rides
// in the query string instead.
func sessionToken(r *http.Request) string {
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return r.URL.Query().Get("token")
}
