package server

import (
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, deps Deps) {
	store := deps.Store
	broker := deps.Broker
	cache := deps.Cache
	now := deps.Now

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CipherHunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(deps.Logger, deps.DB, deps.Redis))

	// Player routes.
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handleLogin(store))
		r.Post("/logout", handleLogout(store))

		r.Get("/event", handleEvent(store))
		r.Get("/game/state", handleGameState(store, now))
		r.Post("/game/answer", handleAnswer(store, broker, cache, now))
		r.Post("/game/skip", handleSkip(store, broker, cache, now))
		r.Get("/game/events", handleGameEvents(store, broker))

		r.Get("/market", handleMarket(store))
		r.Post("/market/purchase", handlePurchase(store, broker, cache, now))

		r.Get("/leaderboard", handleLeaderboard(store, cache))
		r.Get("/leaderboard/events", handleLeaderboardEvents(broker))

		r.Get("/chat", handleChatHistory(store))
		r.Post("/chat", handleChatPost(store, broker))
	})

	// Admin routes use cookie session auth inside each handler.
	r.Post("/api/admin/login", handleAdminLogin(store))
	r.Post("/api/admin/logout", handleAdminLogout(store))
	r.Get("/api/admin/me", handleAdminMe(store))

	r.Route("/api/admin/event", func(r chi.Router) {
		r.Post("/start", handleAdminEventStart(store, broker, now))
		r.Post("/end", handleAdminEventEnd(store, broker))
		r.Post("/market", handleAdminEventMarket(store, broker))
		r.Post("/stop", handleAdminEventStop(store, broker))
		r.Put("/purchase-limit", handleAdminSetPurchaseLimit(store, broker))
	})

	r.Route("/api/admin/teams", func(r chi.Router) {
		r.Get("/", handleAdminListTeams(store))
		r.Post("/", handleAdminCreateTeam(store))
		r.Put("/{teamID}", handleAdminUpdateTeam(store, broker, cache))
		r.Delete("/{teamID}", handleAdminDeleteTeam(store, broker, cache))
	})

	r.Route("/api/admin/clues", func(r chi.Router) {
		r.Get("/", handleAdminListClues(store))
		r.Post("/", handleAdminCreateClue(store, broker))
		r.Put("/{clueID}", handleAdminUpdateClue(store, broker))
		r.Delete("/{clueID}", handleAdminDeleteClue(store, broker, cache))
	})

	r.Route("/api/admin/problem-statements", func(r chi.Router) {
		r.Get("/", handleAdminListProblemStatements(store))
		r.Post("/", handleAdminCreateProblemStatement(store))
		r.Put("/{psID}", handleAdminUpdateProblemStatement(store))
		r.Delete("/{psID}", handleAdminDeleteProblemStatement(store, broker, cache))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			deps.Logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
