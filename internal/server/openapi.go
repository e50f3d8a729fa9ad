package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "CipherHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the CipherHunt event platform.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("application/json"))
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusServiceUnavailable),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getHealthz)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Team login")
	postLogin.SetDescription("Authenticate a team with email and password. Returns a session token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/logout")
	postLogout.SetSummary("Team logout")
	postLogout.SetDescription("Invalidates the team session token.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/event
	getEvent, _ := r.NewOperationContext(http.MethodGet, "/api/event")
	getEvent.SetSummary("Event status")
	getEvent.SetDescription("Returns the public event phase and start time.")
	getEvent.AddRespStructure(EventResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getEvent)

	// GET /api/game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/game/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Returns the team's clue sequence and active clue. Requires Bearer token.")
	getState.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// POST /api/game/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/game/answer")
	postAnswer.SetSummary("Submit answer")
	postAnswer.SetDescription("Submit an answer for the active clue. Requires Bearer token.")
	postAnswer.AddReqStructure(AnswerRequest{})
	postAnswer.AddRespStructure(AnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswer)

	// POST /api/game/skip
	postSkip, _ := r.NewOperationContext(http.MethodPost, "/api/game/skip")
	postSkip.SetSummary("Skip clue")
	postSkip.SetDescription("Skip the active clue for a coin penalty. Requires Bearer token.")
	postSkip.AddReqStructure(SkipRequest{})
	postSkip.AddRespStructure(SkipResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSkip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postSkip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSkip)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream for real-time game updates. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/market
	getMarket, _ := r.NewOperationContext(http.MethodGet, "/api/market")
	getMarket.SetSummary("Marketplace listing")
	getMarket.SetDescription("Returns problem statements for the team's domain with slot counts. Requires Bearer token.")
	getMarket.AddRespStructure(MarketResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMarket.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMarket)

	// POST /api/market/purchase
	postPurchase, _ := r.NewOperationContext(http.MethodPost, "/api/market/purchase")
	postPurchase.SetSummary("Purchase problem statement")
	postPurchase.SetDescription("Buy a problem statement during the market phase. Requires Bearer token.")
	postPurchase.AddReqStructure(PurchaseRequest{})
	postPurchase.AddRespStructure(PurchaseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPurchase.AddRespStructure(PurchaseRejection{}, openapi.WithHTTPStatus(http.StatusConflict))
	postPurchase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postPurchase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postPurchase)

	// GET /api/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.SetDescription("Returns ranked standings, optionally filtered by domain.")
	getBoard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getBoard)

	// GET /api/leaderboard/events
	getBoardEvents, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard/events")
	getBoardEvents.SetSummary("Leaderboard SSE stream")
	getBoardEvents.SetDescription("Public Server-Sent Events stream for leaderboard changes.")
	getBoardEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getBoardEvents)

	// GET /api/chat
	getChat, _ := r.NewOperationContext(http.MethodGet, "/api/chat")
	getChat.SetSummary("Chat history")
	getChat.SetDescription("Returns recent chat messages. Requires Bearer token.")
	getChat.AddRespStructure([]ChatMessage{}, openapi.WithHTTPStatus(http.StatusOK))
	getChat.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getChat)

	// POST /api/chat
	postChat, _ := r.NewOperationContext(http.MethodPost, "/api/chat")
	postChat.SetSummary("Post chat message")
	postChat.SetDescription("Posts a chat message as the team. Requires Bearer token.")
	postChat.AddReqStructure(ChatRequest{})
	postChat.AddRespStructure(ChatMessage{}, openapi.WithHTTPStatus(http.StatusCreated))
	postChat.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postChat.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postChat)

	// POST /api/admin/login
	postAdminLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postAdminLogin.SetSummary("Admin login")
	postAdminLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postAdminLogin.AddReqStructure(AdminLoginRequest{})
	postAdminLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAdminLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAdminLogin)

	// POST /api/admin/logout
	postAdminLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postAdminLogout.SetSummary("Admin logout")
	postAdminLogout.SetDescription("Clears admin session and cookie.")
	postAdminLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postAdminLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// Phase transitions share a response shape.
	for _, p := range []struct {
		path, summary, desc string
	}{
		{"/api/admin/event/start", "Start event", "Moves the event from stopped to running and records the start time."},
		{"/api/admin/event/end", "End event", "Moves the event from running to ended."},
		{"/api/admin/event/market", "Open marketplace", "Moves the event from ended to market."},
		{"/api/admin/event/stop", "Stop event", "Resets the event to stopped and clears the start time."},
	} {
		op, _ := r.NewOperationContext(http.MethodPost, p.path)
		op.SetSummary(p.summary)
		op.SetDescription(p.desc + " Requires admin_session cookie.")
		op.AddRespStructure(EventResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
		op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
		_ = r.AddOperation(op)
	}

	// PUT /api/admin/event/purchase-limit
	putLimit, _ := r.NewOperationContext(http.MethodPut, "/api/admin/event/purchase-limit")
	putLimit.SetSummary("Set purchase limit")
	putLimit.SetDescription("Sets how many teams may purchase each problem statement. Requires admin_session cookie.")
	putLimit.AddReqStructure(PurchaseLimitRequest{})
	putLimit.AddRespStructure(EventResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putLimit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putLimit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putLimit)

	// GET /api/admin/teams
	listTeams, _ := r.NewOperationContext(http.MethodGet, "/api/admin/teams")
	listTeams.SetSummary("List teams")
	listTeams.SetDescription("Returns all teams with solve counts. Requires admin_session cookie.")
	listTeams.AddRespStructure([]AdminTeamItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listTeams)

	// POST /api/admin/teams
	createTeam, _ := r.NewOperationContext(http.MethodPost, "/api/admin/teams")
	createTeam.SetSummary("Create team")
	createTeam.SetDescription("Registers a team with credentials and a domain. Requires admin_session cookie.")
	createTeam.AddReqStructure(AdminTeamRequest{})
	createTeam.AddRespStructure(AdminTeamItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createTeam)

	// PUT /api/admin/teams/{teamID}
	updateTeam, _ := r.NewOperationContext(http.MethodPut, "/api/admin/teams/{teamID}")
	updateTeam.SetSummary("Update team")
	updateTeam.SetDescription("Updates a team's name, email, domain, and coin balance. Requires admin_session cookie.")
	updateTeam.AddReqStructure(AdminTeamUpdateRequest{})
	updateTeam.AddRespStructure(AdminTeamItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(updateTeam)

	// DELETE /api/admin/teams/{teamID}
	deleteTeam, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/teams/{teamID}")
	deleteTeam.SetSummary("Delete team")
	deleteTeam.SetDescription("Deletes a team with its sessions, progress, and purchases. Requires admin_session cookie.")
	deleteTeam.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteTeam)

	// GET /api/admin/clues
	listClues, _ := r.NewOperationContext(http.MethodGet, "/api/admin/clues")
	listClues.SetSummary("List clues")
	listClues.SetDescription("Returns all clues including answers. Requires admin_session cookie.")
	listClues.AddRespStructure([]AdminClueItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listClues.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listClues)

	// POST /api/admin/clues
	createClue, _ := r.NewOperationContext(http.MethodPost, "/api/admin/clues")
	createClue.SetSummary("Create clue")
	createClue.SetDescription("Creates a clue for a domain. Requires admin_session cookie.")
	createClue.AddReqStructure(AdminClueRequest{})
	createClue.AddRespStructure(AdminClueItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createClue)

	// PUT /api/admin/clues/{clueID}
	updateClue, _ := r.NewOperationContext(http.MethodPut, "/api/admin/clues/{clueID}")
	updateClue.SetSummary("Update clue")
	updateClue.SetDescription("Updates a clue's text, answer, domain, and media links. Requires admin_session cookie.")
	updateClue.AddReqStructure(AdminClueRequest{})
	updateClue.AddRespStructure(AdminClueItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updateClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(updateClue)

	// DELETE /api/admin/clues/{clueID}
	deleteClue, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/clues/{clueID}")
	deleteClue.SetSummary("Delete clue")
	deleteClue.SetDescription("Deletes a clue and its progress rows. Requires admin_session cookie.")
	deleteClue.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteClue)

	// GET /api/admin/problem-statements
	listPS, _ := r.NewOperationContext(http.MethodGet, "/api/admin/problem-statements")
	listPS.SetSummary("List problem statements")
	listPS.SetDescription("Returns all problem statements. Requires admin_session cookie.")
	listPS.AddRespStructure([]AdminProblemStatementItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listPS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listPS)

	// POST /api/admin/problem-statements
	createPS, _ := r.NewOperationContext(http.MethodPost, "/api/admin/problem-statements")
	createPS.SetSummary("Create problem statement")
	createPS.SetDescription("Creates a problem statement for the marketplace. Requires admin_session cookie.")
	createPS.AddReqStructure(AdminProblemStatementRequest{})
	createPS.AddRespStructure(AdminProblemStatementItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createPS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createPS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createPS)

	// PUT /api/admin/problem-statements/{psID}
	updatePS, _ := r.NewOperationContext(http.MethodPut, "/api/admin/problem-statements/{psID}")
	updatePS.SetSummary("Update problem statement")
	updatePS.SetDescription("Updates a problem statement. Requires admin_session cookie.")
	updatePS.AddReqStructure(AdminProblemStatementRequest{})
	updatePS.AddRespStructure(AdminProblemStatementItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updatePS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updatePS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updatePS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(updatePS)

	// DELETE /api/admin/problem-statements/{psID}
	deletePS, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/problem-statements/{psID}")
	deletePS.SetSummary("Delete problem statement")
	deletePS.SetDescription("Deletes a problem statement and its purchases. Requires admin_session cookie.")
	deletePS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deletePS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deletePS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deletePS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
