package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// adminDo performs a request with the admin session cookie attached.
func (ts *testServer) adminDo(t *testing.T, method, path, cookie string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: adminCookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) adminLogin(t *testing.T) string {
	t.Helper()
	w := ts.adminDo(t, http.MethodPost, "/api/admin/login", "", AdminLoginRequest{
		Email:    "admin@test.dev",
		Password: "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("admin login: no session cookie set")
	return ""
}

func TestAdminLoginAndMe(t *testing.T) {
	ts := newTestServer(t)

	w := ts.adminDo(t, http.MethodPost, "/api/admin/login", "", AdminLoginRequest{
		Email:    "admin@test.dev",
		Password: "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", w.Code)
	}

	cookie := ts.adminLogin(t)

	w = ts.adminDo(t, http.MethodGet, "/api/admin/me", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me AdminMeResponse
	json.NewDecoder(w.Body).Decode(&me)
	if me.Email != "admin@test.dev" {
		t.Errorf("expected admin email, got %q", me.Email)
	}

	w = ts.adminDo(t, http.MethodPost, "/api/admin/logout", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodGet, "/api/admin/me", cookie, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", w.Code)
	}
}

func TestAdminEndpointsRequireSession(t *testing.T) {
	ts := newTestServer(t)

	for _, probe := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/admin/event/start"},
		{http.MethodGet, "/api/admin/teams/"},
		{http.MethodGet, "/api/admin/clues/"},
		{http.MethodGet, "/api/admin/problem-statements/"},
	} {
		w := ts.adminDo(t, probe.method, probe.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", probe.method, probe.path, w.Code)
		}
	}
}

func TestPhaseTransitions(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.adminLogin(t)

	// stopped -> running anchors the start time.
	w := ts.adminDo(t, http.MethodPost, "/api/admin/event/start", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var ev EventResponse
	json.NewDecoder(w.Body).Decode(&ev)
	if ev.Status != "running" {
		t.Errorf("expected running, got %q", ev.Status)
	}
	if ev.StartTime == nil || !ev.StartTime.Equal(ts.clock.Now()) {
		t.Errorf("expected start time %v, got %v", ts.clock.Now(), ev.StartTime)
	}

	// Starting a running event is a conflict.
	w = ts.adminDo(t, http.MethodPost, "/api/admin/event/start", cookie, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double start: expected 409, got %d", w.Code)
	}

	// Market cannot open before the hunt has ended.
	w = ts.adminDo(t, http.MethodPost, "/api/admin/event/market", cookie, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("early market: expected 409, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodPost, "/api/admin/event/end", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d", w.Code)
	}
	w = ts.adminDo(t, http.MethodPost, "/api/admin/event/end", cookie, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double end: expected 409, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodPost, "/api/admin/event/market", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("market: expected 200, got %d", w.Code)
	}

	// Stop resets from any phase and clears the anchor.
	w = ts.adminDo(t, http.MethodPost, "/api/admin/event/stop", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", w.Code)
	}
	json.NewDecoder(w.Body).Decode(&ev)
	if ev.Status != "stopped" {
		t.Errorf("expected stopped, got %q", ev.Status)
	}
	if ev.StartTime != nil {
		t.Errorf("stop should clear start time, got %v", ev.StartTime)
	}

	// A fresh start works again after a stop.
	w = ts.adminDo(t, http.MethodPost, "/api/admin/event/start", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restart: expected 200, got %d", w.Code)
	}
}

func TestSetPurchaseLimit(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.adminLogin(t)

	w := ts.adminDo(t, http.MethodPut, "/api/admin/event/purchase-limit", cookie, PurchaseLimitRequest{PSPurchaseLimit: 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("limit 0: expected 400, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodPut, "/api/admin/event/purchase-limit", cookie, PurchaseLimitRequest{PSPurchaseLimit: 5})
	if w.Code != http.StatusOK {
		t.Fatalf("limit 5: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var ev EventResponse
	json.NewDecoder(w.Body).Decode(&ev)
	if ev.PSPurchaseLimit != 5 {
		t.Errorf("expected limit 5, got %d", ev.PSPurchaseLimit)
	}
}

func TestAdminTeamCRUD(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.adminLogin(t)

	w := ts.adminDo(t, http.MethodPost, "/api/admin/teams/", cookie, AdminTeamRequest{
		Name:     "Pulse",
		Email:    "pulse@test.dev",
		Password: "hunt1234",
		Domain:   "HealthCare",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created AdminTeamItem
	json.NewDecoder(w.Body).Decode(&created)
	if created.UserID == "" {
		t.Error("expected a generated user id")
	}

	// The provisioned credentials work for the player login.
	ts.login(t, "pulse@test.dev", "hunt1234")

	// Duplicate email.
	w = ts.adminDo(t, http.MethodPost, "/api/admin/teams/", cookie, AdminTeamRequest{
		Name:     "Pulse Two",
		Email:    "pulse@test.dev",
		Password: "hunt1234",
		Domain:   "HealthCare",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", w.Code)
	}

	// Unknown domain.
	w = ts.adminDo(t, http.MethodPost, "/api/admin/teams/", cookie, AdminTeamRequest{
		Name:     "Ghost",
		Email:    "ghost@test.dev",
		Password: "hunt1234",
		Domain:   "Telecom",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad domain: expected 400, got %d", w.Code)
	}

	// Update coins.
	w = ts.adminDo(t, http.MethodPut, "/api/admin/teams/1", cookie, AdminTeamUpdateRequest{
		Name:   "Pulse",
		Email:  "pulse@test.dev",
		Domain: "HealthCare",
		Coins:  75,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated AdminTeamItem
	json.NewDecoder(w.Body).Decode(&updated)
	if updated.Coins != 75 {
		t.Errorf("expected 75 coins, got %d", updated.Coins)
	}

	w = ts.adminDo(t, http.MethodGet, "/api/admin/teams/", cookie, nil)
	var teams []AdminTeamItem
	json.NewDecoder(w.Body).Decode(&teams)
	if len(teams) != 1 {
		t.Fatalf("expected 1 team, got %d", len(teams))
	}

	w = ts.adminDo(t, http.MethodDelete, "/api/admin/teams/1", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = ts.adminDo(t, http.MethodDelete, "/api/admin/teams/1", cookie, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete again: expected 404, got %d", w.Code)
	}
}

func TestAdminClueCRUD(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.adminLogin(t)

	w := ts.adminDo(t, http.MethodPost, "/api/admin/clues/", cookie, AdminClueRequest{
		Text:   "I hold your worth but have no pockets.",
		Answer: "  vault ",
		Domain: "Banking",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created AdminClueItem
	json.NewDecoder(w.Body).Decode(&created)
	if created.Answer != "VAULT" {
		t.Errorf("answer should be trimmed and upper-cased, got %q", created.Answer)
	}

	w = ts.adminDo(t, http.MethodPost, "/api/admin/clues/", cookie, AdminClueRequest{
		Text:   "no answer",
		Domain: "Banking",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing answer: expected 400, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodPut, "/api/admin/clues/1", cookie, AdminClueRequest{
		Text:   "updated text",
		Answer: "safe",
		Domain: "Banking",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated AdminClueItem
	json.NewDecoder(w.Body).Decode(&updated)
	if updated.Answer != "SAFE" || updated.Text != "updated text" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	w = ts.adminDo(t, http.MethodPut, "/api/admin/clues/99", cookie, AdminClueRequest{
		Text:   "x",
		Answer: "y",
		Domain: "Banking",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodDelete, "/api/admin/clues/1", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodGet, "/api/admin/clues/", cookie, nil)
	var clues []AdminClueItem
	json.NewDecoder(w.Body).Decode(&clues)
	if len(clues) != 0 {
		t.Errorf("expected no clues after delete, got %d", len(clues))
	}
}

func TestAdminProblemStatementCRUD(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.adminLogin(t)

	w := ts.adminDo(t, http.MethodPost, "/api/admin/problem-statements/", cookie, AdminProblemStatementRequest{
		Title:       "Fraud flag pipeline",
		Description: "Score card transactions for review.",
		Cost:        50,
		Domain:      "Banking",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = ts.adminDo(t, http.MethodPost, "/api/admin/problem-statements/", cookie, AdminProblemStatementRequest{
		Title:  "Negative cost",
		Cost:   -1,
		Domain: "Banking",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative cost: expected 400, got %d", w.Code)
	}

	w = ts.adminDo(t, http.MethodPut, "/api/admin/problem-statements/1", cookie, AdminProblemStatementRequest{
		Title:       "Fraud flag pipeline",
		Description: "Score card transactions for review.",
		Cost:        60,
		Domain:      "Banking",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated AdminProblemStatementItem
	json.NewDecoder(w.Body).Decode(&updated)
	if updated.Cost != 60 {
		t.Errorf("expected cost 60, got %d", updated.Cost)
	}

	w = ts.adminDo(t, http.MethodDelete, "/api/admin/problem-statements/1", cookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = ts.adminDo(t, http.MethodDelete, "/api/admin/problem-statements/1", cookie, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete again: expected 404, got %d", w.Code)
	}
}
