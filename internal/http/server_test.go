package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cashflow/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(":0", session.NewRegistry(100, time.Minute, nil), "₹", 1000, nil)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

// doJSON performs a request and decodes the response envelope. An empty
// sessionID lets the server mint a fresh session; the used id is returned.
func doJSON(t *testing.T, srv *Server, method, path, body, sessionID string) (int, map[string]interface{}, string) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	var env map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, rr.Body.String(), err)
	}
	return rr.Code, env, rr.Header().Get(SessionHeader)
}

func dataOf(t *testing.T, env map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := env["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data envelope, got %v", env)
	}
	return data
}

func errCodeOf(t *testing.T, env map[string]interface{}) string {
	t.Helper()
	e, ok := env["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", env)
	}
	code, _ := e["code"].(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestSetBalanceAndSpend(t *testing.T) {
	srv := newTestServer(t)

	code, env, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"1000"}`, "")
	if code != http.StatusCreated {
		t.Fatalf("set balance status=%d body=%v", code, env)
	}
	if sid == "" {
		t.Fatalf("expected a session id on the response")
	}

	code, env, _ = doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"200","description":"Groceries"}`, sid)
	if code != http.StatusCreated {
		t.Fatalf("add expense status=%d body=%v", code, env)
	}
	code, env, _ = doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"150","description":"Gas"}`, sid)
	if code != http.StatusCreated {
		t.Fatalf("add expense status=%d body=%v", code, env)
	}

	code, env, _ = doJSON(t, srv, http.MethodGet, "/balance", "", sid)
	if code != http.StatusOK {
		t.Fatalf("balance status=%d", code)
	}
	data := dataOf(t, env)
	if data["balance"] != "650.00" {
		t.Fatalf("expected balance 650.00, got %v", data["balance"])
	}
	if data["formatted_balance"] != "₹650.00" {
		t.Fatalf("unexpected formatted balance %v", data["formatted_balance"])
	}
	if data["negative"] != false {
		t.Fatalf("balance should not be flagged negative")
	}

	code, env, _ = doJSON(t, srv, http.MethodGet, "/breakdown", "", sid)
	if code != http.StatusOK {
		t.Fatalf("breakdown status=%d", code)
	}
	data = dataOf(t, env)
	if data["available"] != true {
		t.Fatalf("breakdown should be available: %v", data)
	}
	groups := data["groups"].([]interface{})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	first := groups[0].(map[string]interface{})
	if first["description"] != "Groceries" || first["total"] != "200.00" {
		t.Fatalf("unexpected first group %v", first)
	}
}

func TestOverspendWarnsButDoesNotClamp(t *testing.T) {
	srv := newTestServer(t)

	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"100"}`, "")
	code, env, _ := doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"150","description":"Rent"}`, sid)
	if code != http.StatusCreated {
		t.Fatalf("add expense status=%d body=%v", code, env)
	}
	data := dataOf(t, env)
	if data["balance"] != "-50.00" {
		t.Fatalf("expected -50.00, got %v", data["balance"])
	}
	if w, _ := data["warning"].(string); !strings.Contains(w, "exceeded") {
		t.Fatalf("expected overspend warning, got %q", w)
	}

	_, env, _ = doJSON(t, srv, http.MethodGet, "/balance", "", sid)
	data = dataOf(t, env)
	if data["balance"] != "-50.00" || data["negative"] != true {
		t.Fatalf("negative balance must survive unclamped: %v", data)
	}
}

func TestExpenseBeforeInitialization(t *testing.T) {
	srv := newTestServer(t)

	code, env, sid := doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"10"}`, "")
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if got := errCodeOf(t, env); got != "not_initialized" {
		t.Fatalf("expected not_initialized, got %q", got)
	}

	_, env, _ = doJSON(t, srv, http.MethodGet, "/snapshot", "", sid)
	data := dataOf(t, env)
	if txs := data["transactions"].([]interface{}); len(txs) != 0 {
		t.Fatalf("failed command must not append transactions: %v", txs)
	}
}

func TestInvalidAmounts(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{"amount":"0"}`, `{"amount":"-5"}`, `{"amount":"abc"}`, `{}`} {
		code, env, _ := doJSON(t, srv, http.MethodPost, "/balance", body, "")
		if code != http.StatusUnprocessableEntity {
			t.Fatalf("body %s: expected 422, got %d", body, code)
		}
		if got := errCodeOf(t, env); got != "invalid_amount" {
			t.Fatalf("body %s: expected invalid_amount, got %q", body, got)
		}
	}
}

func TestDoubleInitializationRejected(t *testing.T) {
	srv := newTestServer(t)

	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"1000"}`, "")
	code, env, _ := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"500"}`, sid)
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if got := errCodeOf(t, env); got != "already_initialized" {
		t.Fatalf("expected already_initialized, got %q", got)
	}

	// The rejected command left state untouched.
	_, env, _ = doJSON(t, srv, http.MethodGet, "/snapshot", "", sid)
	if data := dataOf(t, env); data["initial_balance"] != "1000.00" {
		t.Fatalf("initial balance changed: %v", data)
	}
}

func TestDefaultDescription(t *testing.T) {
	srv := newTestServer(t)

	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"100"}`, "")
	_, env, _ := doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"10"}`, sid)
	tx := dataOf(t, env)["transaction"].(map[string]interface{})
	if tx["description"] != "General Expense" {
		t.Fatalf("expected fallback description, got %v", tx["description"])
	}
}

func TestOverlongDescriptionRejected(t *testing.T) {
	srv := newTestServer(t)

	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"100"}`, "")
	body := `{"amount":"10","description":"` + strings.Repeat("x", 500) + `"}`
	code, env, _ := doJSON(t, srv, http.MethodPost, "/expenses", body, sid)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if got := errCodeOf(t, env); got != "invalid_description" {
		t.Fatalf("expected invalid_description, got %q", got)
	}

	_, env, _ = doJSON(t, srv, http.MethodGet, "/snapshot", "", sid)
	if txs := dataOf(t, env)["transactions"].([]interface{}); len(txs) != 0 {
		t.Fatalf("rejected expense must not append: %v", txs)
	}
}

func TestBalanceSeries(t *testing.T) {
	srv := newTestServer(t)
	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"1000"}`, "")

	// No transactions: absent, not a one-point series.
	_, env, _ := doJSON(t, srv, http.MethodGet, "/balance/series", "", sid)
	if data := dataOf(t, env); data["available"] != false {
		t.Fatalf("expected unavailable series, got %v", data)
	}

	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"200","description":"Groceries"}`, sid)
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"150","description":"Gas"}`, sid)

	_, env, _ = doJSON(t, srv, http.MethodGet, "/balance/series", "", sid)
	data := dataOf(t, env)
	if data["available"] != true {
		t.Fatalf("expected available series, got %v", data)
	}
	points := data["points"].([]interface{})
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	last := points[2].(map[string]interface{})
	if last["balance"] != "650.00" {
		t.Fatalf("unexpected final balance %v", last["balance"])
	}
}

func TestBreakdownRequiresTwoCategories(t *testing.T) {
	srv := newTestServer(t)
	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"100"}`, "")
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"10","description":"Coffee"}`, sid)
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"15","description":"Coffee"}`, sid)

	_, env, _ := doJSON(t, srv, http.MethodGet, "/breakdown", "", sid)
	if data := dataOf(t, env); data["available"] != false {
		t.Fatalf("single-category breakdown should be unavailable: %v", data)
	}
}

func TestHistoryMostRecentFirst(t *testing.T) {
	srv := newTestServer(t)
	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"100"}`, "")
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"10","description":"First"}`, sid)
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"20","description":"Second"}`, sid)

	_, env, _ := doJSON(t, srv, http.MethodGet, "/expenses", "", sid)
	data := dataOf(t, env)
	txs := data["transactions"].([]interface{})
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].(map[string]interface{})["description"] != "Second" {
		t.Fatalf("history not most-recent-first: %v", txs)
	}
}

func TestResetRestoresFreshState(t *testing.T) {
	srv := newTestServer(t)
	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"1000"}`, "")
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"200","description":"Groceries"}`, sid)

	code, _, _ := doJSON(t, srv, http.MethodPost, "/reset", "", sid)
	if code != http.StatusOK {
		t.Fatalf("reset status=%d", code)
	}

	_, env, _ := doJSON(t, srv, http.MethodGet, "/snapshot", "", sid)
	data := dataOf(t, env)
	if data["initialized"] != false || data["initial_balance"] != "0.00" {
		t.Fatalf("reset did not restore fresh state: %v", data)
	}
	if txs := data["transactions"].([]interface{}); len(txs) != 0 {
		t.Fatalf("reset left transactions behind: %v", txs)
	}

	// A reset ledger accepts a new starting balance.
	if code, _, _ := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"50"}`, sid); code != http.StatusCreated {
		t.Fatalf("set after reset status=%d", code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t)

	_, _, sidA := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"1000"}`, "")
	_, env, sidB := doJSON(t, srv, http.MethodGet, "/balance", "", "")

	if sidA == sidB {
		t.Fatalf("distinct clients must get distinct sessions")
	}
	if data := dataOf(t, env); data["initialized"] != false {
		t.Fatalf("second session saw first session's state: %v", data)
	}
}

func TestFormBodiesAccepted(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/balance", strings.NewReader("amount=250.50"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("form set balance status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "250.50") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/balance"},
		{http.MethodPut, "/expenses"},
		{http.MethodGet, "/reset"},
		{http.MethodPost, "/breakdown"},
		{http.MethodPost, "/balance/series"},
		{http.MethodPost, "/snapshot"},
		{http.MethodPost, "/summary"},
	}
	for _, tc := range cases {
		code, _, _ := doJSON(t, srv, tc.method, tc.path, "", "")
		if code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, code)
		}
	}
}

func TestRateLimitAppliesToCommands(t *testing.T) {
	srv := NewServer(":0", session.NewRegistry(100, time.Minute, nil), "₹", 2, nil)
	t.Cleanup(func() { srv.rateLimiter.stop() })

	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"100"}`, "")
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"1"}`, sid)

	code, env, _ := doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"1"}`, sid)
	if code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if got := errCodeOf(t, env); got != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", got)
	}

	// Reads stay available.
	if code, _, _ := doJSON(t, srv, http.MethodGet, "/balance", "", sid); code != http.StatusOK {
		t.Fatalf("GET rate limited: %d", code)
	}
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t)
	_, _, sid := doJSON(t, srv, http.MethodPost, "/balance", `{"amount":"1000"}`, "")
	doJSON(t, srv, http.MethodPost, "/expenses", `{"amount":"250","description":"Rent"}`, sid)

	_, env, _ := doJSON(t, srv, http.MethodGet, "/summary", "", sid)
	data := dataOf(t, env)
	if data["total_spent"] != "250.00" || data["current_balance"] != "750.00" {
		t.Fatalf("unexpected summary %v", data)
	}
	if data["remaining_ratio"] != 0.75 {
		t.Fatalf("unexpected ratio %v", data["remaining_ratio"])
	}
}
