package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"zenbudget/internal/auth"
	"zenbudget/internal/changefeed"
	"zenbudget/internal/core"
	"zenbudget/internal/export"
	"zenbudget/internal/log"
	"zenbudget/internal/middleware/ratelimit"
	"zenbudget/internal/prefs"
	"zenbudget/internal/session"
	"zenbudget/internal/store"
	"zenbudget/internal/store/memory"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubSheets struct{ rows int }

func (s *stubSheets) Export(_ context.Context, r export.Report) (string, error) {
	s.rows = len(r.Rows)
	return "'Report'!A1:E2", nil
}

type testEnv struct {
	srv      *Server
	sessions *session.Manager
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()
	mem := memory.New()
	bus := changefeed.NewLocalBus(64)
	feed := changefeed.New(mem, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go feed.Run(ctx, bus)

	repo := store.Notify(mem, bus)
	sessions := session.NewManager(session.Deps{Repo: repo, Feed: feed, Prefs: prefs.NewMemoryStore()})
	t.Cleanup(func() {
		sessions.CloseAll()
		cancel()
		bus.Close()
	})

	d := Deps{
		Backend:   stubPinger{},
		Sessions:  sessions,
		Feed:      feed,
		Passwords: auth.NewPasswordProvider(repo),
		Tokens:    auth.NewTokens("test-secret-0123456789abcdef", time.Hour),
		Limiter:   ratelimit.NewLimiter(ratelimit.Config{Requests: 1 << 20, Window: time.Minute}),
		Currency:  "INR",
		Location:  time.UTC,
	}
	if mutate != nil {
		mutate(&d)
	}
	return &testEnv{srv: NewServer(":0", d), sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func eventually(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// register signs up a user and waits until the session has its data.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: email, Password: "secret123"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	token := decode[authResponse](t, rr).Token
	eventually(t, "session never loaded", func() bool {
		me := decode[profileResponse](t, e.do(t, http.MethodGet, "/api/me", token, nil))
		cats := decode[[]core.Category](t, e.do(t, http.MethodGet, "/api/categories", token, nil))
		return !me.DataLoading && len(cats) > 0
	})
	return token
}

func (e *testEnv) category(t *testing.T, token, name string) core.Category {
	t.Helper()
	for _, c := range decode[[]core.Category](t, e.do(t, http.MethodGet, "/api/categories", token, nil)) {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found", name)
	return core.Category{}
}

func (e *testEnv) listTransactions(t *testing.T, token, query string) pageResponse {
	t.Helper()
	rr := e.do(t, http.MethodGet, "/api/transactions"+query, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decode[pageResponse](t, rr)
}

type pageResponse struct {
	Items      []core.Transaction `json:"items"`
	Page       int                `json:"page"`
	TotalPages int                `json:"totalPages"`
	TotalItems int                `json:"totalItems"`
}

func expenseBody(categoryID, description, amount string) map[string]any {
	return map[string]any{
		"amount":      amount,
		"date":        time.Now().UTC().Format(time.RFC3339),
		"categoryId":  categoryID,
		"description": description,
		"type":        "expense",
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing request id", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s missing security headers", path)
		}
	}

	down := newTestEnv(t, func(d *Deps) { d.Backend = stubPinger{err: errors.New("connection refused")} })
	if rr := down.do(t, http.MethodGet, "/readyz", "", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing backend status=%d", rr.Code)
	}
}

func TestAuthErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "jane@example.com")

	tests := []struct {
		name    string
		path    string
		body    credentialsRequest
		status  int
		code    auth.Code
		message string
	}{
		{"duplicate", "/api/auth/register", credentialsRequest{Email: "jane@example.com", Password: "secret123"},
			http.StatusConflict, auth.CodeEmailAlreadyInUse, "An account already exists with this email."},
		{"weak password", "/api/auth/register", credentialsRequest{Email: "joe@example.com", Password: "123"},
			http.StatusBadRequest, auth.CodeWeakPassword, "Password should be at least 6 characters."},
		{"invalid email", "/api/auth/register", credentialsRequest{Email: "not-an-email", Password: "secret123"},
			http.StatusBadRequest, auth.CodeInvalidEmail, "Please enter a valid email address."},
		{"unknown user", "/api/auth/login", credentialsRequest{Email: "nobody@example.com", Password: "secret123"},
			http.StatusUnauthorized, auth.CodeUserNotFound, "No account found with this email."},
		{"wrong password", "/api/auth/login", credentialsRequest{Email: "jane@example.com", Password: "nope-nope"},
			http.StatusUnauthorized, auth.CodeWrongPassword, "Incorrect password. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, tt.path, "", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.status, rr.Body.String())
			}
			got := decode[errorBody](t, rr)
			if got.Code != string(tt.code) || got.Error != tt.message {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestLoginReturnsProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "jane.doe@example.com")

	rr := env.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: "JANE.DOE@example.com", Password: "secret123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	resp := decode[authResponse](t, rr)
	if resp.Token == "" || resp.User == nil || resp.User.DisplayName != "jane.doe" {
		t.Fatalf("unexpected login response %+v", resp)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, token := range []string{"", "garbage"} {
		if rr := env.do(t, http.MethodGet, "/api/me", token, nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("token %q status=%d", token, rr.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")
	food := env.category(t, token, "Food")

	rr := env.do(t, http.MethodPost, "/api/transactions", token, expenseBody(food.ID, "Groceries", "120.50"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[core.Transaction](t, rr)
	if created.ID == "" || created.Amount.Cents != 12050 || created.Frequency != core.OneTime {
		t.Fatalf("unexpected created transaction %+v", created)
	}
	eventually(t, "transaction never mirrored", func() bool {
		return env.listTransactions(t, token, "").TotalItems == 1
	})

	if got := env.listTransactions(t, token, "?search=GROC"); got.TotalItems != 1 {
		t.Fatalf("search should be case-insensitive, got %d", got.TotalItems)
	}
	if got := env.listTransactions(t, token, "?type=income"); got.TotalItems != 0 {
		t.Fatalf("type filter leaked %d items", got.TotalItems)
	}

	update := expenseBody(food.ID, "Groceries and snacks", "130")
	if rr := env.do(t, http.MethodPut, "/api/transactions/"+created.ID, token, update); rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	eventually(t, "update never mirrored", func() bool {
		items := env.listTransactions(t, token, "").Items
		return len(items) == 1 && items[0].Amount.Cents == 13000
	})

	months := decode[[]core.MonthOption](t, env.do(t, http.MethodGet, "/api/transactions/months", token, nil))
	if len(months) != 1 || months[0].Value != time.Now().UTC().Format("2006-01") {
		t.Fatalf("unexpected months %+v", months)
	}

	if rr := env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, token, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	eventually(t, "delete never mirrored", func() bool {
		return env.listTransactions(t, token, "").TotalItems == 0
	})
}

func TestTransactionValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")
	food := env.category(t, token, "Food")
	salary := env.category(t, token, "Salary")

	tests := []struct {
		name string
		body any
	}{
		{"bad amount", expenseBody(food.ID, "Lunch", "abc")},
		{"zero amount", expenseBody(food.ID, "Lunch", "0")},
		{"empty description", expenseBody(food.ID, "  ", "10")},
		{"unknown category", expenseBody("missing", "Lunch", "10")},
		{"type mismatch", expenseBody(salary.ID, "Lunch", "10")},
		{"unknown field", `{"amount": 10, "color": "red"}`},
		{"empty body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/transactions", token, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")
	before := len(decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", token, nil)))

	rr := env.do(t, http.MethodPost, "/api/categories", token, map[string]any{
		"name": "Pets", "type": "expense", "icon": "no-such-icon", "budgetLimit": "200",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	pets := decode[core.Category](t, rr)
	if pets.Icon != core.IconDefault || pets.Color != core.DefaultCategoryColor {
		t.Fatalf("defaults not applied: %+v", pets)
	}
	eventually(t, "category never mirrored", func() bool {
		return len(decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", token, nil))) == before+1
	})

	if rr := env.do(t, http.MethodPost, "/api/categories", token, map[string]any{"name": "", "type": "expense"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty name status=%d", rr.Code)
	}

	if rr := env.do(t, http.MethodDelete, "/api/categories/"+pets.ID, token, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	eventually(t, "category delete never mirrored", func() bool {
		return len(decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", token, nil))) == before
	})
}

func TestDashboardIsCachedPerVersion(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")

	first := env.do(t, http.MethodGet, "/api/dashboard?view=week", token, nil)
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first status=%d cache=%s", first.Code, first.Header().Get("X-Cache"))
	}
	dash := decode[struct {
		Greeting string        `json:"greeting"`
		Series   []core.Bucket `json:"series"`
		Metrics  core.Metrics  `json:"metrics"`
	}](t, first)
	if dash.Greeting != "jane" || len(dash.Series) != 7 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}
	if second := env.do(t, http.MethodGet, "/api/dashboard?view=week", token, nil); second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second request should hit the cache")
	}

	food := env.category(t, token, "Food")
	env.do(t, http.MethodPost, "/api/transactions", token, expenseBody(food.ID, "Groceries", "50"))
	eventually(t, "dashboard never reflected the new expense", func() bool {
		rr := env.do(t, http.MethodGet, "/api/dashboard?view=week", token, nil)
		var d struct {
			Metrics core.Metrics `json:"metrics"`
		}
		_ = json.Unmarshal(rr.Body.Bytes(), &d)
		return d.Metrics.Expense.Cents == 5000
	})

	if rr := env.do(t, http.MethodGet, "/api/dashboard?view=year", token, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown view status=%d", rr.Code)
	}
}

func TestBudgets(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")
	food := env.category(t, token, "Food")
	env.do(t, http.MethodPost, "/api/transactions", token, expenseBody(food.ID, "Feast", "20000"))

	eventually(t, "budget never went over", func() bool {
		rr := env.do(t, http.MethodGet, "/api/budgets?type=expense", token, nil)
		var resp struct {
			Over []core.BudgetStatus `json:"overBudget"`
		}
		_ = json.Unmarshal(rr.Body.Bytes(), &resp)
		return len(resp.Over) == 1 && resp.Over[0].Category.ID == food.ID
	})
	if rr := env.do(t, http.MethodGet, "/api/budgets?type=transfer", token, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status=%d", rr.Code)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")

	rr := env.do(t, http.MethodGet, "/api/export?format=csv", token, nil)
	if rr.Code != http.StatusOK || decode[noticeResponse](t, rr).Notice != export.EmptyNotice {
		t.Fatalf("empty export: status=%d body=%s", rr.Code, rr.Body.String())
	}

	food := env.category(t, token, "Food")
	env.do(t, http.MethodPost, "/api/transactions", token, expenseBody(food.ID, "Groceries", "12.5"))
	eventually(t, "transaction never mirrored", func() bool {
		return env.listTransactions(t, token, "").TotalItems == 1
	})

	rr = env.do(t, http.MethodGet, "/api/export?format=csv&range=this-month", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("csv status=%d body=%s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, ".csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "Date,Description,Amount,Type,Category") || !strings.Contains(body, "Groceries") {
		t.Fatalf("unexpected csv %q", body)
	}

	for _, q := range []string{"?format=doc", "?format=csv&range=custom&start=2024-01-01", "?format=csv&range=decade"} {
		if rr := env.do(t, http.MethodGet, "/api/export"+q, token, nil); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s status=%d", q, rr.Code)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogsOperations(t *testing.T) {
	var out syncBuffer
	env := newTestEnv(t, func(d *Deps) {
		d.Logger = log.New(log.Config{Level: slog.LevelInfo, Output: &out})
	})
	token := env.register(t, "jane@example.com")

	food := env.category(t, token, "Food")
	env.do(t, http.MethodPost, "/api/transactions", token, expenseBody(food.ID, "Groceries", "12.5"))
	eventually(t, "transaction never mirrored", func() bool {
		return env.listTransactions(t, token, "").TotalItems == 1
	})
	if rr := env.do(t, http.MethodGet, "/api/export?format=csv", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/auth/logout", token, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("logout status=%d", rr.Code)
	}

	logs := out.String()
	for _, want := range []string{
		"operation=login",
		"client_ip=",
		"component=export",
		"operation=export",
		"operation=logout",
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("expected %q in logs:\n%s", want, logs)
		}
	}
}

func TestExportSheets(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")
	if rr := env.do(t, http.MethodPost, "/api/export/sheets", token, nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured status=%d", rr.Code)
	}

	sheets := &stubSheets{}
	env = newTestEnv(t, func(d *Deps) { d.Sheets = sheets })
	token = env.register(t, "jane@example.com")
	food := env.category(t, token, "Food")
	env.do(t, http.MethodPost, "/api/transactions", token, expenseBody(food.ID, "Groceries", "12.5"))
	eventually(t, "transaction never mirrored", func() bool {
		return env.listTransactions(t, token, "").TotalItems == 1
	})
	if rr := env.do(t, http.MethodPost, "/api/export/sheets", token, nil); rr.Code != http.StatusOK || sheets.rows != 1 {
		t.Fatalf("sheets export status=%d rows=%d", rr.Code, sheets.rows)
	}
}

func TestProfileAndPreferences(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")

	rr := env.do(t, http.MethodPut, "/api/me", token, map[string]string{"displayName": "  Jane  "})
	if rr.Code != http.StatusOK || decode[profileResponse](t, rr).DisplayName != "Jane" {
		t.Fatalf("update me status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodPut, "/api/me", token, map[string]string{"displayName": " "}); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty name status=%d", rr.Code)
	}

	p := decode[prefs.Preferences](t, env.do(t, http.MethodGet, "/api/preferences", token, nil))
	if p != prefs.Default() {
		t.Fatalf("expected defaults, got %+v", p)
	}
	p = decode[prefs.Preferences](t, env.do(t, http.MethodPost, "/api/preferences/theme/toggle", token, nil))
	if p.Theme != prefs.Dark {
		t.Fatalf("toggle gave %q", p.Theme)
	}
	p = decode[prefs.Preferences](t, env.do(t, http.MethodPut, "/api/preferences", token, map[string]bool{"sidebarOpen": false}))
	if p.Theme != prefs.Dark || p.SidebarOpen {
		t.Fatalf("partial update gave %+v", p)
	}
	if rr := env.do(t, http.MethodPut, "/api/preferences", token, map[string]string{"theme": "sepia"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad theme status=%d", rr.Code)
	}

	if rr := env.do(t, http.MethodPost, "/api/auth/logout", token, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("logout status=%d", rr.Code)
	}
	if env.sessions.Len() != 0 {
		t.Fatalf("logout left %d sessions open", env.sessions.Len())
	}

	// The token is still valid; the next request opens a fresh session that
	// keeps the stored name and theme.
	eventually(t, "session never reloaded", func() bool {
		return !decode[profileResponse](t, env.do(t, http.MethodGet, "/api/me", token, nil)).DataLoading
	})
	if me := decode[profileResponse](t, env.do(t, http.MethodGet, "/api/me", token, nil)); me.DisplayName != "Jane" {
		t.Fatalf("display name lost: %+v", me)
	}
	if p := decode[prefs.Preferences](t, env.do(t, http.MethodGet, "/api/preferences", token, nil)); p.Theme != prefs.Dark {
		t.Fatalf("theme lost across sign-out: %+v", p)
	}
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	limited := false
	for i := 0; i < 25; i++ {
		rr := env.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: "x@example.com", Password: "secret123"})
		if rr.Code == http.StatusTooManyRequests {
			if rr.Header().Get("Retry-After") == "" {
				t.Fatalf("missing Retry-After")
			}
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("auth endpoints were never rate limited")
	}
}

func TestWebSocketPushesSnapshots(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")
	food := env.category(t, token, "Food")

	ts := httptest.NewServer(env.srv.Handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	type message struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	read := func() message {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		return m
	}

	seen := map[string]bool{}
	for len(seen) < 2 {
		seen[read().Type] = true
	}
	if !seen[pushTransactions] || !seen[pushCategories] {
		t.Fatalf("initial snapshots missing: %v", seen)
	}

	env.do(t, http.MethodPost, "/api/transactions", token, expenseBody(food.ID, "Groceries", "10"))
	for {
		m := read()
		if m.Type != pushTransactions {
			continue
		}
		var txs []core.Transaction
		if err := json.Unmarshal(m.Payload, &txs); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if len(txs) == 1 && txs[0].Description == "Groceries" {
			return
		}
	}
}

func TestWebSocketClosesOnLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "jane@example.com")

	ts := httptest.NewServer(env.srv.Handler)
	defer ts.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal closure, got %v", err)
			}
			return
		}
	}
}
