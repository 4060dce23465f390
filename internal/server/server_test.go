package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"leadgps/internal/db"
	"leadgps/internal/domain"
	"leadgps/internal/engine"
	"leadgps/internal/migrate"
	"leadgps/internal/seed"
	"leadgps/internal/session"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := seed.Apply(context.Background(), conn, seed.Builtin(), nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	e := engine.New(conn)
	sessions := session.New(conn, "test-secret", time.Hour)
	handler, err := New(Config{Engine: e, Sessions: sessions, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer, email, role string) (string, map[string]string) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/auth/login", map[string]any{
		"email":    email,
		"password": "pw",
		"role":     role,
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, string(data))
	}
	var out LoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	return out.Token, map[string]string{"Authorization": "Bearer " + out.Token}
}

func TestLoginAndRoleGating(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, managerHdr := login(t, srv, "manager@company.com", "manager")
	_, employeeHdr := login(t, srv, "a@b.com", "employee")

	// Manager surfaces respond for managers.
	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/action-items", nil, managerHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("manager action-items status %d: %s", res.StatusCode, string(data))
	}

	// And 403 for employees, never 404.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/action-items", nil, employeeHdr)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("employee action-items status %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Code != "forbidden" {
		t.Fatalf("expected forbidden envelope, got %s", string(data))
	}

	// The symmetric case for employee surfaces.
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/feedback-requests", nil, managerHdr)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("manager feedback-requests status %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/feedback-requests", nil, employeeHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("employee feedback-requests status %d", res.StatusCode)
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{"Authorization": "Bearer junk"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health should stay open, status %d", res.StatusCode)
	}
}

func TestLoginRejectsEmptyPassword(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/auth/login", map[string]any{
		"email":    "a@b.com",
		"password": "",
		"role":     "manager",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
}

func TestResolveView(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, employeeHdr := login(t, srv, "a@b.com", "employee")

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/view/resolve?path=/reports", nil, employeeHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("resolve status %d: %s", res.StatusCode, string(data))
	}
	var out ResolveResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Employees do not have /reports; resolution lands on the terminal
	// not-found state without erroring.
	if out.State != "not_found" || out.Route != "not_found" {
		t.Fatalf("got %+v", out)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/view/resolve?path=/provide-feedback/3", nil, employeeHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("resolve status %d", res.StatusCode)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Route != "/provide-feedback/:requestId" || out.State != "ok" {
		t.Fatalf("got %+v", out)
	}
}

func TestActionItemLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, hdr := login(t, srv, "manager@company.com", "manager")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/action-items", map[string]any{
		"title":    "Prep growth conversation",
		"due_date": "Friday",
	}, hdr)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var item domain.ActionItem
	if err := json.Unmarshal(data, &item); err != nil {
		t.Fatal(err)
	}
	if item.ID != 5 {
		t.Fatalf("seed has 4 items, new id should be 5, got %d", item.ID)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/action-items/5/toggle", nil, hdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("toggle status %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &item); err != nil {
		t.Fatal(err)
	}
	if !item.Completed {
		t.Fatal("toggle should complete the item")
	}

	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/v0/action-items/999/toggle", nil, hdr)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown item status %d", res.StatusCode)
	}
}

func TestValidationEnvelopeListsFields(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	_, hdr := login(t, srv, "manager@company.com", "manager")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/sessions", map[string]any{
		"date": "2025-06-10",
	}, hdr)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []string `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Error.Code != "validation_failed" {
		t.Fatalf("code: %s", envelope.Error.Code)
	}
	if len(envelope.Error.Details.Fields) != 2 {
		t.Fatalf("expected team_member and time flagged, got %v", envelope.Error.Details.Fields)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	_, hdr := login(t, srv, "manager@company.com", "manager")

	res, _ := doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/logout", nil, hdr)
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, hdr)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("token should be dead after logout, status %d", res.StatusCode)
	}
}

func TestComposedView(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, managerHdr := login(t, srv, "manager@company.com", "manager")
	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/view", nil, managerHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("manager view status %d: %s", res.StatusCode, string(data))
	}
	var view ViewResponse
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Role != "manager" || view.Manager == nil || view.Employee != nil {
		t.Fatalf("manager view shape: %+v", view)
	}
	if len(view.Routes) != 10 || view.Landing != "/" {
		t.Fatalf("manager routes: %v landing=%q", view.Routes, view.Landing)
	}
	mv := view.Manager
	if len(mv.Team) != 3 || len(mv.Trends.Points) != 6 {
		t.Fatalf("manager view from seed: team=%d points=%d", len(mv.Team), len(mv.Trends.Points))
	}
	if mv.Trends.Average != 8.0 || mv.Trends.Delta != 1.3 {
		t.Fatalf("trend analytics: %+v", mv.Trends)
	}

	_, employeeHdr := login(t, srv, "employee@company.com", "employee")
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/view", nil, employeeHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("employee view status %d: %s", res.StatusCode, string(data))
	}
	view = ViewResponse{}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Role != "employee" || view.Employee == nil || view.Manager != nil {
		t.Fatalf("employee view shape: %+v", view)
	}
	ev := view.Employee
	if len(ev.Requests) != 3 || len(ev.Opportunities) != 3 {
		t.Fatalf("employee view from seed: requests=%d opps=%d", len(ev.Requests), len(ev.Opportunities))
	}
}
