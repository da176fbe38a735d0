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

	"github.com/google/uuid"

	"techco/internal/config"
	"techco/internal/db"
	"techco/internal/domain"
	"techco/internal/engine"
	"techco/internal/migrate"
	"techco/internal/repo"
)

const testSecret = "server-test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	Token  string
	client *http.Client
	close  func()
}

func (s *testServer) Close() { s.close() }

func newTestServer(t *testing.T) *testServer {
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
	e := engine.New(conn, config.Default())
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return clock }
	e.Uniform = func(min, max float64) float64 { return min }

	handler, err := New(Config{Engine: e, BasePath: "/v1", Auth: AuthConfig{JWTSecret: testSecret}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.Close)

	// mint a token the way a dev would
	resp, body := doJSON(t, ts.client, http.MethodPost, ts.URL+"/v1/auth/dev/login", map[string]string{"actor_id": "tester"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dev login: %d %s", resp.StatusCode, body)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	ts.Token = login.Token
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	return doJSON(t, s.client, method, s.URL+path, body, map[string]string{
		"Authorization": "Bearer " + s.Token,
	})
}

// decodeError pulls the code out of the error envelope.
func decodeError(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error envelope %s: %v", body, err)
	}
	if envelope.Error.Code == "" {
		t.Fatalf("error envelope missing code: %s", body)
	}
	return envelope.Error.Code
}

func (s *testServer) createGame(t *testing.T, name string) domain.Game {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/v1/games", map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create game: %d %s", resp.StatusCode, body)
	}
	var g domain.Game
	if err := json.Unmarshal(body, &g); err != nil {
		t.Fatal(err)
	}
	return g
}

func (s *testServer) hireDeveloper(t *testing.T, gameID string, seniority int) domain.Developer {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/v1/games/"+gameID+"/developers", map[string]any{
		"name": "Dev", "seniority": seniority,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("hire developer: %d %s", resp.StatusCode, body)
	}
	var d domain.Developer
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatal(err)
	}
	return d
}

func (s *testServer) createProject(t *testing.T, gameID string, complexity int) domain.Project {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/v1/games/"+gameID+"/projects", map[string]any{
		"name": "Project", "complexity": complexity,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project: %d %s", resp.StatusCode, body)
	}
	var p domain.Project
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestHealthIsOpen(t *testing.T) {
	s := newTestServer(t)
	resp, body := doJSON(t, s.client, http.MethodGet, s.URL+"/v1/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %d %s", resp.StatusCode, body)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	resp, body := doJSON(t, s.client, http.MethodGet, s.URL+"/v1/games", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list games: %d %s", resp.StatusCode, body)
	}
	resp, body = doJSON(t, s.client, http.MethodGet, s.URL+"/v1/games", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d %s", resp.StatusCode, body)
	}
	resp, _ = s.do(t, http.MethodGet, "/v1/games", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("minted token rejected: %d", resp.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	s := newTestServer(t)
	rawKey := "tk_test_key_material"
	tx, err := s.Engine.DB.Begin()
	if err != nil {
		t.Fatal(err)
	}
	err = s.Engine.Repo.InsertAPIKey(context.Background(), tx, domain.APIKey{
		ID:        uuid.NewString(),
		ActorID:   "ci-bot",
		Name:      "ci",
		KeyHash:   repo.HashAPIKey(rawKey),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, s.client, http.MethodGet, s.URL+"/v1/games", nil, map[string]string{
		"X-Api-Key": rawKey,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("api key auth: %d %s", resp.StatusCode, body)
	}
	resp, _ = doJSON(t, s.client, http.MethodGet, s.URL+"/v1/games", nil, map[string]string{
		"X-Api-Key": "tk_wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong api key: %d", resp.StatusCode)
	}
}

func TestCreateGameRequiresBody(t *testing.T) {
	s := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, s.URL+"/v1/games", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty body: %d", resp.StatusCode)
	}
}

func TestProjectDeliveryFlow(t *testing.T) {
	s := newTestServer(t)
	g := s.createGame(t, "Flow Co")
	d := s.hireDeveloper(t, g.ID, 3)
	p := s.createProject(t, g.ID, 2)

	resp, body := s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/projects/"+p.ID+"/assign", map[string]string{
		"developer_id": d.ID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign: %d %s", resp.StatusCode, body)
	}
	var assigned struct {
		Status           string  `json:"status"`
		Progress         float64 `json:"progress"`
		SecondsRemaining int64   `json:"seconds_remaining"`
	}
	if err := json.Unmarshal(body, &assigned); err != nil {
		t.Fatal(err)
	}
	if assigned.Status != domain.ProjectInProgress {
		t.Fatalf("status = %q", assigned.Status)
	}
	if assigned.SecondsRemaining != 42*60 {
		t.Fatalf("seconds remaining = %d, want %d", assigned.SecondsRemaining, 42*60)
	}

	resp, body = s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/projects/"+p.ID+"/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, http.MethodGet, "/v1/games/"+g.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get game: %d %s", resp.StatusCode, body)
	}
	var after domain.Game
	if err := json.Unmarshal(body, &after); err != nil {
		t.Fatal(err)
	}
	if after.Money != 12500 {
		t.Fatalf("money = %v, want 12500", after.Money)
	}
}

func TestDeclineEnvelopes(t *testing.T) {
	s := newTestServer(t)
	g := s.createGame(t, "Decline Co")
	junior := s.hireDeveloper(t, g.ID, 1)
	hard := s.createProject(t, g.ID, 4)

	resp, body := s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/projects/"+hard.ID+"/assign", map[string]string{
		"developer_id": junior.ID,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("insufficient seniority: %d %s", resp.StatusCode, body)
	}
	if code := decodeError(t, body); code != "insufficient_seniority" {
		t.Fatalf("code = %q", code)
	}

	easy := s.createProject(t, g.ID, 1)
	if resp, body = s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/projects/"+easy.ID+"/assign", map[string]string{"developer_id": junior.ID}); resp.StatusCode != http.StatusOK {
		t.Fatalf("assign: %d %s", resp.StatusCode, body)
	}
	// busy developer, second project
	other := s.createProject(t, g.ID, 1)
	resp, body = s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/projects/"+other.ID+"/assign", map[string]string{"developer_id": junior.ID})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("already busy: %d %s", resp.StatusCode, body)
	}
	if code := decodeError(t, body); code != "already_busy" {
		t.Fatalf("code = %q", code)
	}

	// a project from one game is invisible through another
	g2 := s.createGame(t, "Other Co")
	resp, body = s.do(t, http.MethodGet, "/v1/games/"+g2.ID+"/projects/"+easy.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("wrong game: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, http.MethodGet, "/v1/games/"+g.ID+"/projects/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing project: %d %s", resp.StatusCode, body)
	}
}

func TestPauseResumeOverHTTP(t *testing.T) {
	s := newTestServer(t)
	g := s.createGame(t, "Pause Co")

	resp, body := s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/pause", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pause: %d %s", resp.StatusCode, body)
	}
	resp, body = s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/pause", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double pause: %d %s", resp.StatusCode, body)
	}
	if code := decodeError(t, body); code != "already_paused" {
		t.Fatalf("code = %q", code)
	}

	resp, body = s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/resume", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resume: %d %s", resp.StatusCode, body)
	}
	var resumed domain.Game
	if err := json.Unmarshal(body, &resumed); err != nil {
		t.Fatal(err)
	}
	if resumed.Status != domain.GameActive {
		t.Fatalf("status = %q", resumed.Status)
	}

	resp, body = s.do(t, http.MethodPost, "/v1/games/"+g.ID+"/offline-catchup", map[string]int64{"offline_seconds": 120})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("offline catch-up: %d %s", resp.StatusCode, body)
	}
	var catchUp struct {
		DeadlinesShifted int `json:"deadlines_shifted"`
	}
	if err := json.Unmarshal(body, &catchUp); err != nil {
		t.Fatal(err)
	}
	if catchUp.DeadlinesShifted != 0 {
		t.Fatalf("deadlines shifted = %d, want 0 with no work in flight", catchUp.DeadlinesShifted)
	}
}

func TestStatusAndEvents(t *testing.T) {
	s := newTestServer(t)
	g := s.createGame(t, "Status Co")
	s.hireDeveloper(t, g.ID, 2)
	s.createProject(t, g.ID, 1)

	resp, body := s.do(t, http.MethodGet, "/v1/games/"+g.ID+"/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d %s", resp.StatusCode, body)
	}
	var st struct {
		Developers int            `json:"developers"`
		Projects   map[string]int `json:"projects"`
	}
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatal(err)
	}
	if st.Developers != 1 || st.Projects[domain.ProjectPending] != 1 {
		t.Fatalf("status = %+v", st)
	}

	resp, body = s.do(t, http.MethodGet, "/v1/games/"+g.ID+"/events?limit=10", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events: %d %s", resp.StatusCode, body)
	}
	var events struct {
		Items []struct {
			Type string `json:"type"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &events); err != nil {
		t.Fatal(err)
	}
	if len(events.Items) < 3 {
		t.Fatalf("expected at least 3 events, got %d", len(events.Items))
	}
}
