package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/sanctum/internal/storage"
	"github.com/kalambet/sanctum/internal/voice"
)

const testToken = "test-token-1234"

type stubEvolver struct {
	result voice.Result
	err    error
	runs   int
}

func (s *stubEvolver) Run() (voice.Result, error) {
	s.runs++
	return s.result, s.err
}

func newTestServer(t *testing.T) (*httptest.Server, *storage.Store, *stubEvolver) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	evolver := &stubEvolver{}
	srv := httptest.NewServer(NewAppHandler(AppDeps{
		Store:   store,
		Evolver: evolver,
		Token:   testToken,
	}))
	t.Cleanup(srv.Close)
	return srv, store, evolver
}

func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthUnauthenticated(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status body = %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "not-the-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, srv.URL+"/reflections", tt.token, "")
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			var body struct {
				Error struct {
					Type    string `json:"type"`
					Message string `json:"message"`
				} `json:"error"`
			}
			decodeBody(t, resp, &body)
			if body.Error.Type != "authentication_error" {
				t.Errorf("error type = %q", body.Error.Type)
			}
		})
	}
}

func TestEnqueuePrompt(t *testing.T) {
	srv, store, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/prompts", testToken,
		`{"question":"What holds the pattern together?"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["id"] == "" {
		t.Fatal("no prompt id returned")
	}

	prompt, err := store.ClaimNextPrompt()
	if err != nil {
		t.Fatalf("claiming prompt: %v", err)
	}
	if prompt == nil || prompt.ID != body["id"] {
		t.Errorf("queued prompt = %+v, want id %s", prompt, body["id"])
	}
}

func TestEnqueuePromptValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty question", `{"question":""}`},
		{"malformed json", `{question`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, srv.URL+"/prompts", testToken, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestListReflections(t *testing.T) {
	srv, store, _ := newTestServer(t)

	for i, id := range []string{"ref-a", "ref-b"} {
		err := store.SaveReflection(storage.Reflection{
			ID:        id,
			CreatedAt: time.Date(2026, 8, 20, 12, i, 0, 0, time.UTC),
			Prompt:    "a question",
			Essence:   "identity",
			Resonance: 0.5,
			Mode:      "weave",
			Content:   "a reflection",
		})
		if err != nil {
			t.Fatalf("saving reflection: %v", err)
		}
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/reflections?limit=1", testToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body []map[string]any
	decodeBody(t, resp, &body)
	if len(body) != 1 {
		t.Fatalf("got %d reflections, want 1 (limit)", len(body))
	}
	if body[0]["id"] != "ref-b" {
		t.Errorf("first reflection = %v, want newest (ref-b)", body[0]["id"])
	}
}

func TestGetReflectionNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/reflections/ghost", testToken, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetProfile(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/profile", testToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var profile voice.Profile
	decodeBody(t, resp, &profile)
	if profile.TotalReflections != 0 {
		t.Errorf("TotalReflections = %d, want 0 for a fresh store", profile.TotalReflections)
	}
}

func TestGetSignature(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/signature", testToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestEvolve(t *testing.T) {
	srv, _, evolver := newTestServer(t)
	evolver.result = voice.Result{FilesProcessed: 3}

	resp := doRequest(t, http.MethodPost, srv.URL+"/evolve", testToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if evolver.runs != 1 {
		t.Errorf("evolver ran %d times, want 1", evolver.runs)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["files_processed"].(float64) != 3 {
		t.Errorf("files_processed = %v", body["files_processed"])
	}
}

func TestSeedLifecycleOverHTTP(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/seeds", testToken,
		`{"question":"What season is this?"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("plant status = %d, want 201", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/seeds", testToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var seeds []map[string]any
	decodeBody(t, resp, &seeds)
	if len(seeds) != 1 {
		t.Fatalf("got %d seeds, want 1", len(seeds))
	}
	if seeds[0]["question"] != "What season is this?" {
		t.Errorf("seed question = %v", seeds[0]["question"])
	}
	if _, tended := seeds[0]["tended_at"]; tended {
		t.Error("untended seed reports tended_at")
	}
}
