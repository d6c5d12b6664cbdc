package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"section-presets/api"
	"section-presets/auth"
	"section-presets/preset"
	"section-presets/session"
)

type testEnv struct {
	srv    *httptest.Server
	store  *preset.Manager
	issuer *auth.Issuer
}

// newTestPresetManager creates a preset manager backed by a temp file.
func newTestPresetManager(t *testing.T) *preset.Manager {
	t.Helper()
	pm, err := preset.NewManager(t.TempDir() + "/presets.json")
	if err != nil {
		t.Fatalf("newTestPresetManager: %v", err)
	}
	return pm
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pm := newTestPresetManager(t)
	iss, err := auth.NewIssuer("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(api.RegisterRoutes(session.NewManager(pm), pm, iss))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: pm, issuer: iss}
}

func (e *testEnv) token(t *testing.T, user string) string {
	t.Helper()
	tok, err := e.issuer.Issue(user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

// do sends a JSON request as user ("" for anonymous) and returns the response.
func (e *testEnv) do(t *testing.T, user, method, path string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rdr = bytes.NewBufferString(s)
		} else {
			data, _ := json.Marshal(body)
			rdr = bytes.NewReader(data)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, user))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d (%s)", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}
