package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"roastmachine/internal/results"

	_ "roastmachine/internal/provider/mock"
)

func newTestServer(t *testing.T, opts handlerOptions) *httptest.Server {
	t.Helper()
	t.Setenv("ROAST_RESULTS_DIR", t.TempDir())
	t.Setenv("ROAST_MEME_DIR", t.TempDir())
	server := httptest.NewServer(newHandler(opts))
	t.Cleanup(server.Close)
	return server
}

func decodeResponse(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1", version: "1.2.3"})

	for _, path := range []string{"/", "/health"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
		var body map[string]interface{}
		decodeResponse(t, resp, &body)
		if body["status"] != "healthy" {
			t.Fatalf("%s: unexpected status %v", path, body["status"])
		}
		if body["version"] != "1.2.3" {
			t.Fatalf("%s: unexpected version %v", path, body["version"])
		}
	}
}

func TestListModels(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	resp, err := http.Get(server.URL + "/models?provider=mock")
	if err != nil {
		t.Fatalf("get models: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Provider string `json:"provider"`
		Models   []struct {
			ID string `json:"id"`
		} `json:"models"`
	}
	decodeResponse(t, resp, &body)
	if body.Provider != "mock" || len(body.Models) != 3 {
		t.Fatalf("unexpected models response: %+v", body)
	}

	resp, err = http.Get(server.URL + "/models?provider=nonsense")
	if err != nil {
		t.Fatalf("get models: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown provider: status %d", resp.StatusCode)
	}
}

func TestQuerySavesRun(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	resp := postJSON(t, server.URL+"/query", map[string]interface{}{
		"provider": "mock",
		"model":    "mock-chat",
		"prompt":   "hello there",
		"save":     true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]interface{}
	decodeResponse(t, resp, &body)
	if body["response"] == "" {
		t.Fatalf("empty response")
	}
	runID, ok := body["run_id"].(string)
	if !ok || runID == "" {
		t.Fatalf("missing run_id: %v", body)
	}

	run, err := results.GetRun(runID)
	if err != nil {
		t.Fatalf("get saved run: %v", err)
	}
	if run.Kind != results.KindSingle || run.Prompt != "hello there" {
		t.Fatalf("unexpected saved run: %+v", run)
	}
}

func TestQueryRequiresPrompt(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	resp := postJSON(t, server.URL+"/query", map[string]interface{}{"provider": "mock"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestTestEndpointRunsBattery(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	resp := postJSON(t, server.URL+"/test", map[string]interface{}{
		"provider": "mock",
		"model":    "mock-gpt2",
		"prompts":  []string{"hello", "what is ai"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var run results.Run
	decodeResponse(t, resp, &run)
	if run.Kind != results.KindGeneration || len(run.Generations) != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}

	stored, err := results.GetRun(run.ID)
	if err != nil {
		t.Fatalf("run not persisted: %v", err)
	}
	if stored.Model != "mock-gpt2" {
		t.Fatalf("unexpected stored run: %+v", stored)
	}
}

func TestBiasEndpoint(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	resp := postJSON(t, server.URL+"/bias", map[string]interface{}{
		"provider": "mock",
		"model":    "mock-chat",
		"prompts":  []string{"probe one"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var run results.Run
	decodeResponse(t, resp, &run)
	if run.Kind != results.KindBias || len(run.BiasProbes) != 1 {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestRoastAndMemeEndpoints(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	run := results.Run{
		ID:           "generation_mock_20250101_120000_aaaa1111",
		Kind:         results.KindGeneration,
		Provider:     "mock",
		Model:        "mock-gpt2",
		StartedAt:    time.Now().UTC(),
		OverallScore: 0.9,
		Metrics:      map[string]float64{"speed": 0.9},
	}
	if err := results.SaveRun(run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	resp := postJSON(t, server.URL+"/roast", map[string]string{"run_id": run.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("roast status %d", resp.StatusCode)
	}
	var roastBody map[string]interface{}
	decodeResponse(t, resp, &roastBody)
	if roastBody["model_name"] != "mock-gpt2" || roastBody["overall_roast"] == "" {
		t.Fatalf("unexpected roast: %v", roastBody)
	}

	resp = postJSON(t, server.URL+"/meme", map[string]string{"run_id": run.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("meme status %d", resp.StatusCode)
	}
	var memeBody map[string]string
	decodeResponse(t, resp, &memeBody)
	if memeBody["meme_path"] == "" {
		t.Fatalf("missing meme path: %v", memeBody)
	}

	resp = postJSON(t, server.URL+"/roast", map[string]string{"run_id": "missing"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing run: status %d", resp.StatusCode)
	}
}

func TestRunsEndpoints(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	run := results.Run{
		ID:        "bias_m_20250101_120000_bbbb2222",
		Kind:      results.KindBias,
		Model:     "m",
		StartedAt: time.Now().UTC(),
	}
	if err := results.SaveRun(run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	resp, err := http.Get(server.URL + "/runs")
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	var listBody struct {
		Runs []map[string]interface{} `json:"runs"`
	}
	decodeResponse(t, resp, &listBody)
	if len(listBody.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(listBody.Runs))
	}

	resp, err = http.Get(server.URL + "/runs/" + run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	var fetched results.Run
	decodeResponse(t, resp, &fetched)
	if fetched.ID != run.ID {
		t.Fatalf("unexpected run: %+v", fetched)
	}

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/runs/"+run.ID, nil)
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete run: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/runs/" + run.ID)
	if err != nil {
		t.Fatalf("get deleted run: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted run: status %d", resp.StatusCode)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1", token: "secret"})

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestUnknownEndpointReturnsJSONError(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1"})

	resp, err := http.Get(server.URL + "/nonsense")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]string
	decodeResponse(t, resp, &body)
	if body["error"] == "" {
		t.Fatalf("expected JSON error body")
	}
}

func TestRunRoutesRejectPathTraversal(t *testing.T) {
	root := t.TempDir()
	resultsDir := filepath.Join(root, "results")
	t.Setenv("ROAST_RESULTS_DIR", resultsDir)
	t.Setenv("ROAST_MEME_DIR", t.TempDir())
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		t.Fatalf("create results dir: %v", err)
	}

	outside := filepath.Join(root, "secret.json")
	if err := os.WriteFile(outside, []byte(`{"id":"secret"}`), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	server := httptest.NewServer(newHandler(handlerOptions{}))
	t.Cleanup(server.Close)

	for _, method := range []string{http.MethodDelete, http.MethodGet} {
		req, err := http.NewRequest(method, server.URL+"/runs/%2e%2e%2fsecret", nil)
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s with traversal id: status %d, want 404", method, resp.StatusCode)
		}
	}

	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("file outside the results dir was deleted: %v", err)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, handlerOptions{host: "127.0.0.1", open: true})

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/health", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("open server should allow any origin")
	}
}

func TestResolveCORSOrigin(t *testing.T) {
	cases := []struct {
		origin string
		host   string
		open   bool
		want   string
	}{
		{"http://localhost", "127.0.0.1", false, "http://localhost"},
		{"http://evil.example", "127.0.0.1", false, ""},
		{"http://evil.example", "127.0.0.1", true, "*"},
		{"http://myhost", "myhost", false, "http://myhost"},
		{"", "127.0.0.1", true, ""},
	}
	for i, tc := range cases {
		if got := resolveCORSOrigin(tc.origin, tc.host, tc.open); got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, got, tc.want)
		}
	}
}
