package cmd

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/hnsearch/pkg/api"
	"github.com/rubiojr/hnsearch/pkg/config"
)

func setupTestWebServer(t *testing.T, cfg *config.Config) (*WebServer, *httptest.Server) {
	t.Helper()
	webServer, err := newWebServer(cfg)
	if err != nil {
		t.Fatalf("newWebServer: %v", err)
	}
	t.Cleanup(webServer.sessions.Close)

	ts := httptest.NewServer(webServer.Handler())
	t.Cleanup(ts.Close)
	return webServer, ts
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestHomePage(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultQuery = "golang"
	_, ts := setupTestWebServer(t, cfg)

	resp, body := get(t, http.DefaultClient, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	for _, want := range []string{
		"<title>Hacker News Search</title>",
		`value="golang"`,
		`data-sort="COMMENTS"`,
		">Points</button>",
		"/static/app.js",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}

	resp, _ = get(t, http.DefaultClient, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", resp.StatusCode)
	}
}

func TestStaticAssets(t *testing.T) {
	_, ts := setupTestWebServer(t, testConfig(t))

	resp, body := get(t, http.DefaultClient, ts.URL+"/static/app.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/javascript" {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, "/api/session/ws") {
		t.Error("app.js does not reference the session feed")
	}
	for _, want := range []string{`u.protocol === "http:"`, `u.protocol === "https:"`, "a.href = hitLink(hit)", "!session.has_more"} {
		if !strings.Contains(body, want) {
			t.Errorf("app.js missing %q", want)
		}
	}

	resp, _ = get(t, http.DefaultClient, ts.URL+"/static/missing.css")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestResponsesAreCompressed(t *testing.T) {
	_, ts := setupTestWebServer(t, testConfig(t))

	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/static/app.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", resp.Header.Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "/api/session/ws") {
		t.Error("decompressed body does not look like app.js")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := setupTestWebServer(t, testConfig(t))

	// Creating a session issues one search.
	if resp, _ := get(t, http.DefaultClient, ts.URL+"/api/session?wait=true"); resp.StatusCode != http.StatusOK {
		t.Fatalf("session: status %d", resp.StatusCode)
	}

	resp, body := get(t, http.DefaultClient, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{
		`hnsearch_search_requests_total{status="ok"} 1`,
		"hnsearch_sessions_active 1",
		"hnsearch_hits_fetched_total 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestWebSocketThroughHandler(t *testing.T) {
	_, ts := setupTestWebServer(t, testConfig(t))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/session/ws?sort=POINTS"
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, http.Header{"Accept-Encoding": []string{"gzip"}})
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg api.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Session == nil || msg.Session.IsLoading {
			continue
		}
		if len(msg.Session.Hits) != 2 || msg.Session.Hits[0].ObjectID != "2" {
			t.Fatalf("expected points-sorted redux hits, got %+v", msg.Session.Hits)
		}
		return
	}
}

func TestReloadConfig(t *testing.T) {
	cfg := testConfig(t)
	webServer, ts := setupTestWebServer(t, cfg)

	path := filepath.Join(t.TempDir(), "config.toml")
	data := "endpoint = \"" + cfg.Endpoint + "\"\ndefault_query = \"rust\"\n[web]\nport = 9999\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if err := webServer.reloadConfig(path); err != nil {
		t.Fatalf("reloadConfig: %v", err)
	}
	if webServer.currentConfig().Web.Port != cfg.Web.Port {
		t.Error("listener settings must not be reloaded")
	}

	_, body := get(t, http.DefaultClient, ts.URL+"/api/session?wait=true")
	var s api.SessionResponse
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.ActiveTerm != "rust" || len(s.Hits) != 1 || s.Hits[0].ObjectID != "rust-1" {
		t.Fatalf("new session should use reloaded default query, got %+v", s)
	}

	if err := os.WriteFile(path, []byte("stale_responses = \"never\""), 0644); err != nil {
		t.Fatal(err)
	}
	if err := webServer.reloadConfig(path); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
}
