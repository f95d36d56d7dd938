package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docgrove/pdfbatch/runlog"
)

func TestBasicAuth(t *testing.T) {
	// WHAT: configured credentials gate every route; the password is checked
	// against its bcrypt hash.
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Auth = AuthConfig{Username: "admin", PasswordHash: hash}
	h := newServer(t, cfg).Routes()

	rec := get(h, "/v1/health")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no credentials: got status %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}

	tests := []struct {
		user, pass string
		code       int
	}{
		{"admin", "wrong", http.StatusUnauthorized},
		{"intruder", "s3cret", http.StatusUnauthorized},
		{"admin", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.SetBasicAuth(tt.user, tt.pass)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.code {
			t.Errorf("%s/%s: got status %d, want %d", tt.user, tt.pass, rec.Code, tt.code)
		}
	}
}

func TestHealth(t *testing.T) {
	h := newServer(t, nil).Routes()

	rec := get(h, "/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v", resp["status"])
	}
	if resp["ledger"] != false {
		t.Errorf("ledger = %v, want false without a recorder", resp["ledger"])
	}
}

func TestRuns_LedgerDisabled(t *testing.T) {
	// WHAT: run history endpoints answer 503 when no ledger is configured.
	h := newServer(t, nil).Routes()

	for _, path := range []string{"/v1/runs", "/v1/runs/run_abc"} {
		rec := get(h, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: got status %d, want 503", path, rec.Code)
		}
	}
}

func TestRuns_WithRecorder(t *testing.T) {
	// WHAT: a batch extract through the API lands in the ledger and is
	// readable back through /v1/runs.
	db := runlog.OpenMemory(t)
	recorder := runlog.NewRecorder(db,
		runlog.WithSource("api-test"),
		runlog.WithLogger(discardLogger()))

	dir := t.TempDir()
	writeFile(t, dir, "good.pdf", pdfFixture("ledger me", "", ""))

	cfg := DefaultConfig()
	cfg.RootDir = dir
	h := newServer(t, cfg, WithRecorder(recorder)).Routes()

	if rec := postJSON(h, "/v1/extract", `{"paths":["good.pdf","missing.pdf"]}`); rec.Code != http.StatusOK {
		t.Fatalf("extract: got status %d, body: %s", rec.Code, rec.Body.String())
	}

	rec := get(h, "/v1/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("list runs: got status %d, body: %s", rec.Code, rec.Body.String())
	}
	var listResp struct {
		Runs []runlog.Run `json:"runs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listResp); err != nil {
		t.Fatal(err)
	}
	if len(listResp.Runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(listResp.Runs))
	}
	run := listResp.Runs[0]
	if run.Total != 2 || run.Succeeded != 1 || run.Failed != 1 {
		t.Errorf("run counts = %d/%d/%d, want 2/1/1", run.Total, run.Succeeded, run.Failed)
	}
	if run.Source != "api-test" {
		t.Errorf("Source = %q", run.Source)
	}

	rec = get(h, "/v1/runs/"+run.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get run: got status %d, body: %s", rec.Code, rec.Body.String())
	}
	var runResp struct {
		Run       runlog.Run        `json:"run"`
		Documents []runlog.Document `json:"documents"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&runResp); err != nil {
		t.Fatal(err)
	}
	if runResp.Run.ID != run.ID {
		t.Errorf("run ID = %q, want %q", runResp.Run.ID, run.ID)
	}
	if len(runResp.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(runResp.Documents))
	}
	if runResp.Documents[0].Filename != "good.pdf" || !runResp.Documents[0].TextOK {
		t.Errorf("first document = %+v", runResp.Documents[0])
	}
	if runResp.Documents[1].TextOK || runResp.Documents[1].ReadError == "" {
		t.Errorf("second document should record the read failure: %+v", runResp.Documents[1])
	}

	rec = get(h, "/v1/runs/run_unknown")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown run: got status %d, want 404", rec.Code)
	}
}

func TestWebhookDelivery(t *testing.T) {
	// WHAT: a completed run is posted to the configured webhook with an
	// HMAC-SHA256 signature over the exact body.
	type hit struct {
		body []byte
		sig  string
	}
	ch := make(chan hit, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- hit{body: body, sig: r.Header.Get("X-Signature-256")}
	}))
	defer ts.Close()

	dir := t.TempDir()
	writeFile(t, dir, "good.pdf", pdfFixture("notify me", "", ""))

	cfg := DefaultConfig()
	cfg.RootDir = dir
	cfg.Webhooks = []WebhookTarget{{Name: "test", URL: ts.URL, Secret: "hook-key"}}
	h := newServer(t, cfg).Routes()

	if rec := postJSON(h, "/v1/extract", `{"paths":["good.pdf","missing.pdf"]}`); rec.Code != http.StatusOK {
		t.Fatalf("extract: got status %d", rec.Code)
	}

	var got hit
	select {
	case got = <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("webhook never delivered")
	}

	mac := hmac.New(sha256.New, []byte("hook-key"))
	mac.Write(got.body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if got.sig != want {
		t.Errorf("signature = %q, want %q", got.sig, want)
	}

	var payload runPayload
	if err := json.Unmarshal(got.body, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Event != "run.complete" {
		t.Errorf("Event = %q", payload.Event)
	}
	if payload.Total != 2 || payload.Succeeded != 1 || payload.Failed != 1 {
		t.Errorf("payload counts = %d/%d/%d, want 2/1/1", payload.Total, payload.Succeeded, payload.Failed)
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.RootDir = dir
	s := newServer(t, cfg)

	got, err := s.resolvePath("sub/a.pdf")
	if err != nil || got != filepath.Join(dir, "sub", "a.pdf") {
		t.Errorf("resolvePath(sub/a.pdf) = %q, %v", got, err)
	}

	abs := filepath.Join(dir, "b.pdf")
	got, err = s.resolvePath(abs)
	if err != nil || got != abs {
		t.Errorf("resolvePath(%q) = %q, %v", abs, got, err)
	}

	for _, p := range []string{"..", "../x.pdf", "a/../../x.pdf", "/etc/passwd"} {
		if _, err := s.resolvePath(p); err == nil {
			t.Errorf("resolvePath(%q) should fail", p)
		}
	}

	open := newServer(t, nil)
	got, err = open.resolvePath("../anything.pdf")
	if err != nil || got != "../anything.pdf" {
		t.Errorf("without root_dir paths pass through, got %q, %v", got, err)
	}
	if _, err := open.resolvePath(""); err == nil {
		t.Error("empty path should fail")
	}
}

func TestRequestLogging(t *testing.T) {
	// WHAT: the middleware logs every request under its request ID and makes
	// the per-request logger available through the context.
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	srv, err := New(DefaultConfig(), logger)
	if err != nil {
		t.Fatal(err)
	}

	rec := get(srv.Routes(), "/v1/health")
	id := rec.Header().Get("X-Request-ID")
	if id == "" {
		t.Fatal("missing X-Request-ID header")
	}
	out := buf.String()
	if !strings.Contains(out, "request_id="+id) || !strings.Contains(out, "path=/v1/health") {
		t.Errorf("request log missing attributes: %s", out)
	}

	if Logger(context.Background()) != slog.Default() {
		t.Error("Logger should fall back to slog.Default outside a request")
	}
}
