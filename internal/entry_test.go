package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/tinywiki/internal/testutil"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _, _ := testutil.TestService(t)
	h, err := NewRouter(svc, NewDefaultConfig())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return h
}

func TestRouter_Health(t *testing.T) {
	h := testRouter(t)
	for _, p := range []string{"/_health/live", "/_health/ready"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
			t.Errorf("%s = %d %s", p, w.Code, w.Body.String())
		}
	}
}

func TestRouter_HTMLAndAPI(t *testing.T) {
	h := testRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/Home" {
		t.Fatalf("root = %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/_api/pages/Home",
		strings.NewReader(`{"content":"# Welcome\n[[About]]"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("api put = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/_api/pages", nil))
	var list struct {
		Pages []string `json:"pages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Pages) != 1 || list.Pages[0] != "Home" {
		t.Errorf("api list = %s (%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/Home", nil))
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("view = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), `<a href="/About">About</a>`) {
		t.Errorf("view body missing link: %s", w.Body.String())
	}
}

func TestRouter_CleanPath(t *testing.T) {
	h := testRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/a//b/../Page", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/a/Page/edit" {
		t.Errorf("got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Bind = "127.0.0.1"
	cfg.App.HTTP.Port = 0
	cfg.Wiki.Root = filepath.Join(dir, "wiki")
	cfg.Index.Path = filepath.Join(dir, "index.db")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, WithConfig(cfg), WithLogOutput(io.Discard))
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
}

func TestLogExternalEdit(t *testing.T) {
	var buf bytes.Buffer
	cb := logExternalEdit(slog.New(slog.NewJSONHandler(&buf, nil)))
	cb("created", "Notes/Today")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["level"] != "INFO" || rec["op"] != "created" || rec["key"] != "Notes/Today" {
		t.Errorf("log record = %v", rec)
	}
}
