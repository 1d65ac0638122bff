package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/tinywiki/internal/storage"
	"github.com/starford/tinywiki/internal/testutil"
	"github.com/starford/tinywiki/internal/wiki"
)

// testEnv sets up a temp wiki, SQLite link index, service, and router for testing.
func testEnv(t *testing.T) (*wiki.Service, http.Handler, storage.Provider) {
	t.Helper()
	svc, store, _ := testutil.TestService(t)
	return svc, NewRouter(svc), store
}

func putPage(t *testing.T, router http.Handler, target, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"content": content})
	req := httptest.NewRequest(http.MethodPut, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPutAndGetPage(t *testing.T) {
	_, router, _ := testEnv(t)

	w := putPage(t, router, "/pages/Home", "# Welcome\n[[About]]")
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/pages/Home", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var page PageDetail
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Key != "Home" {
		t.Errorf("key = %q", page.Key)
	}
	if page.Title != "Welcome" {
		t.Errorf("title = %q, want Welcome", page.Title)
	}
	if page.Content != "# Welcome\n[[About]]" {
		t.Errorf("content = %q", page.Content)
	}
	if !bytes.Contains([]byte(page.HTML), []byte(`<a href="/About">About</a>`)) {
		t.Errorf("html = %s", page.HTML)
	}
	if etag := w.Header().Get("ETag"); etag != `"`+page.Checksum+`"` {
		t.Errorf("ETag = %q, checksum = %q", etag, page.Checksum)
	}
}

func TestGetMissingPage(t *testing.T) {
	_, router, _ := testEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/pages/Nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetInvalidPath(t *testing.T) {
	_, router, _ := testEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/pages/%3F%3F", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPutEmptyContent(t *testing.T) {
	_, router, store := testEnv(t)

	w := putPage(t, router, "/pages/Blank", " \n\t")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "Blank.md")); !os.IsNotExist(err) {
		t.Error("empty put must not create a file")
	}
}

func TestPutInvalidJSON(t *testing.T) {
	_, router, _ := testEnv(t)
	req := httptest.NewRequest(http.MethodPut, "/pages/X", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPutOverwrites(t *testing.T) {
	_, router, store := testEnv(t)
	putPage(t, router, "/pages/Doc", "v1")
	if w := putPage(t, router, "/pages/Doc", "v2"); w.Code != http.StatusOK {
		t.Fatalf("second put = %d", w.Code)
	}
	data, _ := store.Read("Doc")
	if string(data) != "v2" {
		t.Errorf("content = %q, want v2", data)
	}
}

func TestPutEncodedSlash(t *testing.T) {
	_, router, store := testEnv(t)
	w := putPage(t, router, "/pages/Folder%2FMy_Page", "nested")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "Folder", "My_Page.md")); err != nil {
		t.Errorf("nested page missing: %v", err)
	}
}

func TestListPages(t *testing.T) {
	_, router, _ := testEnv(t)

	for _, name := range []string{"b", "a/c"} {
		putPage(t, router, "/pages/"+name, "# "+name)
	}

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp PageListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Pages) != 2 || resp.Pages[0] != "a/c" || resp.Pages[1] != "b" {
		t.Errorf("list = %+v", resp)
	}
}

func TestListEmpty(t *testing.T) {
	_, router, _ := testEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !bytes.Contains(w.Body.Bytes(), []byte(`"pages":[]`)) {
		t.Errorf("empty list should encode as []: %s", w.Body.String())
	}
}

func TestBacklinksInPage(t *testing.T) {
	_, router, _ := testEnv(t)
	putPage(t, router, "/pages/Linker", "# Linker\n[[Target]]")
	putPage(t, router, "/pages/Target", "here")

	req := httptest.NewRequest(http.MethodGet, "/pages/Target", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var page PageDetail
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if len(page.Backlinks) != 1 || page.Backlinks[0].Key != "Linker" || page.Backlinks[0].Title != "Linker" {
		t.Errorf("backlinks = %+v", page.Backlinks)
	}
}

func TestUnknownRoute(t *testing.T) {
	_, router, _ := testEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/nothing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestPutEscapedPercentDecodedOnce(t *testing.T) {
	_, router, store := testEnv(t)
	if w := putPage(t, router, "/pages/a%2541", "body"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if _, err := store.Read("a41"); err != nil {
		t.Errorf("page stored under the wrong key: %v", err)
	}
}
