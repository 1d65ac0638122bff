package wiki_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/tinywiki/internal/apperr"
	"github.com/starford/tinywiki/internal/render"
	"github.com/starford/tinywiki/internal/storage"
	"github.com/starford/tinywiki/internal/testutil"
	"github.com/starford/tinywiki/internal/wiki"
)

func TestSaveAndView(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	ctx := context.Background()

	key, err := svc.Save(ctx, "Home", "# Welcome\n[[About]]")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if key != "Home" {
		t.Errorf("key = %q", key)
	}

	p, err := svc.View(ctx, "Home")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if p.Title != "Welcome" {
		t.Errorf("title = %q", p.Title)
	}
	if !strings.Contains(p.HTML, ">Welcome</h1>") || !strings.Contains(p.HTML, `<a href="/About">About</a>`) {
		t.Errorf("html = %s", p.HTML)
	}
	if !p.Exists || p.Checksum == "" {
		t.Errorf("page metadata incomplete: %+v", p)
	}
}

func TestView_Missing(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	if _, err := svc.View(context.Background(), "Nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestView_InvalidPath(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	for _, name := range []string{"", "..", "../..", "???"} {
		if _, err := svc.View(context.Background(), name); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("View(%q) err = %v, want ErrInvalidPath", name, err)
		}
	}
}

func TestSource_NewPage(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	p, err := svc.Source(context.Background(), "Fresh/Page")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if p.Exists || p.Content != "" || p.Key != "Fresh/Page" {
		t.Errorf("unexpected page: %+v", p)
	}
}

func TestSave_WhitespaceRejected(t *testing.T) {
	svc, store, _ := testutil.TestService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "New", "  \n\t "); !errors.Is(err, apperr.ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "New.md")); !os.IsNotExist(err) {
		t.Error("rejected save must not create the page")
	}

	_, _ = svc.Save(ctx, "Kept", "original")
	if _, err := svc.Save(ctx, "Kept", "   "); !errors.Is(err, apperr.ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
	got, _ := store.Read("Kept")
	if string(got) != "original" {
		t.Errorf("content changed to %q", got)
	}
}

func TestSave_TraversalStaysInRoot(t *testing.T) {
	svc, store, _ := testutil.TestService(t)
	key, err := svc.Save(context.Background(), "../../escape", "x")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if key != "escape" {
		t.Errorf("key = %q, want escape", key)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "escape.md")); err != nil {
		t.Errorf("page not stored under root: %v", err)
	}
}

func TestBacklinks(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "Home", "# Home\n[[Folder/My Page]]")
	_, _ = svc.Save(ctx, "Other", "also [[ Folder/My Page ]]")

	p, err := svc.View(ctx, "Folder/My_Page")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("View err = %v, want ErrNotFound", err)
	}
	if p != nil {
		t.Fatal("expected nil page")
	}

	bl, err := svc.Backlinks(ctx, "Folder/My_Page")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 || bl[0].Key != "Home" || bl[1].Key != "Other" {
		t.Errorf("backlinks = %+v", bl)
	}

	_, _ = svc.Save(ctx, "Folder/My_Page", "target")
	page, err := svc.View(ctx, "Folder/My_Page")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(page.Backlinks) != 2 {
		t.Errorf("page backlinks = %+v", page.Backlinks)
	}
}

func TestList(t *testing.T) {
	svc, _, _ := testutil.TestService(t)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "b", "b")
	_, _ = svc.Save(ctx, "a/c", "c")

	keys, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a/c" || keys[1] != "b" {
		t.Errorf("keys = %v", keys)
	}
}

func TestWithoutIndex(t *testing.T) {
	_, store := testutil.TestWiki(t)
	svc := wiki.NewService(store, render.New(render.Config{}), nil)
	ctx := context.Background()
	_, _ = svc.Save(ctx, "A", "[[B]]")

	bl, err := svc.Backlinks(ctx, "B")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if bl == nil || len(bl) != 0 {
		t.Errorf("backlinks = %v, want empty", bl)
	}
}

func TestList_MissingRoot(t *testing.T) {
	store, err := storage.NewFS(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}
	svc := wiki.NewService(store, render.New(render.Config{}), nil)
	keys, err := svc.List(context.Background())
	if err != nil || len(keys) != 0 {
		t.Errorf("keys = %v, err = %v; want empty, nil", keys, err)
	}
}
