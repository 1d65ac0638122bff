package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/tinywiki/internal/storage"
	"github.com/starford/tinywiki/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	svc, store, _ := testutil.TestService(t)
	return New(svc, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_pages":
		result, err = srv.listPages(ctx, req)
	case "read_page":
		result, err = srv.readPage(ctx, req)
	case "write_page":
		result, err = srv.writePage(ctx, req)
	case "render_page":
		result, err = srv.renderPage(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestWriteAndReadPage(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "write_page", map[string]interface{}{
		"name":    "My Page",
		"content": "# Test\nHello",
	})
	if text := resultText(r); text != "saved: MyPage" {
		t.Errorf("write result = %q", text)
	}

	r = callTool(t, srv, "read_page", map[string]interface{}{"name": "MyPage"})
	if text := resultText(r); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestWriteBlankPage(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, "write_page", map[string]interface{}{"name": "Blank", "content": "   "})
	if !r.IsError {
		t.Error("expected error for blank content")
	}
	if _, err := store.Read("Blank"); err == nil {
		t.Error("blank page must not be written")
	}
}

func TestWriteInvalidName(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "write_page", map[string]interface{}{"name": "../..", "content": "x"})
	if !r.IsError {
		t.Error("expected error for invalid name")
	}
}

func TestListPages(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a", []byte("a"))
	_ = store.Write("Projects/b", []byte("b"))

	if text := resultText(callTool(t, srv, "list_pages", map[string]interface{}{})); text != "Projects/b\na" {
		t.Errorf("list = %q", text)
	}
	r := callTool(t, srv, "list_pages", map[string]interface{}{"folder": "Projects"})
	if text := resultText(r); text != "Projects/b" {
		t.Errorf("folder list = %q", text)
	}
}

func TestReadPageMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_page", map[string]interface{}{"name": "nope"})
	if !r.IsError {
		t.Error("expected error for missing page")
	}
}

func TestRenderPage(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, "render_page", map[string]interface{}{"content": "# Welcome\n[[About]]"})
	text := resultText(r)
	if !strings.Contains(text, ">Welcome</h1>") || !strings.Contains(text, `<a href="/About">About</a>`) {
		t.Errorf("render = %q", text)
	}
	if metas, _ := store.List(); len(metas) != 0 {
		t.Error("render must not store anything")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "write_page", map[string]interface{}{
		"name":    "a",
		"content": "links to [[b]]",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"name": "b"})
	if text := resultText(r); text != "a" {
		t.Errorf("backlinks = %q, want a", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"name": "a"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestMarkupResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readMarkupResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != markupURI || !strings.Contains(tc.Text, "[[My Page]]") {
		t.Errorf("resource = %+v", contents[0])
	}
}
