// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes wiki pages to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tinywiki/internal/apperr"
	"github.com/starford/tinywiki/internal/wiki"
)

const markupURI = "tinywiki://markup-format"

// Server wraps the MCP server with wiki tools.
type Server struct {
	mcp *server.MCPServer
	svc *wiki.Service
}

// New creates a new MCP server with all wiki tools registered.
func New(svc *wiki.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"tinywiki",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the names of all wiki pages, optionally limited to a folder."),
		mcp.WithString("folder", mcp.Description("Optional folder, e.g. Projects (empty for all)")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read the raw Markdown source of a wiki page."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page name, e.g. Home or Folder/My_Page")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("write_page",
		mcp.WithDescription("Create or replace a wiki page. "+
			"Content should follow the markup described by the "+markupURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page name; characters other than letters, digits, _ and - are dropped")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content; must not be blank")),
	), s.writePage)

	s.mcp.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render Markdown to the HTML the wiki would serve, without saving it."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content to render")),
	), s.renderPage)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the page to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddResource(
		mcp.NewResource(markupURI, "Wiki Markup Format",
			mcp.WithResourceDescription("Markdown dialect and wiki link rules used by tinywiki pages."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkupResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.Trim(f, "/")
	}

	keys, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var names []string
	for _, k := range keys {
		if folder != "" && !strings.HasPrefix(k.String(), folder+"/") {
			continue
		}
		names = append(names, k.String())
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.Source(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !page.Exists {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", page.Key)), nil
	}
	return mcp.NewToolResultText(page.Content), nil
}

func (s *Server) writePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	key, err := s.svc.Save(ctx, name, content)
	switch {
	case errors.Is(err, apperr.ErrEmptyContent):
		return mcp.NewToolResultError("page content cannot be empty"), nil
	case errors.Is(err, apperr.ErrInvalidPath):
		return mcp.NewToolResultError(fmt.Sprintf("invalid page name: %q", name)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", key)), nil
}

func (s *Server) renderPage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.svc.Render(content)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	keys := make([]string, len(bl))
	for i, b := range bl {
		keys[i] = b.Key.String()
	}
	return mcp.NewToolResultText(strings.Join(keys, "\n")), nil
}

func (s *Server) readMarkupResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      markupURI,
			MIMEType: "text/markdown",
			Text:     MarkupContract,
		},
	}, nil
}
