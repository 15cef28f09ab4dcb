// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes ADR tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/adrbook/internal/adr"
	"github.com/starford/adrbook/internal/adrservice"
	"github.com/starford/adrbook/internal/index"
)

// FormatURI is the resource URI of the ADR format contract.
const FormatURI = "adrbook://adr-format"

// Server wraps the MCP server with ADR tools.
type Server struct {
	mcp *server.MCPServer
	svc *adrservice.Service
}

// New creates a new MCP server with all ADR tools registered.
func New(svc *adrservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"adrbook",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_adrs",
		mcp.WithDescription("List ADRs, optionally filtered by status or package."),
		mcp.WithString("status", mcp.Description("Only ADRs with this status (draft, proposed, accepted, rejected, deprecated, superseded)")),
		mcp.WithString("package", mcp.Description("Only ADRs of this package")),
		mcp.WithString("sort", mcp.Description("date (default), -date, title or slug")),
		mcp.WithNumber("limit", mcp.Description("Page size, default 50")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listADRs)

	s.mcp.AddTool(mcp.NewTool("read_adr",
		mcp.WithDescription("Read an ADR: metadata, raw markdown and inbound links."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Full slug, e.g. 20240305-use-postgres or billing/20240305-use-postgres")),
	), s.readADR)

	s.mcp.AddTool(mcp.NewTool("create_adr",
		mcp.WithDescription("Create a draft ADR from the project or package template. "+
			"Read the format contract first via the get_adr_format tool or the "+FormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Human-readable decision title")),
		mcp.WithString("identifier", mcp.Description(`"<package>/<slug>", "<package>/", "<slug>" or empty to generate a global slug`)),
	), s.createADR)

	s.mcp.AddTool(mcp.NewTool("generate_adr_slug",
		mcp.WithDescription("Preview the slug a new ADR with this title would receive. Nothing is created."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Decision title")),
		mcp.WithString("package", mcp.Description("Package scope, empty for global")),
	), s.generateSlug)

	s.mcp.AddTool(mcp.NewTool("supersede_adr",
		mcp.WithDescription("Mark an ADR as superseded by another ADR."),
		mcp.WithString("superseded", mcp.Required(), mcp.Description("Full slug of the ADR being replaced")),
		mcp.WithString("superseder", mcp.Required(), mcp.Description("Full slug of the replacing ADR")),
	), s.supersede)

	s.mcp.AddTool(mcp.NewTool("search_adrs",
		mcp.WithDescription("Full-text search through ADR titles, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results, default 20")),
	), s.searchADRs)

	s.mcp.AddTool(mcp.NewTool("get_adr_backlinks",
		mcp.WithDescription("Find all ADRs that link to or are superseded by the specified ADR."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Full slug of the target ADR")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_adr_format",
		mcp.WithDescription("Returns the ADR format contract. "+
			"Call this before creating or editing ADRs to ensure correct structure."),
	), s.getFormat)

	// Resource: ADR format contract.
	s.mcp.AddResource(
		mcp.NewResource(FormatURI, "ADR Format Contract",
			mcp.WithResourceDescription("Layout, front matter and lifecycle rules every ADR follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

func (s *Server) listADRs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListADRs(ctx, index.ListQuery{
		Status:  req.GetString("status", ""),
		Package: req.GetString("package", ""),
		Sort:    req.GetString("sort", ""),
		Limit:   req.GetInt("limit", 0),
		Offset:  req.GetInt("offset", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"adrs": items, "total": total})
}

func (s *Server) readADR(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetADR(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"slug":         d.ADR.Slug,
		"title":        d.ADR.Title,
		"status":       d.ADR.Status,
		"package":      d.ADR.Package,
		"supersededBy": d.ADR.SupersededBy,
		"supersedes":   d.ADR.Supersedes,
		"date":         d.ADR.Date.Format(adr.DateLayout),
		"path":         d.ADR.Path,
		"content":      d.ADR.Body.Raw,
		"backlinks":    d.Backlinks,
	})
}

func (s *Server) createADR(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.CreateADR(ctx, req.GetString("identifier", ""), title)
	if err != nil && !adr.IsPartial(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := fmt.Sprintf("created: %s (%s)", d.ADR.Slug, d.ADR.Path)
	if err != nil {
		msg += "\nwarning: " + err.Error()
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) generateSlug(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := s.svc.GenerateSlug(ctx, req.GetString("package", ""), title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(slug), nil
}

func (s *Server) supersede(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	superseded, err := req.RequireString("superseded")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	superseder, err := req.RequireString("superseder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	err = s.svc.Supersede(ctx, superseded, superseder)
	if err != nil && !adr.IsPartial(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := fmt.Sprintf("superseded: %s by %s", superseded, superseder)
	if err != nil {
		msg += "\nwarning: " + err.Error()
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) searchADRs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	lines := make([]string, len(bl))
	for i, b := range bl {
		lines[i] = b.Source + " (" + b.Type + ")"
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
