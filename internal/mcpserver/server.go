// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the archive-analysis tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/bookservice"
	"github.com/starford/ansuz/internal/models"
)

// Server wraps the MCP server with the Ansuz tool set.
type Server struct {
	mcp *server.MCPServer
	svc *bookservice.Service
}

// New creates an MCP server with all tools registered.
func New(svc *bookservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_articles",
		mcp.WithDescription("Search the essay archive by keyword or theme. Returns ranked matches; an empty list means nothing matched."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default: 10)")),
	), s.searchArticles)

	s.mcp.AddTool(mcp.NewTool("get_article",
		mcp.WithDescription("Get the full content and metadata of one article. Accepts the canonical id, the display title, or any casing/punctuation variant."),
		mcp.WithString("article_id", mcp.Required(), mcp.Description("Article id or title")),
	), s.getArticle)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List articles with basic metadata, optionally filtered by completeness status."),
		mcp.WithString("status", mcp.Description("Filter by status"), mcp.Enum("finished", "draft", "comment")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of articles (default: all)")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("Group articles by theme: explicit tags where present, top-weighted terms (marked synthetic) otherwise."),
	), s.listTopics)

	s.mcp.AddTool(mcp.NewTool("analyze_completeness",
		mcp.WithDescription("Report completion status of the corpus (finished/draft/comment), longest pieces first."),
		mcp.WithString("status", mcp.Description("Narrow the report to one status"), mcp.Enum("finished", "draft", "comment")),
	), s.analyzeCompleteness)

	s.mcp.AddTool(mcp.NewTool("find_related",
		mcp.WithDescription("Find articles related to a given article or to a free-form theme. Provide exactly one of article_id or theme."),
		mcp.WithString("article_id", mcp.Description("Base article id or title")),
		mcp.WithString("theme", mcp.Description("Theme to match against")),
		mcp.WithBoolean("include_drafts", mcp.Description("Include drafts and comments (default: false)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of matches (default: 10)")),
	), s.findRelated)

	s.mcp.AddTool(mcp.NewTool("identify_content_overlaps",
		mcp.WithDescription("Analyze pairwise content overlap between articles for merging decisions. Needs at least two resolvable identifiers."),
		mcp.WithArray("article_ids", mcp.Required(),
			mcp.Description("Article ids or titles to analyze"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.identifyOverlaps)

	s.mcp.AddTool(mcp.NewTool("cluster_by_theme",
		mcp.WithDescription("Group theme-matching articles into disjoint clusters by content overlap."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("Theme to cluster around")),
	), s.clusterByTheme)

	s.mcp.AddTool(mcp.NewTool("extract_themes",
		mcp.WithDescription("Roll up the recurring themes across articles, ranked by how many articles carry each theme. With no ids, analyzes all finished articles."),
		mcp.WithArray("article_ids",
			mcp.Description("Article ids or titles to analyze (default: all finished)"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.extractThemes)

	s.mcp.AddTool(mcp.NewTool("suggest_sequence",
		mcp.WithDescription("Propose a chapter ordering with per-adjacency shared-term rationale. With no ids, sequences all finished articles."),
		mcp.WithArray("article_ids",
			mcp.Description("Article ids or titles to order (default: all finished)"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("include_drafts", mcp.Description("Also include drafts when article_ids is empty (default: false)")),
	), s.suggestSequence)

	s.mcp.AddTool(mcp.NewTool("reload_archive",
		mcp.WithDescription("Rescan the archive directory and atomically swap in the new corpus snapshot."),
	), s.reloadArchive)

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

func (s *Server) searchArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)
	return jsonResult(s.svc.Search(ctx, query, limit))
}

func (s *Server) getArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("article_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Get(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%q: %v", ref, err)), nil
	}
	return jsonResult(detail)
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := models.Status(req.GetString("status", ""))
	limit := req.GetInt("limit", 0)
	items, err := s.svc.List(ctx, status, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) listTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Topics(ctx))
}

func (s *Server) analyzeCompleteness(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := models.Status(req.GetString("status", ""))
	report, err := s.svc.Completeness(ctx, status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) findRelated(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := req.GetString("article_id", "")
	theme := req.GetString("theme", "")
	includeDrafts := req.GetBool("include_drafts", false)
	limit := req.GetInt("limit", 0)

	result, err := s.svc.Related(ctx, ref, theme, includeDrafts, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) identifyOverlaps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs := req.GetStringSlice("article_ids", nil)
	analysis, err := s.svc.Overlaps(ctx, refs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(analysis)
}

func (s *Server) clusterByTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Cluster(ctx, theme))
}

func (s *Server) extractThemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs := req.GetStringSlice("article_ids", nil)
	analysis, err := s.svc.ExtractThemes(ctx, refs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(analysis)
}

func (s *Server) suggestSequence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs := req.GetStringSlice("article_ids", nil)
	includeDrafts := req.GetBool("include_drafts", false)
	result, err := s.svc.Sequence(ctx, refs, includeDrafts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) reloadArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changed, err := s.svc.Reload(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"reloaded": changed})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
