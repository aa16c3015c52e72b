package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/bookservice"
	"github.com/starford/ansuz/internal/classifier"
	"github.com/starford/ansuz/internal/models"
)

type fakeCorpus struct {
	articles []models.Article
}

func (f *fakeCorpus) Load() ([]models.Article, error) {
	out := make([]models.Article, len(f.articles))
	copy(out, f.articles)
	return out, nil
}

func art(id, title, text string, tags ...string) models.Article {
	return models.Article{
		ID:        id,
		Title:     title,
		Text:      text,
		RawHTML:   []byte(text),
		WordCount: len(strings.Fields(text)),
		Tags:      tags,
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()

	corpus := &fakeCorpus{articles: []models.Article{
		art("Making-Predictions-ab12f9c3", "Making Predictions",
			"forecasting future uncertainty calibrated estimates evidence judgment"),
		art("Solar-Power-Basics", "Solar Power Basics",
			"solar panels energy sunlight power grid inverter efficiency", "Energy"),
		art("Wind-Energy-Notes", "Wind Energy Notes",
			"wind turbines energy power grid generation capacity output"),
		art("Grid-Storage-Draft", "Grid Storage",
			"battery storage energy grid power capacity lithium cells"),
		art("Re-Great-Post", "Great post -- reply",
			"thanks for the kind words about the essay"),
	}}
	cls := classifier.New([]string{"Solar-Power-Basics", "Wind-Energy-Notes"}, 3)
	svc := bookservice.NewService(corpus, cls, bookservice.SearchSettings{}, nil)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct call-tool test helper, so we invoke the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_articles":
		result, err = srv.searchArticles(ctx, req)
	case "get_article":
		result, err = srv.getArticle(ctx, req)
	case "list_articles":
		result, err = srv.listArticles(ctx, req)
	case "list_topics":
		result, err = srv.listTopics(ctx, req)
	case "analyze_completeness":
		result, err = srv.analyzeCompleteness(ctx, req)
	case "find_related":
		result, err = srv.findRelated(ctx, req)
	case "identify_content_overlaps":
		result, err = srv.identifyOverlaps(ctx, req)
	case "cluster_by_theme":
		result, err = srv.clusterByTheme(ctx, req)
	case "extract_themes":
		result, err = srv.extractThemes(ctx, req)
	case "suggest_sequence":
		result, err = srv.suggestSequence(ctx, req)
	case "reload_archive":
		result, err = srv.reloadArchive(ctx, req)
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

func TestSearchArticles(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_articles", map[string]interface{}{"query": "solar"})
	if r.IsError {
		t.Fatalf("search error: %s", resultText(r))
	}
	var hits []bookservice.SearchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "Solar-Power-Basics" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSearchArticlesEmptyResult(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_articles", map[string]interface{}{"query": "zeppelin"})
	if r.IsError {
		t.Fatalf("no-match search must not be an error: %s", resultText(r))
	}
	if text := resultText(r); text != "[]" {
		t.Errorf("result = %q, want empty list", text)
	}
}

func TestSearchArticlesMissingQuery(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_articles", map[string]interface{}{})
	if !r.IsError {
		t.Error("missing query should be a tool error")
	}
}

func TestGetArticleByTitleVariant(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_article", map[string]interface{}{"article_id": "making predictions"})
	if r.IsError {
		t.Fatalf("get error: %s", resultText(r))
	}
	var detail bookservice.ArticleDetail
	if err := json.Unmarshal([]byte(resultText(r)), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.ID != "Making-Predictions-ab12f9c3" {
		t.Errorf("id = %q", detail.ID)
	}
	if detail.Text == "" {
		t.Error("text missing")
	}
}

func TestGetArticleNotFound(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_article", map[string]interface{}{"article_id": "nope"})
	if !r.IsError {
		t.Fatal("expected error for unknown article")
	}
	if !strings.Contains(resultText(r), "nope") {
		t.Errorf("error does not echo the query: %s", resultText(r))
	}
}

func TestListArticlesWithStatus(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_articles", map[string]interface{}{"status": "finished"})
	if r.IsError {
		t.Fatalf("list error: %s", resultText(r))
	}
	var items []models.Summary
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("finished = %d, want 2", len(items))
	}

	r = callTool(t, srv, "list_articles", map[string]interface{}{"status": "bogus"})
	if !r.IsError {
		t.Error("unknown status should be a tool error")
	}
}

func TestListTopics(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_topics", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("topics error: %s", resultText(r))
	}
	var topics []bookservice.TopicGroup
	if err := json.Unmarshal([]byte(resultText(r)), &topics); err != nil {
		t.Fatal(err)
	}
	if len(topics) == 0 {
		t.Error("no topics")
	}
}

func TestAnalyzeCompleteness(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "analyze_completeness", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("completeness error: %s", resultText(r))
	}
	var report bookservice.CompletenessReport
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatal(err)
	}
	if report.Total != 5 {
		t.Errorf("total = %d, want 5", report.Total)
	}
	if len(report.Finished) != 2 || len(report.Comment) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestFindRelatedRequiresOneSelector(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "find_related", map[string]interface{}{})
	if !r.IsError {
		t.Error("neither selector should be a tool error")
	}
	r = callTool(t, srv, "find_related", map[string]interface{}{
		"article_id": "solar power basics",
		"theme":      "energy",
	})
	if !r.IsError {
		t.Error("both selectors should be a tool error")
	}
}

func TestFindRelatedByArticle(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "find_related", map[string]interface{}{
		"article_id":     "solar power basics",
		"include_drafts": true,
	})
	if r.IsError {
		t.Fatalf("related error: %s", resultText(r))
	}
	var result bookservice.RelatedResult
	if err := json.Unmarshal([]byte(resultText(r)), &result); err != nil {
		t.Fatal(err)
	}
	if result.Base != "Solar-Power-Basics" {
		t.Errorf("base = %q", result.Base)
	}
	if len(result.Matches) == 0 {
		t.Error("no matches")
	}
}

func TestIdentifyOverlaps(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "identify_content_overlaps", map[string]interface{}{
		"article_ids": []interface{}{"Solar Power Basics", "wind energy notes"},
	})
	if r.IsError {
		t.Fatalf("overlaps error: %s", resultText(r))
	}
	var analysis bookservice.OverlapAnalysis
	if err := json.Unmarshal([]byte(resultText(r)), &analysis); err != nil {
		t.Fatal(err)
	}
	if len(analysis.Pairs) != 1 || analysis.Pairs[0].Score <= 0 {
		t.Errorf("analysis = %+v", analysis)
	}
}

func TestIdentifyOverlapsTooFew(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "identify_content_overlaps", map[string]interface{}{
		"article_ids": []interface{}{"Solar Power Basics"},
	})
	if !r.IsError {
		t.Error("single id should be a tool error")
	}
}

func TestClusterByTheme(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "cluster_by_theme", map[string]interface{}{"theme": "energy grid"})
	if r.IsError {
		t.Fatalf("cluster error: %s", resultText(r))
	}
	var clusters []bookservice.ClusterGroup
	if err := json.Unmarshal([]byte(resultText(r)), &clusters); err != nil {
		t.Fatal(err)
	}
	if len(clusters) == 0 {
		t.Error("no clusters")
	}
}

func TestExtractThemesDefault(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "extract_themes", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("themes error: %s", resultText(r))
	}
	var analysis bookservice.ThemeAnalysis
	if err := json.Unmarshal([]byte(resultText(r)), &analysis); err != nil {
		t.Fatal(err)
	}
	if len(analysis.Articles) != 2 {
		t.Errorf("articles = %v, want the two finished articles", analysis.Articles)
	}
	if len(analysis.Themes) == 0 || len(analysis.PerArticle) != 2 {
		t.Errorf("analysis = %+v", analysis)
	}
}

func TestExtractThemesUnresolvable(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "extract_themes", map[string]interface{}{
		"article_ids": []interface{}{"nope", "also nope"},
	})
	if !r.IsError {
		t.Error("all-unresolvable ids should be a tool error")
	}
}

func TestSuggestSequenceDefault(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "suggest_sequence", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("sequence error: %s", resultText(r))
	}
	var result bookservice.SequenceResult
	if err := json.Unmarshal([]byte(resultText(r)), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Steps) != 2 {
		t.Errorf("steps = %+v, want the two finished articles", result.Steps)
	}
}

func TestReloadArchive(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "reload_archive", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("reload error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"reloaded": false`) {
		t.Errorf("unchanged reload result = %s", resultText(r))
	}
}
