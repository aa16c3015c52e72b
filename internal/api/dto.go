package api

import "github.com/starford/ansuz/internal/bookservice"

// OverlapRequest is the body for POST /overlaps.
type OverlapRequest struct {
	ArticleIDs []string `json:"article_ids"`
}

// ThemesRequest is the body for POST /themes.
type ThemesRequest struct {
	ArticleIDs []string `json:"article_ids"`
}

// ClusterRequest is the body for POST /cluster.
type ClusterRequest struct {
	Theme string `json:"theme"`
}

// SequenceRequest is the body for POST /sequence.
type SequenceRequest struct {
	ArticleIDs    []string `json:"article_ids"`
	IncludeDrafts bool     `json:"include_drafts"`
}

// Response payloads are aliased from the service layer.
type (
	ArticleDetail      = bookservice.ArticleDetail
	SearchHit          = bookservice.SearchHit
	TopicGroup         = bookservice.TopicGroup
	CompletenessReport = bookservice.CompletenessReport
	RelatedResult      = bookservice.RelatedResult
	OverlapAnalysis    = bookservice.OverlapAnalysis
	ThemeAnalysis      = bookservice.ThemeAnalysis
	ClusterGroup       = bookservice.ClusterGroup
	SequenceResult     = bookservice.SequenceResult
)
