package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/bookservice"
	"github.com/starford/ansuz/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *bookservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *bookservice.Service) *Handler {
	return &Handler{svc: svc}
}

// articleRef extracts the article identifier from the URL, tolerating
// percent-encoded titles (e.g. Making%20Predictions).
func articleRef(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListArticles handles GET /api/articles.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	status := models.Status(q.Get("status"))

	items, err := h.svc.List(r.Context(), status, limit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articles": items,
		"total":    len(items),
	})
}

// GetArticle handles GET /api/articles/{id}. The id may be a canonical id,
// a title, or any normalization variant.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	ref := articleRef(r)
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("article id is required"))
		return
	}
	detail, err := h.svc.Get(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, map[string]any{
		"results": h.svc.Search(r.Context(), q, limit),
	})
}

// Topics handles GET /api/topics.
func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"topics": h.svc.Topics(r.Context()),
	})
}

// Completeness handles GET /api/completeness.
func (h *Handler) Completeness(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))
	report, err := h.svc.Completeness(r.Context(), status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Related handles GET /api/related.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includeDrafts, _ := strconv.ParseBool(q.Get("include_drafts"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.svc.Related(r.Context(), q.Get("article"), q.Get("theme"), includeDrafts, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Overlaps handles POST /api/overlaps.
func (h *Handler) Overlaps(w http.ResponseWriter, r *http.Request) {
	var req OverlapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	analysis, err := h.svc.Overlaps(r.Context(), req.ArticleIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Themes handles POST /api/themes. An empty article_ids list analyzes all
// finished articles.
func (h *Handler) Themes(w http.ResponseWriter, r *http.Request) {
	var req ThemesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	analysis, err := h.svc.ExtractThemes(r.Context(), req.ArticleIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Cluster handles POST /api/cluster.
func (h *Handler) Cluster(w http.ResponseWriter, r *http.Request) {
	var req ClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Theme == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("theme is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clusters": h.svc.Cluster(r.Context(), req.Theme),
	})
}

// Sequence handles POST /api/sequence.
func (h *Handler) Sequence(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	result, err := h.svc.Sequence(r.Context(), req.ArticleIDs, req.IncludeDrafts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Reload handles POST /api/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	changed, err := h.svc.Reload(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reloaded": changed})
}
