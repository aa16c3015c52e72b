// Package bookservice exposes the archive-analysis operations over an
// atomically swapped corpus snapshot. Every transport (MCP, REST) calls
// through this service, and every content-bearing operation resolves
// user-supplied identifiers before touching the corpus.
package bookservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/classifier"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/sequencer"
)

// SearchSettings are the tunable constants of the index and similarity
// engine; zero values select documented defaults.
type SearchSettings struct {
	CommonalityCeiling float64
	SimilarityFloor    float64
	SyntheticTopics    int
}

// DefaultSyntheticTopics is the number of top-weighted terms used as
// synthetic topics for untagged articles.
const DefaultSyntheticTopics = 5

const defaultSearchLimit = 10

// Corpus is the loader dependency: one call producing the complete article
// set or a load failure.
type Corpus interface {
	Load() ([]models.Article, error)
}

// Service coordinates loading, classification, and the query operations.
type Service struct {
	corpus   Corpus
	cls      *classifier.Classifier
	settings SearchSettings
	logger   *slog.Logger

	snap store

	// reloadMu serializes reloads; readers never take it.
	reloadMu sync.Mutex
}

// NewService creates a service. Call Load before serving queries.
func NewService(corpus Corpus, cls *classifier.Classifier, settings SearchSettings, logger *slog.Logger) *Service {
	if settings.SyntheticTopics <= 0 {
		settings.SyntheticTopics = DefaultSyntheticTopics
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{corpus: corpus, cls: cls, settings: settings, logger: logger}
}

// Load performs the initial corpus load. A load failure here is fatal for
// the caller: the process cannot serve queries without a corpus.
func (s *Service) Load(_ context.Context) error {
	articles, err := s.corpus.Load()
	if err != nil {
		return err
	}
	sn := buildSnapshot(articles, s.cls, s.settings)
	s.snap.swap(sn)
	s.logger.Info("corpus loaded",
		slog.Int("articles", len(articles)),
		slog.String("fingerprint", sn.Fingerprint[:12]))
	return nil
}

// Reload rebuilds the snapshot and swaps it in atomically. The previous
// snapshot stays current when the archive bytes are unchanged or the reload
// fails, so in-flight readers never observe a half-built corpus. Returns
// whether a swap happened.
func (s *Service) Reload(_ context.Context) (bool, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	articles, err := s.corpus.Load()
	if err != nil {
		return false, fmt.Errorf("reload: %w", err)
	}
	next := buildSnapshot(articles, s.cls, s.settings)
	if prev := s.snap.current(); prev != nil && prev.Fingerprint == next.Fingerprint {
		s.logger.Debug("reload skipped, archive unchanged")
		return false, nil
	}
	s.snap.swap(next)
	s.logger.Info("corpus reloaded",
		slog.Int("articles", len(articles)),
		slog.String("fingerprint", next.Fingerprint[:12]))
	return true, nil
}

// Snapshot returns the current corpus snapshot, or nil before the first
// successful Load.
func (s *Service) Snapshot() *Snapshot { return s.snap.current() }

// snapshot returns the current snapshot, or ErrLoadFailure when no load has
// succeeded yet. Query methods go through here so a transport wired up
// before Load gets an error instead of a panic.
func (s *Service) snapshot() (*Snapshot, error) {
	sn := s.snap.current()
	if sn == nil {
		return nil, fmt.Errorf("no corpus loaded: %w", apperr.ErrLoadFailure)
	}
	return sn, nil
}

// Resolve maps any user-supplied identifier to a canonical article id.
func (s *Service) Resolve(_ context.Context, ref string) (string, error) {
	sn, err := s.snapshot()
	if err != nil {
		return "", err
	}
	return sn.Resolver.Resolve(ref)
}

// ArticleDetail is the full-content representation of one article.
type ArticleDetail struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Subtitle    string        `json:"subtitle,omitempty"`
	Description string        `json:"description,omitempty"`
	Status      models.Status `json:"status"`
	WordCount   int           `json:"word_count"`
	Tags        []string      `json:"tags,omitempty"`
	ImageRefs   []string      `json:"image_refs,omitempty"`
	TopTerms    []string      `json:"top_terms,omitempty"`
	Text        string        `json:"text"`
}

// Get resolves ref and returns the article's full content and metadata.
func (s *Service) Get(ctx context.Context, ref string) (*ArticleDetail, error) {
	sn, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	id, err := sn.Resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}
	a := sn.Article(id)
	return &ArticleDetail{
		ID:          a.ID,
		Title:       a.Title,
		Subtitle:    a.Subtitle,
		Description: a.Description,
		Status:      a.Status,
		WordCount:   a.WordCount,
		Tags:        a.Tags,
		ImageRefs:   a.ImageRefs,
		TopTerms:    sn.Index.TopTerms(a.ID, s.settings.SyntheticTopics),
		Text:        a.Text,
	}, nil
}

// List returns article summaries sorted by id, optionally filtered by
// status. limit <= 0 returns all.
func (s *Service) List(_ context.Context, status models.Status, limit int) ([]models.Summary, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	sn, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]models.Summary, 0, len(sn.Order))
	for _, id := range sn.Order {
		a := sn.Article(id)
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a.Summarize())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// SearchHit is one ranked search result enriched with display metadata.
type SearchHit struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Status models.Status `json:"status"`
	Score  float64       `json:"score"`
}

// Search runs a ranked keyword/theme query. An empty result is a normal
// outcome, not an error.
func (s *Service) Search(_ context.Context, query string, limit int) []SearchHit {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	sn := s.snap.current()
	if sn == nil {
		return nil
	}
	hits := sn.Index.Search(query, limit)
	out := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		a := sn.Article(h.ID)
		out = append(out, SearchHit{ID: h.ID, Title: a.Title, Status: a.Status, Score: h.Score})
	}
	return out
}

// TopicGroup maps one theme to its articles. Synthetic groups come from
// top-weighted index terms of untagged articles, never from explicit tags.
type TopicGroup struct {
	Theme     string   `json:"theme"`
	Synthetic bool     `json:"synthetic"`
	Articles  []string `json:"articles"`
}

// Topics groups articles by explicit tags, falling back to synthetic topics
// for untagged articles. Groups sort by theme, synthetic last.
func (s *Service) Topics(_ context.Context) []TopicGroup {
	sn := s.snap.current()
	if sn == nil {
		return nil
	}

	explicit := make(map[string][]string)
	synthetic := make(map[string][]string)
	for _, id := range sn.Order {
		a := sn.Article(id)
		if len(a.Tags) > 0 {
			for _, tag := range a.Tags {
				explicit[tag] = append(explicit[tag], id)
			}
			continue
		}
		for _, term := range sn.Index.TopTerms(id, s.settings.SyntheticTopics) {
			synthetic[term] = append(synthetic[term], id)
		}
	}

	out := make([]TopicGroup, 0, len(explicit)+len(synthetic))
	for theme, ids := range explicit {
		out = append(out, TopicGroup{Theme: theme, Articles: ids})
	}
	for theme, ids := range synthetic {
		out = append(out, TopicGroup{Theme: theme, Synthetic: true, Articles: ids})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Synthetic != out[j].Synthetic {
			return !out[i].Synthetic
		}
		return out[i].Theme < out[j].Theme
	})
	return out
}

// CompletenessReport breaks the corpus down by status, each group sorted by
// word count descending (longest drafts first, as the most book-ready).
type CompletenessReport struct {
	Finished []models.Summary `json:"finished,omitempty"`
	Draft    []models.Summary `json:"draft,omitempty"`
	Comment  []models.Summary `json:"comment,omitempty"`
	Total    int              `json:"total"`
}

// Completeness reports classification per status. filter narrows the report
// to one status; empty reports all.
func (s *Service) Completeness(_ context.Context, filter models.Status) (*CompletenessReport, error) {
	if filter != "" && !filter.Valid() {
		return nil, fmt.Errorf("unknown status %q", filter)
	}
	sn, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	report := &CompletenessReport{Total: len(sn.Order)}
	for _, id := range sn.Order {
		a := sn.Article(id)
		if filter != "" && a.Status != filter {
			continue
		}
		switch a.Status {
		case models.StatusFinished:
			report.Finished = append(report.Finished, a.Summarize())
		case models.StatusDraft:
			report.Draft = append(report.Draft, a.Summarize())
		case models.StatusComment:
			report.Comment = append(report.Comment, a.Summarize())
		}
	}
	byWords := func(group []models.Summary) {
		sort.Slice(group, func(i, j int) bool {
			if group[i].WordCount != group[j].WordCount {
				return group[i].WordCount > group[j].WordCount
			}
			return group[i].ID < group[j].ID
		})
	}
	byWords(report.Finished)
	byWords(report.Draft)
	byWords(report.Comment)
	return report, nil
}

// RelatedMatch is one thematically related article.
type RelatedMatch struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Status      models.Status `json:"status"`
	Score       float64       `json:"score"`
	SharedTerms []string      `json:"shared_terms,omitempty"`
}

// RelatedResult lists articles related to a base article or a theme.
type RelatedResult struct {
	Base    string         `json:"base,omitempty"`
	Theme   string         `json:"theme,omitempty"`
	Matches []RelatedMatch `json:"matches"`
}

// Related finds articles related to a base article (ref) or to a free-form
// theme. Exactly one of ref/theme must be non-empty.
func (s *Service) Related(_ context.Context, ref, theme string, includeDrafts bool, limit int) (*RelatedResult, error) {
	if (ref == "") == (theme == "") {
		return nil, fmt.Errorf("exactly one of article or theme is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	sn, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	if ref != "" {
		id, err := sn.Resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
		result := &RelatedResult{Base: id, Matches: []RelatedMatch{}}
		for _, ov := range sn.Similarity.Neighbors(id) {
			a := sn.Article(ov.B)
			if !includeDrafts && a.Status != models.StatusFinished {
				continue
			}
			result.Matches = append(result.Matches, RelatedMatch{
				ID: ov.B, Title: a.Title, Status: a.Status,
				Score: ov.Score, SharedTerms: capTerms(ov.SharedTerms),
			})
			if len(result.Matches) == limit {
				break
			}
		}
		return result, nil
	}

	result := &RelatedResult{Theme: theme, Matches: []RelatedMatch{}}
	for _, h := range sn.Index.Search(theme, 0) {
		a := sn.Article(h.ID)
		if !includeDrafts && a.Status != models.StatusFinished {
			continue
		}
		result.Matches = append(result.Matches, RelatedMatch{
			ID: h.ID, Title: a.Title, Status: a.Status,
			Score: h.Score, SharedTerms: matchedTokens(sn.Index, h.ID, theme),
		})
		if len(result.Matches) == limit {
			break
		}
	}
	return result, nil
}

// OverlapPair is one pairwise overlap record with display titles.
type OverlapPair struct {
	A           string   `json:"a"`
	ATitle      string   `json:"a_title"`
	B           string   `json:"b"`
	BTitle      string   `json:"b_title"`
	Score       float64  `json:"score"`
	SharedTerms []string `json:"shared_terms,omitempty"`
}

// OverlapAnalysis is the result of a multi-article overlap request.
// Unresolved lists inputs that did not map to any article, so callers can
// tell invalid input apart from genuinely low overlap.
type OverlapAnalysis struct {
	Articles    []string      `json:"articles"`
	Pairs       []OverlapPair `json:"pairs"`
	CommonTerms []string      `json:"common_terms,omitempty"`
	Unresolved  []string      `json:"unresolved,omitempty"`
}

// Overlaps resolves each ref and analyzes pairwise content overlap. Fewer
// than two resolvable refs fail with ErrInsufficientInput.
func (s *Service) Overlaps(ctx context.Context, refs []string) (*OverlapAnalysis, error) {
	sn, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	ids, unresolved := s.resolveAll(sn, refs)
	analysis, err := sn.Similarity.Analyze(ids)
	if err != nil {
		if errors.Is(err, apperr.ErrInsufficientInput) && len(unresolved) > 0 {
			return nil, fmt.Errorf("%d of %d identifiers did not resolve: %w",
				len(unresolved), len(refs), apperr.ErrInsufficientInput)
		}
		return nil, err
	}

	out := &OverlapAnalysis{
		Articles:    ids,
		CommonTerms: capTerms(analysis.CommonTerms),
		Unresolved:  unresolved,
	}
	for _, p := range analysis.Pairs {
		out.Pairs = append(out.Pairs, OverlapPair{
			A: p.A, ATitle: sn.Article(p.A).Title,
			B: p.B, BTitle: sn.Article(p.B).Title,
			Score: p.Score, SharedTerms: capTerms(p.SharedTerms),
		})
	}
	return out, nil
}

// ClusterGroup is one disjoint theme cluster with display titles.
type ClusterGroup struct {
	Seed     string  `json:"seed"`
	Members  []Ref   `json:"members"`
	Cohesion float64 `json:"cohesion"`
}

// Ref pairs an id with its display title.
type Ref struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Cluster groups theme-matching articles into disjoint clusters.
func (s *Service) Cluster(_ context.Context, theme string) []ClusterGroup {
	sn := s.snap.current()
	if sn == nil {
		return nil
	}
	var out []ClusterGroup
	for _, c := range sn.Similarity.Cluster(theme) {
		group := ClusterGroup{Seed: c.Seed, Cohesion: c.Cohesion}
		for _, id := range c.Members {
			group.Members = append(group.Members, Ref{ID: id, Title: sn.Article(id).Title})
		}
		out = append(out, group)
	}
	return out
}

// SequenceStep is one position in a proposed chapter sequence.
type SequenceStep struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Score       float64  `json:"score,omitempty"`
	SharedTerms []string `json:"shared_terms,omitempty"`
}

// SequenceResult is a proposed chapter ordering with adjacency rationale.
type SequenceResult struct {
	Steps      []SequenceStep `json:"steps"`
	Unresolved []string       `json:"unresolved,omitempty"`
}

// Sequence proposes a chapter ordering for the given refs. Empty refs
// sequence the whole finished set (plus drafts when includeDrafts is set).
// Fewer than two resolvable articles fail with ErrInsufficientInput.
func (s *Service) Sequence(_ context.Context, refs []string, includeDrafts bool) (*SequenceResult, error) {
	sn, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	var ids, unresolved []string
	if len(refs) == 0 {
		for _, id := range sn.Order {
			a := sn.Article(id)
			if a.Status == models.StatusFinished || (includeDrafts && a.Status == models.StatusDraft) {
				ids = append(ids, id)
			}
		}
	} else {
		ids, unresolved = s.resolveAll(sn, refs)
	}

	plan, err := sequencer.Sequence(sn.Similarity, ids)
	if err != nil {
		if errors.Is(err, apperr.ErrInsufficientInput) && len(unresolved) > 0 {
			return nil, fmt.Errorf("%d of %d identifiers did not resolve: %w",
				len(unresolved), len(refs), apperr.ErrInsufficientInput)
		}
		return nil, err
	}

	out := &SequenceResult{Unresolved: unresolved}
	for _, step := range plan.Steps {
		out.Steps = append(out.Steps, SequenceStep{
			ID:          step.ID,
			Title:       sn.Article(step.ID).Title,
			Score:       step.Score,
			SharedTerms: capTerms(step.SharedTerms),
		})
	}
	return out, nil
}

// ThemeFrequency is one recurring theme and the articles carrying it.
type ThemeFrequency struct {
	Theme    string   `json:"theme"`
	Count    int      `json:"count"`
	Articles []string `json:"articles"`
}

// ArticleThemes lists the themes of a single article.
type ArticleThemes struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Themes []string `json:"themes,omitempty"`
}

// ThemeAnalysis is a cross-corpus theme rollup: which themes recur across
// the selected articles, ranked by how many articles carry them.
type ThemeAnalysis struct {
	Articles   []string         `json:"articles"`
	Themes     []ThemeFrequency `json:"themes"`
	PerArticle []ArticleThemes  `json:"per_article"`
	Unresolved []string         `json:"unresolved,omitempty"`
}

// themeRollupCap bounds the ranked theme list; per-article theme lists are
// bounded by articleThemesCap.
const (
	themeRollupCap   = 20
	articleThemesCap = 10
)

// ExtractThemes rolls up recurring themes across the given refs. Empty refs
// analyze all finished articles. An article's themes are its explicit tags
// plus its top-weighted index terms, lower-cased so tag and term spellings
// count together.
func (s *Service) ExtractThemes(_ context.Context, refs []string) (*ThemeAnalysis, error) {
	sn, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	var ids, unresolved []string
	if len(refs) == 0 {
		for _, id := range sn.Order {
			if sn.Article(id).Status == models.StatusFinished {
				ids = append(ids, id)
			}
		}
	} else {
		ids, unresolved = s.resolveAll(sn, refs)
		if len(ids) == 0 {
			return nil, fmt.Errorf("%d of %d identifiers did not resolve: %w",
				len(unresolved), len(refs), apperr.ErrInsufficientInput)
		}
	}

	out := &ThemeAnalysis{
		Articles:   ids,
		PerArticle: make([]ArticleThemes, 0, len(ids)),
		Unresolved: unresolved,
	}
	carriers := make(map[string][]string)
	for _, id := range ids {
		a := sn.Article(id)
		themes := s.articleThemes(sn, a)
		out.PerArticle = append(out.PerArticle, ArticleThemes{ID: id, Title: a.Title, Themes: themes})
		for _, theme := range themes {
			carriers[theme] = append(carriers[theme], id)
		}
	}
	out.Themes = make([]ThemeFrequency, 0, len(carriers))
	for theme, articles := range carriers {
		out.Themes = append(out.Themes, ThemeFrequency{Theme: theme, Count: len(articles), Articles: articles})
	}
	sort.Slice(out.Themes, func(i, j int) bool {
		if out.Themes[i].Count != out.Themes[j].Count {
			return out.Themes[i].Count > out.Themes[j].Count
		}
		return out.Themes[i].Theme < out.Themes[j].Theme
	})
	if len(out.Themes) > themeRollupCap {
		out.Themes = out.Themes[:themeRollupCap]
	}
	return out, nil
}

// articleThemes returns one article's themes: explicit tags first, then
// top-weighted index terms, deduplicated and capped.
func (s *Service) articleThemes(sn *Snapshot, a *models.Article) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(theme string) {
		theme = strings.ToLower(strings.TrimSpace(theme))
		if theme == "" {
			return
		}
		if _, dup := seen[theme]; dup {
			return
		}
		seen[theme] = struct{}{}
		out = append(out, theme)
	}
	for _, tag := range a.Tags {
		add(tag)
	}
	for _, term := range sn.Index.TopTerms(a.ID, s.settings.SyntheticTopics) {
		add(term)
	}
	if len(out) > articleThemesCap {
		out = out[:articleThemesCap]
	}
	return out
}

// resolveAll resolves refs individually, keeping order and dropping
// duplicates. Unresolvable refs (not found or ambiguous) are returned
// separately; they are logged, never silently discarded.
func (s *Service) resolveAll(sn *Snapshot, refs []string) (ids, unresolved []string) {
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		id, err := sn.Resolver.Resolve(ref)
		if err != nil {
			s.logger.Warn("identifier did not resolve",
				slog.String("ref", ref), slog.String("error", err.Error()))
			unresolved = append(unresolved, ref)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, unresolved
}

// matchedTokens returns the theme tokens actually present in the article.
func matchedTokens(ix *index.Index, id, theme string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range index.Tokenize(theme) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if ix.Tokens(id)[tok] > 0 {
			out = append(out, tok)
		}
	}
	return out
}

// sharedTermsCap bounds shared-term lists in transport-facing results; the
// engine keeps full lists internally.
const sharedTermsCap = 15

func capTerms(terms []string) []string {
	if len(terms) > sharedTermsCap {
		return terms[:sharedTermsCap]
	}
	return terms
}
