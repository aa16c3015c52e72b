// Package archive loads the read-only essay archive into memory.
//
// The archive layout is one subdirectory per article: the subdirectory name
// is the canonical article id, and the subdirectory contains exactly one
// markup file plus an optional image directory.
package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/markup"
	"github.com/starford/ansuz/internal/models"
)

// Loader scans an archive root and produces Article records.
type Loader struct {
	root      string
	markupExt string
	imageDir  string
	logger    *slog.Logger
}

// NewLoader creates a Loader for the given root. markupExt is the article
// file extension (e.g. ".html") and imageDir the per-article image
// subdirectory name (e.g. "img").
func NewLoader(root, markupExt, imageDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{root: root, markupExt: markupExt, imageDir: imageDir, logger: logger}
}

// Root returns the archive root path.
func (l *Loader) Root() string { return l.root }

// Load scans the archive and returns all parseable articles sorted by id.
// A missing or unreadable root, or a root that yields zero articles, is a
// load failure. Individual malformed subdirectories are skipped with a
// warning; partial corpora are valid.
func (l *Loader) Load() ([]models.Article, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return nil, fmt.Errorf("archive: root %s: %v: %w", l.root, err, apperr.ErrLoadFailure)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive: root %s is not a directory: %w", l.root, apperr.ErrLoadFailure)
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("archive: read root %s: %v: %w", l.root, err, apperr.ErrLoadFailure)
	}

	var articles []models.Article
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		article, ok := l.loadArticle(entry.Name())
		if ok {
			articles = append(articles, article)
		}
	}

	if len(articles) == 0 {
		return nil, fmt.Errorf("archive: no parseable articles under %s: %w", l.root, apperr.ErrLoadFailure)
	}

	sort.Slice(articles, func(i, j int) bool { return articles[i].ID < articles[j].ID })
	return articles, nil
}

// loadArticle parses one article subdirectory. The subdirectory name is the
// canonical id, verbatim.
func (l *Loader) loadArticle(id string) (models.Article, bool) {
	dir := filepath.Join(l.root, id)

	path, err := l.markupFile(dir)
	if err != nil {
		l.logger.Warn("archive: skipping entry", slog.String("id", id), slog.String("reason", err.Error()))
		return models.Article{}, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("archive: skipping entry", slog.String("id", id), slog.String("reason", err.Error()))
		return models.Article{}, false
	}

	doc, err := markup.Parse(raw)
	if err != nil {
		l.logger.Warn("archive: skipping entry", slog.String("id", id), slog.String("reason", err.Error()))
		return models.Article{}, false
	}

	title := doc.Title
	if title == "" {
		title = titleFromID(id)
	}

	return models.Article{
		ID:          id,
		Title:       title,
		Subtitle:    doc.Subtitle,
		Description: doc.Description,
		RawHTML:     raw,
		Text:        doc.Text,
		WordCount:   len(strings.Fields(doc.Text)),
		Tags:        doc.Tags,
		ImageRefs:   l.imageRefs(dir, id),
	}, true
}

// markupFile locates the single markup file in dir. Zero or multiple
// candidates are both errors.
func (l *Loader) markupFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), l.markupExt) {
			candidates = append(candidates, filepath.Join(dir, entry.Name()))
		}
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no %s file", l.markupExt)
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%d %s files, want exactly one", len(candidates), l.markupExt)
	}
}

// imageRefs lists the article's image files as relative paths, sorted.
// The files are informational only and never read.
func (l *Loader) imageRefs(dir, id string) []string {
	imgDir := filepath.Join(dir, l.imageDir)
	entries, err := os.ReadDir(imgDir)
	if err != nil {
		return nil
	}
	var refs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		refs = append(refs, filepath.ToSlash(filepath.Join(id, l.imageDir, entry.Name())))
	}
	sort.Strings(refs)
	return refs
}

// titleFromID converts a directory name to a display title by spacing out
// separators.
func titleFromID(id string) string {
	replaced := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return strings.Join(strings.Fields(replaced), " ")
}
