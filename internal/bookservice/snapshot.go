package bookservice

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/classifier"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/resolver"
	"github.com/starford/ansuz/internal/similarity"
)

// Snapshot is the immutable in-memory corpus state produced by one load
// cycle: articles, index, classifications, resolver, similarity engine, and
// a fingerprint of the source bytes. Query operations only ever read a
// snapshot; reload builds a new one and swaps the pointer.
type Snapshot struct {
	Articles    map[string]*models.Article
	Order       []string // canonical ids, sorted
	Index       *index.Index
	Resolver    *resolver.Resolver
	Similarity  *similarity.Engine
	Fingerprint string
	LoadedAt    time.Time
}

// Article returns the article for a canonical id, or nil.
func (s *Snapshot) Article(id string) *models.Article {
	return s.Articles[id]
}

// buildSnapshot classifies the loaded articles and constructs all derived
// state. articles must already be sorted by id (the loader guarantees it).
func buildSnapshot(articles []models.Article, cls *classifier.Classifier, settings SearchSettings) *Snapshot {
	byID := make(map[string]*models.Article, len(articles))
	order := make([]string, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		a.Status = cls.Classify(a)
		byID[a.ID] = a
		order = append(order, a.ID)
	}
	sort.Strings(order)

	ix := index.Build(articles)
	return &Snapshot{
		Articles:    byID,
		Order:       order,
		Index:       ix,
		Resolver:    resolver.New(articles),
		Similarity:  similarity.New(ix, settings.CommonalityCeiling, settings.SimilarityFloor),
		Fingerprint: fingerprint(articles),
		LoadedAt:    time.Now(),
	}
}

// fingerprint digests every article's id and raw bytes in id order, so an
// unchanged archive produces an identical value across loads.
func fingerprint(articles []models.Article) string {
	var sb strings.Builder
	for _, a := range articles {
		sb.WriteString(a.ID)
		sb.WriteString(":")
		sb.WriteString(checksum.Sum(a.RawHTML))
		sb.WriteString("\n")
	}
	return checksum.Sum([]byte(sb.String()))
}

// store holds the current snapshot behind an atomic pointer. Readers get a
// consistent snapshot without locking; reload swaps the whole pointer.
type store struct {
	p atomic.Pointer[Snapshot]
}

func (s *store) current() *Snapshot { return s.p.Load() }
func (s *store) swap(sn *Snapshot)  { s.p.Store(sn) }
