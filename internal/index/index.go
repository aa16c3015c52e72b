// Package index implements the in-memory inverted index over article text.
//
// The index is rebuilt wholesale on every archive load and is immutable
// afterwards, so concurrent readers need no locking.
package index

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/starford/ansuz/internal/models"
)

// Hit is one ranked search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Index maps normalized tokens to per-article term frequencies.
type Index struct {
	ids  []string                  // sorted canonical ids
	tf   map[string]map[string]int // id -> token -> occurrences
	df   map[string]int            // token -> number of docs containing it
	docs int
}

// Build constructs the index from loaded articles. Title tokens are indexed
// alongside body tokens so title-only matches still rank.
func Build(articles []models.Article) *Index {
	ix := &Index{
		tf: make(map[string]map[string]int, len(articles)),
		df: make(map[string]int),
	}
	for _, a := range articles {
		counts := make(map[string]int)
		for _, tok := range Tokenize(a.Title) {
			counts[tok]++
		}
		for _, tok := range Tokenize(a.Text) {
			counts[tok]++
		}
		ix.ids = append(ix.ids, a.ID)
		ix.tf[a.ID] = counts
		for tok := range counts {
			ix.df[tok]++
		}
	}
	sort.Strings(ix.ids)
	ix.docs = len(ix.ids)
	return ix
}

// Tokenize lower-cases s, strips punctuation, splits on whitespace, and
// trims common suffixes. The trimming is deliberately naive ("s", "ing",
// "ed") so matching stays predictable.
func Tokenize(s string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	fields := strings.Fields(sb.String())
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, trimSuffix(f))
	}
	return out
}

func trimSuffix(tok string) string {
	switch {
	case len(tok) > 5 && strings.HasSuffix(tok, "ing"):
		return tok[:len(tok)-3]
	case len(tok) > 4 && strings.HasSuffix(tok, "ed"):
		return tok[:len(tok)-2]
	case len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss"):
		return tok[:len(tok)-1]
	}
	return tok
}

// Search ranks articles by summed TF-IDF over the query tokens, ties broken
// by id ascending. A query whose tokens appear nowhere returns an empty
// slice. limit <= 0 returns all matches.
func (ix *Index) Search(query string, limit int) []Hit {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, tok := range tokens {
		if ix.df[tok] == 0 {
			continue
		}
		for _, id := range ix.ids {
			if n := ix.tf[id][tok]; n > 0 {
				scores[id] += float64(n) * ix.idf(tok)
			}
		}
	}
	if len(scores) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, Hit{ID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Weight returns the TF-IDF weight of token within the given article.
func (ix *Index) Weight(id, token string) float64 {
	n := ix.tf[id][token]
	if n == 0 {
		return 0
	}
	return float64(n) * ix.idf(token)
}

// Tokens returns the term-frequency map for an article. Callers must not
// mutate it.
func (ix *Index) Tokens(id string) map[string]int {
	return ix.tf[id]
}

// TopTerms returns the n highest-weighted tokens of an article, weight
// descending then token ascending.
func (ix *Index) TopTerms(id string, n int) []string {
	counts := ix.tf[id]
	if len(counts) == 0 || n <= 0 {
		return nil
	}
	terms := make([]string, 0, len(counts))
	for tok := range counts {
		terms = append(terms, tok)
	}
	sort.Slice(terms, func(i, j int) bool {
		wi, wj := ix.Weight(id, terms[i]), ix.Weight(id, terms[j])
		if wi != wj {
			return wi > wj
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// DocFreq returns how many articles contain token.
func (ix *Index) DocFreq(token string) int { return ix.df[token] }

// DocCount returns the number of indexed articles.
func (ix *Index) DocCount() int { return ix.docs }

// IDs returns the indexed article ids, sorted. Callers must not mutate it.
func (ix *Index) IDs() []string { return ix.ids }

// idf uses the smoothed formulation so tokens present in every document
// still carry a small positive weight.
func (ix *Index) idf(token string) float64 {
	return math.Log(float64(1+ix.docs)/float64(1+ix.df[token])) + 1
}
