// Package similarity computes pairwise content overlap and theme clustering
// over the indexed corpus.
package similarity

import (
	"sort"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/index"
)

// Tunable defaults; see config keys search.commonality_ceiling and
// search.similarity_floor.
const (
	DefaultCommonalityCeiling = 0.6
	DefaultSimilarityFloor    = 0.1

	// The ceiling is skipped for corpora smaller than this: with a handful
	// of documents nearly every token exceeds any sensible ceiling.
	minDocsForCeiling = 4
)

// Overlap is the content-overlap record for one article pair.
type Overlap struct {
	A           string   `json:"a"`
	B           string   `json:"b"`
	Score       float64  `json:"score"`
	SharedTerms []string `json:"shared_terms,omitempty"`
}

// Analysis is the result of a multi-article overlap request.
type Analysis struct {
	IDs         []string  `json:"ids"`
	Pairs       []Overlap `json:"pairs"`
	CommonTerms []string  `json:"common_terms,omitempty"`
}

// Cluster is one disjoint group produced by theme clustering.
type Cluster struct {
	Seed     string   `json:"seed"`
	Members  []string `json:"members"`
	Cohesion float64  `json:"cohesion"`
}

// Engine computes similarity over one immutable index snapshot. Token sets
// are filtered once at construction, so all query methods are pure reads.
type Engine struct {
	ix       *index.Index
	floor    float64
	filtered map[string]map[string]struct{}
}

// New builds an engine over ix. ceiling is the document-frequency fraction
// above which tokens are considered too common to signal overlap; floor is
// the minimum Jaccard score for cluster absorption. Non-positive values
// select the defaults.
func New(ix *index.Index, ceiling, floor float64) *Engine {
	if ceiling <= 0 || ceiling > 1 {
		ceiling = DefaultCommonalityCeiling
	}
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}

	maxDF := ix.DocCount() + 1 // no filtering
	if ix.DocCount() >= minDocsForCeiling {
		maxDF = int(ceiling * float64(ix.DocCount()))
		if maxDF < 1 {
			maxDF = 1
		}
	}

	filtered := make(map[string]map[string]struct{}, ix.DocCount())
	for _, id := range ix.IDs() {
		set := make(map[string]struct{})
		for tok := range ix.Tokens(id) {
			if ix.DocFreq(tok) <= maxDF {
				set[tok] = struct{}{}
			}
		}
		filtered[id] = set
	}

	return &Engine{ix: ix, floor: floor, filtered: filtered}
}

// Overlap returns the Jaccard similarity of the two articles' filtered token
// sets, with shared terms sorted by combined TF-IDF weight descending.
// Both ids must be canonical (already resolved).
func (e *Engine) Overlap(a, b string) Overlap {
	sa, sb := e.filtered[a], e.filtered[b]

	var shared []string
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			shared = append(shared, tok)
		}
	}

	union := len(sa) + len(sb) - len(shared)
	score := 0.0
	if union > 0 {
		score = float64(len(shared)) / float64(union)
	}

	sort.Slice(shared, func(i, j int) bool {
		wi := e.ix.Weight(a, shared[i]) + e.ix.Weight(b, shared[i])
		wj := e.ix.Weight(a, shared[j]) + e.ix.Weight(b, shared[j])
		if wi != wj {
			return wi > wj
		}
		return shared[i] < shared[j]
	})

	return Overlap{A: a, B: b, Score: score, SharedTerms: shared}
}

// Neighbors returns every other article with a non-zero overlap score,
// ordered score descending then id ascending.
func (e *Engine) Neighbors(id string) []Overlap {
	var out []Overlap
	for _, other := range e.ix.IDs() {
		if other == id {
			continue
		}
		ov := e.Overlap(id, other)
		if ov.Score > 0 {
			out = append(out, ov)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].B < out[j].B
	})
	return out
}

// Analyze computes pairwise overlaps and corpus-wide common terms for the
// given resolved ids. Fewer than two ids is an explicit failure, never a
// silently partial result.
func (e *Engine) Analyze(ids []string) (*Analysis, error) {
	if len(ids) < 2 {
		return nil, apperr.ErrInsufficientInput
	}

	a := &Analysis{IDs: ids}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a.Pairs = append(a.Pairs, e.Overlap(ids[i], ids[j]))
		}
	}
	a.CommonTerms = e.commonTerms(ids)
	return a, nil
}

// commonTerms returns tokens present in every article's filtered set,
// sorted by summed TF-IDF weight descending.
func (e *Engine) commonTerms(ids []string) []string {
	var common []string
	for tok := range e.filtered[ids[0]] {
		inAll := true
		for _, id := range ids[1:] {
			if _, ok := e.filtered[id][tok]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, tok)
		}
	}
	sort.Slice(common, func(i, j int) bool {
		var wi, wj float64
		for _, id := range ids {
			wi += e.ix.Weight(id, common[i])
			wj += e.ix.Weight(id, common[j])
		}
		if wi != wj {
			return wi > wj
		}
		return common[i] < common[j]
	})
	return common
}

// Cluster groups theme-matching articles greedily: seed with the best
// search match, absorb the unassigned candidate with the highest overlap to
// any member while it stays above the floor, then start the next cluster
// from the best remaining match. Clusters are disjoint by construction.
func (e *Engine) Cluster(theme string) []Cluster {
	hits := e.ix.Search(theme, 0)
	if len(hits) == 0 {
		return nil
	}

	unassigned := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		unassigned[h.ID] = struct{}{}
	}

	var clusters []Cluster
	for _, h := range hits {
		if _, ok := unassigned[h.ID]; !ok {
			continue
		}
		seed := h.ID
		delete(unassigned, seed)
		members := []string{seed}

		for {
			best, bestScore := "", -1.0
			for _, cand := range hits {
				if _, ok := unassigned[cand.ID]; !ok {
					continue
				}
				score := 0.0
				for _, m := range members {
					if ov := e.Overlap(cand.ID, m); ov.Score > score {
						score = ov.Score
					}
				}
				if score > bestScore || (score == bestScore && cand.ID < best) {
					best, bestScore = cand.ID, score
				}
			}
			if best == "" || bestScore < e.floor {
				break
			}
			delete(unassigned, best)
			members = append(members, best)
		}

		clusters = append(clusters, Cluster{
			Seed:     seed,
			Members:  members,
			Cohesion: e.cohesion(members),
		})
	}
	return clusters
}

// cohesion is the mean pairwise overlap among members; 1 for singletons.
func (e *Engine) cohesion(members []string) float64 {
	if len(members) < 2 {
		return 1
	}
	var sum float64
	var n int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += e.Overlap(members[i], members[j]).Score
			n++
		}
	}
	return sum / float64(n)
}
