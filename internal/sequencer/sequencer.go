// Package sequencer proposes chapter orderings from the similarity matrix.
//
// The ordering is a nearest-neighbor chain: greedy and deterministic rather
// than optimal, so every adjacency can be explained by its shared terms.
package sequencer

import (
	"sort"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/similarity"
)

// Step is one position in a proposed sequence. SharedTerms and Score
// explain the adjacency with the previous step; both are empty for the
// first step.
type Step struct {
	ID          string   `json:"id"`
	Score       float64  `json:"score,omitempty"`
	SharedTerms []string `json:"shared_terms,omitempty"`
}

// Plan is an ordered chapter sequence with per-adjacency rationale.
type Plan struct {
	Steps []Step `json:"steps"`
}

// IDs returns the plan's ordering as a plain id list.
func (p *Plan) IDs() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.ID
	}
	return out
}

// Sequence orders the given resolved ids: start from the pair with the
// highest overlap, then repeatedly append the unplaced article most similar
// to the chain end. Ties break by id ascending. Fewer than two ids fail
// with ErrInsufficientInput.
func Sequence(eng *similarity.Engine, ids []string) (*Plan, error) {
	ids = dedupe(ids)
	if len(ids) < 2 {
		return nil, apperr.ErrInsufficientInput
	}

	remaining := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remaining[id] = struct{}{}
	}

	first, second := seedPair(eng, ids)
	delete(remaining, first)
	delete(remaining, second)

	plan := &Plan{Steps: []Step{{ID: first}}}
	appendStep(plan, eng, first, second)

	end := second
	for len(remaining) > 0 {
		next, _ := nearest(eng, end, remaining)
		delete(remaining, next)
		appendStep(plan, eng, end, next)
		end = next
	}
	return plan, nil
}

// seedPair finds the pair with the maximum overlap score; the
// lexicographically smaller id leads. Ties break by id pair ascending.
func seedPair(eng *similarity.Engine, ids []string) (string, string) {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	bestA, bestB := sorted[0], sorted[1]
	bestScore := -1.0
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if score := eng.Overlap(sorted[i], sorted[j]).Score; score > bestScore {
				bestA, bestB, bestScore = sorted[i], sorted[j], score
			}
		}
	}
	return bestA, bestB
}

// nearest picks the unplaced id most similar to end.
func nearest(eng *similarity.Engine, end string, remaining map[string]struct{}) (string, float64) {
	candidates := make([]string, 0, len(remaining))
	for id := range remaining {
		candidates = append(candidates, id)
	}
	sort.Strings(candidates)

	best, bestScore := candidates[0], -1.0
	for _, id := range candidates {
		if score := eng.Overlap(end, id).Score; score > bestScore {
			best, bestScore = id, score
		}
	}
	return best, bestScore
}

func appendStep(plan *Plan, eng *similarity.Engine, prev, id string) {
	ov := eng.Overlap(prev, id)
	plan.Steps = append(plan.Steps, Step{ID: id, Score: ov.Score, SharedTerms: ov.SharedTerms})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
