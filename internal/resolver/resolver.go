// Package resolver maps user-supplied identifiers to canonical article ids.
//
// Callers pass titles, slugs, or ids in arbitrary casing and punctuation;
// the resolver normalizes them against a map built once at load time. Every
// content-bearing operation goes through Resolve; nothing else in the
// system compares raw user input to canonical ids.
package resolver

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// suffixRe matches the exporter's trailing disambiguation hash
// (e.g. "Making-Predictions-ab12f9c33b1").
var suffixRe = regexp.MustCompile(`^(.+)-[0-9a-f]{4,16}$`)

// Resolver holds the normalization map for one corpus snapshot.
type Resolver struct {
	// canonical maps Normalize(id) to the ids that produce that key.
	canonical map[string][]string
	// aliases maps normalized titles and suffix-stripped ids to candidate ids.
	aliases map[string][]string
}

// New builds a resolver from the loaded articles. For each article it
// registers the canonical id, the normalized title, and the id with its
// trailing hash suffix stripped (only when stripping stays unique).
func New(articles []models.Article) *Resolver {
	r := &Resolver{
		canonical: make(map[string][]string),
		aliases:   make(map[string][]string),
	}

	for _, a := range articles {
		r.canonical[Normalize(a.ID)] = appendUnique(r.canonical[Normalize(a.ID)], a.ID)
	}

	stripped := make(map[string][]string)
	for _, a := range articles {
		if a.Title != "" {
			key := Normalize(a.Title)
			if key != "" {
				r.aliases[key] = appendUnique(r.aliases[key], a.ID)
			}
		}
		if m := suffixRe.FindStringSubmatch(strings.ToLower(a.ID)); m != nil {
			key := Normalize(m[1])
			if key != "" {
				stripped[key] = appendUnique(stripped[key], a.ID)
			}
		}
	}

	// Suffix-stripped forms are only usable when they identify one article
	// and don't shadow another article's canonical id.
	for key, ids := range stripped {
		if len(ids) != 1 {
			continue
		}
		if _, taken := r.canonical[key]; taken {
			continue
		}
		r.aliases[key] = appendUnique(r.aliases[key], ids[0])
	}

	return r
}

// Resolve maps query to exactly one canonical id. A key matching multiple
// articles yields an AmbiguousError with the sorted candidate list; a key
// matching nothing yields ErrNotFound. Canonical-id keys take precedence
// over aliases.
func (r *Resolver) Resolve(query string) (string, error) {
	key := Normalize(query)
	if key == "" {
		return "", apperr.ErrNotFound
	}

	if ids, ok := r.canonical[key]; ok {
		if len(ids) == 1 {
			return ids[0], nil
		}
		return "", ambiguous(query, ids)
	}

	if ids, ok := r.aliases[key]; ok {
		if len(ids) == 1 {
			return ids[0], nil
		}
		return "", ambiguous(query, ids)
	}

	return "", apperr.ErrNotFound
}

// Normalize case-folds s and collapses every punctuation/whitespace run to a
// single hyphen, so "Making Predictions", "making-predictions" and
// "Making_Predictions" all produce the same key.
func Normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), "-")
}

func ambiguous(query string, ids []string) error {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return &apperr.AmbiguousError{Query: query, Candidates: out}
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
