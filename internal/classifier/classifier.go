// Package classifier assigns completeness status to loaded articles.
//
// Classification is one-shot at load time: the operator's override set is
// authoritative for Finished, heuristics only separate short drafts from
// incidental comment-like artifacts left behind by bulk exports.
package classifier

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// DefaultCommentWordLimit is the word count below which an article without
// an override is treated as a comment.
const DefaultCommentWordLimit = 200

// replyRe matches the opening of reply-style text captured by the exporter.
var replyRe = regexp.MustCompile(`(?i)^(in response to|replying to|thanks for|great (post|article|piece))\b`)

// Classifier holds the immutable classification inputs.
type Classifier struct {
	finished         map[string]struct{}
	commentWordLimit int
}

// New creates a classifier from the operator's finished-id override set and
// the comment word-count threshold. limit <= 0 selects the default.
func New(finished []string, limit int) *Classifier {
	if limit <= 0 {
		limit = DefaultCommentWordLimit
	}
	set := make(map[string]struct{}, len(finished))
	for _, id := range finished {
		set[id] = struct{}{}
	}
	return &Classifier{finished: set, commentWordLimit: limit}
}

// Classify returns the article's status. Override membership always wins;
// otherwise short pieces and reply-shaped text are comments, and everything
// else is a draft.
func (c *Classifier) Classify(a *models.Article) models.Status {
	if _, ok := c.finished[a.ID]; ok {
		return models.StatusFinished
	}
	if a.WordCount < c.commentWordLimit {
		return models.StatusComment
	}
	if c.replyShaped(a) {
		return models.StatusComment
	}
	return models.StatusDraft
}

// replyShaped detects reply/quote structure: exporter-encoded "--" reply
// titles or text opening like a response.
func (c *Classifier) replyShaped(a *models.Article) bool {
	if strings.Contains(a.Title, "--") {
		return true
	}
	return replyRe.MatchString(strings.TrimSpace(a.Text))
}
