package classifier

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func longText(words int) string {
	return strings.TrimSpace(strings.Repeat("word ", words))
}

func TestOverrideAlwaysWins(t *testing.T) {
	c := New([]string{"tiny"}, 0)
	// Nine words, far below the comment limit, but the override is
	// authoritative.
	a := &models.Article{ID: "tiny", Title: "Tiny", Text: longText(9), WordCount: 9}
	if got := c.Classify(a); got != models.StatusFinished {
		t.Errorf("status = %q, want finished", got)
	}
}

func TestShortArticleIsComment(t *testing.T) {
	c := New(nil, 0)
	a := &models.Article{ID: "short", Title: "Short", Text: longText(50), WordCount: 50}
	if got := c.Classify(a); got != models.StatusComment {
		t.Errorf("status = %q, want comment", got)
	}
}

func TestLongArticleIsDraft(t *testing.T) {
	c := New(nil, 0)
	a := &models.Article{ID: "long", Title: "Long", Text: longText(300), WordCount: 300}
	if got := c.Classify(a); got != models.StatusDraft {
		t.Errorf("status = %q, want draft", got)
	}
}

func TestReplyTitleIsComment(t *testing.T) {
	c := New(nil, 0)
	a := &models.Article{
		ID:        "reply",
		Title:     "Great point -- a response",
		Text:      longText(500),
		WordCount: 500,
	}
	if got := c.Classify(a); got != models.StatusComment {
		t.Errorf("status = %q, want comment", got)
	}
}

func TestReplyTextIsComment(t *testing.T) {
	c := New(nil, 0)
	a := &models.Article{
		ID:        "reply-text",
		Title:     "Untitled",
		Text:      "In response to your essay, " + longText(400),
		WordCount: 404,
	}
	if got := c.Classify(a); got != models.StatusComment {
		t.Errorf("status = %q, want comment", got)
	}
}

func TestCustomWordLimit(t *testing.T) {
	c := New(nil, 10)
	below := &models.Article{ID: "a", Title: "A", Text: longText(9), WordCount: 9}
	above := &models.Article{ID: "b", Title: "B", Text: longText(10), WordCount: 10}
	if got := c.Classify(below); got != models.StatusComment {
		t.Errorf("below limit = %q, want comment", got)
	}
	if got := c.Classify(above); got != models.StatusDraft {
		t.Errorf("at limit = %q, want draft", got)
	}
}

func TestExactLimitIsNotComment(t *testing.T) {
	c := New(nil, 0)
	a := &models.Article{
		ID:        "edge",
		Title:     "Edge",
		Text:      longText(DefaultCommentWordLimit),
		WordCount: DefaultCommentWordLimit,
	}
	if got := c.Classify(a); got != models.StatusDraft {
		t.Errorf("status = %q, want draft at exactly the limit", got)
	}
}
