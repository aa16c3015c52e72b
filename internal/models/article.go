// Package models defines the domain types for Ansuz.
package models

// Status is the completeness classification of an article.
type Status string

const (
	StatusFinished Status = "finished"
	StatusDraft    Status = "draft"
	StatusComment  Status = "comment"
)

// Valid reports whether s is a known classification.
func (s Status) Valid() bool {
	switch s {
	case StatusFinished, StatusDraft, StatusComment:
		return true
	}
	return false
}

// Article represents one parsed essay from the archive.
//
// ID is the archive subdirectory name, verbatim. It is assigned exactly once
// at load time and is never derived from the display title.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	RawHTML     []byte   `json:"-"`
	Text        string   `json:"-"`
	WordCount   int      `json:"word_count"`
	Tags        []string `json:"tags,omitempty"`
	ImageRefs   []string `json:"image_refs,omitempty"`
	Status      Status   `json:"status"`
}

// Summary is a lightweight representation returned by list operations.
type Summary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	WordCount   int      `json:"word_count"`
	Tags        []string `json:"tags,omitempty"`
	HasImages   bool     `json:"has_images"`
	Status      Status   `json:"status"`
}

// Summarize returns the list representation of an article.
func (a *Article) Summarize() Summary {
	return Summary{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		WordCount:   a.WordCount,
		Tags:        a.Tags,
		HasImages:   len(a.ImageRefs) > 0,
		Status:      a.Status,
	}
}
