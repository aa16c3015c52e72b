// Package apperr defines the error taxonomy shared by all query operations.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAmbiguous         = errors.New("ambiguous")
	ErrInsufficientInput = errors.New("insufficient input")
	ErrLoadFailure       = errors.New("load failure")
)

// AmbiguousError reports that an identifier matched more than one article.
// It unwraps to ErrAmbiguous so callers can match with errors.Is while still
// reaching the candidate list via errors.As.
type AmbiguousError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous identifier %q: candidates [%s]", e.Query, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }
