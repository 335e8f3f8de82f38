package output

import "context"

// CandidateReviewer breaks ties between free-text candidates that all passed
// scoring. It returns the index of the preferred option.
type CandidateReviewer interface {
	Prefer(ctx context.Context, field string, options []string) (int, error)
}
