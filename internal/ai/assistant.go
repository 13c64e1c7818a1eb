package ai

import (
	"context"

	"github.com/spigell/cv-recommender/internal/recommender"
)

// Note is a drafted application note grounded in a completed analysis.
type Note struct {
	// Summary is a short pitch the candidate can adapt into a cover
	// letter opening.
	Summary string
	// Highlights are the matched strengths to lead with.
	Highlights []string
	// Focus is a one-line suggestion on what to prepare first.
	Focus string
	// Raw keeps the unparsed provider response for debugging.
	Raw string
}

type Assistant interface {
	Draft(ctx context.Context, result *recommender.AnalysisResult, jobDescription string) (*Note, error)
}
