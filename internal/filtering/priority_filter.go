package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/cv-recommender/internal/recommender"
)

type priorityFilter struct {
	enabled    bool
	reason     string
	priorities []string
}

// NewPriorities creates a filter that keeps only skill gaps whose priority
// is in the provided set. An empty set leaves the filter disabled.
func NewPriorities(priorities []string) Filter {
	return &priorityFilter{
		enabled:    len(priorities) > 0,
		priorities: priorities,
	}
}

func (f *priorityFilter) Name() string { return "priorities" }

func (f *priorityFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *priorityFilter) IsEnabled() bool { return f.enabled }

func (f *priorityFilter) Validate() error {
	for _, priority := range f.priorities {
		if priority != recommender.PriorityRequired && priority != recommender.PriorityPreferred {
			return fmt.Errorf("unknown priority %q, expected %q or %q",
				priority, recommender.PriorityRequired, recommender.PriorityPreferred)
		}
	}
	return nil
}

func (f *priorityFilter) Apply(_ context.Context, result *recommender.AnalysisResult) (*recommender.AnalysisResult, Step, error) {
	initial := result.Len()

	kept := make([]*recommender.SkillGapRecommendation, 0, initial)
	for _, rec := range result.SkillGapRecommendations {
		if f.keeps(rec.SkillGap.Priority) {
			kept = append(kept, rec)
		}
	}
	result.SkillGapRecommendations = kept

	return result, Step{Initial: initial, Dropped: initial - result.Len(), Left: result.Len()}, nil
}

func (f *priorityFilter) keeps(priority string) bool {
	for _, allowed := range f.priorities {
		if priority == allowed {
			return true
		}
	}
	return false
}
