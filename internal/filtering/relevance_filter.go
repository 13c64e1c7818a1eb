package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/cv-recommender/internal/recommender"
)

type relevanceFilter struct {
	enabled  bool
	reason   string
	minScore float64
}

// NewMinRelevance creates a filter that strips resources scoring below the
// threshold. Unscored resources are kept. A non-positive threshold leaves
// the filter disabled.
func NewMinRelevance(minScore float64) Filter {
	return &relevanceFilter{
		enabled:  minScore > 0,
		minScore: minScore,
	}
}

func (f *relevanceFilter) Name() string { return "min_relevance" }

func (f *relevanceFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *relevanceFilter) IsEnabled() bool { return f.enabled }

func (f *relevanceFilter) Validate() error {
	if f.minScore > 1 {
		return fmt.Errorf("minimum relevance %.2f is out of range, scores are within [0, 1]", f.minScore)
	}
	return nil
}

func (f *relevanceFilter) Apply(_ context.Context, result *recommender.AnalysisResult) (*recommender.AnalysisResult, Step, error) {
	initial := 0
	left := 0

	for _, rec := range result.SkillGapRecommendations {
		initial += len(rec.Resources())

		rec.GithubResources = f.keep(rec.GithubResources)
		rec.YoutubeResources = f.keep(rec.YoutubeResources)
		rec.WebResources = f.keep(rec.WebResources)

		left += len(rec.Resources())
	}

	return result, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *relevanceFilter) keep(resources []*recommender.Resource) []*recommender.Resource {
	kept := make([]*recommender.Resource, 0, len(resources))
	for _, res := range resources {
		if res.RelevanceScore == 0 || res.RelevanceScore >= f.minScore {
			kept = append(kept, res)
		}
	}
	return kept
}
