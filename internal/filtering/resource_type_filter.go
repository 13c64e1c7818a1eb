package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/cv-recommender/internal/recommender"
)

type resourceTypeFilter struct {
	enabled  bool
	reason   string
	excluded []string
}

var knownResourceTypes = []string{
	recommender.ResourceGitHub,
	recommender.ResourceYouTube,
	recommender.ResourceDocumentation,
	recommender.ResourceTutorial,
	recommender.ResourceCourse,
}

// NewExcludedResourceTypes creates a filter that drops resources of the
// provided kinds. An empty set leaves the filter disabled.
func NewExcludedResourceTypes(excluded []string) Filter {
	return &resourceTypeFilter{
		enabled:  len(excluded) > 0,
		excluded: excluded,
	}
}

func (f *resourceTypeFilter) Name() string { return "resource_types" }

func (f *resourceTypeFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *resourceTypeFilter) IsEnabled() bool { return f.enabled }

func (f *resourceTypeFilter) Validate() error {
	for _, kind := range f.excluded {
		if !contains(knownResourceTypes, kind) {
			return fmt.Errorf("unknown resource type %q, expected one of %v", kind, knownResourceTypes)
		}
	}
	return nil
}

func (f *resourceTypeFilter) Apply(_ context.Context, result *recommender.AnalysisResult) (*recommender.AnalysisResult, Step, error) {
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

func (f *resourceTypeFilter) keep(resources []*recommender.Resource) []*recommender.Resource {
	kept := make([]*recommender.Resource, 0, len(resources))
	for _, res := range resources {
		if !contains(f.excluded, res.Type) {
			kept = append(kept, res)
		}
	}
	return kept
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
