package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/cv-recommender/internal/recommender"
)

// Filter represents a single report shaping step applied to an analysis
// result before presentation.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, result *recommender.AnalysisResult) (*recommender.AnalysisResult, Step, error)
}

// Step describes the result of executing a filtering step. Counts refer to
// the units the step operates on: recommendations for gap-level filters,
// resources for resource-level ones.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Filtering runs an ordered list of filters over one analysis result.
type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, logger *zap.Logger) *Filtering {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Filtering{
		steps:  steps,
		logger: logger,
	}
}

// RunFilters validates all enabled filters up front, then applies them
// sequentially, logging the per-step drop accounting.
func (f *Filtering) RunFilters(ctx context.Context, result *recommender.AnalysisResult) (*recommender.AnalysisResult, error) {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range f.steps {
		if !step.IsEnabled() {
			f.logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		f.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		result = next
	}

	return result, nil
}
