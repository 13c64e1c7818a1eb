package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-recommender/internal/recommender"
)

const (
	DefaultPollInterval     = time.Second
	DefaultMaxAttempts      = 300
	DefaultTransportRetries = 3
)

// Backend is the slice of the API client the controller drives.
type Backend interface {
	SubmitAnalysis(ctx context.Context, req *recommender.SubmitRequest) (*recommender.JobSubmission, error)
	JobStatus(ctx context.Context, jobID string) (*recommender.JobStatus, error)
	Results(ctx context.Context, jobID string) (*recommender.AnalysisResult, error)
	Health(ctx context.Context) (*recommender.Health, error)
}

// Config carries the polling knobs. Zero values fall back to the defaults
// above.
type Config struct {
	PollInterval     time.Duration `mapstructure:"interval"`
	MaxAttempts      int           `mapstructure:"max-attempts"`
	TransportRetries *int          `mapstructure:"transport-retries"`
}

// Controller owns the observable state and drives one analysis cycle at a
// time through submit, poll and result fetch.
type Controller struct {
	backend          Backend
	logger           *zap.Logger
	interval         time.Duration
	maxAttempts      int
	transportRetries int

	mu        sync.RWMutex
	notifyMu  sync.Mutex
	state     State
	subs      []subscriber
	nextSubID int
	inFlight  bool
}

func New(cfg *Config, backend Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		backend:          backend,
		logger:           logger,
		interval:         DefaultPollInterval,
		maxAttempts:      DefaultMaxAttempts,
		transportRetries: DefaultTransportRetries,
	}

	if cfg != nil {
		if cfg.PollInterval > 0 {
			c.interval = cfg.PollInterval
		}
		if cfg.MaxAttempts > 0 {
			c.maxAttempts = cfg.MaxAttempts
		}
		if cfg.TransportRetries != nil && *cfg.TransportRetries >= 0 {
			c.transportRetries = *cfg.TransportRetries
		}
	}

	return c
}

// SubmitAnalysis runs one full analysis cycle and blocks until it reaches a
// terminal outcome. Inputs are validated before any state changes, so a
// rejected request leaves the previous state intact and never reaches the
// backend. Every failure is reported twice: as the returned error and as
// the Error field of the published state.
func (c *Controller) SubmitAnalysis(ctx context.Context, req *recommender.SubmitRequest) (*recommender.AnalysisResult, error) {
	if err := recommender.ValidateSubmitRequest(req); err != nil {
		return nil, err
	}

	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	logger := c.logger.With(zap.String("cycle_id", uuid.NewString()))
	logger.Info("starting analysis cycle")

	c.publish(func(s *State) {
		s.IsLoading = true
		s.Progress = 0
		s.CurrentStep = ""
		s.Result = nil
		s.Error = ""
	})

	result, err := c.run(ctx, logger, req)
	if err != nil {
		c.publish(func(s *State) {
			s.IsLoading = false
			s.Result = nil
			s.Error = stateMessage(err)
		})
		logger.Warn("analysis cycle failed", zap.Error(err))

		return nil, err
	}

	c.publish(func(s *State) {
		s.IsLoading = false
		s.Error = ""
		s.Result = result
	})
	logger.Info("analysis cycle completed", zap.Int("skill_gaps", result.Len()))

	return result, nil
}

func (c *Controller) run(ctx context.Context, logger *zap.Logger, req *recommender.SubmitRequest) (*recommender.AnalysisResult, error) {
	submission, err := c.backend.SubmitAnalysis(ctx, req)
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("job_id", submission.JobID))
	logger.Info("analysis job accepted", zap.String("status", string(submission.Status)))

	if _, err := c.poll(ctx, logger, submission.JobID); err != nil {
		return nil, err
	}

	logger.Debug("fetching analysis result")

	return c.backend.Results(ctx, submission.JobID)
}

// CheckHealth probes the backend once and records the outcome. Capability
// flags are refreshed from the health payload on success; a failed probe
// seeds the fixed default assumption instead.
func (c *Controller) CheckHealth(ctx context.Context) bool {
	health, err := c.backend.Health(ctx)
	healthy := err == nil

	c.publish(func(s *State) {
		s.BackendHealthy = &healthy
		if healthy {
			s.Capabilities = health.Capabilities()
		} else if s.Capabilities == nil {
			s.Capabilities = recommender.DefaultCapabilities()
		}
	})

	if err != nil {
		c.logger.Warn("backend health probe failed", zap.Error(err))
	}

	return healthy
}

// Reset clears the transient fields back to their defaults. The health flag
// and capabilities persist since they describe the environment, not the
// job.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrAnalysisInFlight
	}
	c.mu.Unlock()

	c.publish(func(s *State) {
		s.IsLoading = false
		s.Progress = 0
		s.CurrentStep = ""
		s.Result = nil
		s.Error = ""
	})

	return nil
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return ErrAnalysisInFlight
	}
	c.inFlight = true

	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// stateMessage picks the message published to State.Error. For a
// backend-reported failure that is the server's own message, without
// wrapping noise.
func stateMessage(err error) string {
	var jobErr *JobFailedError
	if errors.As(err, &jobErr) {
		return jobErr.Message
	}

	return err.Error()
}
