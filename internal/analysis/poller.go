package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/cv-recommender/internal/recommender"
	"github.com/spigell/cv-recommender/internal/utils"
)

// poll queries the job status until a terminal status arrives or the
// attempt ceiling is exhausted. Progress and step are published after every
// successful poll regardless of status, so observers see feedback well
// before completion. Transport failures are tolerated up to the consecutive
// retry budget; any successful poll resets it. Failed polls still consume
// attempts, which keeps the ceiling an upper bound on the cycle length.
func (c *Controller) poll(ctx context.Context, logger *zap.Logger, jobID string) (*recommender.JobStatus, error) {
	failures := 0

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snapshot, err := c.backend.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			failures++
			logger.Debug("status poll failed",
				zap.Int("attempt", attempt),
				zap.Int("consecutive_failures", failures),
				zap.Error(err),
			)

			if failures > c.transportRetries {
				return nil, &PollTransportError{Attempts: attempt, Cause: err}
			}
		} else {
			failures = 0

			c.publish(func(s *State) {
				s.Progress = snapshot.ProgressPercentage
				s.CurrentStep = snapshot.CurrentStep
			})
			logger.Debug("status poll",
				zap.Int("attempt", attempt),
				zap.String("status", string(snapshot.Status)),
				zap.Int("progress", snapshot.ProgressPercentage),
				zap.String("current_step", snapshot.CurrentStep),
			)

			switch snapshot.Status {
			case recommender.StatusCompleted:
				return snapshot, nil
			case recommender.StatusFailed:
				message := snapshot.Error
				if message == "" {
					message = "analysis failed without details"
				}
				return nil, &JobFailedError{JobID: jobID, Message: message}
			}
		}

		if err := utils.WaitFor(ctx, c.interval); err != nil {
			return nil, err
		}
	}

	return nil, &TimeoutError{Attempts: c.maxAttempts, Interval: c.interval}
}
