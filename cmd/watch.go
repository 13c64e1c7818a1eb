package cmd

import (
	"context"
	"log"

	"github.com/spigell/cv-recommender/internal/logger"
	"github.com/spigell/cv-recommender/internal/recommender"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow the live progress stream of a submitted analysis job",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		watch(args[0])
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watch(jobID string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("building the backend client", zap.Error(err))
	}

	logger.Info("watching analysis job",
		zap.String("job_id", jobID),
		zap.String("base_url", client.BaseURL),
	)

	var last recommender.StreamEvent
	err = client.StreamProgress(ctx, jobID, func(event recommender.StreamEvent) error {
		last = event

		fields := []zap.Field{
			zap.String("status", string(event.Status)),
			zap.Int("progress", event.Progress),
		}
		if event.Message != "" {
			fields = append(fields, zap.String("message", event.Message))
		}
		if event.Error != "" {
			fields = append(fields, zap.String("error", event.Error))
		}

		logger.Info("analysis progress", fields...)
		return nil
	})
	if err != nil {
		logger.Fatal("progress stream failed", zap.Error(err))
	}

	switch last.Status {
	case recommender.StatusCompleted:
		logger.Info("analysis completed",
			zap.String("job_id", jobID),
			zap.String("hint", "fetch the report with the run command or GET /api/results"),
		)
	case recommender.StatusFailed:
		logger.Fatal("analysis failed", zap.String("error", last.Error))
	default:
		logger.Warn("stream ended before a terminal status", zap.String("status", string(last.Status)))
	}
}
