package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spigell/cv-recommender/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the backend once and report its capabilities",
	Run: func(_ *cobra.Command, _ []string) {
		health()
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func health() {
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

	report, err := client.Health(ctx)
	if err != nil {
		logger.Fatal("backend is not healthy",
			zap.String("base_url", client.BaseURL),
			zap.Error(err),
		)
	}

	logger.Info("backend is healthy",
		zap.String("base_url", client.BaseURL),
		zap.String("status", report.Status),
		zap.String("backend_version", report.Version),
	)

	pretty, _ := json.MarshalIndent(report.Capabilities(), "", "  ")
	logger.Info(fmt.Sprintf("capabilities: \n %s", pretty))
}
