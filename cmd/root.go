package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spigell/cv-recommender/internal/analysis"
	"github.com/spigell/cv-recommender/internal/recommender"
	"github.com/spigell/cv-recommender/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "cv-recommender"
)

type Config struct {
	BaseURL   string           `mapstructure:"base-url"`
	TokenFile string           `mapstructure:"token-file"`
	UserAgent string           `mapstructure:"user-agent"`
	Analyze   *AnalyzeConfig   `mapstructure:"analyze"`
	Polling   *analysis.Config `mapstructure:"polling"`
	Health    *HealthConfig    `mapstructure:"health"`
	Report    *ReportConfig    `mapstructure:"report"`
	AI        *AIConfig        `mapstructure:"ai"`
}

type AnalyzeConfig struct {
	CV             string `mapstructure:"cv"`
	CVText         string `mapstructure:"cv-text"`
	JobDescription string `mapstructure:"job-description"`
	JobFile        string `mapstructure:"job-file"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type ReportConfig struct {
	Priorities       []string `mapstructure:"priorities"`
	MinRelevance     float64  `mapstructure:"min-relevance"`
	ExcludeResources []string `mapstructure:"exclude-resources"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	Note     *NoteConfig   `mapstructure:"note"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

// NoteConfig adjusts the drafted application note. All fields are advisory.
type NoteConfig struct {
	Tone         string `mapstructure:"tone"`
	Emphasis     string `mapstructure:"emphasis"`
	Avoid        string `mapstructure:"avoid"`
	Language     string `mapstructure:"language"`
	Instructions string `mapstructure:"instructions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-recommender is a simple cli for analyzing a CV against a job description and closing the skill gaps",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("base-url", "CV_RECOMMENDER_BASE_URL"); err != nil {
		log.Fatalf("binding CV_RECOMMENDER_BASE_URL environment variable: %v", err)
	}

	if err := viper.BindEnv("token-file", "CV_RECOMMENDER_TOKEN_FILE"); err != nil {
		log.Fatalf("binding CV_RECOMMENDER_TOKEN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine since every key has a default or an
	// environment override. A broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// newClient builds the backend API client from the config.
func newClient(config *Config, logger *zap.Logger) (*recommender.Client, error) {
	token, err := resolveToken(config)
	if err != nil {
		return nil, err
	}

	client := recommender.New(logger, config.BaseURL, token)

	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	if config.Health != nil && config.Health.Timeout > 0 {
		client.HealthTimeout = config.Health.Timeout
	}

	return client, nil
}

// resolveToken loads the optional bearer token. The backend itself does not
// authenticate, so the token only matters for deployments behind a proxy.
func resolveToken(config *Config) (string, error) {
	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	if tokenFile == "" && os.Getenv("CV_RECOMMENDER_TOKEN") == "" {
		return "", nil
	}

	return secrets.Load(secrets.Source{
		Name: "backend token",
		Env:  "CV_RECOMMENDER_TOKEN",
		File: tokenFile,
	})
}
