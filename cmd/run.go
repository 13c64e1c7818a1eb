package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/cv-recommender/internal/ai"
	"github.com/spigell/cv-recommender/internal/ai/gemini"
	"github.com/spigell/cv-recommender/internal/analysis"
	"github.com/spigell/cv-recommender/internal/filtering"
	"github.com/spigell/cv-recommender/internal/logger"
	"github.com/spigell/cv-recommender/internal/recommender"
	"github.com/spigell/cv-recommender/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptExit          = "Exit"
	PromptReportBySkill = "Report by skill gap"
	PromptDumpResult    = "Dump result to file"
	PromptDraftNote     = "Draft an application note"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full CV analysis cycle against the backend",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("cv", "c", "", "path to the CV file (pdf, docx, doc or txt)")
	runCmd.Flags().StringP("job-file", "f", "", "file with the job description text")
	runCmd.Flags().BoolP("auto-approve", "y", false, "print the report and exit instead of asking for an action")
	runCmd.Flags().StringP("output", "o", "", "file for result dumps. Default is a temporary file.")

	viper.BindPFlag("analyze.cv", runCmd.Flags().Lookup("cv"))
	viper.BindPFlag("analyze.job-file", runCmd.Flags().Lookup("job-file"))
	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-recommender", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	req, err := buildSubmitRequest(config)
	if err != nil {
		logger.Fatal("collecting analysis inputs", zap.Error(err))
	}

	// The controller re-validates, but failing here keeps broken inputs
	// from producing a half-started cycle in the logs.
	if err := recommender.ValidateSubmitRequest(req); err != nil {
		logger.Fatal("validating analysis inputs", zap.Error(err))
	}

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("building the backend client",
			zap.Error(err),
			zap.String("hint", "set CV_RECOMMENDER_TOKEN_FILE environment variable or the 'token-file' key in the configuration file"),
		)
	}

	controller := analysis.New(config.Polling, client, logger)

	if !controller.CheckHealth(ctx) {
		logger.Fatal("backend is not healthy",
			zap.String("base_url", client.BaseURL),
			zap.String("hint", "start the backend or point base-url at a running one"),
		)
	}

	logger.Info("backend is healthy", zap.Any("capabilities", controller.State().Capabilities))

	unsubscribe := controller.Subscribe(progressLogger(logger))
	defer unsubscribe()

	result, err := controller.SubmitAnalysis(ctx, req)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	filters := prepareFilters(config, logger)

	filtered, err := filters.RunFilters(ctx, result)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}
	result = filtered

	logger.Info("analysis ready",
		zap.Int("skill_gaps", result.Len()),
		zap.String("estimated_preparation_time", result.EstimatedPreparationTime),
	)

	assistant := prepareAssistant(ctx, config.AI, logger)

	if cmd.Flag("auto-approve").Value.String() == "true" {
		reportBySkill(result, logger)
		return
	}

	for {
		_, action, err := actionPrompt(assistant != nil).Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, result, req.JobDescription, assistant, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, result *recommender.AnalysisResult, jobDescription string, assistant ai.Assistant, logger *zap.Logger) error {
	switch action {
	case PromptReportBySkill:
		reportBySkill(result, logger)
		return nil
	case PromptDumpResult:
		filename, err := dumpResult(result)
		if err != nil {
			return fmt.Errorf("dump result to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptDraftNote:
		return draftNote(ctx, assistant, result, jobDescription, logger)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func actionPrompt(withAssistant bool) *promptui.Select {
	items := []string{PromptReportBySkill, PromptDumpResult}
	if withAssistant {
		items = append(items, PromptDraftNote)
	}

	return &promptui.Select{
		Label: "What next?",
		Items: append(items, PromptExit),
	}
}

func reportBySkill(result *recommender.AnalysisResult, logger *zap.Logger) {
	pretty, _ := json.MarshalIndent(result.ReportBySkill(), "", "  ")
	logger.Info(string(pretty),
		zap.Int("skill gaps count", result.Len()),
		zap.String("assessment", result.OverallAssessment),
	)
}

func dumpResult(result *recommender.AnalysisResult) (string, error) {
	output := strings.TrimSpace(viper.GetString("output"))
	if output == "" {
		return result.DumpToTmpFile()
	}

	return output, result.DumpToFile(output)
}

func draftNote(ctx context.Context, assistant ai.Assistant, result *recommender.AnalysisResult, jobDescription string, logger *zap.Logger) error {
	note, err := assistant.Draft(ctx, result, jobDescription)
	if err != nil {
		// A failed draft is not worth losing a finished analysis over.
		logger.Warn("drafting application note failed", zap.Error(err))
		return nil
	}

	logger.Info("application note drafted",
		zap.String("summary", note.Summary),
		zap.Strings("highlights", note.Highlights),
		zap.String("focus", note.Focus),
	)

	return nil
}

// buildSubmitRequest collects the analysis inputs from the config and flags.
// An explicit job description file wins over the inline text.
func buildSubmitRequest(config *Config) (*recommender.SubmitRequest, error) {
	analyze := config.Analyze
	if analyze == nil {
		analyze = &AnalyzeConfig{}
	}

	description := analyze.JobDescription
	if analyze.JobFile != "" {
		data, err := os.ReadFile(analyze.JobFile)
		if err != nil {
			return nil, fmt.Errorf("reading job description file: %w", err)
		}
		description = string(data)
	}

	return &recommender.SubmitRequest{
		CVFile:         analyze.CV,
		CVText:         analyze.CVText,
		JobDescription: strings.TrimSpace(description),
	}, nil
}

// progressLogger reports polling progress to the user, skipping snapshots
// that change nothing visible.
func progressLogger(logger *zap.Logger) func(analysis.State) {
	lastProgress := -1
	lastStep := ""

	return func(s analysis.State) {
		if !s.IsLoading {
			return
		}

		if s.Progress == lastProgress && s.CurrentStep == lastStep {
			return
		}
		lastProgress = s.Progress
		lastStep = s.CurrentStep

		logger.Info("analysis progress",
			zap.Int("progress", s.Progress),
			zap.String("current_step", s.CurrentStep),
		)
	}
}

func prepareFilters(config *Config, logger *zap.Logger) *filtering.Filtering {
	report := config.Report
	if report == nil {
		report = &ReportConfig{}
	}

	steps := []filtering.Filter{
		filtering.NewPriorities(report.Priorities),
		filtering.NewMinRelevance(report.MinRelevance),
		filtering.NewExcludedResourceTypes(report.ExcludeResources),
	}

	return filtering.New(steps, logger)
}

// prepareAssistant builds the optional note drafting assistant. Assistant
// problems never abort a finished analysis, they only shrink the action
// menu.
func prepareAssistant(ctx context.Context, cfg *AIConfig, zlog *zap.Logger) ai.Assistant {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	assistant, err := newGeminiAssistant(ctx, cfg, zlog)
	if err != nil {
		zlog.Warn("drafting application notes is unavailable", zap.Error(err))
		return nil
	}

	return assistant
}

func newGeminiAssistant(ctx context.Context, cfg *AIConfig, zlog *zap.Logger) (ai.Assistant, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if provider == "" {
		provider = "gemini"
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when the ai assistant is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		Env:  "GEMINI_API_KEY",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithAI(zlog, provider, cfg.Gemini.Model,
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	advisor := gemini.NewAdvisor(generator, cfg.Gemini.MaxLogLength, logger.WithAI(zlog, provider, cfg.Gemini.Model))
	if cfg.Note != nil {
		advisor.SetPromptOverrides(gemini.PromptOverrides{
			Tone:             cfg.Note.Tone,
			Emphasis:         cfg.Note.Emphasis,
			Avoid:            cfg.Note.Avoid,
			Language:         cfg.Note.Language,
			UserInstructions: cfg.Note.Instructions,
		})
	}

	return advisor, nil
}
