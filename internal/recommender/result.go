package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
)

const (
	PriorityRequired  = "required"
	PriorityPreferred = "preferred"

	ResourceGitHub        = "github"
	ResourceYouTube       = "youtube"
	ResourceDocumentation = "documentation"
	ResourceTutorial      = "tutorial"
	ResourceCourse        = "course"
)

type AnalysisResult struct {
	SkillMatchAnalysis       *SkillMatchAnalysis       `json:"skill_match_analysis,omitempty"`
	SkillGapRecommendations  []*SkillGapRecommendation `json:"skill_gap_recommendations,omitempty"`
	OverallAssessment        string                    `json:"overall_assessment,omitempty"`
	EstimatedPreparationTime string                    `json:"estimated_preparation_time,omitempty"`
}

type SkillMatchAnalysis struct {
	TotalRequiredSkills    int      `json:"total_required_skills,omitempty"`
	MatchedSkills          []string `json:"matched_skills,omitempty"`
	MissingRequiredSkills  []string `json:"missing_required_skills,omitempty"`
	MissingPreferredSkills []string `json:"missing_preferred_skills,omitempty"`
	MatchPercentage        float64  `json:"match_percentage,omitempty"`
	Strengths              []string `json:"strengths,omitempty"`
	AreasForImprovement    []string `json:"areas_for_improvement,omitempty"`
}

type SkillGapRecommendation struct {
	SkillGap            SkillGap    `json:"skill_gap,omitempty"`
	RecommendedProjects []*Project  `json:"recommended_projects,omitempty"`
	GithubResources     []*Resource `json:"github_resources,omitempty"`
	YoutubeResources    []*Resource `json:"youtube_resources,omitempty"`
	WebResources        []*Resource `json:"web_resources,omitempty"`
	LearningPath        string      `json:"learning_path,omitempty"`
}

type SkillGap struct {
	SkillName string `json:"skill_name,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Category  string `json:"category,omitempty"`
	Impact    string `json:"impact,omitempty"`
}

type Project struct {
	Title            string   `json:"title,omitempty"`
	Description      string   `json:"description,omitempty"`
	SkillsCovered    []string `json:"skills_covered,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	EstimatedHours   int      `json:"estimated_hours,omitempty"`
	KeyFeatures      []string `json:"key_features,omitempty"`
	LearningOutcomes []string `json:"learning_outcomes,omitempty"`
}

type Resource struct {
	Type        string `json:"type,omitempty"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	// GitHub specific.
	Stars       int    `json:"stars,omitempty"`
	Language    string `json:"language,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
	// YouTube specific.
	Channel        string  `json:"channel,omitempty"`
	Duration       string  `json:"duration,omitempty"`
	Views          int     `json:"views,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

type resultsEnvelope struct {
	JobID  string                 `json:"job_id"`
	Status Status                 `json:"status"`
	Result map[string]interface{} `json:"result"`
	Error  string                 `json:"error"`
}

// Results fetches and decodes the analysis outcome of a completed job. The
// backend keeps the payload opaque in its envelope, so the decode happens
// here, on the client side.
func (c *Client) Results(ctx context.Context, jobID string) (*AnalysisResult, error) {
	var envelope resultsEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", ResultsPath, jobID), &envelope); err != nil {
		return nil, err
	}

	if envelope.Result == nil {
		if envelope.Error != "" {
			return nil, fmt.Errorf("no result for job %s: %s", jobID, envelope.Error)
		}
		return nil, fmt.Errorf("no result for job %s (status %s)", jobID, envelope.Status)
	}

	var result AnalysisResult
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &result,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(envelope.Result); err != nil {
		return nil, fmt.Errorf("decoding result for job %s: %w", jobID, err)
	}

	return &result, nil
}

func (r *AnalysisResult) Len() int {
	return len(r.SkillGapRecommendations)
}

func (r *AnalysisResult) FindGapBySkill(name string) *SkillGapRecommendation {
	for _, rec := range r.SkillGapRecommendations {
		if rec.SkillGap.SkillName == name {
			return rec
		}
	}
	return nil
}

// MissingSkillNames lists required and preferred gaps in one slice, required
// first.
func (r *AnalysisResult) MissingSkillNames() []string {
	if r.SkillMatchAnalysis == nil {
		return nil
	}

	names := make([]string, 0, len(r.SkillMatchAnalysis.MissingRequiredSkills)+len(r.SkillMatchAnalysis.MissingPreferredSkills))
	names = append(names, r.SkillMatchAnalysis.MissingRequiredSkills...)
	names = append(names, r.SkillMatchAnalysis.MissingPreferredSkills...)

	return names
}

// RemoveGapByIndex removes a recommendation from the list by index. Does not preserve order.
func (r *AnalysisResult) RemoveGapByIndex(idx int) {
	r.SkillGapRecommendations[idx] = r.SkillGapRecommendations[len(r.SkillGapRecommendations)-1]
	r.SkillGapRecommendations = r.SkillGapRecommendations[:len(r.SkillGapRecommendations)-1]
}

// Report by skill gap.
func (r *AnalysisResult) ReportBySkill() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, rec := range r.SkillGapRecommendations {
		key := fmt.Sprintf("%s (%s)", rec.SkillGap.SkillName, rec.SkillGap.Priority)
		for _, project := range rec.RecommendedProjects {
			report[key] = append(report[key], map[string]string{
				"project":         project.Title,
				"difficulty":      project.Difficulty,
				"estimated hours": fmt.Sprintf("%d", project.EstimatedHours),
				"skills covered":  fmt.Sprintf("%v", project.SkillsCovered),
			})
		}
		for _, res := range rec.Resources() {
			report[key] = append(report[key], map[string]string{
				"resource": res.Title,
				"type":     res.Type,
				"url":      res.URL,
			})
		}
	}
	return report
}

func (r *AnalysisResult) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "analysis_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	return file.Name(), r.dump(file)
}

func (r *AnalysisResult) DumpToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	return r.dump(file)
}

func (r *AnalysisResult) dump(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

// Resources flattens the per-source resource lists into one slice.
func (rec *SkillGapRecommendation) Resources() []*Resource {
	resources := make([]*Resource, 0, len(rec.GithubResources)+len(rec.YoutubeResources)+len(rec.WebResources))
	resources = append(resources, rec.GithubResources...)
	resources = append(resources, rec.YoutubeResources...)
	resources = append(resources, rec.WebResources...)

	return resources
}
