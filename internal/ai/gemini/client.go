package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-pro"
	defaultMaxRetries = 2

	// Temporary failures are retried after this delay unless the API
	// suggests its own.
	defaultRetryDelay = 2 * time.Second
	// Suggested delays beyond this are not worth waiting out in an
	// interactive session.
	maxRetryDelay = 30 * time.Second
)

var sleep = time.Sleep

// Quota errors mention the suggested pause in their message.
var retryDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9.]+) ?s`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	client *genai.Client
}

func (c *genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.client.Chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Generator wraps the Google GenAI client to provide simple prompt-based
// interactions with bounded retries on temporary API failures.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		chats:      &genaiChats{client: client},
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// GenerateContent sends the message under the given system instruction and
// returns the first textual response. Temporary API failures are retried up
// to the configured attempt budget.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: system}},
		}
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		output, err := g.send(ctx, config, message)
		if err == nil {
			return output, nil
		}
		lastErr = err

		delay, retriable := retryDelay(err)
		if !retriable || attempt == g.maxRetries {
			break
		}

		g.logger.Debug("retrying gemini request",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		sleep(delay)
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, message string) (string, error) {
	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", err
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", err
	}

	output := collectText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// retryDelay classifies an API failure. Server-side errors are retried
// after the default delay. Quota errors are retried only when the suggested
// pause is short enough for an interactive run.
func retryDelay(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		delay := suggestedDelay(apiErr.Message)
		if delay == 0 {
			delay = defaultRetryDelay
		}
		if delay > maxRetryDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return defaultRetryDelay, true
	default:
		return 0, false
	}
}

func suggestedDelay(message string) time.Duration {
	match := retryDelayPattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return 0
	}

	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}
