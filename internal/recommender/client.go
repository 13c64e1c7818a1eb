package recommender

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "http://localhost:8000"
	userAgent      = "spigell/cv-recommender"

	// The health probe gets its own, much shorter deadline.
	defaultHealthTimeout = 5 * time.Second

	AnalyzePath = "/api/analyze"
	StatusPath  = "/api/status"
	ResultsPath = "/api/results"
	HealthPath  = "/api/health"
	StreamPath  = "/api/stream"
)

type Client struct {
	// token is optional. It is sent as a bearer header for deployments
	// behind an authenticating proxy.
	token         string
	logger        *zap.Logger
	HTTPClient    *http.Client
	UserAgent     string
	BaseURL       string
	HealthTimeout time.Duration
}

func New(logger *zap.Logger, baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		token:   token,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:        logger,
		UserAgent:     userAgent,
		HealthTimeout: defaultHealthTimeout,
	}
}
