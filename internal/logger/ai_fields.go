package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// WithAI derives the logger handed to the note drafting assistant, tagged
// with the provider and model plus any extra fields. Blank values are
// skipped and a nil logger falls back to a no-op one, so callers never need
// a nil check.
func WithAI(logger *zap.Logger, provider, model string, extra ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := make([]zap.Field, 0, 2+len(extra))
	if provider = strings.TrimSpace(provider); provider != "" {
		fields = append(fields, zap.String(FieldProvider, provider))
	}
	if model = strings.TrimSpace(model); model != "" {
		fields = append(fields, zap.String(FieldModel, model))
	}
	fields = append(fields, extra...)

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}
