package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

// Instruction is the user turn sent after the extracted document text.
const Instruction = "Generate customized interview questions."

// ErrGeneration wraps every failure of the chat-model call.
var ErrGeneration = errors.New("question generation failed")

// Messages builds the conversation for one document: the text as the
// system message, then the fixed instruction.
func Messages(text string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: text},
		{Role: llm.RoleUser, Content: Instruction},
	}
}

// Service turns extracted document text into interview questions.
type Service struct {
	model llm.ChatModel
}

// NewService returns a Service backed by model.
func NewService(model llm.ChatModel) *Service {
	return &Service{model: model}
}

// Generate makes exactly one chat call. It does not retry.
func (s *Service) Generate(ctx context.Context, text string) (string, error) {
	if s == nil || s.model == nil {
		return "", fmt.Errorf("%w: no chat model configured", ErrGeneration)
	}
	provider, model := llm.Describe(s.model)

	start := time.Now()
	out, err := s.model.Chat(ctx, Messages(text))
	metrics.ObserveGenerationDurationMs(metrics.SinceMillis(start))
	if err != nil {
		metrics.IncGenerationFailed()
		telemetry.Error("questions.generate.failed", map[string]any{
			"provider": provider,
			"model":    model,
			"error":    err,
		})
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		metrics.IncGenerationFailed()
		return "", fmt.Errorf("%w: %w", ErrGeneration, llm.ErrEmptyResponse)
	}
	return out, nil
}

// Model returns "provider/model" for run records, or "" when unknown.
func (s *Service) Model() string {
	if s == nil {
		return ""
	}
	provider, model := llm.Describe(s.model)
	switch {
	case provider == "":
		return model
	case model == "":
		return provider
	default:
		return provider + "/" + model
	}
}
