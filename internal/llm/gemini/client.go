package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/telemetry"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 120 * time.Second
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.ChatModel on the Gemini API.
type Client struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewClient creates a Client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(client.Models, model, timeout), nil
}

func newClient(models contentGenerator, model string, timeout time.Duration) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{models: models, model: model, timeout: timeout}
}

// Provider returns "gemini".
func (c *Client) Provider() string { return "gemini" }

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Chat maps system messages to the system instruction and the rest to
// conversation turns, then makes one GenerateContent call.
func (c *Client) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if c == nil || c.models == nil {
		return "", errors.New("gemini client is not initialized")
	}
	system, contents := toContents(messages)
	if len(contents) == 0 {
		return "", errors.New("gemini request has no user content")
	}

	var cfg *genai.GenerateContentConfig
	if len(system) > 0 {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: system},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", llm.ErrEmptyResponse
	}
	logUsage(c.model, resp)
	return output, nil
}

func toContents(messages []llm.Message) ([]*genai.Part, []*genai.Content) {
	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		part := &genai.Part{Text: m.Content}
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, part)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
		}
	}
	return system, contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
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
		// Only the first candidate with text is used.
		if builder.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(builder.String())
}

func logUsage(model string, resp *genai.GenerateContentResponse) {
	fields := map[string]any{"provider": "gemini", "model": model}
	if u := resp.UsageMetadata; u != nil {
		fields["prompt_tokens"] = int(u.PromptTokenCount)
		fields["completion_tokens"] = int(u.CandidatesTokenCount)
		fields["total_tokens"] = int(u.TotalTokenCount)
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.ChatModel = (*Client)(nil)
