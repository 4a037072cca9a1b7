package llm

import (
	"context"
	"errors"
)

// Chat roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatModel is a chat-completion provider.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Usage holds the token counts a provider reports for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("llm response empty content")

// Describer is implemented by providers that can name themselves for logs
// and run records.
type Describer interface {
	Provider() string
	Model() string
}

// Describe returns provider and model for m, or empty strings when m does
// not implement Describer.
func Describe(m ChatModel) (provider, model string) {
	if d, ok := m.(Describer); ok {
		return d.Provider(), d.Model()
	}
	return "", ""
}
