package interviews

import (
	"context"
	"strings"
	"sync"

	"interview-backend/internal/extract"
	"interview-backend/internal/llm"
	"interview-backend/internal/questions"
)

type fakeChatModel struct {
	mu       sync.Mutex
	calls    [][]llm.Message
	response string
	err      error
}

func (f *fakeChatModel) Chat(_ context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	return f.response, f.err
}

func (f *fakeChatModel) Provider() string { return "fake" }
func (f *fakeChatModel) Model() string    { return "fake-chat" }

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type countingExtractor struct {
	inner TextExtractor
	calls int
}

func (c *countingExtractor) Extract(ctx context.Context, fileName string, data []byte) (extract.Result, error) {
	c.calls++
	return c.inner.Extract(ctx, fileName, data)
}

type stubExtractor struct {
	result extract.Result
	err    error
}

func (s stubExtractor) Extract(context.Context, string, []byte) (extract.Result, error) {
	return s.result, s.err
}

// longText returns a resume-like text of at least n characters.
func longText(n int) string {
	const line = "Senior Go engineer with ten years of distributed systems experience. "
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(line)
	}
	return b.String()
}

func newTestPipeline(model *fakeChatModel, opts ...Option) (*Pipeline, *countingExtractor) {
	ex := &countingExtractor{inner: extract.New()}
	return NewPipeline(ex, questions.NewService(model), DefaultGates(), opts...), ex
}
