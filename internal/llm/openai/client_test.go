package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"interview-backend/internal/llm"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	oldURL := apiURL
	apiURL = server.URL
	t.Cleanup(func() {
		apiURL = oldURL
		server.Close()
	})
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("key", " ", 0); err == nil {
		t.Fatalf("expected error for empty model")
	}
	if _, err := NewClient("", "gpt-4o-mini", 0); err == nil {
		t.Fatalf("expected error for empty api key")
	}
	client, err := NewClient("key", "gpt-4o-mini", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.httpClient.Timeout != defaultTimeout {
		t.Fatalf("timeout = %v, want %v", client.httpClient.Timeout, defaultTimeout)
	}
	if client.Provider() != "openai" || client.Model() != "gpt-4o-mini" {
		t.Fatalf("unexpected identity %s/%s", client.Provider(), client.Model())
	}
}

func TestChatSendsMessagesInOrder(t *testing.T) {
	var calls int32
	var got chatRequest
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  1. Tell me about Go.  "}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	client, err := NewClient("test-key", "gpt-4o-mini", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "resume text"},
		{Role: llm.RoleUser, Content: "Generate customized interview questions."},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != "1. Tell me about Go." {
		t.Fatalf("output = %q", out)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if got.Model != "gpt-4o-mini" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "resume text" {
		t.Fatalf("unexpected system message %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "Generate customized interview questions." {
		t.Fatalf("unexpected user message %+v", got.Messages[1])
	}
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusUnauthorized, body: `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`, wantErr: "openai error: Incorrect API key (invalid_request_error)"},
		{name: "non json status", status: http.StatusBadGateway, body: `upstream down`, wantErr: "openai status 502: upstream down"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "openai response parse"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "missing choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`, wantErr: "empty content"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			withServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			client, err := NewClient("test-key", "gpt-4o-mini", time.Second)
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = client.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Chat error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestChatEmptyContentIsErrEmptyResponse(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	})
	client, _ := NewClient("test-key", "gpt-4o-mini", time.Second)

	_, err := client.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestChatTimeout(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	})
	client, _ := NewClient("test-key", "gpt-4o-mini", 20*time.Millisecond)

	_, err := client.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "openai request timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestChatRejectsEmptyConversation(t *testing.T) {
	client, _ := NewClient("test-key", "gpt-4o-mini", time.Second)
	if _, err := client.Chat(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty conversation")
	}
}
