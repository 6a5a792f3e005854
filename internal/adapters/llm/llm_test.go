package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PabloGalante/solace/internal/adapters/llm"
	"github.com/PabloGalante/solace/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	convCtx := domain.ConversationContext{
		Mode:      domain.ModeCBT,
		Emotion:   domain.EmotionAnxious,
		Framework: domain.FrameworkACT,
		Draft:     "I hear you. What evidence supports this thought?",
		History: []*domain.Message{
			{Author: domain.RoleAgent, Text: "Hello! How are you feeling today?"},
			{Author: domain.RoleUser, Text: "I'm worried about exams"},
		},
	}

	p := llm.BuildPrompt("I'm worried about exams", convCtx)

	if !strings.Contains(p.System, "Mode: cbt") || !strings.Contains(p.System, "feeling anxious") {
		t.Fatalf("system prompt misses mode or emotion: %q", p.System)
	}
	if !strings.Contains(p.User, "assistant: Hello!") {
		t.Fatalf("expected prior history in user content: %q", p.User)
	}
	if strings.Count(p.User, "I'm worried about exams") != 1 {
		t.Fatalf("current message should appear once: %q", p.User)
	}
	if !strings.Contains(p.User, "Draft reply:\n"+convCtx.Draft) {
		t.Fatalf("expected draft in user content: %q", p.User)
	}
}

func TestBuildSystemPrompt_DefaultsToSupportive(t *testing.T) {
	system := llm.BuildSystemPrompt(domain.ConversationContext{})
	if !strings.Contains(system, "Mode: supportive") || !strings.Contains(system, "feeling neutral") {
		t.Fatalf("unexpected default system prompt: %q", system)
	}
}

func TestMockLLM(t *testing.T) {
	reply, err := llm.NewMockLLM().GenerateReply(context.Background(), "hi", domain.ConversationContext{Draft: "draft"})
	if err != nil || !strings.HasSuffix(reply, "draft") {
		t.Fatalf("unexpected mock reply %q %v", reply, err)
	}
}

type stubClient struct {
	reply string
	err   error
	calls int
}

func (s *stubClient) GenerateReply(context.Context, string, domain.ConversationContext) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestChain(t *testing.T) {
	failing := &stubClient{err: errors.New("down")}
	empty := &stubClient{reply: "  "}
	working := &stubClient{reply: "hello"}
	unused := &stubClient{reply: "never"}

	chain := llm.NewChain(
		llm.Named{Name: "a", Client: failing},
		llm.Named{Name: "b", Client: empty},
		llm.Named{Name: "c", Client: working},
		llm.Named{Name: "d", Client: unused},
	)

	reply, err := chain.GenerateReply(context.Background(), "hi", domain.ConversationContext{})
	if err != nil || reply != "hello" {
		t.Fatalf("expected reply from third provider, got %q %v", reply, err)
	}
	if unused.calls != 0 {
		t.Fatalf("providers after the first success must not be called")
	}
}

func TestChain_AllFail(t *testing.T) {
	chain := llm.NewChain(llm.Named{Name: "a", Client: &stubClient{err: errors.New("down")}})
	if _, err := chain.GenerateReply(context.Background(), "hi", domain.ConversationContext{}); err == nil {
		t.Fatalf("expected an error")
	}

	if _, err := llm.NewChain().GenerateReply(context.Background(), "hi", domain.ConversationContext{}); err == nil {
		t.Fatalf("expected an error for an empty chain")
	}
}

func TestOpenAIClient(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " That sounds hard. "}}]
		}`))
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "test-model"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	reply, err := client.GenerateReply(context.Background(), "I feel lonely", domain.ConversationContext{
		Mode:    domain.ModeSupportive,
		Emotion: domain.EmotionLonely,
		History: []*domain.Message{{Author: domain.RoleUser, Text: "I feel lonely"}},
	})
	if err != nil {
		t.Fatalf("GenerateReply failed: %v", err)
	}
	if reply != "That sounds hard." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if got.Model != "test-model" || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestOpenAIClient_RequiresKey(t *testing.T) {
	if _, err := llm.NewOpenAIClient(llm.OpenAIConfig{}); err == nil {
		t.Fatalf("expected an error without api key")
	}
}

func TestVertexClient_RequiresCredentials(t *testing.T) {
	if _, err := llm.NewVertexClient(context.Background(), llm.VertexConfig{}); err == nil {
		t.Fatalf("expected an error without credentials")
	}
}
