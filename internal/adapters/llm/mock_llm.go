package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/solace/internal/domain"
)

// MockLLM echoes the draft back with a short preface. Used in local mode to
// exercise the delegation path without a provider.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(_ context.Context, userMessage string, convCtx domain.ConversationContext) (string, error) {
	if convCtx.Draft != "" {
		return "Thank you for sharing that with me. " + convCtx.Draft, nil
	}
	return fmt.Sprintf("I hear you. You said %q. Tell me a bit more about how that makes you feel.", userMessage), nil
}
