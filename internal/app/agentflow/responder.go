package agentflow

import (
	"context"
	"strings"
	"time"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// ResponderAgent lets an LLM rewrite the draft. Any failure keeps the draft.
type ResponderAgent struct {
	llm     domain.LLMClient
	timeout time.Duration
}

func NewResponderAgent(llm domain.LLMClient, timeout time.Duration) *ResponderAgent {
	return &ResponderAgent{llm: llm, timeout: timeout}
}

func (a *ResponderAgent) Name() string {
	return "responder"
}

func (a *ResponderAgent) Run(ctx context.Context, turn *Turn) error {
	if a.llm == nil {
		return nil
	}

	log := observability.LoggerFromContext(ctx).With(
		"agent", a.Name(),
		"session_id", turn.Input.SessionID,
	)

	convCtx := domain.ConversationContext{
		SessionID:        turn.Input.SessionID,
		UserID:           turn.Input.UserID,
		Mode:             turn.Result.Mode,
		Emotion:          turn.Result.Emotion,
		Draft:            turn.Draft,
		CopingSuggestion: turn.Result.Coping,
		History:          turn.Input.History,
	}
	if turn.Result.Intervention != nil {
		convCtx.Framework = turn.Result.Intervention.Framework
	}

	lctx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := a.llm.GenerateReply(lctx, turn.Input.Text, convCtx)
	elapsed := time.Since(start)

	if err != nil {
		observability.LLMLatency.WithLabelValues("error").Observe(elapsed.Seconds())
		log.Warn("llm delegation failed, using rule-based reply", "error", err, "elapsed_ms", elapsed.Milliseconds())
		return nil
	}
	if strings.TrimSpace(reply) == "" {
		observability.LLMLatency.WithLabelValues("empty").Observe(elapsed.Seconds())
		log.Warn("llm returned an empty reply, using rule-based reply")
		return nil
	}

	observability.LLMLatency.WithLabelValues("ok").Observe(elapsed.Seconds())
	turn.Result.Response = strings.TrimSpace(reply)
	turn.Result.LLMUsed = true
	return nil
}
