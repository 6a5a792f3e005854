package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// Named pairs a provider with the name used in logs.
type Named struct {
	Name   string
	Client domain.LLMClient
}

// Chain tries each provider in order and returns the first non-empty reply.
type Chain struct {
	providers []Named
}

func NewChain(providers ...Named) *Chain {
	return &Chain{providers: providers}
}

// Len reports how many providers are configured.
func (c *Chain) Len() int {
	return len(c.providers)
}

func (c *Chain) GenerateReply(ctx context.Context, userMessage string, convCtx domain.ConversationContext) (string, error) {
	if len(c.providers) == 0 {
		return "", errors.New("no llm provider configured")
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		reply, err := p.Client.GenerateReply(ctx, userMessage, convCtx)
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply, nil
		}
		if err == nil {
			err = errors.New("empty reply")
		}

		observability.LoggerFromContext(ctx).Warn("llm provider failed, trying next",
			"provider", p.Name,
			"session_id", convCtx.SessionID,
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}
	return "", errors.Join(errs...)
}
