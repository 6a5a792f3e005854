package agentflow

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/solace/internal/app/crisis"
	"github.com/PabloGalante/solace/internal/app/emotion"
	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// FallbackResponse is returned when a turn could not be processed at all.
const FallbackResponse = "I'm here with you, and I want to understand. Could you tell me a little more about how you're feeling right now?"

// Options configures the default agent chain.
type Options struct {
	Gate       *crisis.Gate
	Classifier *emotion.Classifier
	LLM        domain.LLMClient // optional
	LLMTimeout time.Duration
	Memory     MemorySink // optional
}

// Orchestrator is responsible for running multiple agents in sequence.
type Orchestrator struct {
	agents []Agent
}

// NewDefaultOrchestrator constructs the chain
// Crisis -> Listener -> Planner -> Responder -> Reflector.
func NewDefaultOrchestrator(opts Options) *Orchestrator {
	if opts.Gate == nil {
		opts.Gate = crisis.NewGate()
	}
	if opts.Classifier == nil {
		opts.Classifier = emotion.NewClassifier(nil)
	}
	return NewOrchestrator(
		NewCrisisAgent(opts.Gate),
		NewListenerAgent(opts.Classifier),
		NewPlannerAgent(),
		NewResponderAgent(opts.LLM, opts.LLMTimeout),
		NewReflectorAgent(opts.Memory),
	)
}

// NewOrchestrator builds an orchestrator from an explicit agent chain.
func NewOrchestrator(agents ...Agent) *Orchestrator {
	return &Orchestrator{agents: agents}
}

// Run executes the chain of agents sequentially. It always produces a
// response: an agent failure yields the generic supportive line.
func (o *Orchestrator) Run(ctx context.Context, in TurnInput) (result TurnResult) {
	if in.Context == nil {
		in.Context = domain.NewTherapeuticContext()
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", in.SessionID,
		"user_id", in.UserID,
	)

	turn := &Turn{Input: in}

	defer func() {
		if r := recover(); r != nil {
			log.Error("orchestrator panicked", "panic", fmt.Sprint(r))
			result = fallbackResult(in.Context)
			observability.TurnsTotal.WithLabelValues("fallback").Inc()
		}
	}()

	for _, ag := range o.agents {
		start := time.Now()
		if err := ag.Run(ctx, turn); err != nil {
			log.Error("agent failed", "agent", ag.Name(), "error", err)
			observability.TurnsTotal.WithLabelValues("fallback").Inc()
			return fallbackResult(in.Context)
		}
		log.Debug("agent run end", "agent", ag.Name(), "elapsed_ms", time.Since(start).Milliseconds())

		if turn.Done {
			break
		}
	}

	if turn.Result.Response == "" {
		observability.TurnsTotal.WithLabelValues("fallback").Inc()
		return fallbackResult(in.Context)
	}

	outcome := "normal"
	if turn.Result.IsCrisis {
		outcome = "crisis"
	}
	observability.TurnsTotal.WithLabelValues(outcome).Inc()
	return turn.Result
}

func fallbackResult(tc *domain.TherapeuticContext) TurnResult {
	res := TurnResult{
		Response:    FallbackResponse,
		Emotion:     domain.EmotionNeutral,
		Mode:        domain.ModeSupportive,
		Distortions: []domain.Distortion{},
		VoiceTone:   domain.VoiceTone{Pitch: 0, Speed: 1.0, Warmth: 0.8, Energy: 0.5},
	}
	if tc != nil {
		res.Phase = tc.Phase
		res.Depth = tc.ConversationDepth
	}
	return res
}
