package agentflow

import (
	"context"

	"github.com/PabloGalante/solace/internal/app/therapy"
	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// ReflectorAgent closes the turn: it picks out insights and concerns and
// hands the turn to long-term memory.
type ReflectorAgent struct {
	memory MemorySink
}

func NewReflectorAgent(memory MemorySink) *ReflectorAgent {
	return &ReflectorAgent{memory: memory}
}

func (a *ReflectorAgent) Name() string {
	return "reflector"
}

func (a *ReflectorAgent) Run(ctx context.Context, turn *Turn) error {
	res := &turn.Result
	res.Breakthroughs = therapy.DetectBreakthroughs(turn.Input.Text)
	res.Concerns = therapy.DetectConcerns(turn.Input.Text, res.Emotion)

	if a.memory == nil {
		return nil
	}

	patterns := make([]string, 0, len(res.Distortions))
	for _, d := range res.Distortions {
		patterns = append(patterns, string(d))
	}

	a.memory.Enqueue(ctx, domain.MemoryEntry{
		SessionID:        turn.Input.SessionID,
		UserID:           turn.Input.UserID,
		Message:          turn.Input.Text,
		Emotion:          res.Emotion,
		EmotionIntensity: res.Intensity,
		TherapyMode:      res.Mode,
		DetectedPatterns: patterns,
		Breakthroughs:    nonNil(res.Breakthroughs),
		Concerns:         nonNil(res.Concerns),
	})

	observability.LoggerFromContext(ctx).Debug("turn remembered",
		"session_id", turn.Input.SessionID,
		"breakthroughs", len(res.Breakthroughs),
		"concerns", len(res.Concerns),
	)
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
