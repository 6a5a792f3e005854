package agentflow

import (
	"context"

	"github.com/PabloGalante/solace/internal/app/emotion"
	"github.com/PabloGalante/solace/internal/app/therapy"
	"github.com/PabloGalante/solace/internal/observability"
)

// PlannerAgent advances the conversation state and drafts the rule-based reply.
type PlannerAgent struct{}

func NewPlannerAgent() *PlannerAgent {
	return &PlannerAgent{}
}

func (a *PlannerAgent) Name() string {
	return "planner"
}

func (a *PlannerAgent) Run(ctx context.Context, turn *Turn) error {
	tc := turn.Input.Context
	res := &turn.Result

	mode := therapy.Advance(tc, res.Emotion, res.Intensity, res.Distortions)
	iv := therapy.SelectFramework(res.Emotion, turn.Input.Text, tc.ConversationDepth)

	turn.Draft = therapy.ComposeResponse(tc, res.Distortions, iv)

	res.Response = turn.Draft
	res.Mode = mode
	res.Phase = tc.Phase
	res.Depth = tc.ConversationDepth
	res.Intervention = &iv
	res.Techniques = therapy.SuggestTechniques(res.Emotion)
	res.Coping = emotion.CopingSuggestion(res.Emotion, tc.ConversationDepth-1)
	res.VoiceTone = therapy.VoiceToneFor(res.Emotion, res.Intensity)

	observability.ModesTotal.WithLabelValues(string(mode)).Inc()
	observability.LoggerFromContext(ctx).Info("turn planned",
		"session_id", turn.Input.SessionID,
		"emotion", res.Emotion,
		"mode", mode,
		"framework", iv.Framework,
		"depth", tc.ConversationDepth,
	)
	return nil
}
