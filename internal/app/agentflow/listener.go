package agentflow

import (
	"context"

	"github.com/PabloGalante/solace/internal/app/crisis"
	"github.com/PabloGalante/solace/internal/app/emotion"
	"github.com/PabloGalante/solace/internal/app/therapy"
	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// CrisisAgent runs before everything else. On a match it answers with the
// safety response and stops the turn.
type CrisisAgent struct {
	gate *crisis.Gate
}

func NewCrisisAgent(gate *crisis.Gate) *CrisisAgent {
	return &CrisisAgent{gate: gate}
}

func (a *CrisisAgent) Name() string {
	return "crisis"
}

func (a *CrisisAgent) Run(ctx context.Context, turn *Turn) error {
	assessment := a.gate.Assess(turn.Input.Text)
	if !assessment.IsCrisis {
		return nil
	}

	// The message text is never logged for crisis turns.
	observability.LoggerFromContext(ctx).Warn("crisis detected",
		"session_id", turn.Input.SessionID,
		"user_id", turn.Input.UserID,
		"severity", assessment.Severity,
	)

	turn.Result = TurnResult{
		Response:  assessment.Response,
		IsCrisis:  true,
		Severity:  assessment.Severity,
		Escalate:  assessment.Escalate,
		Emotion:   domain.EmotionCrisis,
		VoiceTone: therapy.CrisisVoiceTone,
	}
	if turn.Input.Context != nil {
		turn.Result.Phase = turn.Input.Context.Phase
		turn.Result.Depth = turn.Input.Context.ConversationDepth
	}
	turn.Done = true
	return nil
}

// ListenerAgent reads the message: emotion, sentiment and distortions.
type ListenerAgent struct {
	classifier *emotion.Classifier
}

func NewListenerAgent(classifier *emotion.Classifier) *ListenerAgent {
	return &ListenerAgent{classifier: classifier}
}

func (a *ListenerAgent) Name() string {
	return "listener"
}

func (a *ListenerAgent) Run(ctx context.Context, turn *Turn) error {
	turn.Analysis = a.classifier.Classify(turn.Input.Text)
	turn.Result.Emotion = turn.Analysis.Emotion
	turn.Result.Intensity = turn.Analysis.Intensity
	turn.Result.Polarity = turn.Analysis.Polarity
	turn.Result.MoodLabel = turn.Analysis.MoodLabel
	turn.Result.Distortions = therapy.DetectDistortions(turn.Input.Text)
	if turn.Result.Distortions == nil {
		turn.Result.Distortions = []domain.Distortion{}
	}

	observability.EmotionsTotal.WithLabelValues(string(turn.Result.Emotion)).Inc()
	observability.LoggerFromContext(ctx).Debug("message analysed",
		"session_id", turn.Input.SessionID,
		"emotion", turn.Result.Emotion,
		"intensity", turn.Result.Intensity,
		"distortions", len(turn.Result.Distortions),
	)
	return nil
}
