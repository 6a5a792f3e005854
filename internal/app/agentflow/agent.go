package agentflow

import (
	"context"

	"github.com/PabloGalante/solace/internal/app/emotion"
	"github.com/PabloGalante/solace/internal/domain"
)

// Agent is one stage of a turn. Agents read and extend the shared Turn.
type Agent interface {
	Name() string
	Run(ctx context.Context, turn *Turn) error
}

// MemorySink receives the entries produced by finished turns.
type MemorySink interface {
	Enqueue(ctx context.Context, entry domain.MemoryEntry)
}

// TurnInput is everything the orchestrator needs for one user message.
type TurnInput struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Text      string
	// Context is the live state of the conversation; Run mutates it.
	Context *domain.TherapeuticContext
	History []*domain.Message
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	Response string `json:"response"`

	IsCrisis bool   `json:"is_crisis"`
	Severity string `json:"severity,omitempty"`
	Escalate bool   `json:"escalate,omitempty"`

	Emotion      domain.Emotion       `json:"emotion"`
	Intensity    float64              `json:"emotion_intensity"`
	Polarity     float64              `json:"polarity"`
	MoodLabel    string               `json:"mood_label,omitempty"`
	Mode         domain.TherapyMode   `json:"therapy_mode"`
	Phase        domain.SessionPhase  `json:"session_phase"`
	Depth        int                  `json:"conversation_depth"`
	Distortions  []domain.Distortion  `json:"detected_distortions"`
	Intervention *domain.Intervention `json:"intervention,omitempty"`
	Techniques   []string             `json:"suggested_techniques,omitempty"`
	Coping       string               `json:"coping_suggestion,omitempty"`
	VoiceTone    domain.VoiceTone     `json:"voice_tone"`

	Breakthroughs []string `json:"breakthroughs,omitempty"`
	Concerns      []string `json:"concerns,omitempty"`

	LLMUsed bool `json:"llm_used"`
}

// Turn is the working state passed between agents.
type Turn struct {
	Input  TurnInput
	Result TurnResult

	Analysis emotion.Result
	// Draft is the rule-based reply, kept even when an LLM rewrites it.
	Draft string
	// Done stops the remaining agents.
	Done bool
}
