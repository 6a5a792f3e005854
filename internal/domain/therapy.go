package domain

// TherapeuticContext is the live state of one conversation.
// It is owned by exactly one conversation and never shared.
type TherapeuticContext struct {
	CurrentEmotion        Emotion
	EmotionIntensity      float64 // 0-1
	Phase                 SessionPhase
	Mode                  TherapyMode
	IdentifiedDistortions []Distortion // append-only for the conversation's lifetime
	ConversationDepth     int          // turns processed so far
}

// NewTherapeuticContext returns the initial state of a conversation.
func NewTherapeuticContext() *TherapeuticContext {
	return &TherapeuticContext{
		CurrentEmotion:   EmotionNeutral,
		EmotionIntensity: 0.5,
		Phase:            PhaseGreeting,
		Mode:             ModeSupportive,
	}
}

// VoiceTone is a directive for an external speech synthesizer.
type VoiceTone struct {
	Pitch  float64 `json:"pitch"`  // -1 to 1
	Speed  float64 `json:"speed"`  // 0.5 to 2.0
	Warmth float64 `json:"warmth"` // 0 to 1
	Energy float64 `json:"energy"` // 0 to 1
}

// Intervention is a structured technique from a therapeutic framework.
type Intervention struct {
	Framework       Framework `json:"framework"`
	Technique       string    `json:"technique"`
	Prompt          string    `json:"prompt"`
	FollowUp        []string  `json:"follow_up"`
	ExpectedOutcome string    `json:"expected_outcome"`
}
