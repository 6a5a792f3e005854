package domain

import "time"

type SessionID string
type UserID string
type MessageID string

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type Timestamp = time.Time

// Emotion is a discrete label assigned to a single turn.
type Emotion string

const (
	EmotionSad     Emotion = "sad"
	EmotionAnxious Emotion = "anxious"
	EmotionLonely  Emotion = "lonely"
	EmotionAngry   Emotion = "angry"
	EmotionHappy   Emotion = "happy"
	EmotionTired   Emotion = "tired"
	EmotionNeutral Emotion = "neutral"

	// Labels the classifier never emits but the selectors accept.
	EmotionWorried     Emotion = "worried"
	EmotionStressed    Emotion = "stressed"
	EmotionFrustrated  Emotion = "frustrated"
	EmotionIrritated   Emotion = "irritated"
	EmotionUnmotivated Emotion = "unmotivated"
	EmotionHopeless    Emotion = "hopeless"
	EmotionOverwhelmed Emotion = "overwhelmed"
	EmotionDepressed   Emotion = "depressed"

	// EmotionCrisis is only reported on turns short-circuited by the crisis gate.
	EmotionCrisis Emotion = "crisis"
)

// TherapyMode selects the response style of a turn.
type TherapyMode string

const (
	ModeSupportive      TherapyMode = "supportive"       // Empathy and validation
	ModeCBT             TherapyMode = "cbt"              // Challenge thoughts
	ModeDBT             TherapyMode = "dbt"              // Emotion regulation
	ModeMotivational    TherapyMode = "motivational"     // Motivational interviewing
	ModeSolutionFocused TherapyMode = "solution_focused" // Solutions, not problems
)

// SessionPhase is the phase of a conversation.
type SessionPhase string

const (
	PhaseGreeting      SessionPhase = "greeting"
	PhaseAssessment    SessionPhase = "assessment"
	PhaseExploration   SessionPhase = "exploration"
	PhaseIntervention  SessionPhase = "intervention"
	PhaseConsolidation SessionPhase = "consolidation"
	PhaseClosing       SessionPhase = "closing"
)

// Distortion is a cognitive-distortion family.
type Distortion string

const (
	DistortionAllOrNothing       Distortion = "all_or_nothing"
	DistortionOvergeneralization Distortion = "overgeneralization"
	DistortionCatastrophizing    Distortion = "catastrophizing"
	DistortionShouldStatements   Distortion = "should_statements"
	DistortionEmotionalReasoning Distortion = "emotional_reasoning"
)

// Framework is a therapeutic framework layered on top of a TherapyMode.
type Framework string

const (
	FrameworkACT       Framework = "act"       // Acceptance and commitment
	FrameworkSchema    Framework = "schema"    // Schema-focused
	FrameworkNarrative Framework = "narrative" // Externalizing the problem
	FrameworkSFBT      Framework = "sfbt"      // Solution-focused brief therapy
	FrameworkCFT       Framework = "cft"       // Compassion-focused
)

// Schema is an early maladaptive schema detected from the user's language.
type Schema string

const (
	SchemaAbandonment          Schema = "abandonment"
	SchemaDefectiveness        Schema = "defectiveness"
	SchemaFailure              Schema = "failure"
	SchemaMistrust             Schema = "mistrust"
	SchemaSubjugation          Schema = "subjugation"
	SchemaUnrelentingStandards Schema = "unrelenting_standards"
)

// MoodTrend compares recent and older emotion intensity.
type MoodTrend string

const (
	TrendImproving  MoodTrend = "improving"
	TrendSimilar    MoodTrend = "similar"
	TrendStruggling MoodTrend = "struggling"
)
