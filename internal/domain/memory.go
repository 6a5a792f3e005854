package domain

import "time"

// MemoryEntry is one processed turn in a user's long-term log.
// Entries are immutable once written.
type MemoryEntry struct {
	Timestamp        time.Time   `json:"timestamp"`
	SessionID        SessionID   `json:"session_id"`
	UserID           UserID      `json:"user_id"`
	Message          string      `json:"message"`
	Emotion          Emotion     `json:"emotion"`
	EmotionIntensity float64     `json:"emotion_intensity"`
	TherapyMode      TherapyMode `json:"therapy_mode"`
	DetectedPatterns []string    `json:"detected_patterns"`
	Breakthroughs    []string    `json:"breakthroughs"`
	Concerns         []string    `json:"concerns"`
}

// Breakthrough is a recorded therapeutic insight.
type Breakthrough struct {
	Text      string    `json:"breakthrough"`
	Timestamp time.Time `json:"timestamp"`
}

// Concern is an ongoing issue to revisit in later sessions.
type Concern struct {
	Text      string    `json:"concern"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// Progress groups the breakthroughs and concerns of a user.
type Progress struct {
	UserID        UserID         `json:"user_id"`
	Breakthroughs []Breakthrough `json:"breakthroughs"`
	Concerns      []Concern      `json:"concerns"`
}

// UserProfile is derived from the MemoryEntry log. The log stays authoritative.
type UserProfile struct {
	UserID             UserID          `json:"user_id"`
	UpdatedAt          time.Time       `json:"updated_at"`
	TotalInteractions  int             `json:"total_interactions"`
	DominantEmotions   map[Emotion]int `json:"dominant_emotions"`
	DominantEmotion    Emotion         `json:"dominant_emotion"`
	MoodTrend          MoodTrend       `json:"mood_trend"`
	RecentAvgIntensity float64         `json:"recent_avg_intensity"`
	LastSession        time.Time       `json:"last_session"`
	LastTopic          string          `json:"last_topic"`
}

// SessionSummary is the view of a user's history shown at session start.
type SessionSummary struct {
	NewUser             bool            `json:"new_user"`
	Message             string          `json:"message,omitempty"`
	TotalInteractions   int             `json:"total_interactions,omitempty"`
	DominantEmotion     Emotion         `json:"dominant_emotion,omitempty"`
	EmotionDistribution map[Emotion]int `json:"emotion_distribution,omitempty"`
	MoodTrend           MoodTrend       `json:"mood_trend,omitempty"`
	RecentAvgIntensity  float64         `json:"recent_avg_intensity,omitempty"`
	LastSession         *time.Time      `json:"last_session,omitempty"`
	LastTopic           string          `json:"last_topic,omitempty"`
	ContinuityPrompt    string          `json:"continuity_prompt,omitempty"`
}

// Profile converts a non-empty summary into the aggregate stored remotely.
func (s SessionSummary) Profile(userID UserID, now time.Time) *UserProfile {
	p := &UserProfile{
		UserID:             userID,
		UpdatedAt:          now,
		TotalInteractions:  s.TotalInteractions,
		DominantEmotions:   s.EmotionDistribution,
		DominantEmotion:    s.DominantEmotion,
		MoodTrend:          s.MoodTrend,
		RecentAvgIntensity: s.RecentAvgIntensity,
		LastTopic:          s.LastTopic,
	}
	if s.LastSession != nil {
		p.LastSession = *s.LastSession
	}
	return p
}
