package memory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

const (
	WelcomeMessage = "Welcome! I'm here to support you."
	trendWindowMax = 10
	trendTolerance = 0.1
	lastTopicRunes = 80
)

// SessionSummary describes the user's history for the start of a session.
// It also refreshes the user's profile in the remote store, best-effort.
func (s *Store) SessionSummary(ctx context.Context, userID domain.UserID) domain.SessionSummary {
	entries := s.Recall(ctx, userID, SummaryRecallLimit)
	now := s.now()
	summary := Summarize(entries, now)

	if !summary.NewUser && s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		defer cancel()
		if err := s.remote.UpsertProfile(rctx, summary.Profile(userID, now.UTC())); err != nil {
			observability.LoggerFromContext(ctx).Warn("could not upsert user profile", "user_id", userID, "err", err)
		}
	}
	return summary
}

// Summarize derives a summary from entries in chronological order.
func Summarize(entries []domain.MemoryEntry, now time.Time) domain.SessionSummary {
	if len(entries) == 0 {
		return domain.SessionSummary{NewUser: true, Message: WelcomeMessage}
	}

	counts := make(map[domain.Emotion]int)
	var order []domain.Emotion
	for _, e := range entries {
		if _, seen := counts[e.Emotion]; !seen {
			order = append(order, e.Emotion)
		}
		counts[e.Emotion]++
	}

	// Ties go to the emotion seen first in chronological order.
	dominant := order[0]
	for _, e := range order[1:] {
		if counts[e] > counts[dominant] {
			dominant = e
		}
	}

	trend, recentAvg := MoodTrend(entries)
	last := entries[len(entries)-1]
	lastSession := last.Timestamp

	return domain.SessionSummary{
		NewUser:             false,
		TotalInteractions:   len(entries),
		DominantEmotion:     dominant,
		EmotionDistribution: counts,
		MoodTrend:           trend,
		RecentAvgIntensity:  recentAvg,
		LastSession:         &lastSession,
		LastTopic:           truncateRunes(last.Message, lastTopicRunes),
		ContinuityPrompt:    ContinuityPrompt(last, now),
	}
}

// MoodTrend compares the mean intensity of the newest and oldest windows.
// Lower intensity counts as improvement. The window is min(10, n/2) so the
// two halves never overlap; with fewer than two entries the trend is similar.
func MoodTrend(entries []domain.MemoryEntry) (domain.MoodTrend, float64) {
	n := len(entries)
	if n == 0 {
		return domain.TrendSimilar, 0.5
	}
	if n < 2 {
		return domain.TrendSimilar, entries[0].EmotionIntensity
	}

	w := n / 2
	if w > trendWindowMax {
		w = trendWindowMax
	}

	recent := meanIntensity(entries[n-w:])
	older := meanIntensity(entries[:w])

	switch {
	case recent < older:
		return domain.TrendImproving, recent
	case math.Abs(recent-older) < trendTolerance:
		return domain.TrendSimilar, recent
	default:
		return domain.TrendStruggling, recent
	}
}

func meanIntensity(entries []domain.MemoryEntry) float64 {
	if len(entries) == 0 {
		return 0.5
	}
	var sum float64
	for _, e := range entries {
		sum += e.EmotionIntensity
	}
	return sum / float64(len(entries))
}

// ContinuityPrompt greets a returning user based on their last entry.
func ContinuityPrompt(last domain.MemoryEntry, now time.Time) string {
	ago := Recency(now.Sub(last.Timestamp))

	switch last.Emotion {
	case domain.EmotionSad:
		return fmt.Sprintf("I remember %s you were feeling down. How are things now?", ago)
	case domain.EmotionAnxious:
		return fmt.Sprintf("We talked about your anxiety %s. Have things shifted?", ago)
	case domain.EmotionLonely:
		return "Last time you shared feeling lonely. How's your heart today?"
	case domain.EmotionAngry:
		return fmt.Sprintf("You were processing some anger %s. Where are you with that now?", ago)
	case domain.EmotionHappy:
		return fmt.Sprintf("It's good to see you again! You seemed more positive %s. How are you feeling today?", ago)
	default:
		return fmt.Sprintf("Welcome back. How have you been since we last talked %s?", ago)
	}
}

// Recency renders an elapsed duration as a short phrase.
func Recency(d time.Duration) string {
	switch {
	case d < time.Hour:
		return "a little while ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	default:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
