package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/solace/internal/domain"
)

// The memory log lives in top-level collections so it can be queried per user
// across sessions.
const (
	memoryCollection  = "memory_entries"
	profileCollection = "user_profiles"
)

type memoryDoc struct {
	Timestamp        time.Time `firestore:"timestamp"`
	SessionID        string    `firestore:"session_id"`
	UserID           string    `firestore:"user_id"`
	Message          string    `firestore:"message"`
	Emotion          string    `firestore:"emotion"`
	EmotionIntensity float64   `firestore:"emotion_intensity"`
	TherapyMode      string    `firestore:"therapy_mode"`
	DetectedPatterns []string  `firestore:"detected_patterns"`
	Breakthroughs    []string  `firestore:"breakthroughs"`
	Concerns         []string  `firestore:"concerns"`
}

type profileDoc struct {
	UpdatedAt          time.Time      `firestore:"updated_at"`
	TotalInteractions  int            `firestore:"total_interactions"`
	DominantEmotions   map[string]int `firestore:"dominant_emotions"`
	DominantEmotion    string         `firestore:"dominant_emotion"`
	MoodTrend          string         `firestore:"mood_trend"`
	RecentAvgIntensity float64        `firestore:"recent_avg_intensity"`
	LastSession        time.Time      `firestore:"last_session"`
	LastTopic          string         `firestore:"last_topic"`
}

func toMemoryDoc(e *domain.MemoryEntry) memoryDoc {
	return memoryDoc{
		Timestamp:        e.Timestamp,
		SessionID:        string(e.SessionID),
		UserID:           string(e.UserID),
		Message:          e.Message,
		Emotion:          string(e.Emotion),
		EmotionIntensity: e.EmotionIntensity,
		TherapyMode:      string(e.TherapyMode),
		DetectedPatterns: e.DetectedPatterns,
		Breakthroughs:    e.Breakthroughs,
		Concerns:         e.Concerns,
	}
}

func (d memoryDoc) toDomain() *domain.MemoryEntry {
	return &domain.MemoryEntry{
		Timestamp:        d.Timestamp,
		SessionID:        domain.SessionID(d.SessionID),
		UserID:           domain.UserID(d.UserID),
		Message:          d.Message,
		Emotion:          domain.Emotion(d.Emotion),
		EmotionIntensity: d.EmotionIntensity,
		TherapyMode:      domain.TherapyMode(d.TherapyMode),
		DetectedPatterns: d.DetectedPatterns,
		Breakthroughs:    d.Breakthroughs,
		Concerns:         d.Concerns,
	}
}

// ─────────────────────────────────────────
// MemoryBackend implementation
// ─────────────────────────────────────────

func (s *Store) SaveMemory(ctx context.Context, entry *domain.MemoryEntry) error {
	_, _, err := s.client.Collection(memoryCollection).Add(ctx, toMemoryDoc(entry))
	if err != nil {
		return fmt.Errorf("firestore SaveMemory: %w", err)
	}
	return nil
}

func (s *Store) RecentMemories(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MemoryEntry, error) {
	q := s.client.Collection(memoryCollection).
		Where("user_id", "==", string(userID)).
		OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.MemoryEntry{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore RecentMemories: %w", err)
		}

		var doc memoryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode memoryDoc: %w", err)
		}
		out = append(out, doc.toDomain())
	}

	reverse(out)
	return out, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	emotions := make(map[string]int, len(profile.DominantEmotions))
	for e, n := range profile.DominantEmotions {
		emotions[string(e)] = n
	}

	doc := profileDoc{
		UpdatedAt:          profile.UpdatedAt,
		TotalInteractions:  profile.TotalInteractions,
		DominantEmotions:   emotions,
		DominantEmotion:    string(profile.DominantEmotion),
		MoodTrend:          string(profile.MoodTrend),
		RecentAvgIntensity: profile.RecentAvgIntensity,
		LastSession:        profile.LastSession,
		LastTopic:          profile.LastTopic,
	}

	_, err := s.client.Collection(profileCollection).Doc(string(profile.UserID)).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore UpsertProfile: %w", err)
	}
	return nil
}

// GetProfile returns nil without error for unknown users.
func (s *Store) GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	snap, err := s.client.Collection(profileCollection).Doc(string(userID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	emotions := make(map[domain.Emotion]int, len(doc.DominantEmotions))
	for e, n := range doc.DominantEmotions {
		emotions[domain.Emotion(e)] = n
	}

	return &domain.UserProfile{
		UserID:             userID,
		UpdatedAt:          doc.UpdatedAt,
		TotalInteractions:  doc.TotalInteractions,
		DominantEmotions:   emotions,
		DominantEmotion:    domain.Emotion(doc.DominantEmotion),
		MoodTrend:          domain.MoodTrend(doc.MoodTrend),
		RecentAvgIntensity: doc.RecentAvgIntensity,
		LastSession:        doc.LastSession,
		LastTopic:          doc.LastTopic,
	}, nil
}
