package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/PabloGalante/solace/internal/domain"
)

const (
	memoryTable  = "memory_entries"
	profileTable = "user_profiles"
)

// Config holds Supabase connection configuration
type Config struct {
	URL    string
	APIKey string
}

// MemoryBackend implements domain.MemoryBackend on two Postgres tables
// exposed through PostgREST.
type MemoryBackend struct {
	client *supabase.Client
}

// New creates a new Supabase memory backend
func New(cfg Config) (*MemoryBackend, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &MemoryBackend{client: client}, nil
}

// memoryRow mirrors the memory_entries table.
type memoryRow struct {
	Timestamp        time.Time `json:"timestamp"`
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	Message          string    `json:"message"`
	Emotion          string    `json:"emotion"`
	EmotionIntensity float64   `json:"emotion_intensity"`
	TherapyMode      string    `json:"therapy_mode"`
	DetectedPatterns []string  `json:"detected_patterns"`
	Breakthroughs    []string  `json:"breakthroughs"`
	Concerns         []string  `json:"concerns"`
}

// profileRow mirrors the user_profiles table; user_id is the primary key.
type profileRow struct {
	UserID             string          `json:"user_id"`
	UpdatedAt          time.Time       `json:"updated_at"`
	TotalInteractions  int             `json:"total_interactions"`
	DominantEmotions   json.RawMessage `json:"dominant_emotions"`
	DominantEmotion    string          `json:"dominant_emotion"`
	MoodTrend          string          `json:"mood_trend"`
	RecentAvgIntensity float64         `json:"recent_avg_intensity"`
	LastSession        time.Time       `json:"last_session"`
	LastTopic          string          `json:"last_topic"`
}

func toMemoryRow(e *domain.MemoryEntry) memoryRow {
	return memoryRow{
		Timestamp:        e.Timestamp,
		SessionID:        string(e.SessionID),
		UserID:           string(e.UserID),
		Message:          e.Message,
		Emotion:          string(e.Emotion),
		EmotionIntensity: e.EmotionIntensity,
		TherapyMode:      string(e.TherapyMode),
		DetectedPatterns: orEmpty(e.DetectedPatterns),
		Breakthroughs:    orEmpty(e.Breakthroughs),
		Concerns:         orEmpty(e.Concerns),
	}
}

func (r memoryRow) toDomain() *domain.MemoryEntry {
	return &domain.MemoryEntry{
		Timestamp:        r.Timestamp,
		SessionID:        domain.SessionID(r.SessionID),
		UserID:           domain.UserID(r.UserID),
		Message:          r.Message,
		Emotion:          domain.Emotion(r.Emotion),
		EmotionIntensity: r.EmotionIntensity,
		TherapyMode:      domain.TherapyMode(r.TherapyMode),
		DetectedPatterns: r.DetectedPatterns,
		Breakthroughs:    r.Breakthroughs,
		Concerns:         r.Concerns,
	}
}

func (b *MemoryBackend) SaveMemory(ctx context.Context, entry *domain.MemoryEntry) error {
	row := toMemoryRow(entry)
	return withContext(ctx, func() error {
		_, _, err := b.client.From(memoryTable).
			Insert(row, false, "", "minimal", "").
			Execute()
		if err != nil {
			return fmt.Errorf("supabase SaveMemory: %w", err)
		}
		return nil
	})
}

func (b *MemoryBackend) RecentMemories(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MemoryEntry, error) {
	var rows []memoryRow
	err := withContext(ctx, func() error {
		q := b.client.From(memoryTable).
			Select("*", "", false).
			Eq("user_id", string(userID)).
			Order("timestamp", &postgrest.OrderOpts{Ascending: false})
		if limit > 0 {
			q = q.Limit(limit, "")
		}
		if _, err := q.ExecuteTo(&rows); err != nil {
			return fmt.Errorf("supabase RecentMemories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.MemoryEntry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (b *MemoryBackend) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	row, err := toProfileRow(profile)
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		_, _, err := b.client.From(profileTable).
			Upsert(row, "user_id", "minimal", "").
			Execute()
		if err != nil {
			return fmt.Errorf("supabase UpsertProfile: %w", err)
		}
		return nil
	})
}

// GetProfile returns nil without error for unknown users.
func (b *MemoryBackend) GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	var rows []profileRow
	err := withContext(ctx, func() error {
		_, err := b.client.From(profileTable).
			Select("*", "", false).
			Eq("user_id", string(userID)).
			ExecuteTo(&rows)
		if err != nil {
			return fmt.Errorf("supabase GetProfile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain()
}

func toProfileRow(p *domain.UserProfile) (profileRow, error) {
	emotions, err := json.Marshal(p.DominantEmotions)
	if err != nil {
		return profileRow{}, fmt.Errorf("encode dominant emotions: %w", err)
	}
	return profileRow{
		UserID:             string(p.UserID),
		UpdatedAt:          p.UpdatedAt,
		TotalInteractions:  p.TotalInteractions,
		DominantEmotions:   emotions,
		DominantEmotion:    string(p.DominantEmotion),
		MoodTrend:          string(p.MoodTrend),
		RecentAvgIntensity: p.RecentAvgIntensity,
		LastSession:        p.LastSession,
		LastTopic:          p.LastTopic,
	}, nil
}

func (r profileRow) toDomain() (*domain.UserProfile, error) {
	emotions := map[domain.Emotion]int{}
	if len(r.DominantEmotions) > 0 && string(r.DominantEmotions) != "null" {
		if err := json.Unmarshal(r.DominantEmotions, &emotions); err != nil {
			return nil, fmt.Errorf("decode dominant emotions: %w", err)
		}
	}
	return &domain.UserProfile{
		UserID:             domain.UserID(r.UserID),
		UpdatedAt:          r.UpdatedAt,
		TotalInteractions:  r.TotalInteractions,
		DominantEmotions:   emotions,
		DominantEmotion:    domain.Emotion(r.DominantEmotion),
		MoodTrend:          domain.MoodTrend(r.MoodTrend),
		RecentAvgIntensity: r.RecentAvgIntensity,
		LastSession:        r.LastSession,
		LastTopic:          r.LastTopic,
	}, nil
}

// withContext bounds a PostgREST call, which does not take a context, by ctx.
// The call itself keeps running in the background after ctx expires.
func withContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
