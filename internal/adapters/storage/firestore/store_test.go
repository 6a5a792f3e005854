package firestore_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/solace/internal/adapters/storage/firestore"
	"github.com/PabloGalante/solace/internal/domain"
)

// newEmulatorStore connects to the Firestore emulator; the tests are skipped
// when FIRESTORE_EMULATOR_HOST is not set.
func newEmulatorStore(t *testing.T) *firestore.Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	store, err := firestore.NewStore(context.Background(), "solace-test")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore_RequiresProject(t *testing.T) {
	if _, err := firestore.NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected an error without project id")
	}
}

func TestSessionsAndMessages(t *testing.T) {
	store := newEmulatorStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	id := domain.SessionID(uuid.NewString())
	session := &domain.Session{ID: id, UserID: "u1", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	session.EndedAt = now.Add(time.Minute)
	if err := store.UpdateSession(ctx, session); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetSession(ctx, id)
	if err != nil || !got.Ended() {
		t.Fatalf("expected ended session, got %+v %v", got, err)
	}

	if _, err := store.GetSession(ctx, "missing-"+id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	for i, text := range []string{"a", "b", "c"} {
		msg := &domain.Message{
			ID:        domain.MessageID(uuid.NewString()),
			SessionID: id,
			Author:    domain.RoleUser,
			Text:      text,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := store.GetMessagesBySession(ctx, id, 2)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "b" || msgs[1].Text != "c" {
		t.Fatalf("expected last two messages oldest first, got %+v", msgs)
	}
}

func TestMemoryBackend(t *testing.T) {
	store := newEmulatorStore(t)
	ctx := context.Background()
	user := domain.UserID(uuid.NewString())
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, intensity := range []float64{0.8, 0.6, 0.4} {
		entry := &domain.MemoryEntry{
			UserID:           user,
			Emotion:          domain.EmotionAnxious,
			EmotionIntensity: intensity,
			Timestamp:        base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveMemory(ctx, entry); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	recent, err := store.RecentMemories(ctx, user, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].EmotionIntensity != 0.6 || recent[1].EmotionIntensity != 0.4 {
		t.Fatalf("expected last two entries oldest first, got %+v", recent)
	}

	if p, err := store.GetProfile(ctx, user); err != nil || p != nil {
		t.Fatalf("expected no profile, got %+v %v", p, err)
	}
	profile := &domain.UserProfile{
		UserID:            user,
		TotalInteractions: 3,
		DominantEmotions:  map[domain.Emotion]int{domain.EmotionAnxious: 3},
		MoodTrend:         domain.TrendImproving,
	}
	if err := store.UpsertProfile(ctx, profile); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p, err := store.GetProfile(ctx, user)
	if err != nil || p == nil || p.DominantEmotions[domain.EmotionAnxious] != 3 {
		t.Fatalf("unexpected profile %+v %v", p, err)
	}
}
