package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/solace/internal/adapters/storage/redis"
	"github.com/PabloGalante/solace/internal/domain"
)

func newBackend(t *testing.T, maxEntries int) *redis.MemoryBackend {
	t.Helper()
	addr := os.Getenv("SOLACE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SOLACE_TEST_REDIS_ADDR not set")
	}

	b, err := redis.New(redis.Config{Addr: addr, Prefix: "solace-test-" + uuid.NewString(), MaxEntries: maxEntries})
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestNew_RequiresAddr(t *testing.T) {
	if _, err := redis.New(redis.Config{}); err == nil {
		t.Fatalf("expected an error without address")
	}
}

func TestMemoryBackend_RecentIsChronological(t *testing.T) {
	b := newBackend(t, 0)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, msg := range []string{"first", "second", "third"} {
		e := &domain.MemoryEntry{UserID: "u1", Message: msg, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if err := b.SaveMemory(ctx, e); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	recent, err := b.RecentMemories(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Message != "second" || recent[1].Message != "third" {
		t.Fatalf("expected the last two entries oldest first, got %+v", recent)
	}
}

func TestMemoryBackend_TrimsToMaxEntries(t *testing.T) {
	b := newBackend(t, 3)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		e := &domain.MemoryEntry{UserID: "u1", EmotionIntensity: float64(i), Timestamp: base.Add(time.Duration(i) * time.Second)}
		if err := b.SaveMemory(ctx, e); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	all, err := b.RecentMemories(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(all) != 3 || all[0].EmotionIntensity != 2 {
		t.Fatalf("expected the newest three entries, got %+v", all)
	}
}

func TestMemoryBackend_Profile(t *testing.T) {
	b := newBackend(t, 0)
	ctx := context.Background()

	if p, err := b.GetProfile(ctx, "u1"); err != nil || p != nil {
		t.Fatalf("expected no profile, got %+v %v", p, err)
	}

	want := &domain.UserProfile{UserID: "u1", TotalInteractions: 4, DominantEmotion: domain.EmotionSad}
	if err := b.UpsertProfile(ctx, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := b.GetProfile(ctx, "u1")
	if err != nil || got == nil || got.TotalInteractions != 4 || got.DominantEmotion != domain.EmotionSad {
		t.Fatalf("unexpected profile %+v %v", got, err)
	}
}
