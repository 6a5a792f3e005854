package progress_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PabloGalante/solace/internal/app/memory"
	"github.com/PabloGalante/solace/internal/app/progress"
	"github.com/PabloGalante/solace/internal/domain"
)

func TestGetUserProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil, memory.Options{})

	store.Remember(ctx, domain.MemoryEntry{
		UserID:        "u1",
		Timestamp:     time.Now(),
		Breakthroughs: []string{"I realize I can ask for help"},
		Concerns:      []string{"anxious about work"},
	})
	svc := progress.NewService(store)
	if err := svc.TrackConcern(ctx, "u1", "  sad about family "); err != nil {
		t.Fatalf("TrackConcern failed: %v", err)
	}

	if ok, err := svc.ResolveConcern(ctx, "u1", "anxious about work"); err != nil || !ok {
		t.Fatalf("expected concern to resolve, got %v %v", ok, err)
	}

	p, err := svc.GetUserProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserProgress failed: %v", err)
	}
	if len(p.Breakthroughs) != 1 || p.Breakthroughs[0].Text != "I realize I can ask for help" {
		t.Fatalf("unexpected breakthroughs %+v", p.Breakthroughs)
	}
	if len(p.Concerns) != 2 {
		t.Fatalf("expected two concerns, got %+v", p.Concerns)
	}
	if p.Concerns[0].Text != "sad about family" || p.Concerns[0].Resolved {
		t.Fatalf("open concerns should come first, got %+v", p.Concerns)
	}
	if !p.Concerns[1].Resolved {
		t.Fatalf("expected resolved concern last, got %+v", p.Concerns)
	}
}

func TestResolveConcern_Unknown(t *testing.T) {
	svc := progress.NewService(memory.NewStore(nil, memory.Options{}))

	ok, err := svc.ResolveConcern(context.Background(), "u1", "nothing like this")
	if err != nil || ok {
		t.Fatalf("expected no match, got %v %v", ok, err)
	}
}

func TestValidation(t *testing.T) {
	svc := progress.NewService(nil)
	ctx := context.Background()

	if _, err := svc.GetUserProgress(ctx, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.ResolveConcern(ctx, "u1", "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.TrackBreakthrough(ctx, "u1", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.GetUserProfile(ctx, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	p, err := svc.GetUserProgress(ctx, "u1")
	if err != nil || p.Breakthroughs == nil || p.Concerns == nil {
		t.Fatalf("expected empty progress, got %+v %v", p, err)
	}
}

func TestTrackBreakthrough(t *testing.T) {
	ctx := context.Background()
	svc := progress.NewService(memory.NewStore(nil, memory.Options{}))

	if err := svc.TrackBreakthrough(ctx, "u1", "I can set boundaries"); err != nil {
		t.Fatalf("TrackBreakthrough failed: %v", err)
	}

	p, _ := svc.GetUserProgress(ctx, "u1")
	if len(p.Breakthroughs) != 1 || p.Breakthroughs[0].Text != "I can set boundaries" {
		t.Fatalf("unexpected breakthroughs %+v", p.Breakthroughs)
	}
}

func TestGetUserProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil, memory.Options{})
	svc := progress.NewService(store)

	if p, err := svc.GetUserProfile(ctx, "u1"); err != nil || p != nil {
		t.Fatalf("expected no profile for a new user, got %+v %v", p, err)
	}

	store.Remember(ctx, domain.MemoryEntry{UserID: "u1", Message: "long week", Emotion: domain.EmotionTired, EmotionIntensity: 0.6})

	p, err := svc.GetUserProfile(ctx, "u1")
	if err != nil || p == nil {
		t.Fatalf("expected a derived profile, got %+v %v", p, err)
	}
	if p.TotalInteractions != 1 || p.DominantEmotion != domain.EmotionTired || p.LastTopic != "long week" {
		t.Fatalf("unexpected profile %+v", p)
	}
}
