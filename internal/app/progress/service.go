package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// Tracker is the part of the memory store that holds breakthroughs, concerns
// and the derived user profile.
type Tracker interface {
	Progress(userID domain.UserID) domain.Progress
	TrackBreakthrough(ctx context.Context, userID domain.UserID, text string)
	TrackConcern(ctx context.Context, userID domain.UserID, text string)
	ResolveConcern(ctx context.Context, userID domain.UserID, text string) bool
	Profile(ctx context.Context, userID domain.UserID) *domain.UserProfile
}

// Service holds the logic of reading and resolving a user's progress records.
type Service struct {
	tracker Tracker
}

// NewService creates a progress service from a Tracker.
func NewService(tracker Tracker) *Service {
	return &Service{
		tracker: tracker,
	}
}

// GetUserProgress returns the breakthroughs and concerns recorded for a user.
// Open concerns are listed before resolved ones.
func (s *Service) GetUserProgress(ctx context.Context, userID domain.UserID) (domain.Progress, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return domain.Progress{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	if s.tracker == nil {
		return emptyProgress(userID), nil
	}

	p := s.tracker.Progress(userID)
	p.UserID = userID
	if p.Breakthroughs == nil {
		p.Breakthroughs = []domain.Breakthrough{}
	}
	p.Concerns = openFirst(p.Concerns)

	observability.LoggerFromContext(ctx).Info("fetched user progress",
		"user_id", userID,
		"breakthroughs", len(p.Breakthroughs),
		"concerns", len(p.Concerns),
	)
	return p, nil
}

// ResolveConcern marks an open concern as resolved. It reports whether one
// matched.
func (s *Service) ResolveConcern(ctx context.Context, userID domain.UserID, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if strings.TrimSpace(string(userID)) == "" || text == "" {
		return false, fmt.Errorf("%w: user id and concern are required", domain.ErrInvalidInput)
	}
	if s.tracker == nil {
		return false, nil
	}

	found := s.tracker.ResolveConcern(ctx, userID, text)
	observability.LoggerFromContext(ctx).Info("resolve concern", "user_id", userID, "found", found)
	return found, nil
}

// TrackBreakthrough records an insight reported outside of a turn, e.g. from
// a journaling client.
func (s *Service) TrackBreakthrough(ctx context.Context, userID domain.UserID, text string) error {
	text = strings.TrimSpace(text)
	if strings.TrimSpace(string(userID)) == "" || text == "" {
		return fmt.Errorf("%w: user id and breakthrough are required", domain.ErrInvalidInput)
	}
	if s.tracker == nil {
		return nil
	}

	s.tracker.TrackBreakthrough(ctx, userID, text)
	observability.LoggerFromContext(ctx).Info("tracked breakthrough", "user_id", userID)
	return nil
}

// TrackConcern records an issue to revisit in later sessions.
func (s *Service) TrackConcern(ctx context.Context, userID domain.UserID, text string) error {
	text = strings.TrimSpace(text)
	if strings.TrimSpace(string(userID)) == "" || text == "" {
		return fmt.Errorf("%w: user id and concern are required", domain.ErrInvalidInput)
	}
	if s.tracker == nil {
		return nil
	}

	s.tracker.TrackConcern(ctx, userID, text)
	observability.LoggerFromContext(ctx).Info("tracked concern", "user_id", userID)
	return nil
}

// GetUserProfile returns the aggregate profile of a user, or nil when the
// user has no history.
func (s *Service) GetUserProfile(ctx context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if s.tracker == nil {
		return nil, nil
	}
	return s.tracker.Profile(ctx, userID), nil
}

func emptyProgress(userID domain.UserID) domain.Progress {
	return domain.Progress{
		UserID:        userID,
		Breakthroughs: []domain.Breakthrough{},
		Concerns:      []domain.Concern{},
	}
}

func openFirst(concerns []domain.Concern) []domain.Concern {
	out := make([]domain.Concern, 0, len(concerns))
	for _, c := range concerns {
		if !c.Resolved {
			out = append(out, c)
		}
	}
	for _, c := range concerns {
		if c.Resolved {
			out = append(out, c)
		}
	}
	return out
}
