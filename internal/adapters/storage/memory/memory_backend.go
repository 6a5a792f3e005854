package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/solace/internal/domain"
)

// MemoryBackend is an in-process domain.MemoryBackend. Useful for local runs
// where a remote log is wanted without external services.
type MemoryBackend struct {
	mu       sync.RWMutex
	entries  map[domain.UserID][]domain.MemoryEntry
	profiles map[domain.UserID]domain.UserProfile
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries:  make(map[domain.UserID][]domain.MemoryEntry),
		profiles: make(map[domain.UserID]domain.UserProfile),
	}
}

func (b *MemoryBackend) SaveMemory(_ context.Context, entry *domain.MemoryEntry) error {
	if entry == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[entry.UserID] = append(b.entries[entry.UserID], *entry)
	return nil
}

func (b *MemoryBackend) RecentMemories(_ context.Context, userID domain.UserID, limit int) ([]*domain.MemoryEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := b.entries[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]*domain.MemoryEntry, 0, len(entries))
	for i := range entries {
		e := entries[i]
		out = append(out, &e)
	}
	return out, nil
}

func (b *MemoryBackend) UpsertProfile(_ context.Context, profile *domain.UserProfile) error {
	if profile == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.profiles[profile.UserID] = *profile
	return nil
}

// GetProfile returns nil without error for unknown users.
func (b *MemoryBackend) GetProfile(_ context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
