package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

const (
	DefaultRecallLimit   = 10
	SummaryRecallLimit   = 50
	DefaultCacheLimit    = 100
	defaultRemoteTimeout = 3 * time.Second
	anonymousIDLen       = 16
)

// Options configures a Store.
type Options struct {
	// CachePath is the local cache file. Empty keeps the cache in memory.
	CachePath string
	// CacheLimit caps memories, breakthroughs and concerns per user.
	CacheLimit    int
	RemoteTimeout time.Duration
	// Now is the clock used to stamp entries. Defaults to time.Now.
	Now func() time.Time
}

// Store is the long-term memory of every user: a remote backend when one is
// configured plus a local cache that always receives every write.
type Store struct {
	remote        domain.MemoryBackend
	cache         *localCache
	remoteTimeout time.Duration
	now           func() time.Time
}

// NewStore builds a store. remote may be nil; the store then runs local-only.
func NewStore(remote domain.MemoryBackend, opts Options) *Store {
	if opts.CacheLimit <= 0 {
		opts.CacheLimit = DefaultCacheLimit
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = defaultRemoteTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		remote:        remote,
		cache:         loadLocalCache(opts.CachePath, opts.CacheLimit),
		remoteTimeout: opts.RemoteTimeout,
		now:           opts.Now,
	}
}

// Remember appends the entry. It returns true only when the remote write
// succeeded; the local cache is written either way.
func (s *Store) Remember(ctx context.Context, entry domain.MemoryEntry) bool {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	logger := observability.LoggerFromContext(ctx).With(
		"user_id", entry.UserID,
		"session_id", entry.SessionID,
	)

	savedRemote := false
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		err := s.remote.SaveMemory(rctx, &entry)
		cancel()
		if err != nil {
			logger.Warn("remote memory write failed, keeping local copy", "err", err)
			observability.MemoryWrites.WithLabelValues("remote", "error").Inc()
		} else {
			savedRemote = true
			observability.MemoryWrites.WithLabelValues("remote", "ok").Inc()
		}
	} else {
		observability.MemoryWrites.WithLabelValues("remote", "skipped").Inc()
	}

	if err := s.cache.appendEntry(entry); err != nil {
		logger.Error("could not persist local memory cache", "err", err)
		observability.MemoryWrites.WithLabelValues("local", "error").Inc()
	} else {
		observability.MemoryWrites.WithLabelValues("local", "ok").Inc()
	}

	return savedRemote
}

// RememberLocal writes only to the local cache.
func (s *Store) RememberLocal(ctx context.Context, entry domain.MemoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	if err := s.cache.appendEntry(entry); err != nil {
		observability.LoggerFromContext(ctx).Error("could not persist local memory cache",
			"user_id", entry.UserID, "err", err)
		observability.MemoryWrites.WithLabelValues("local", "error").Inc()
		return
	}
	observability.MemoryWrites.WithLabelValues("local", "ok").Inc()
}

// Recall returns up to limit of the user's most recent entries, oldest first.
// The remote store wins when it answers with data; otherwise the local cache
// is used. It never fails.
func (s *Store) Recall(ctx context.Context, userID domain.UserID, limit int) []domain.MemoryEntry {
	if limit <= 0 {
		limit = DefaultRecallLimit
	}

	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		entries, err := s.remote.RecentMemories(rctx, userID, limit)
		cancel()
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("remote memory read failed, using local cache",
				"user_id", userID, "err", err)
		} else if len(entries) > 0 {
			observability.MemoryRecalls.WithLabelValues("remote").Inc()
			out := make([]domain.MemoryEntry, 0, len(entries))
			for _, e := range entries {
				if e != nil {
					out = append(out, *e)
				}
			}
			if len(out) > limit {
				out = out[len(out)-limit:]
			}
			return out
		}
	}

	observability.MemoryRecalls.WithLabelValues("local").Inc()
	return s.cache.recent(userID, limit)
}

// TrackBreakthrough records an insight outside of a turn.
func (s *Store) TrackBreakthrough(ctx context.Context, userID domain.UserID, text string) {
	if err := s.cache.addBreakthrough(userID, text, s.now().UTC()); err != nil {
		observability.LoggerFromContext(ctx).Error("could not persist breakthrough", "user_id", userID, "err", err)
	}
}

// TrackConcern records an issue to revisit.
func (s *Store) TrackConcern(ctx context.Context, userID domain.UserID, text string) {
	if err := s.cache.addConcern(userID, text, s.now().UTC()); err != nil {
		observability.LoggerFromContext(ctx).Error("could not persist concern", "user_id", userID, "err", err)
	}
}

// ResolveConcern marks a concern as resolved. It reports whether an open
// concern with that text existed.
func (s *Store) ResolveConcern(ctx context.Context, userID domain.UserID, text string) bool {
	found, err := s.cache.resolveConcern(userID, text)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("could not persist resolved concern", "user_id", userID, "err", err)
	}
	return found
}

// Progress returns the user's breakthroughs and concerns.
func (s *Store) Progress(userID domain.UserID) domain.Progress {
	return s.cache.progress(userID)
}

// Profile returns the user's profile from the remote store, or derives one
// from the local history when the remote has none. It returns nil for users
// without history.
func (s *Store) Profile(ctx context.Context, userID domain.UserID) *domain.UserProfile {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		p, err := s.remote.GetProfile(rctx, userID)
		cancel()
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("remote profile read failed, deriving locally",
				"user_id", userID, "err", err)
		} else if p != nil {
			return p
		}
	}

	now := s.now()
	summary := Summarize(s.Recall(ctx, userID, SummaryRecallLimit), now)
	if summary.NewUser {
		return nil
	}
	return summary.Profile(userID, now.UTC())
}

// AnonymousUserID derives a stable user id from a session token. The token
// cannot be recovered from the result.
func AnonymousUserID(token string) domain.UserID {
	sum := sha256.Sum256([]byte(token))
	return domain.UserID(hex.EncodeToString(sum[:])[:anonymousIDLen])
}
