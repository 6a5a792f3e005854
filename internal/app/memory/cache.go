package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// userRecord is the per-user section of the cache file.
type userRecord struct {
	Memories      []domain.MemoryEntry  `json:"memories"`
	Breakthroughs []domain.Breakthrough `json:"breakthroughs"`
	Concerns      []domain.Concern      `json:"concerns"`
}

// localCache is a single JSON file shared by every session of the deployment.
// Every mutation is load-mutate-store under mu.
type localCache struct {
	mu    sync.Mutex
	path  string // empty = in-memory only
	limit int
	users map[domain.UserID]*userRecord
}

func loadLocalCache(path string, limit int) *localCache {
	c := &localCache{
		path:  path,
		limit: limit,
		users: make(map[domain.UserID]*userRecord),
	}
	if path == "" {
		return c
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			observability.Logger().Warn("could not read memory cache, starting empty", "path", path, "err", err)
		}
		return c
	}

	users := make(map[domain.UserID]*userRecord)
	if err := json.Unmarshal(data, &users); err != nil {
		observability.Logger().Warn("memory cache is corrupt, starting empty", "path", path, "err", err)
		return c
	}
	for id, rec := range users {
		if rec != nil {
			c.users[id] = rec
		}
	}
	return c
}

func (c *localCache) record(userID domain.UserID) *userRecord {
	rec, ok := c.users[userID]
	if !ok {
		rec = &userRecord{}
		c.users[userID] = rec
	}
	return rec
}

// appendEntry stores the entry with its breakthroughs and concerns.
// The in-memory state is updated even when persisting fails.
func (c *localCache) appendEntry(e domain.MemoryEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.record(e.UserID)
	rec.Memories = capTail(append(rec.Memories, e), c.limit)
	for _, b := range e.Breakthroughs {
		rec.Breakthroughs = capTail(append(rec.Breakthroughs, domain.Breakthrough{Text: b, Timestamp: e.Timestamp}), c.limit)
	}
	for _, text := range e.Concerns {
		rec.Concerns = capTail(append(rec.Concerns, domain.Concern{Text: text, Timestamp: e.Timestamp}), c.limit)
	}
	return c.persistLocked()
}

func (c *localCache) addBreakthrough(userID domain.UserID, text string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.record(userID)
	rec.Breakthroughs = capTail(append(rec.Breakthroughs, domain.Breakthrough{Text: text, Timestamp: at}), c.limit)
	return c.persistLocked()
}

func (c *localCache) addConcern(userID domain.UserID, text string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.record(userID)
	rec.Concerns = capTail(append(rec.Concerns, domain.Concern{Text: text, Timestamp: at}), c.limit)
	return c.persistLocked()
}

// resolveConcern marks every open concern with the given text as resolved.
func (c *localCache) resolveConcern(userID domain.UserID, text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.users[userID]
	if !ok {
		return false, nil
	}
	found := false
	for i := range rec.Concerns {
		if rec.Concerns[i].Text == text && !rec.Concerns[i].Resolved {
			rec.Concerns[i].Resolved = true
			found = true
		}
	}
	if !found {
		return false, nil
	}
	return true, c.persistLocked()
}

// recent returns copies of the last n memories, oldest first.
func (c *localCache) recent(userID domain.UserID, n int) []domain.MemoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.users[userID]
	if !ok || len(rec.Memories) == 0 {
		return nil
	}
	start := 0
	if len(rec.Memories) > n {
		start = len(rec.Memories) - n
	}
	out := make([]domain.MemoryEntry, len(rec.Memories)-start)
	copy(out, rec.Memories[start:])
	return out
}

func (c *localCache) progress(userID domain.UserID) domain.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := domain.Progress{UserID: userID, Breakthroughs: []domain.Breakthrough{}, Concerns: []domain.Concern{}}
	if rec, ok := c.users[userID]; ok {
		p.Breakthroughs = append(p.Breakthroughs, rec.Breakthroughs...)
		p.Concerns = append(p.Concerns, rec.Concerns...)
	}
	return p
}

// persistLocked writes the whole cache through a temp file and a rename in
// the same directory. Caller holds mu.
func (c *localCache) persistLocked() error {
	if c.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(c.users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal memory cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp_memory_cache_*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// capTail keeps the newest limit elements, evicting from the front.
func capTail[T any](s []T, limit int) []T {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	out := make([]T, limit)
	copy(out, s[len(s)-limit:])
	return out
}
