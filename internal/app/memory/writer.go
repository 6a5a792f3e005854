package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

// Writer moves memory writes off the turn path. One goroutine drains a
// bounded queue into Store.Remember.
type Writer struct {
	store *Store
	queue chan domain.MemoryEntry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWriter starts the background goroutine. size is the queue capacity.
func NewWriter(store *Store, size int) *Writer {
	if size < 0 {
		size = 0
	}
	w := &Writer{
		store: store,
		queue: make(chan domain.MemoryEntry, size),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for entry := range w.queue {
		w.store.Remember(context.Background(), entry)
	}
}

// Enqueue never blocks. When the queue is full or closed the entry is
// written to the local cache synchronously so it is never lost.
func (w *Writer) Enqueue(ctx context.Context, entry domain.MemoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = w.store.now()
	}

	w.mu.RLock()
	if !w.closed {
		select {
		case w.queue <- entry:
			w.mu.RUnlock()
			return
		default:
		}
	}
	w.mu.RUnlock()

	observability.MemoryQueueDropped.Inc()
	observability.LoggerFromContext(ctx).Warn("memory queue unavailable, writing locally",
		"user_id", entry.UserID, "session_id", entry.SessionID)
	w.store.RememberLocal(ctx, entry)
}

// Close stops accepting entries and waits for the queue to drain or for
// ctx to expire. Entries still queued at the deadline keep draining in the
// background.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
