package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/srgjo27/campsite_booking/internal/core/ports"
)

// draftWriter saves drafts in the background. Only the newest pending blob is
// written, so a slow store never sees states out of order.
type draftWriter struct {
	store   ports.DraftStore
	key     string
	timeout time.Duration

	mu      sync.Mutex
	pending []byte
	running bool
	idle    chan struct{}
}

func newDraftWriter(store ports.DraftStore, key string, timeout time.Duration) *draftWriter {
	return &draftWriter{store: store, key: key, timeout: timeout}
}

func (w *draftWriter) enqueue(blob []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = blob
	if w.running {
		return
	}
	w.running = true
	w.idle = make(chan struct{})
	go w.loop(w.idle)
}

func (w *draftWriter) loop(idle chan struct{}) {
	defer close(idle)
	for {
		w.mu.Lock()
		blob := w.pending
		w.pending = nil
		if blob == nil {
			w.running = false
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.store.Save(ctx, w.key, blob); err != nil {
			log.Printf("Failed to save draft %s: %v", w.key, err)
		}
		cancel()
	}
}

// flush blocks until every queued draft has been handed to the store.
func (w *draftWriter) flush(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	running := w.running
	w.mu.Unlock()
	if !running {
		return nil
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
