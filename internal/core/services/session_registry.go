package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/campsite_booking/internal/core/domain"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
)

// SessionRegistry keeps one live BookingSession per visitor. Drafts survive a
// restart or an eviction through the draft store; the wizard cursor does not.
type SessionRegistry struct {
	catalog   *domain.RateCatalog
	submitter ports.Submitter
	store     ports.DraftStore
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	session  *BookingSession
	lastSeen time.Time
}

func NewSessionRegistry(catalog *domain.RateCatalog, submitter ports.Submitter, store ports.DraftStore) *SessionRegistry {
	return &SessionRegistry{
		catalog:   catalog,
		submitter: submitter,
		store:     store,
		now:       time.Now,
		sessions:  make(map[string]*liveSession),
	}
}

func DraftKey(sessionID string) string {
	return domain.DraftStorageKey + ":" + sessionID
}

// Open starts a new session with a fresh id.
func (r *SessionRegistry) Open(ctx context.Context) (string, *BookingSession) {
	id := uuid.NewString()
	return id, r.Get(ctx, id)
}

// Get returns the live session for id, restoring its draft from the store on
// first use.
func (r *SessionRegistry) Get(ctx context.Context, sessionID string) *BookingSession {
	sessionID = strings.TrimSpace(sessionID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if live, ok := r.sessions[sessionID]; ok {
		live.lastSeen = r.now()
		return live.session
	}

	var opts []SessionOption
	if r.store != nil {
		opts = append(opts, WithDraftStore(r.store, DraftKey(sessionID)))
	}
	s := NewBookingSession(ctx, r.catalog, r.submitter, opts...)
	r.sessions[sessionID] = &liveSession{session: s, lastSeen: r.now()}
	return s
}

// Len is the number of sessions held in memory.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops sessions not used for idleFor. Their pending writes are
// flushed first; drafts nobody filled in are removed from the store.
func (r *SessionRegistry) EvictIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	cutoff := r.now().Add(-idleFor)

	r.mu.Lock()
	idle := make(map[string]*BookingSession)
	for id, live := range r.sessions {
		if live.lastSeen.Before(cutoff) {
			idle[id] = live.session
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	var errs []error
	for id, s := range idle {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		if r.store != nil && s.Pristine() {
			if err := r.store.Delete(ctx, DraftKey(id)); err != nil {
				log.Printf("Failed to delete empty draft %s: %v", id, err)
				errs = append(errs, err)
			}
		}
	}
	return len(idle), errors.Join(errs...)
}

// Flush waits for every session's pending draft writes.
func (r *SessionRegistry) Flush(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*BookingSession, 0, len(r.sessions))
	for _, live := range r.sessions {
		sessions = append(sessions, live.session)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
