package services

import (
	"context"
	"log"
	"time"

	"github.com/srgjo27/campsite_booking/internal/core/ports"
)

type idleEvicter interface {
	EvictIdle(ctx context.Context, idleFor time.Duration) (int, error)
}

type JanitorOption func(*DraftJanitor)

// WithSessionEviction drops in-memory sessions unused for idleFor.
func WithSessionEviction(sessions *SessionRegistry, idleFor time.Duration) JanitorOption {
	return func(j *DraftJanitor) {
		if sessions == nil {
			return
		}
		j.sessions = sessions
		j.sessionIdle = idleFor
	}
}

// WithStaleDraftPurge deletes stored drafts older than maxAge. A zero maxAge
// keeps drafts forever and disables the purge.
func WithStaleDraftPurge(purger ports.DraftPurger, maxAge time.Duration) JanitorOption {
	return func(j *DraftJanitor) {
		if maxAge <= 0 {
			return
		}
		j.purger = purger
		j.maxAge = maxAge
	}
}

// DraftJanitor releases idle sessions and drafts nobody has touched for a
// while.
type DraftJanitor struct {
	sessions    idleEvicter
	sessionIdle time.Duration
	purger      ports.DraftPurger
	maxAge      time.Duration
	interval    time.Duration
	now         func() time.Time
}

func NewDraftJanitor(interval time.Duration, opts ...JanitorOption) *DraftJanitor {
	j := &DraftJanitor{
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *DraftJanitor) RunBackgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Printf("Background Worker started: cleaning up drafts every %s...", j.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Background Worker stopped.")
			return
		case <-ticker.C:
			j.evictIdleSessions(ctx)
			j.purgeStaleDrafts(ctx)
		}
	}
}

func (j *DraftJanitor) evictIdleSessions(ctx context.Context) {
	if j.sessions == nil || j.sessionIdle <= 0 {
		return
	}
	n, err := j.sessions.EvictIdle(ctx, j.sessionIdle)
	if err != nil {
		log.Printf("Error evicting idle sessions: %v", err)
	}
	if n > 0 {
		log.Printf("Evicted %d idle sessions.", n)
	}
}

func (j *DraftJanitor) purgeStaleDrafts(ctx context.Context) {
	if j.purger == nil {
		return
	}
	n, err := j.purger.PurgeStale(ctx, j.now().Add(-j.maxAge))
	if err != nil {
		log.Printf("Error purging stale drafts: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Purged %d stale drafts.", n)
	}
}
