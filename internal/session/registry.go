// Package session tracks the ledgers owned by live user sessions. Each
// session gets an independent ledger; nothing is shared across sessions and
// nothing survives the process.
package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cashflow/internal/ledger"
	"cashflow/internal/log"
)

// Registry maps session ids to their ledgers with idle-based expiry and
// size-based LRU eviction. An evicted session's ledger is simply dropped;
// the next request with that id starts over with a fresh one.
type Registry struct {
	mu          sync.Mutex
	maxSessions int
	ttl         time.Duration
	items       map[string]*list.Element
	lru         *list.List
	logger      *log.Logger

	now func() time.Time
}

type sessionEntry struct {
	id        string
	ledger    *ledger.Ledger
	expiresAt time.Time
}

// NewRegistry creates a registry holding at most maxSessions ledgers, each
// expiring after ttl of inactivity. A nil logger falls back to the default
// configuration.
func NewRegistry(maxSessions int, ttl time.Duration, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Registry{
		maxSessions: maxSessions,
		ttl:         ttl,
		items:       make(map[string]*list.Element),
		lru:         list.New(),
		logger:      logger.WithComponent(log.ComponentSession),
		now:         time.Now,
	}
}

// Get returns the ledger for an existing session and extends its idle
// deadline. Expired sessions are removed on access and reported as missing.
func (r *Registry) Get(id string) (*ledger.Ledger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, exists := r.items[id]
	if !exists {
		return nil, false
	}

	entry := elem.Value.(*sessionEntry)
	if r.now().After(entry.expiresAt) {
		r.removeElement(elem)
		return nil, false
	}

	// Sliding expiry: any touch keeps the session alive.
	entry.expiresAt = r.now().Add(r.ttl)
	r.lru.MoveToFront(elem)
	return entry.ledger, true
}

// Create mints a new session with a fresh, uninitialized ledger. When the
// registry is full the least recently used session is evicted to make room.
func (r *Registry) Create() (string, *ledger.Ledger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &sessionEntry{
		id:        uuid.NewString(),
		ledger:    ledger.New(),
		expiresAt: r.now().Add(r.ttl),
	}
	elem := r.lru.PushFront(entry)
	r.items[entry.id] = elem

	if r.lru.Len() > r.maxSessions {
		if oldest := r.lru.Back(); oldest != nil {
			r.removeElement(oldest)
		}
	}
	return entry.id, entry.ledger
}

// Len returns the number of live sessions, expired ones included until the
// next sweep.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// CleanExpired removes all sessions past their idle deadline and returns how
// many were dropped.
func (r *Registry) CleanExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var toRemove []*list.Element
	for elem := r.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*sessionEntry).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		r.removeElement(elem)
	}
	return len(toRemove)
}

// Sweep periodically evicts expired sessions until the context is cancelled.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := r.CleanExpired(); removed > 0 {
				r.logger.Debug("Expired sessions removed",
					log.FieldOperation, log.OpSweep,
					"removed", removed,
					"active", r.Len())
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Registry) removeElement(elem *list.Element) {
	entry := elem.Value.(*sessionEntry)
	delete(r.items, entry.id)
	r.lru.Remove(elem)
}
