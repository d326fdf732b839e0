package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/port"
)

// SessionRegistry hands out one CartStore per visitor session. A visitor's cart lives under
// "session:{id}:{cartKey}" so the cart key stays fixed within each visitor's namespace.
type SessionRegistry struct {
	storage port.CartStorage
	cartKey string
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	store    *CartStore
	lastSeen time.Time
	// active counts callers holding the store through Acquire.
	active int
}

func (s *session) touch(now time.Time, hold bool) {
	s.lastSeen = now
	if hold {
		s.active++
	}
}

func NewSessionRegistry(storage port.CartStorage, cartKey string, logger *zap.Logger) *SessionRegistry {
	if cartKey == "" {
		cartKey = DefaultCartKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionRegistry{
		storage:  storage,
		cartKey:  cartKey,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func SessionKey(sessionID, cartKey string) string {
	return "session:" + sessionID + ":" + cartKey
}

// Store returns the session's cart store, rehydrating it from storage on first use.
func (r *SessionRegistry) Store(ctx context.Context, sessionID string) *CartStore {
	return r.get(ctx, sessionID, false).store
}

// Acquire is Store for the length of a request: Sweep keeps the session until release is
// called, so no second store for the same id can be rehydrated while this one is in use.
func (r *SessionRegistry) Acquire(ctx context.Context, sessionID string) (*CartStore, func()) {
	s := r.get(ctx, sessionID, true)

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			s.active--
			s.lastSeen = r.now()
			r.mu.Unlock()
		})
	}
	return s.store, release
}

func (r *SessionRegistry) get(ctx context.Context, sessionID string, hold bool) *session {
	r.mu.Lock()
	if s, ok := r.sessions[sessionID]; ok {
		s.touch(r.now(), hold)
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	// Rehydrate outside the lock so a slow backend does not stall other sessions.
	store := NewCartStore(ctx, r.storage, SessionKey(sessionID, r.cartKey),
		r.logger.With(zap.String("session", sessionID)))

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{store: store}
		r.sessions[sessionID] = s
	}
	s.touch(r.now(), hold)
	return s
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep forgets sessions idle for longer than idle, skipping any still held through Acquire.
// Carts stay in storage; client info and panel state go with the session.
func (r *SessionRegistry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, s := range r.sessions {
		if s.active == 0 && s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.Debug("swept idle sessions", zap.Int("count", n))
			}
		}
	}
}
