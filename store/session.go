// Package store keeps one ConversationSession per active conversation:
// transcript, slot state, and the per-session lock that serializes turns.
// Sessions live for the process lifetime at most; an eviction loop removes
// sessions idle past a configurable TTL so memory stays bounded.
package store

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/schedsense/schedsense/ai/dialogue"
)

// Session lifecycle constants.
const (
	defaultIdleTTL       = 30 * time.Minute
	cleanupCheckInterval = 1 * time.Minute

	// Per-session chat rate: one turn per second sustained, short bursts allowed.
	turnRateLimit = rate.Limit(1)
	turnRateBurst = 5
)

// Session is one ongoing conversation. All turn processing on a session must
// happen while holding its lock; the store only guards the session map.
type Session struct {
	ID         string
	Transcript []dialogue.Turn
	Slots      *dialogue.SlotSet
	State      State
	CreatedAt  time.Time
	LastActive time.Time

	mu      sync.Mutex
	limiter *rate.Limiter
}

// State is the dialogue manager's per-request state, kept on the session so
// it survives between turns.
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateComplete      State = "complete"
	StateCreating      State = "creating"
	StateDone          State = "done"
	StateError         State = "error"
)

// Lock acquires the per-session lock. Mutations to transcript and slots are
// serialized per session identifier; overlapping requests on the same
// session wait here.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the per-session lock.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Touch updates LastActive.
func (s *Session) Touch() {
	s.LastActive = time.Now()
}

// Allow reports whether another chat turn is permitted under the session's
// rate limit.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

// Append adds a turn to the transcript.
func (s *Session) Append(turn dialogue.Turn) {
	s.Transcript = append(s.Transcript, turn)
}

// ResetSlots discards the slot state so a new request can begin in the same
// session. The transcript is kept.
func (s *Session) ResetSlots() {
	s.Slots = dialogue.NewSlotSet()
}

// Clear resets both transcript and slot state.
func (s *Session) Clear() {
	s.Transcript = nil
	s.ResetSlots()
	s.State = StateAwaitingInput
}

// SessionStore maps session identifier to ConversationSession.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	idleTTL  time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a session store and starts its idle-eviction loop.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	st := &SessionStore{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		done:     make(chan struct{}),
	}
	go st.cleanupLoop()
	return st
}

// GetOrCreate returns the session for id, creating it on first use. It never
// fails.
func (st *SessionStore) GetOrCreate(id string) *Session {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[id]; ok {
		return sess
	}
	now := time.Now()
	sess = &Session{
		ID:         id,
		Slots:      dialogue.NewSlotSet(),
		State:      StateAwaitingInput,
		CreatedAt:  now,
		LastActive: now,
		limiter:    rate.NewLimiter(turnRateLimit, turnRateBurst),
	}
	st.sessions[id] = sess
	slog.Debug("session created", "session_id", id)
	return sess
}

// Get retrieves an existing session.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// Remove evicts a session.
func (st *SessionStore) Remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Shutdown stops the eviction loop.
func (st *SessionStore) Shutdown() {
	st.stopOnce.Do(func() {
		close(st.done)
	})
}

func (st *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.evictIdle()
		case <-st.done:
			return
		}
	}
}

// evictIdle removes sessions idle longer than the TTL.
func (st *SessionStore) evictIdle() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	for id, sess := range st.sessions {
		idle := now.Sub(sess.LastActive)
		if idle > st.idleTTL {
			slog.Info("session idle timeout, evicting",
				"session_id", id,
				"idle_duration", idle,
				"ttl", st.idleTTL,
			)
			delete(st.sessions, id)
		}
	}
}
