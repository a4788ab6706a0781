package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/joeblew999/plat-carto/internal/style"
)

// ErrSessionNotFound is returned for unknown or deleted session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Session is the state of one open map page.
type Session struct {
	ID      string
	Created time.Time
	Layer   LayerConfig
	Style   *StyleReducer
	Map     *Ready[MapState]

	// guarded by SessionStore.mu
	streams  int
	lastSeen time.Time
}

// SessionStore keeps sessions in memory until they are deleted or swept.
type SessionStore struct {
	cfg    style.Config
	layer  LayerConfig
	bus    *EventBus
	logger *log.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store. Every session it creates styles
// layer with cfg and publishes to bus.
func NewSessionStore(cfg style.Config, layer LayerConfig, bus *EventBus, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionStore{
		cfg:      cfg,
		layer:    layer,
		bus:      bus,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session in PhaseDefault.
func (s *SessionStore) Create() *Session {
	id := uuid.NewString()
	now := time.Now()
	sess := &Session{
		ID:       id,
		Created:  now,
		lastSeen: now,
		Layer:    s.layer,
		Style:    NewStyleReducer(id, s.cfg, style.Document(s.layer.DefaultStyle), s.bus, s.logger),
		Map:      NewReady[MapState](),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Debug("session created", "session", id)
	s.publish("created", id)
	return sess
}

// Get returns the session with id and marks it as seen.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = time.Now()
	return sess, nil
}

// Attach returns the session with id and counts a live stream against it.
// Attached sessions are never swept. Every Attach must be paired with Detach.
func (s *SessionStore) Attach(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.streams++
	sess.lastSeen = time.Now()
	return sess, nil
}

// Detach ends a live stream started by Attach. The idle clock of the
// session restarts when its last stream ends.
func (s *SessionStore) Detach(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.streams > 0 {
		sess.streams--
	}
	sess.lastSeen = time.Now()
}

// Sweep deletes every session without a live stream that has not been
// seen for longer than idle, as of now. It returns the number deleted.
func (s *SessionStore) Sweep(now time.Time, idle time.Duration) int {
	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.streams == 0 && now.Sub(sess.lastSeen) > idle {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.logger.Debug("session expired", "session", id)
		s.publish("deleted", id)
	}
	return len(expired)
}

// Reap sweeps sessions idle for longer than idle until ctx is done.
func (s *SessionStore) Reap(ctx context.Context, idle time.Duration) {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now, idle); n > 0 {
				s.logger.Info("expired idle sessions", "count", n, "open", s.Len())
			}
		}
	}
}

// Delete removes the session with id.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.logger.Debug("session deleted", "session", id)
	s.publish("deleted", id)
	return nil
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Config returns the style configuration sessions are created with.
func (s *SessionStore) Config() style.Config {
	return s.cfg
}

// Layer returns the layer sessions are created with.
func (s *SessionStore) Layer() LayerConfig {
	return s.layer
}

func (s *SessionStore) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(Event{Resource: "sessions", Action: action, ID: id})
	}
}
