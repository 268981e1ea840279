package suggest

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"finconsole/internal/config"
)

// Manager holds one fetcher per console session so each typing stream gets
// its own debounce cycle. Sessions idle past the TTL are dropped together
// with their fetcher; Close releases timers and in-flight requests so no
// handler leaks past teardown.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	cfg    config.SuggestConfig
	fetch  FetchFunc
	logger *zap.Logger
	ttl    time.Duration
}

type session struct {
	fetcher  *Fetcher
	lastSeen time.Time

	mu   sync.Mutex
	last Result
}

func NewManager(cfg config.SuggestConfig, fetch FetchFunc, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: map[string]*session{},
		cfg:      cfg,
		fetch:    fetch,
		logger:   logger,
		ttl:      5 * time.Minute,
	}
}

// Input feeds one keystroke for the session.
func (m *Manager) Input(sessionID, query string) {
	s := m.session(sessionID)
	s.fetcher.Input(query)
}

// Latest returns the most recent settled result for the session.
func (m *Manager) Latest(sessionID string) (Result, State) {
	s := m.session(sessionID)
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	return last, s.fetcher.State()
}

// Drop tears a session down, cancelling anything outstanding.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if ok {
		s.fetcher.Close()
	}
}

func (m *Manager) session(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	s, ok := m.sessions[id]
	if !ok {
		s = &session{}
		s.fetcher = NewFetcher(m.cfg, m.fetch, func(r Result) {
			s.mu.Lock()
			s.last = r
			s.mu.Unlock()
		}, m.logger)
		m.sessions[id] = s
	}
	s.lastSeen = time.Now()
	return s
}

func (m *Manager) expireLocked() {
	if m.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			s.fetcher.Close()
			delete(m.sessions, id)
		}
	}
}
