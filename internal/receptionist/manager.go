package receptionist

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/geecurly-receptionist/internal/kvstore"
	"github.com/wolfman30/geecurly-receptionist/internal/observability/metrics"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

// ManagerConfig controls session defaults and expiry.
type ManagerConfig struct {
	DefaultLocation string
	TypingDelay     time.Duration
	WelcomeDelay    time.Duration
	IdleTTL         time.Duration
}

// Manager owns the live chat sessions of this process.
type Manager struct {
	flow        *Flow
	kv          kvstore.Store
	transcripts transcript.Store
	cfg         ManagerConfig
	logger      *logging.Logger
	metrics     *metrics.ChatMetrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. kv may be nil to skip memory snapshots.
func NewManager(flow *Flow, kv kvstore.Store, transcripts transcript.Store, cfg ManagerConfig, logger *logging.Logger, m *metrics.ChatMetrics) *Manager {
	if flow == nil {
		panic("receptionist: flow required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 24 * time.Hour
	}
	if !flow.Salon().HasLocation(cfg.DefaultLocation) {
		cfg.DefaultLocation = flow.Salon().LocationOrder[0]
	}
	return &Manager{
		flow:        flow,
		kv:          kv,
		transcripts: transcripts,
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		sessions:    make(map[string]*Session),
	}
}

// Create opens a session on location, or on the default branch when location is unknown.
func (m *Manager) Create(location string) *Session {
	location = strings.ToLower(strings.TrimSpace(location))
	if !m.flow.Salon().HasLocation(location) {
		location = m.cfg.DefaultLocation
	}
	id := uuid.NewString()
	var kv kvstore.Store
	if m.kv != nil {
		kv = kvstore.WithPrefix(m.kv, "session:"+id+":")
	}
	s := NewSession(id, location, m.flow, kv, m.transcripts, SessionOptions{
		TypingDelay:  m.cfg.TypingDelay,
		WelcomeDelay: m.cfg.WelcomeDelay,
	}, m.logger, m.metrics)

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.logger.Info("session created", "session_id", id, "location", location)
	return s
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops a session. Its memory snapshot and transcript are left to expire.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and reports how many went.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.Pending() {
			continue
		}
		if now.Sub(s.LastActive()) < m.cfg.IdleTTL {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.metrics.SetActiveSessions(n)
		m.logger.Info("idle sessions evicted", "count", removed)
	}
	return removed
}

// StartJanitor sweeps idle sessions every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.Sweep(now)
			}
		}
	}()
}
