package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/coreseekdev/cordage/pkg/dmp"
	"github.com/coreseekdev/cordage/pkg/rope"
)

// Session is one editable document: a rope, a revision counter and the
// set of subscribed clients.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        gosync.RWMutex
	doc       *rope.Rope[rune]
	revision  int64
	updatedAt time.Time
	clients   map[string]struct{}
}

// Snapshot returns the current content and revision.
func (s *Session) Snapshot() (string, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rope.Text(s.doc), s.revision
}

// Revision returns the current revision.
func (s *Session) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Clients returns the IDs of the subscribed clients.
func (s *Session) Clients() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.clients))
	for id := range s.clients {
		out = append(out, id)
	}
	return out
}

// EditResult reports what an edit did to a session.
type EditResult struct {
	Revision int64  // revision after the edit
	Delta    string // canonical delta actually applied
	Applied  []bool // per-patch application results
	Partial  bool   // true when at least one patch missed
}

// Manager owns the session registry. All methods are safe for
// concurrent use.
type Manager struct {
	mu       gosync.RWMutex
	sessions map[string]*Session
	history  History
	logger   *slog.Logger
}

// NewManager creates a session manager backed by the given history
// store. A nil logger falls back to the default slog logger.
func NewManager(history History, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		history:  history,
		logger:   logger,
	}
}

// CreateSession starts a session with the given initial content and
// records its base revision.
func (m *Manager) CreateSession(ctx context.Context, initial string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		doc:       rope.FromString(initial),
		updatedAt: time.Now(),
		clients:   make(map[string]struct{}),
	}
	if m.history != nil {
		if err := m.history.RecordBase(ctx, s.ID, initial); err != nil {
			return nil, fmt.Errorf("recording base revision: %w", err)
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", s.ID, "size", len(initial))
	return s, nil
}

// GetSession looks a session up by ID.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// CloseSession drops a session from the registry.
func (m *Manager) CloseSession(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.logger.Info("session closed", "session_id", id)
}

// Join subscribes a client to a session. An empty clientID gets a
// fresh UUID; the assigned ID is returned.
func (m *Manager) Join(sessionID, clientID string) (string, error) {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return "", fmt.Errorf("session %s not found", sessionID)
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}
	s.mu.Lock()
	s.clients[clientID] = struct{}{}
	s.mu.Unlock()
	return clientID, nil
}

// Leave unsubscribes a client.
func (m *Manager) Leave(sessionID, clientID string) {
	if s, ok := m.GetSession(sessionID); ok {
		s.mu.Lock()
		delete(s.clients, clientID)
		s.mu.Unlock()
	}
}

// ApplyEdit applies a delta-encoded edit against baseRevision. The
// delta is parsed against the base content, packaged as patches, and
// fuzzily applied to the current document, so edits racing past each
// other still land when their context survives. The per-patch results
// are reported; a fully missed edit leaves the document unchanged and
// is not recorded.
func (m *Manager) ApplyEdit(ctx context.Context, sessionID string, baseRevision int64, delta string) (*EditResult, error) {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	var base *rope.Rope[rune]
	s.mu.RLock()
	current := s.doc
	currentRev := s.revision
	s.mu.RUnlock()

	if baseRevision == currentRev || m.history == nil {
		base = current
	} else {
		// The client edited an older revision; rebuild it so the
		// delta parses, then let fuzzy patching carry it forward.
		content, err := m.history.Checkout(ctx, sessionID, baseRevision)
		if err != nil {
			return nil, fmt.Errorf("resolving base revision %d: %w", baseRevision, err)
		}
		base = rope.FromString(content)
	}

	diffs, err := dmp.FromDelta(base, delta)
	if err != nil {
		return nil, fmt.Errorf("parsing edit delta: %w", err)
	}
	patches := dmp.MakePatchesFromDiffs(base, diffs, dmp.TextPatchOptions())

	s.mu.Lock()
	defer s.mu.Unlock()
	newDoc, applied := dmp.ApplyPatches(patches, s.doc, dmp.TextPatchOptions(), dmp.TextOptions())

	partial := false
	any := false
	for _, ok := range applied {
		if ok {
			any = true
		} else {
			partial = true
		}
	}
	if !any && len(applied) > 0 {
		m.logger.Warn("edit missed entirely",
			"session_id", sessionID, "base_revision", baseRevision)
		return &EditResult{Revision: s.revision, Applied: applied, Partial: true}, nil
	}

	// Canonical delta: what actually changed, against the previous
	// document state.
	canonical := dmp.ToDelta(dmp.DiffMain(s.doc, newDoc, dmp.TextOptions()))
	s.doc = newDoc
	s.revision++
	s.updatedAt = time.Now()

	if m.history != nil {
		if err := m.history.RecordDelta(ctx, sessionID, s.revision, canonical); err != nil {
			m.logger.Error("recording delta failed",
				"session_id", sessionID, "revision", s.revision, "err", err)
		}
	}

	m.logger.Debug("edit applied",
		"session_id", sessionID, "revision", s.revision, "partial", partial)
	return &EditResult{
		Revision: s.revision,
		Delta:    canonical,
		Applied:  applied,
		Partial:  partial,
	}, nil
}
