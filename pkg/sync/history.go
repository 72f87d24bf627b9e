package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/coreseekdev/cordage/pkg/dmp"
	"github.com/coreseekdev/cordage/pkg/rope"
)

// History stores document revisions. Revision 0 is the initial
// content; every later revision is recorded as the delta from its
// predecessor, so storage stays proportional to the edits.
type History interface {
	// RecordBase stores revision 0 of a session.
	RecordBase(ctx context.Context, sessionID, content string) error

	// RecordDelta stores the delta leading to the given revision.
	RecordDelta(ctx context.Context, sessionID string, revision int64, delta string) error

	// Checkout reconstructs the content at a revision by replaying
	// the delta chain from the base.
	Checkout(ctx context.Context, sessionID string, revision int64) (string, error)

	// Head returns the latest recorded revision for a session, or -1.
	Head(ctx context.Context, sessionID string) int64

	// Close releases the store.
	Close() error
}

// MemoryHistory is an in-memory History, useful for tests and
// single-instance deployments.
type MemoryHistory struct {
	mu     gosync.RWMutex
	bases  map[string]string
	deltas map[string][]string // deltas[sessionID][i] leads to revision i+1
	closed bool
}

// NewMemoryHistory creates an empty in-memory history store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		bases:  make(map[string]string),
		deltas: make(map[string][]string),
	}
}

// RecordBase stores revision 0 of a session.
func (h *MemoryHistory) RecordBase(_ context.Context, sessionID, content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("history store is closed")
	}
	if _, ok := h.bases[sessionID]; ok {
		return fmt.Errorf("session %s already has a base revision", sessionID)
	}
	h.bases[sessionID] = content
	return nil
}

// RecordDelta stores the delta leading to revision. Revisions must
// arrive densely in order: revision n+1 right after n.
func (h *MemoryHistory) RecordDelta(_ context.Context, sessionID string, revision int64, delta string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("history store is closed")
	}
	if _, ok := h.bases[sessionID]; !ok {
		return fmt.Errorf("session %s has no base revision", sessionID)
	}
	if int64(len(h.deltas[sessionID]))+1 != revision {
		return fmt.Errorf("out-of-order revision %d for session %s", revision, sessionID)
	}
	h.deltas[sessionID] = append(h.deltas[sessionID], delta)
	return nil
}

// Checkout replays the delta chain up to revision.
func (h *MemoryHistory) Checkout(_ context.Context, sessionID string, revision int64) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	base, ok := h.bases[sessionID]
	if !ok {
		return "", fmt.Errorf("session %s not found", sessionID)
	}
	if revision < 0 || revision > int64(len(h.deltas[sessionID])) {
		return "", fmt.Errorf("revision %d out of range for session %s", revision, sessionID)
	}

	content := rope.FromString(base)
	for i := int64(0); i < revision; i++ {
		diffs, err := dmp.FromDelta(content, h.deltas[sessionID][i])
		if err != nil {
			return "", fmt.Errorf("replaying revision %d: %w", i+1, err)
		}
		content = dmp.Target(diffs)
	}
	return rope.Text(content), nil
}

// Head returns the latest recorded revision, or -1 for an unknown
// session.
func (h *MemoryHistory) Head(_ context.Context, sessionID string) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.bases[sessionID]; !ok {
		return -1
	}
	return int64(len(h.deltas[sessionID]))
}

// Close marks the store closed; reads keep working.
func (h *MemoryHistory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
