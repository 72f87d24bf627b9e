package sync

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_CreateAndSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryHistory(), quietLogger())

	s, err := m.CreateSession(ctx, "hello world")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	content, rev := s.Snapshot()
	assert.Equal(t, "hello world", content)
	assert.Equal(t, int64(0), rev)

	got, ok := m.GetSession(s.ID)
	assert.True(t, ok)
	assert.Same(t, s, got)

	m.CloseSession(s.ID)
	_, ok = m.GetSession(s.ID)
	assert.False(t, ok)
}

func TestManager_ApplyEdit(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryHistory(), quietLogger())

	s, err := m.CreateSession(ctx, "The quick brown fox")
	require.NoError(t, err)

	delta := deltaBetween(t, "The quick brown fox", "The quick red fox")
	result, err := m.ApplyEdit(ctx, s.ID, 0, delta)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Revision)
	assert.False(t, result.Partial)

	content, rev := s.Snapshot()
	assert.Equal(t, "The quick red fox", content)
	assert.Equal(t, int64(1), rev)
}

func TestManager_EditAgainstOldRevision(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryHistory(), quietLogger())

	s, err := m.CreateSession(ctx, "alpha beta gamma delta")
	require.NoError(t, err)

	// First client edits the head.
	d1 := deltaBetween(t, "alpha beta gamma delta", "alpha BETA gamma delta")
	_, err = m.ApplyEdit(ctx, s.ID, 0, d1)
	require.NoError(t, err)

	// Second client still edits revision 0; its change touches a
	// different region and must survive via fuzzy application.
	d2 := deltaBetween(t, "alpha beta gamma delta", "alpha beta gamma DELTA")
	result, err := m.ApplyEdit(ctx, s.ID, 0, d2)
	require.NoError(t, err)
	assert.False(t, result.Partial)

	content, _ := s.Snapshot()
	assert.Equal(t, "alpha BETA gamma DELTA", content)
}

func TestManager_EditRecordsHistory(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory()
	m := NewManager(h, quietLogger())

	s, err := m.CreateSession(ctx, "one")
	require.NoError(t, err)

	for i, next := range []string{"one two", "one two three"} {
		prev, err := h.Checkout(ctx, s.ID, int64(i))
		require.NoError(t, err)
		_, err = m.ApplyEdit(ctx, s.ID, int64(i), deltaBetween(t, prev, next))
		require.NoError(t, err)
	}

	// History reconstructs every revision the session went through.
	assert.Equal(t, int64(2), h.Head(ctx, s.ID))
	got, err := h.Checkout(ctx, s.ID, 2)
	require.NoError(t, err)
	content, _ := s.Snapshot()
	assert.Equal(t, content, got)
}

func TestManager_RawDeltaEdit(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, quietLogger())

	s, err := m.CreateSession(ctx, "The quick brown fox jumps over the lazy dog")
	require.NoError(t, err)

	// A hand-written delta: keep 4, replace "quic" with "ZZZZ",
	// keep the remaining 35.
	result, err := m.ApplyEdit(ctx, s.ID, 0, "=4\t-4\t+ZZZZ\t=35")
	require.NoError(t, err)
	assert.False(t, result.Partial)

	content, _ := s.Snapshot()
	assert.Equal(t, "The ZZZZk brown fox jumps over the lazy dog", content)
}

func TestManager_JoinLeave(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, quietLogger())

	s, err := m.CreateSession(ctx, "doc")
	require.NoError(t, err)

	id1, err := m.Join(s.ID, "")
	require.NoError(t, err)
	id2, err := m.Join(s.ID, "client-2")
	require.NoError(t, err)
	assert.Equal(t, "client-2", id2)
	assert.Len(t, s.Clients(), 2)

	m.Leave(s.ID, id1)
	assert.Equal(t, []string{"client-2"}, s.Clients())

	_, err = m.Join("missing", "x")
	assert.Error(t, err)
}

func TestManager_BadDeltaRejected(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, quietLogger())

	s, err := m.CreateSession(ctx, "abc")
	require.NoError(t, err)

	_, err = m.ApplyEdit(ctx, s.ID, 0, "?bogus")
	assert.Error(t, err)

	// Document unchanged after the rejection.
	content, rev := s.Snapshot()
	assert.Equal(t, "abc", content)
	assert.Equal(t, int64(0), rev)
}
