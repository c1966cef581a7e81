package presence

import (
	"testing"

	"chat-client/domain"

	"github.com/stretchr/testify/require"
)

func TestTracker_ApplySnapshot_FirstSnapshot(t *testing.T) {
	tracker := NewTracker()

	delta := tracker.ApplySnapshot([]domain.UserID{"alice"})

	require.Len(t, delta.NewlyOnline, 1)
	require.Contains(t, delta.NewlyOnline, domain.UserID("alice"))
	require.Empty(t, delta.NewlyOffline)
	require.True(t, tracker.IsOnline("alice"))
}

func TestTracker_ApplySnapshot_EmptyAfterOnline(t *testing.T) {
	tracker := NewTracker()
	tracker.ApplySnapshot([]domain.UserID{"alice"})

	delta := tracker.ApplySnapshot(nil)

	require.Empty(t, delta.NewlyOnline)
	require.Len(t, delta.NewlyOffline, 1)
	require.Contains(t, delta.NewlyOffline, domain.UserID("alice"))
	require.False(t, tracker.IsOnline("alice"))
}

func TestTracker_ApplySnapshot_Idempotent(t *testing.T) {
	tracker := NewTracker()
	users := []domain.UserID{"alice", "bob"}

	first := tracker.ApplySnapshot(users)
	require.Len(t, first.NewlyOnline, 2)

	second := tracker.ApplySnapshot(users)
	require.True(t, second.Empty())
}

func TestTracker_ApplySnapshot_MixedTransition(t *testing.T) {
	tracker := NewTracker()
	tracker.ApplySnapshot([]domain.UserID{"alice", "bob"})

	delta := tracker.ApplySnapshot([]domain.UserID{"bob", "clara"})

	require.Contains(t, delta.NewlyOnline, domain.UserID("clara"))
	require.Contains(t, delta.NewlyOffline, domain.UserID("alice"))
	require.NotContains(t, delta.NewlyOnline, domain.UserID("bob"))
	require.NotContains(t, delta.NewlyOffline, domain.UserID("bob"))
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	tracker.ApplySnapshot([]domain.UserID{"alice"})

	tracker.Reset()

	require.False(t, tracker.IsOnline("alice"))
	delta := tracker.ApplySnapshot([]domain.UserID{"alice"})
	require.Contains(t, delta.NewlyOnline, domain.UserID("alice"))
}
