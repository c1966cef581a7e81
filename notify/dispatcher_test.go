package notify

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"chat-client/domain"
	"chat-client/errors"
	"chat-client/presence"

	"github.com/stretchr/testify/require"
)

func incoming(conv domain.ConversationID, sender domain.UserID, content string) domain.Message {
	return domain.Message{
		ConversationID: conv,
		SenderID:       sender,
		Content:        content,
		SentAt:         time.Now(),
	}
}

func TestDispatcher_OnIncomingMessage_Notifies(t *testing.T) {
	d := NewDispatcher(slog.Default(), nil)

	decision := d.OnIncomingMessage(incoming("c2", "alice", "hello"), "me", "c1")

	require.True(t, decision.PlaySound)
	require.True(t, decision.ShowToast)
	require.Equal(t, "hello", decision.Preview)
}

func TestDispatcher_OnIncomingMessage_SuppressesSelf(t *testing.T) {
	d := NewDispatcher(slog.Default(), nil)

	// Own echo, any conversation, any content
	decision := d.OnIncomingMessage(incoming("c2", "me", "hello"), "me", "c1")

	require.False(t, decision.PlaySound)
	require.False(t, decision.ShowToast)
}

func TestDispatcher_OnIncomingMessage_SuppressesOpenConversation(t *testing.T) {
	d := NewDispatcher(slog.Default(), nil)

	decision := d.OnIncomingMessage(incoming("c1", "alice", "hello"), "me", "c1")

	require.False(t, decision.ShowToast)
}

func TestDispatcher_PreviewTruncation(t *testing.T) {
	d := NewDispatcher(slog.Default(), nil)

	exactly50 := strings.Repeat("a", 50)
	decision := d.OnIncomingMessage(incoming("c2", "alice", exactly50), "me", "c1")
	require.Equal(t, exactly50, decision.Preview)

	long := strings.Repeat("b", 51)
	decision = d.OnIncomingMessage(incoming("c2", "alice", long), "me", "c1")
	require.Equal(t, strings.Repeat("b", 50)+"...", decision.Preview)
	require.Len(t, []rune(decision.Preview), 53)
}

func TestTruncatePreview_RuneSafe(t *testing.T) {
	content := strings.Repeat("é", 60)

	got := TruncatePreview(content)

	require.Equal(t, strings.Repeat("é", 50)+"...", got)
}

func TestDispatcher_MentionFlag(t *testing.T) {
	matcher, err := NewMentionMatcher([]string{"Bob", "deploy"})
	require.NoError(t, err)
	d := NewDispatcher(slog.Default(), matcher)

	decision := d.OnIncomingMessage(incoming("c2", "alice", "hey BOB, lunch?"), "me", "c1")
	require.True(t, decision.Mentioned)

	decision = d.OnIncomingMessage(incoming("c2", "alice", "nothing relevant"), "me", "c1")
	require.True(t, decision.ShowToast)
	require.False(t, decision.Mentioned)

	// Suppression rules unchanged by mentions
	decision = d.OnIncomingMessage(incoming("c1", "alice", "bob?"), "me", "c1")
	require.False(t, decision.ShowToast)
}

func TestNewMentionMatcher_EmptyKeywords(t *testing.T) {
	_, err := NewMentionMatcher(nil)

	require.ErrorIs(t, err, errors.ErrEmptyKeywords)
}

func TestMentionMatcher_NilMatchesNothing(t *testing.T) {
	var m *MentionMatcher

	require.False(t, m.Matches("anything"))
}

func TestDispatcher_OnPresenceDelta_SuppressesSelf(t *testing.T) {
	d := NewDispatcher(slog.Default(), nil)
	delta := presence.Delta{
		NewlyOnline:  presence.Set{"me": {}, "alice": {}},
		NewlyOffline: presence.Set{"bob": {}},
	}

	toasts := d.OnPresenceDelta(delta, "me")

	require.Len(t, toasts, 2)
	require.Equal(t, domain.UserID("alice"), toasts[0].User)
	require.True(t, toasts[0].Online)
	require.Equal(t, "alice is online!", toasts[0].Text)
	require.Equal(t, domain.UserID("bob"), toasts[1].User)
	require.False(t, toasts[1].Online)
}
