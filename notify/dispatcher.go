// Package notify decides which inbound events become user-visible
// notifications. It owns the suppression rules; rendering (sound, toast)
// stays with the UI layer consuming the decisions.
package notify

import (
	"fmt"
	"log/slog"
	"sort"

	"chat-client/domain"
	"chat-client/presence"
)

// previewLimit caps toast previews at a fixed number of characters.
const previewLimit = 50

// Decision tells the UI what to surface for one incoming message.
// The zero value means stay silent.
type Decision struct {
	PlaySound bool
	ShowToast bool
	Preview   string
	Mentioned bool
}

// PresenceToast is a transient presence-transition notice.
type PresenceToast struct {
	User   domain.UserID
	Online bool
	Text   string
}

type Dispatcher struct {
	log      *slog.Logger
	mentions *MentionMatcher
}

// NewDispatcher builds a dispatcher. mentions may be nil when no alert
// keywords are configured.
func NewDispatcher(log *slog.Logger, mentions *MentionMatcher) *Dispatcher {
	return &Dispatcher{log: log, mentions: mentions}
}

// OnIncomingMessage signals a sound and toast only when the message belongs
// to a conversation that is not currently open AND was not sent by the local
// user. Own echoes and messages for the open timeline stay silent; the open
// timeline updates in place instead.
func (d *Dispatcher) OnIncomingMessage(m domain.Message, selfID domain.UserID, openConversationID domain.ConversationID) Decision {
	if m.SenderID == selfID {
		return Decision{}
	}
	if m.ConversationID == openConversationID {
		return Decision{}
	}

	decision := Decision{
		PlaySound: true,
		ShowToast: true,
		Preview:   TruncatePreview(m.Content),
		Mentioned: d.mentions.Matches(m.Content),
	}
	d.log.Debug("notification decision",
		"conversation", m.ConversationID,
		"sender", m.SenderID,
		"mentioned", decision.Mentioned)
	return decision
}

// OnPresenceDelta turns a snapshot delta into transition toasts, dropping
// the local user's own transitions. Output order is deterministic.
func (d *Dispatcher) OnPresenceDelta(delta presence.Delta, selfID domain.UserID) []PresenceToast {
	var toasts []PresenceToast
	for id := range delta.NewlyOnline {
		if id == selfID {
			continue
		}
		toasts = append(toasts, PresenceToast{User: id, Online: true, Text: fmt.Sprintf("%s is online!", id)})
	}
	for id := range delta.NewlyOffline {
		if id == selfID {
			continue
		}
		toasts = append(toasts, PresenceToast{User: id, Online: false, Text: fmt.Sprintf("%s is offline!", id)})
	}

	sort.Slice(toasts, func(i, j int) bool {
		if toasts[i].Online != toasts[j].Online {
			return toasts[i].Online
		}
		return toasts[i].User < toasts[j].User
	})
	return toasts
}

// TruncatePreview cuts content to the preview limit, rune-safe, appending an
// ellipsis only when something was dropped.
func TruncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "..."
}
