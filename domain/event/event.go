package event

import (
	"chat-client/domain"
	"time"
)

// InboundEvent is one server-pushed frame. The orchestrator matches on the
// concrete type and routes it to exactly one store.
type InboundEvent interface {
	Kind() Kind
}

type Kind string

const (
	KindNewMessage  Kind = "new_message"
	KindUserOnline  Kind = "user_online"
	KindUserOffline Kind = "user_offline"
	KindNewChat     Kind = "new_chat"
)

// NewMessage is a live message delivery.
type NewMessage struct {
	ChatID    domain.ConversationID
	Sender    domain.UserID
	Receivers []domain.UserID
	Content   string
	At        time.Time
}

func (NewMessage) Kind() Kind { return KindNewMessage }

// PresenceChanged carries the full resulting online set, not a diff.
// The tracker compares it against its previous snapshot itself.
type PresenceChanged struct {
	User        domain.UserID
	Online      bool
	OnlineUsers []domain.UserID
}

func (e PresenceChanged) Kind() Kind {
	if e.Online {
		return KindUserOnline
	}
	return KindUserOffline
}

// NewConversation announces a conversation created elsewhere. Only applied
// when the local user is among its participants.
type NewConversation struct {
	Chat domain.Conversation
}

func (NewConversation) Kind() Kind { return KindNewChat }
