package domain

import (
	"time"

	"github.com/samber/lo"
)

// Conversation is a directory entry: participants, latest preview and the
// unread counter. Conversations are immortal once created.
type Conversation struct {
	ID             ConversationID
	DisplayName    string
	AvatarRef      string
	Participants   []UserID
	LatestPreview  string
	UnreadCount    uint
	LastActivityAt time.Time
}

func (c Conversation) HasParticipant(id UserID) bool {
	return lo.Contains(c.Participants, id)
}
