package event

import "chat-client/domain"

// Command is one client→server frame on the push channel.
type Command interface {
	Name() string
}

// UserConnected announces identity after a confirmed open. It does not
// survive a reconnect and must be re-sent.
type UserConnected struct {
	Username domain.UserID
}

func (UserConnected) Name() string { return "user_connected" }

// JoinChat is the legacy room-join frame kept for server compatibility.
type JoinChat struct {
	ChatID   domain.ConversationID
	Username domain.UserID
}

func (JoinChat) Name() string { return "join_room" }

// PostMessage sends a message to a conversation.
type PostMessage struct {
	ChatID       domain.ConversationID
	Content      string
	Sender       domain.UserID
	Participants []domain.UserID
}

func (PostMessage) Name() string { return "message" }

// ReadMessage acknowledges that a conversation has been read.
type ReadMessage struct {
	ChatID domain.ConversationID
}

func (ReadMessage) Name() string { return "read_message" }
