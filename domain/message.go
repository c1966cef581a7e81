// Package domain contains core concepts of the chat client.
// This file defines Message and its redelivery identity.
// Messages are immutable: never edited, never deleted.
package domain

import "time"

type ConversationID string

type UserID string

// Message represents an immutable chat event, created either by a REST
// history fetch or by a live push.
type Message struct {
	ConversationID ConversationID
	SenderID       UserID
	Content        string
	SentAt         time.Time
	// Seq is the arrival order inside one timeline, assigned on insert.
	// It only breaks ties between equal SentAt values.
	Seq uint64
}

// MessageKey identifies a message as logically the same across redelivery.
// Duplicate pushes after a reconnect carry the same key.
type MessageKey struct {
	Conversation ConversationID
	Sender       UserID
	SentAtNanos  int64
	Content      string
}

func (m Message) Key() MessageKey {
	return MessageKey{
		Conversation: m.ConversationID,
		Sender:       m.SenderID,
		SentAtNanos:  m.SentAt.UnixNano(),
		Content:      m.Content,
	}
}
