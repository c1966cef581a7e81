// Package services exposes the use-case surface the UI calls into,
// keeping validation and wiring out of both the UI and the engine.
package services

import (
	"context"
	"log/slog"
	"strings"

	"chat-client/auth"
	"chat-client/contract"
	"chat-client/domain"
	"chat-client/errors"
	"chat-client/search"
)

// Engine is the slice of the session engine the chat use cases need.
type Engine interface {
	SendMessage(ctx context.Context, id domain.ConversationID, content string) error
	OpenConversation(ctx context.Context, id domain.ConversationID) error
	CloseConversation(ctx context.Context) error
	AdoptConversation(ctx context.Context, chat domain.Conversation) error
	Conversations(query string) []domain.Conversation
}

type ChatService struct {
	log     *slog.Logger
	engine  Engine
	fetcher contract.Fetcher
	index   *search.MessageIndex // optional
}

func NewChatService(log *slog.Logger, engine Engine, fetcher contract.Fetcher, index *search.MessageIndex) *ChatService {
	return &ChatService{log: log, engine: engine, fetcher: fetcher, index: index}
}

// SendMessage posts content to a conversation after rejecting blank input
// locally.
func (s *ChatService) SendMessage(ctx context.Context, id domain.ConversationID, content string) error {
	if strings.TrimSpace(content) == "" {
		return &errors.ValidationError{Field: "content", Reason: "empty message"}
	}
	return s.engine.SendMessage(ctx, id, content)
}

func (s *ChatService) OpenConversation(ctx context.Context, id domain.ConversationID) error {
	return s.engine.OpenConversation(ctx, id)
}

func (s *ChatService) CloseConversation(ctx context.Context) error {
	return s.engine.CloseConversation(ctx)
}

// CreateConversation validates the participant list, creates the
// conversation over REST and registers it with the engine so the push
// channel picks it up immediately.
func (s *ChatService) CreateConversation(ctx context.Context, participants []domain.UserID) (domain.Conversation, error) {
	req := auth.NewConversationRequest{Participants: participants}
	if err := auth.ValidateNewConversation(req); err != nil {
		return domain.Conversation{}, err
	}

	chat, err := s.fetcher.CreateChat(ctx, participants)
	if err != nil {
		return domain.Conversation{}, err
	}
	if err = s.engine.AdoptConversation(ctx, chat); err != nil {
		return domain.Conversation{}, err
	}
	s.log.Info("conversation created", "chat_id", chat.ID)
	return chat, nil
}

// Conversations lists the directory, filtered by a name query.
func (s *ChatService) Conversations(query string) []domain.Conversation {
	return s.engine.Conversations(query)
}

// SearchMessages runs a local full-text query. Without an index configured
// it returns no hits.
func (s *ChatService) SearchMessages(ctx context.Context, conversation domain.ConversationID, query string, limit int) ([]search.Hit, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, conversation, query, limit)
}
