package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"chat-client/domain"
	cerrors "chat-client/errors"

	"github.com/samber/lo"
)

type chatDTO struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Image                string   `json:"image"`
	Participants         []string `json:"participants"`
	LatestMessage        string   `json:"latestMessage"`
	UnreadMessageCounter uint     `json:"unreadMessageCounter"`
}

type messageDTO struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

type messagesResponse struct {
	Messages []messageDTO `json:"messages"`
}

type createChatRequest struct {
	Participants []string `json:"participants"`
}

type createChatResponse struct {
	ChatID       string   `json:"chat_id"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	Participants []string `json:"participants"`
}

// ListChats fetches the conversation summaries for one user, in the
// server's order.
func (c *Client) ListChats(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error) {
	var dtos []chatDTO
	query := url.Values{"user_id": {string(userID)}}
	if err := c.do(ctx, http.MethodGet, "/chats", query, nil, &dtos); err != nil {
		return nil, err
	}

	return lo.Map(dtos, func(dto chatDTO, _ int) domain.Conversation {
		return domain.Conversation{
			ID:            domain.ConversationID(dto.ID),
			DisplayName:   dto.Name,
			AvatarRef:     dto.Image,
			Participants:  toUserIDs(dto.Participants),
			LatestPreview: dto.LatestMessage,
			UnreadCount:   dto.UnreadMessageCounter,
		}
	}), nil
}

// FetchMessages pulls one conversation's full history.
func (c *Client) FetchMessages(ctx context.Context, id domain.ConversationID) ([]domain.Message, error) {
	var resp messagesResponse
	path := fmt.Sprintf("/chats/%s/messages", url.PathEscape(string(id)))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(resp.Messages))
	for _, dto := range resp.Messages {
		at, err := parseWhen(dto.Time)
		if err != nil {
			return nil, &cerrors.FetchError{Endpoint: path, Err: err}
		}
		messages = append(messages, domain.Message{
			ConversationID: id,
			SenderID:       domain.UserID(dto.Sender),
			Content:        dto.Content,
			SentAt:         at,
		})
	}
	return messages, nil
}

// CreateChat starts a conversation between the given participants. The
// backend rejects a duplicate pair with 400 and an unknown participant
// with 404; both map onto user-facing errors.
func (c *Client) CreateChat(ctx context.Context, participants []domain.UserID) (domain.Conversation, error) {
	var resp createChatResponse
	req := createChatRequest{Participants: toStrings(participants)}
	err := c.do(ctx, http.MethodPost, "/chats/", nil, req, &resp)
	if err != nil {
		var fetchErr *cerrors.FetchError
		if errors.As(err, &fetchErr) {
			switch fetchErr.Status {
			case http.StatusBadRequest:
				return domain.Conversation{}, cerrors.ErrDuplicateChat
			case http.StatusNotFound:
				return domain.Conversation{}, cerrors.ErrUnknownParticipant
			}
		}
		return domain.Conversation{}, err
	}

	return domain.Conversation{
		ID:           domain.ConversationID(resp.ChatID),
		DisplayName:  resp.Name,
		AvatarRef:    resp.Image,
		Participants: toUserIDs(resp.Participants),
	}, nil
}

func toUserIDs(names []string) []domain.UserID {
	return lo.Map(names, func(name string, _ int) domain.UserID {
		return domain.UserID(name)
	})
}

func toStrings(ids []domain.UserID) []string {
	return lo.Map(ids, func(id domain.UserID, _ int) string {
		return string(id)
	})
}
