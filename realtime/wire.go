// Package realtime owns the persistent duplex push channel. It dials the
// server over WebSocket, announces identity, decodes pushed frames into the
// domain event union, and encodes client commands. Exactly one live channel
// exists per session, enforced by the Registry.
package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-client/domain"
	"chat-client/domain/event"

	"github.com/samber/lo"
)

// envelope is the wire format for every frame in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type presencePayload struct {
	Username    string   `json:"username"`
	OnlineUsers []string `json:"online_users"`
}

type newMessagePayload struct {
	ChatID   string   `json:"chat_id"`
	Sender   string   `json:"sender"`
	Receiver []string `json:"receiver"`
	Content  string   `json:"content"`
	Time     string   `json:"time"`
}

type newChatPayload struct {
	ChatID       string   `json:"chat_id"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	Participants []string `json:"participants"`
}

type userConnectedPayload struct {
	Username string `json:"username"`
}

type joinChatPayload struct {
	ChatID   string `json:"chatId"`
	Username string `json:"username"`
}

type postMessagePayload struct {
	ChatID           string   `json:"chat_id"`
	Content          string   `json:"content"`
	Sender           string   `json:"sender"`
	ChatParticipants []string `json:"chatparticipants"`
}

type readMessagePayload struct {
	ChatID string `json:"chatid"`
}

// DecodeEvent parses one server frame into the inbound event union.
// Unknown event names return an error; the read loop logs and skips them.
func DecodeEvent(frame []byte) (event.InboundEvent, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch event.Kind(env.Event) {
	case event.KindUserOnline, event.KindUserOffline:
		var p presencePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return event.PresenceChanged{
			User:        domain.UserID(p.Username),
			Online:      event.Kind(env.Event) == event.KindUserOnline,
			OnlineUsers: toUserIDs(p.OnlineUsers),
		}, nil

	case event.KindNewMessage:
		var p newMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode new_message: %w", err)
		}
		at, err := parseEventTime(p.Time)
		if err != nil {
			return nil, fmt.Errorf("decode new_message time: %w", err)
		}
		return event.NewMessage{
			ChatID:    domain.ConversationID(p.ChatID),
			Sender:    domain.UserID(p.Sender),
			Receivers: toUserIDs(p.Receiver),
			Content:   p.Content,
			At:        at,
		}, nil

	case event.KindNewChat:
		var p newChatPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode new_chat: %w", err)
		}
		return event.NewConversation{
			Chat: domain.Conversation{
				ID:           domain.ConversationID(p.ChatID),
				DisplayName:  p.Name,
				AvatarRef:    p.Image,
				Participants: toUserIDs(p.Participants),
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}

// EncodeCommand serializes one client→server frame.
func EncodeCommand(cmd event.Command) ([]byte, error) {
	var data any
	switch c := cmd.(type) {
	case event.UserConnected:
		data = userConnectedPayload{Username: string(c.Username)}
	case event.JoinChat:
		data = joinChatPayload{ChatID: string(c.ChatID), Username: string(c.Username)}
	case event.PostMessage:
		data = postMessagePayload{
			ChatID:           string(c.ChatID),
			Content:          c.Content,
			Sender:           string(c.Sender),
			ChatParticipants: toStrings(c.Participants),
		}
	case event.ReadMessage:
		data = readMessagePayload{ChatID: string(c.ChatID)}
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Name())
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: cmd.Name(), Data: raw})
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

// parseEventTime accepts the backend's ISO8601 timestamps with or without
// an explicit zone, same tolerance as the REST layer; zoneless values are
// read as UTC.
func parseEventTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}
