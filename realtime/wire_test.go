package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"chat-client/domain"
	"chat-client/domain/event"

	"github.com/stretchr/testify/require"
)

func TestDecodeEvent_UserOnline(t *testing.T) {
	frame := []byte(`{"event":"user_online","data":{"username":"alice","online_users":["alice","bob"]}}`)

	evt, err := DecodeEvent(frame)
	require.NoError(t, err)

	presence, ok := evt.(event.PresenceChanged)
	require.True(t, ok)
	require.True(t, presence.Online)
	require.Equal(t, domain.UserID("alice"), presence.User)
	require.Equal(t, []domain.UserID{"alice", "bob"}, presence.OnlineUsers)
	require.Equal(t, event.KindUserOnline, presence.Kind())
}

func TestDecodeEvent_UserOffline_CarriesFullResultingSet(t *testing.T) {
	frame := []byte(`{"event":"user_offline","data":{"username":"bob","online_users":["alice"]}}`)

	evt, err := DecodeEvent(frame)
	require.NoError(t, err)

	presence := evt.(event.PresenceChanged)
	require.False(t, presence.Online)
	require.Equal(t, event.KindUserOffline, presence.Kind())
	require.Equal(t, []domain.UserID{"alice"}, presence.OnlineUsers)
}

func TestDecodeEvent_NewMessage(t *testing.T) {
	frame := []byte(`{"event":"new_message","data":{"chat_id":"c1","sender":"bob","receiver":["alice"],"content":"hi","time":"2026-03-10T09:30:00Z"}}`)

	evt, err := DecodeEvent(frame)
	require.NoError(t, err)

	m := evt.(event.NewMessage)
	require.Equal(t, domain.ConversationID("c1"), m.ChatID)
	require.Equal(t, domain.UserID("bob"), m.Sender)
	require.Equal(t, "hi", m.Content)
	require.Equal(t, time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC), m.At.UTC())
}

func TestDecodeEvent_NewMessage_ZonelessTime(t *testing.T) {
	frame := []byte(`{"event":"new_message","data":{"chat_id":"c1","sender":"bob","receiver":["alice"],"content":"hi","time":"2026-05-01T09:00:00"}}`)

	evt, err := DecodeEvent(frame)
	require.NoError(t, err)

	m := evt.(event.NewMessage)
	require.Equal(t, time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC), m.At.UTC())
}

func TestDecodeEvent_NewMessage_BadTime(t *testing.T) {
	frame := []byte(`{"event":"new_message","data":{"chat_id":"c1","sender":"bob","content":"hi","time":"not a time"}}`)

	_, err := DecodeEvent(frame)
	require.Error(t, err)
}

func TestDecodeEvent_NewChat(t *testing.T) {
	frame := []byte(`{"event":"new_chat","data":{"chat_id":"c7","name":"Team","image":"img.png","participants":["me","bob"]}}`)

	evt, err := DecodeEvent(frame)
	require.NoError(t, err)

	nc := evt.(event.NewConversation)
	require.Equal(t, domain.ConversationID("c7"), nc.Chat.ID)
	require.Equal(t, "Team", nc.Chat.DisplayName)
	require.True(t, nc.Chat.HasParticipant("me"))
}

func TestDecodeEvent_UnknownEvent(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"event":"typing","data":{}}`))
	require.Error(t, err)
}

func TestEncodeCommand_WireNames(t *testing.T) {
	tests := []struct {
		cmd       event.Command
		wantEvent string
	}{
		{event.UserConnected{Username: "me"}, "user_connected"},
		{event.JoinChat{ChatID: "c1", Username: "me"}, "join_room"},
		{event.PostMessage{ChatID: "c1", Content: "hi", Sender: "me", Participants: []domain.UserID{"me", "bob"}}, "message"},
		{event.ReadMessage{ChatID: "c1"}, "read_message"},
	}

	for _, tt := range tests {
		t.Run(tt.wantEvent, func(t *testing.T) {
			frame, err := EncodeCommand(tt.cmd)
			require.NoError(t, err)

			var env envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			require.Equal(t, tt.wantEvent, env.Event)
		})
	}
}

func TestEncodeCommand_PostMessagePayload(t *testing.T) {
	frame, err := EncodeCommand(event.PostMessage{
		ChatID:       "c1",
		Content:      "hello",
		Sender:       "me",
		Participants: []domain.UserID{"me", "bob"},
	})
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(frame, &env))

	var p postMessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "c1", p.ChatID)
	require.Equal(t, "me", p.Sender)
	require.Equal(t, []string{"me", "bob"}, p.ChatParticipants)
}
