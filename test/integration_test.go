package test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chat-client/domain"
	"chat-client/notify"
	"chat-client/realtime"
	"chat-client/rest"
	"chat-client/runtime"
	"chat-client/search"
	"chat-client/services"
	"chat-client/storage"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

// fakeBackend serves the REST contract and the websocket push endpoint on
// one address, the way the real server does.
type fakeBackend struct {
	t *testing.T

	mu       sync.Mutex
	sessions []*websocket.Conn

	frames chan map[string]any
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	b := &fakeBackend{t: t, frames: make(chan map[string]any, 32)}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWS)
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"aboutme": "integration"})
	})
	mux.HandleFunc("/chats", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id":                   "c1",
			"name":                 "Alice",
			"participants":         []string{"me", "alice"},
			"latestMessage":        "from before",
			"unreadMessageCounter": 1,
		}})
	})
	mux.HandleFunc("/chats/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]any{{
			"sender":  "alice",
			"content": "from before",
			"time":    "2026-05-01T09:00:00Z",
		}}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) authorized(w http.ResponseWriter, r *http.Request) bool {
	_, pass, ok := r.BasicAuth()
	if !ok || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (b *fakeBackend) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.sessions = append(b.sessions, ws)
	b.mu.Unlock()

	for {
		_, frame, err := ws.Read(r.Context())
		if err != nil {
			return
		}
		var decoded map[string]any
		if json.Unmarshal(frame, &decoded) == nil {
			b.frames <- decoded
		}
	}
}

// push sends one event frame to every connected client.
func (b *fakeBackend) push(event string, data any) {
	raw, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(b.t, err)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ws := range b.sessions {
		_ = ws.Write(context.Background(), websocket.MessageText, raw)
	}
}

func (b *fakeBackend) waitFrame(t *testing.T, event string) map[string]any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame := <-b.frames:
			if frame["event"] == event {
				return frame
			}
		case <-deadline:
			t.Fatalf("no %s frame received", event)
			return nil
		}
	}
}

// Test_Scenario_FullSession runs the whole stack end to end: badger-backed
// session, REST hydration, live websocket pushes, local search.
func Test_Scenario_FullSession(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromString("ERROR")
	backend, srv := newFakeBackend(t)

	// Session: fresh login persisted in the store
	db, err := storage.Open(t.TempDir())
	req.NoError(err)
	defer db.Close()

	store := storage.NewCredentialStore(db, log)
	sessions := services.NewSessionService(log, store, func(creds domain.Credentials) *rest.Client {
		return rest.NewClient(log, srv.URL, creds)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	identity, client, err := sessions.Login(ctx, "me", "secret")
	req.NoError(err)

	// Engine wiring, same shape as the binary
	index, err := search.OpenIndex(t.TempDir(), log)
	req.NoError(err)
	defer index.Close()

	registry := realtime.NewRegistry()
	conn := registry.Acquire(log, srv.URL, realtime.Options{})
	defer registry.Teardown()

	orchestrator := runtime.NewOrchestrator(log, conn, client, identity,
		notify.NewDispatcher(log, nil),
		runtime.WithSearchIndex(index))
	chats := services.NewChatService(log, orchestrator, client, index)

	go func() { _ = orchestrator.Run(ctx) }()

	// The client announces itself and joins the fetched conversation
	backend.waitFrame(t, "user_connected")
	backend.waitFrame(t, "join_room")

	req.Eventually(func() bool { return orchestrator.State() == runtime.StateActive },
		2*time.Second, 10*time.Millisecond)
	req.Equal(uint(1), orchestrator.TotalUnread())

	// Opening the conversation acknowledges reads and loads history
	req.NoError(chats.OpenConversation(ctx, "c1"))
	backend.waitFrame(t, "read_message")
	req.Eventually(func() bool { return len(orchestrator.Timeline("c1")) == 1 },
		2*time.Second, 10*time.Millisecond)
	req.Equal(uint(0), orchestrator.TotalUnread())

	// A live push lands in the open timeline without bumping the counter
	backend.push("new_message", map[string]any{
		"chat_id": "c1",
		"sender":  "alice",
		"content": "are you deploying today?",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
	req.Eventually(func() bool { return len(orchestrator.Timeline("c1")) == 2 },
		2*time.Second, 10*time.Millisecond)
	req.Equal(uint(0), orchestrator.TotalUnread())

	// Presence snapshot flips alice online
	backend.push("user_online", map[string]any{
		"username":     "alice",
		"online_users": []string{"me", "alice"},
	})
	req.Eventually(func() bool { return orchestrator.IsOnline("alice") },
		2*time.Second, 10*time.Millisecond)

	// Sending goes out as a message frame with the directory's participants
	req.NoError(chats.SendMessage(ctx, "c1", "yes, after lunch"))
	frame := backend.waitFrame(t, "message")
	data, ok := frame["data"].(map[string]any)
	req.True(ok)
	req.Equal("yes, after lunch", data["content"])
	req.Equal("me", data["sender"])

	// Both the fetched and the pushed message are searchable locally
	req.Eventually(func() bool {
		hits, searchErr := chats.SearchMessages(ctx, "c1", "deploying", 10)
		return searchErr == nil && len(hits) == 1
	}, 2*time.Second, 50*time.Millisecond)

	// The next run restores the session without credentials
	restored, _, err := sessions.Restore(ctx)
	req.NoError(err)
	req.Equal(identity.UserID, restored.UserID)

}
