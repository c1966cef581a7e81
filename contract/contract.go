//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-client/domain"
	"chat-client/domain/event"
	"chat-client/notify"
	"chat-client/realtime"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Transport is the push channel as the orchestrator sees it: one logical
// connection with replace-not-append handlers.
type Transport interface {
	Connect(ctx context.Context, identity domain.Identity) error
	Disconnect() error
	On(kind event.Kind, handler realtime.Handler)
	Off(kind event.Kind)
	OnDisconnected(fn func(error))
	OnReconnected(fn func())
	Send(ctx context.Context, cmd event.Command) error
	Ping(ctx context.Context) error
}

// Fetcher is the pull side: snapshot endpoints the orchestrator and the
// services hydrate state from.
type Fetcher interface {
	ListChats(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error)
	FetchMessages(ctx context.Context, id domain.ConversationID) ([]domain.Message, error)
	CreateChat(ctx context.Context, participants []domain.UserID) (domain.Conversation, error)
}

// AlertSink receives notification decisions; the UI renders them.
type AlertSink interface {
	OnMessageAlert(conversation domain.ConversationID, decision notify.Decision)
	OnPresenceAlert(toasts []notify.PresenceToast)
}
