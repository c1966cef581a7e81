// Package runtime drives the session: it owns the connection lifecycle, the
// single dispatch goroutine every inbound event flows through, and the
// supervised background workers.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-client/contract"
	"chat-client/domain"
	"chat-client/domain/event"
	cerrors "chat-client/errors"
	"chat-client/notify"
	"chat-client/presence"
	"chat-client/projection"
	"chat-client/search"

	"github.com/google/uuid"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateActive       State = "active"
)

const eventBuffer = 256

// fetchResult carries one finished history fetch back onto the dispatch
// goroutine, tagged so a superseded fetch can be recognized and discarded.
type fetchResult struct {
	conversation domain.ConversationID
	tag          uuid.UUID
	messages     []domain.Message
	err          error
}

// Orchestrator is the session engine. All store mutation happens on the
// goroutine running Run; external callers reach it through the control
// channel and read state through the locked accessors.
type Orchestrator struct {
	log        *slog.Logger
	transport  contract.Transport
	fetcher    contract.Fetcher
	directory  *projection.Directory
	timelines  *projection.TimelineStore
	tracker    *presence.Tracker
	dispatcher *notify.Dispatcher
	index      *search.MessageIndex // optional
	sink       contract.AlertSink   // optional
	identity   domain.Identity

	events   chan event.InboundEvent
	fetches  chan fetchResult
	control  chan func(ctx context.Context)
	terminal chan error

	mu          sync.RWMutex
	state       State
	open        domain.ConversationID
	latestFetch map[domain.ConversationID]uuid.UUID
}

type OrchestratorOption func(*Orchestrator)

// WithSearchIndex enables local full-text indexing of fetched and pushed
// messages.
func WithSearchIndex(index *search.MessageIndex) OrchestratorOption {
	return func(o *Orchestrator) { o.index = index }
}

// WithAlertSink routes notification decisions to the UI layer.
func WithAlertSink(sink contract.AlertSink) OrchestratorOption {
	return func(o *Orchestrator) { o.sink = sink }
}

func NewOrchestrator(
	log *slog.Logger,
	transport contract.Transport,
	fetcher contract.Fetcher,
	identity domain.Identity,
	dispatcher *notify.Dispatcher,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		log:         log,
		transport:   transport,
		fetcher:     fetcher,
		directory:   projection.NewDirectory(identity.UserID),
		timelines:   projection.NewTimelineStore(),
		tracker:     presence.NewTracker(),
		dispatcher:  dispatcher,
		identity:    identity,
		events:      make(chan event.InboundEvent, eventBuffer),
		fetches:     make(chan fetchResult, 16),
		control:     make(chan func(ctx context.Context), 16),
		terminal:    make(chan error, 1),
		state:       StateDisconnected,
		latestFetch: make(map[domain.ConversationID]uuid.UUID),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run connects, hydrates the directory and then serves the dispatch loop
// until the context ends. It satisfies contract.Worker: a returned error
// puts it back under the supervisor's restart policy.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.setState(StateConnecting)

	push := func(evt event.InboundEvent) {
		select {
		case o.events <- evt:
		case <-ctx.Done():
		}
	}
	for _, kind := range []event.Kind{
		event.KindNewMessage,
		event.KindUserOnline,
		event.KindUserOffline,
		event.KindNewChat,
	} {
		o.transport.On(kind, push)
	}

	o.transport.OnDisconnected(func(err error) {
		if errors.Is(err, cerrors.ErrRetriesExhausted) {
			select {
			case o.terminal <- err:
			default:
			}
			return
		}
		o.log.Warn("push channel lost", "error", err)
		o.setState(StateConnecting)
	})
	o.transport.OnReconnected(func() {
		select {
		case o.control <- o.resync:
		case <-ctx.Done():
		}
	})

	if err := o.transport.Connect(ctx, o.identity); err != nil {
		o.setState(StateDisconnected)
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		_ = o.transport.Disconnect()
		o.setState(StateDisconnected)
	}()

	if err := o.hydrate(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	o.setState(StateActive)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-o.terminal:
			// The transport gave up redialing. Returning the error puts the
			// whole session back under the supervisor's restart policy,
			// which opens a fresh connection with a fresh retry budget.
			o.log.Error("push channel unrecoverable", "error", err)
			return fmt.Errorf("push channel: %w", err)
		case evt := <-o.events:
			o.handleEvent(ctx, evt)
		case result := <-o.fetches:
			o.applyFetch(result)
		case fn := <-o.control:
			fn(ctx)
		}
	}
}

// hydrate pulls the conversation snapshot and joins every conversation on
// the push channel. Server-side counters are canonical here: a directory
// replace supersedes any local unread state.
func (o *Orchestrator) hydrate(ctx context.Context) error {
	chats, err := o.fetcher.ListChats(ctx, o.identity.UserID)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.directory.ReplaceAll(chats)
	o.mu.Unlock()

	for _, chat := range chats {
		join := event.JoinChat{ChatID: chat.ID, Username: o.identity.UserID}
		if err = o.transport.Send(ctx, join); err != nil {
			return err
		}
	}
	return nil
}

// resync runs after a confirmed reconnect. The transport repeats the
// identity announce on every fresh socket before signalling, so here the
// tracker waits for the fresh presence snapshot, the directory reloads from
// the backend, and the open timeline is refetched.
func (o *Orchestrator) resync(ctx context.Context) {
	o.mu.Lock()
	o.tracker.Reset()
	open := o.open
	o.mu.Unlock()

	if err := o.hydrate(ctx); err != nil {
		o.log.Error("resync failed", "error", err)
		return
	}
	o.setState(StateActive)

	if open != "" {
		o.requestHistory(ctx, open)
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, evt event.InboundEvent) {
	switch e := evt.(type) {
	case event.NewMessage:
		o.handleNewMessage(e)
	case event.PresenceChanged:
		o.handlePresence(e)
	case event.NewConversation:
		o.handleNewConversation(ctx, e)
	default:
		o.log.Warn("unhandled event", "kind", evt.Kind())
	}
}

func (o *Orchestrator) handleNewMessage(e event.NewMessage) {
	m := domain.Message{
		ConversationID: e.ChatID,
		SenderID:       e.Sender,
		Content:        e.Content,
		SentAt:         e.At,
	}

	o.mu.Lock()
	appended := o.timelines.Append(m)
	open := o.open
	if appended {
		switch {
		case open == m.ConversationID:
			o.directory.RecordIncomingMessage(m.ConversationID, m.Content, true)
		case m.SenderID == o.identity.UserID:
			// Own echo in a background conversation: the preview moves,
			// the unread counter stays where it was.
			o.directory.RefreshPreview(m.ConversationID, m.Content)
		default:
			o.directory.RecordIncomingMessage(m.ConversationID, m.Content, false)
		}
	}
	o.mu.Unlock()

	if !appended {
		o.log.Debug("duplicate message dropped",
			"chat_id", m.ConversationID, "sender", m.SenderID)
		return
	}

	if o.index != nil {
		if err := o.index.Index(m); err != nil {
			o.log.Error("index message", "error", err)
		}
	}

	decision := o.dispatcher.OnIncomingMessage(m, o.identity.UserID, open)
	if o.sink != nil && (decision.PlaySound || decision.ShowToast) {
		o.sink.OnMessageAlert(m.ConversationID, decision)
	}
}

func (o *Orchestrator) handlePresence(e event.PresenceChanged) {
	o.mu.Lock()
	delta := o.tracker.ApplySnapshot(e.OnlineUsers)
	o.mu.Unlock()

	if delta.Empty() {
		return
	}
	toasts := o.dispatcher.OnPresenceDelta(delta, o.identity.UserID)
	if o.sink != nil && len(toasts) > 0 {
		o.sink.OnPresenceAlert(toasts)
	}
}

func (o *Orchestrator) handleNewConversation(ctx context.Context, e event.NewConversation) {
	o.mu.Lock()
	adopted := o.directory.UpsertFromNewConversation(e.Chat)
	o.mu.Unlock()

	if !adopted {
		return
	}
	join := event.JoinChat{ChatID: e.Chat.ID, Username: o.identity.UserID}
	if err := o.transport.Send(ctx, join); err != nil {
		o.log.Error("join new conversation", "error", err, "chat_id", e.Chat.ID)
	}
}

// requestHistory starts a tagged asynchronous fetch; only the newest tag
// per conversation is applied when results come back.
func (o *Orchestrator) requestHistory(ctx context.Context, id domain.ConversationID) {
	tag := uuid.New()
	o.mu.Lock()
	o.latestFetch[id] = tag
	o.mu.Unlock()

	go func() {
		messages, err := o.fetcher.FetchMessages(ctx, id)
		result := fetchResult{conversation: id, tag: tag, messages: messages, err: err}
		select {
		case o.fetches <- result:
		case <-ctx.Done():
		}
	}()
}

func (o *Orchestrator) applyFetch(result fetchResult) {
	o.mu.Lock()
	current := o.latestFetch[result.conversation]
	o.mu.Unlock()

	if current != result.tag {
		o.log.Debug("stale history fetch discarded", "chat_id", result.conversation)
		return
	}
	if result.err != nil {
		o.log.Error("history fetch failed",
			"error", result.err, "chat_id", result.conversation)
		return
	}

	o.mu.Lock()
	o.timelines.LoadHistory(result.conversation, result.messages)
	o.mu.Unlock()

	if o.index != nil {
		o.index.IndexAll(result.messages)
	}
}

// OpenConversation makes id the open conversation: its unread counter pins
// to zero, a read acknowledgement goes out, and its history is (re)fetched.
func (o *Orchestrator) OpenConversation(ctx context.Context, id domain.ConversationID) error {
	return o.submit(ctx, func(loopCtx context.Context) {
		o.mu.Lock()
		o.open = id
		o.directory.MarkRead(id)
		o.mu.Unlock()

		if err := o.transport.Send(loopCtx, event.ReadMessage{ChatID: id}); err != nil {
			o.log.Error("acknowledge read", "error", err, "chat_id", id)
		}
		o.requestHistory(loopCtx, id)
	})
}

// CloseConversation clears the open conversation; later messages for it
// count as unread again.
func (o *Orchestrator) CloseConversation(ctx context.Context) error {
	return o.submit(ctx, func(context.Context) {
		o.mu.Lock()
		o.open = ""
		o.mu.Unlock()
	})
}

// SendMessage posts content to a conversation. The local timeline is not
// touched here; the server echoes the message back on the push channel and
// the echo flows through the same path as everyone else's messages.
func (o *Orchestrator) SendMessage(ctx context.Context, id domain.ConversationID, content string) error {
	o.mu.RLock()
	chat, ok := o.directory.Get(id)
	o.mu.RUnlock()
	if !ok {
		return fmt.Errorf("send to %s: unknown conversation", id)
	}

	return o.transport.Send(ctx, event.PostMessage{
		ChatID:       id,
		Content:      content,
		Sender:       o.identity.UserID,
		Participants: chat.Participants,
	})
}

// AdoptConversation registers a conversation created through the REST API
// and joins it on the push channel.
func (o *Orchestrator) AdoptConversation(ctx context.Context, chat domain.Conversation) error {
	return o.submit(ctx, func(loopCtx context.Context) {
		o.handleNewConversation(loopCtx, event.NewConversation{Chat: chat})
	})
}

// Logout tears the session down: the push channel closes and every local
// store is discarded. Nothing carries over into the next login.
func (o *Orchestrator) Logout(ctx context.Context) error {
	return o.submit(ctx, func(context.Context) {
		_ = o.transport.Disconnect()

		o.mu.Lock()
		o.directory.ReplaceAll(nil)
		o.timelines.Reset()
		o.tracker.Reset()
		o.open = ""
		o.latestFetch = make(map[domain.ConversationID]uuid.UUID)
		o.state = StateDisconnected
		o.mu.Unlock()
	})
}

func (o *Orchestrator) submit(ctx context.Context, fn func(ctx context.Context)) error {
	select {
	case o.control <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.log.Info("session state", "state", string(s))
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Conversations lists the directory, optionally filtered by a
// case-insensitive name query.
func (o *Orchestrator) Conversations(query string) []domain.Conversation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.directory.ListOrdered(query)
}

// Timeline returns an ordered snapshot of one conversation's messages.
func (o *Orchestrator) Timeline(id domain.ConversationID) []domain.Message {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.timelines.TimelineOf(id)
}

// TimelineByDay returns the open-conversation rendering view: messages
// grouped under Today/Yesterday/date headers.
func (o *Orchestrator) TimelineByDay(id domain.ConversationID, now time.Time) []projection.DayBucket {
	return projection.GroupByDay(o.Timeline(id), now)
}

func (o *Orchestrator) TotalUnread() uint {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.directory.TotalUnread()
}

func (o *Orchestrator) IsOnline(user domain.UserID) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tracker.IsOnline(user)
}
