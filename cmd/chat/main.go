package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-client/contract"
	"chat-client/domain"
	"chat-client/errors"
	"chat-client/internal"
	"chat-client/notify"
	"chat-client/realtime"
	"chat-client/rest"
	"chat-client/runtime"
	"chat-client/runtime/workers"
	"chat-client/search"
	"chat-client/services"
	"chat-client/storage"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the session lifecycle, and centralizes error reporting.
// The pattern keeps defers (database, index, connection teardown) running before the process exits
// and keeps the wiring testable.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Session store (BadgerDB)
	db, err := storage.Open(config.BadgerFilepath)
	if err != nil {
		return exitRuntime, fmt.Errorf("session store opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing session store...")
		_ = db.Close()
	}()
	store := storage.NewCredentialStore(db, log)

	factory := func(creds domain.Credentials) *rest.Client {
		opts := []rest.Option{}
		if config.HTTPTimeout > 0 {
			opts = append(opts, rest.WithTimeout(config.HTTPTimeout))
		}
		return rest.NewClient(log, config.ServerURL, creds, opts...)
	}
	sessions := services.NewSessionService(log, store, factory)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Session: restore silently, fall back to the configured credentials
	identity, client, err := sessions.Restore(ctx)
	if stderrors.Is(err, errors.ErrSessionNotFound) {
		if config.Username == "" || config.Password == "" {
			return exitConfig, fmt.Errorf("no stored session; set CHAT_USERNAME and CHAT_PASSWORD")
		}
		identity, client, err = sessions.Login(ctx, config.Username, config.Password)
	}
	if err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}

	// 5. Notifications
	var mentions *notify.MentionMatcher
	if keywords := config.Keywords(); len(keywords) > 0 {
		mentions, err = notify.NewMentionMatcher(keywords)
		if err != nil {
			return exitConfig, err
		}
	}
	dispatcher := notify.NewDispatcher(log, mentions)

	// 6. Optional local search index
	var index *search.MessageIndex
	if config.BlugeFilepath != "" {
		index, err = search.OpenIndex(config.BlugeFilepath, log)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to open message index: %w", err)
		}
		defer func() {
			log.Info("Closing message index...")
			_ = index.Close()
		}()
	}

	// 7. Push channel & engine
	registry := realtime.NewRegistry()
	conn := registry.Acquire(log, config.ServerURL, realtime.Options{
		ReconnectBaseDelay:   config.ReconnectBaseDelay,
		ReconnectMaxDelay:    config.ReconnectMaxDelay,
		MaxReconnectAttempts: config.MaxReconnectAttempts,
	})
	defer func() { _ = registry.Teardown() }()

	orchestratorOpts := []runtime.OrchestratorOption{
		runtime.WithAlertSink(consoleSink{}),
	}
	if index != nil {
		orchestratorOpts = append(orchestratorOpts, runtime.WithSearchIndex(index))
	}
	orchestrator := runtime.NewOrchestrator(log, conn, client, identity, dispatcher, orchestratorOpts...)

	chats := services.NewChatService(log, orchestrator, client, index)

	// 8. Supervised run: the engine and the keepalive restart on failure,
	// the REPL owns the terminal until the context ends.
	go repl(ctx, stop, log, chats, orchestrator, sessions)

	sup := workers.NewSupervisor(log)
	sup.Add(orchestrator, workers.NewKeepaliveWorker(log, conn, config.KeepaliveInterval))
	sup.Run(ctx)

	return exitOK, nil
}

// consoleSink renders notification decisions on the terminal.
type consoleSink struct{}

func (consoleSink) OnMessageAlert(conversation domain.ConversationID, decision notify.Decision) {
	marker := ""
	if decision.Mentioned {
		marker = " [mention]"
	}
	fmt.Printf("\n🔔 %s%s: %s\n> ", conversation, marker, decision.Preview)
}

func (consoleSink) OnPresenceAlert(toasts []notify.PresenceToast) {
	for _, toast := range toasts {
		fmt.Printf("\n%s\n> ", toast.Text)
	}
}

var _ contract.AlertSink = consoleSink{}

// repl is a minimal command loop; it is the UI stand-in, not the engine.
func repl(
	ctx context.Context,
	stop context.CancelFunc,
	log *slog.Logger,
	chats *services.ChatService,
	orchestrator *runtime.Orchestrator,
	sessions *services.SessionService,
) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}

		var err error
		switch fields[0] {
		case "list":
			query := strings.Join(fields[1:], " ")
			for _, chat := range chats.Conversations(query) {
				fmt.Printf("%s  %s (unread: %d)  %s\n",
					chat.ID, chat.DisplayName, chat.UnreadCount, chat.LatestPreview)
			}
		case "open":
			if len(fields) == 2 {
				err = chats.OpenConversation(ctx, domain.ConversationID(fields[1]))
				for _, bucket := range orchestrator.TimelineByDay(domain.ConversationID(fields[1]), time.Now()) {
					fmt.Printf("--- %s ---\n", bucket.Label)
					for _, m := range bucket.Messages {
						fmt.Printf("[%s] %s: %s\n", m.SentAt.Format("15:04"), m.SenderID, m.Content)
					}
				}
			}
		case "close":
			err = chats.CloseConversation(ctx)
		case "send":
			if len(fields) >= 3 {
				err = chats.SendMessage(ctx, domain.ConversationID(fields[1]), strings.Join(fields[2:], " "))
			}
		case "new":
			if len(fields) == 2 {
				var participants []domain.UserID
				for _, name := range strings.Split(fields[1], ",") {
					participants = append(participants, domain.UserID(name))
				}
				_, err = chats.CreateConversation(ctx, participants)
			}
		case "search":
			var hits []search.Hit
			hits, err = chats.SearchMessages(ctx, "", strings.Join(fields[1:], " "), 20)
			for _, hit := range hits {
				fmt.Printf("%s  %s: %s\n", hit.ConversationID, hit.SenderID, hit.Content)
			}
		case "logout":
			if err = sessions.Logout(ctx); err == nil {
				err = orchestrator.Logout(ctx)
			}
			stop()
			return
		case "quit", "exit":
			stop()
			return
		default:
			fmt.Println("commands: list [query] | open <chat> | close | send <chat> <text> | new <user,user> | search <text> | logout | quit")
		}

		if err != nil {
			log.Error("command failed", "error", err)
		}
		fmt.Print("> ")
	}
}
