package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"chat-client/domain"
	"chat-client/internal"
	"chat-client/projection"
	"chat-client/rest"
	"chat-client/services"
	"chat-client/storage"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// inbox is a one-shot viewer: it restores the stored session, fetches the
// conversation snapshot over REST and prints it. No push channel, no state.
func main() {
	chatID := flag.String("chat", "", "Print one conversation's timeline instead of the inbox")
	query := flag.String("query", "", "Filter conversations by name")
	flag.Parse()

	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Restore the session from the shared store.
	// BypassLockGuard allows opening while the chat client holds the lock.
	db, err := storage.OpenShared(config.BadgerFilepath)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer db.Close()

	store := storage.NewCredentialStore(db, logger)
	sessions := services.NewSessionService(logger, store, func(creds domain.Credentials) *rest.Client {
		return rest.NewClient(logger, config.ServerURL, creds)
	})

	ctx := context.Background()
	identity, client, err := sessions.Restore(ctx)
	if err != nil {
		log.Fatalf("No stored session (log in with the chat client first): %v", err)
	}

	if *chatID != "" {
		printTimeline(ctx, client, domain.ConversationID(*chatID))
		return
	}
	printInbox(ctx, client, identity.UserID, *query)
}

func printInbox(ctx context.Context, client *rest.Client, self domain.UserID, query string) {
	chats, err := client.ListChats(ctx, self)
	if err != nil {
		log.Fatalf("Failed to list conversations: %v", err)
	}

	directory := projection.NewDirectory(self)
	directory.ReplaceAll(chats)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Chat", "Name", "Unread", "Last Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, chat := range directory.ListOrdered(query) {
		unread := fmt.Sprintf("%d", chat.UnreadCount)
		if chat.UnreadCount > 0 {
			unread = color.New(color.FgRed, color.Bold).Render(unread)
		}
		table.Append([]string{
			string(chat.ID),
			chat.DisplayName,
			unread,
			chat.LatestPreview,
		})
	}
	table.Render()

	total := directory.TotalUnread()
	if total > 0 {
		fmt.Println(color.New(color.FgRed).Render(fmt.Sprintf("%d unread message(s)", total)))
	}
}

func printTimeline(ctx context.Context, client *rest.Client, id domain.ConversationID) {
	messages, err := client.FetchMessages(ctx, id)
	if err != nil {
		log.Fatalf("Failed to fetch messages: %v", err)
	}

	timelines := projection.NewTimelineStore()
	timelines.LoadHistory(id, messages)

	for _, bucket := range projection.GroupByDay(timelines.TimelineOf(id), time.Now()) {
		fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" " + bucket.Label + " "))
		for _, m := range bucket.Messages {
			fmt.Printf("[%s] %s: %s\n", m.SentAt.Local().Format("15:04"), m.SenderID, m.Content)
		}
	}
}
