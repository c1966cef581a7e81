// Package search keeps a local full-text index of every message the client
// has seen, so the user can search conversations offline. The index lives
// next to the credential store and is rebuilt lazily from fetched history.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-client/domain"

	"github.com/blugelabs/bluge"
)

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// OpenIndex opens (or creates) the bluge index at path.
func OpenIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("open message index: %w", err)
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}

// Hit is one search result, enough to jump to the message in its timeline.
type Hit struct {
	ConversationID domain.ConversationID
	SenderID       domain.UserID
	Content        string
	SentAt         time.Time
}

// Index upserts one message. The document id mirrors the timeline dedup key
// so re-indexing fetched history never duplicates entries.
func (i *MessageIndex) Index(message domain.Message) error {
	id := fmt.Sprintf("%s:%s:%d",
		message.ConversationID,
		message.SenderID,
		message.SentAt.UnixNano(),
	)

	doc := bluge.NewDocument(id).
		AddField(bluge.NewKeywordField("conversation", string(message.ConversationID)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(message.SenderID)).StoreValue()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewStoredOnlyField("sent_at", []byte(message.SentAt.Format(time.RFC3339Nano))))

	return i.writer.Update(doc.ID(), doc)
}

// IndexAll indexes a batch, logging and skipping individual failures.
func (i *MessageIndex) IndexAll(messages []domain.Message) {
	for _, message := range messages {
		if err := i.Index(message); err != nil {
			i.log.Error("index message", "error", err, "chat_id", message.ConversationID)
		}
	}
}

// Search runs a match query over message content. A non-empty conversation
// id restricts results to that timeline; empty searches everywhere.
func (i *MessageIndex) Search(ctx context.Context, conversation domain.ConversationID, query string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	match := bluge.NewMatchQuery(query).SetField("content")
	var q bluge.Query = match
	if conversation != "" {
		q = bluge.NewBooleanQuery().
			AddMust(match).
			AddMust(bluge.NewTermQuery(string(conversation)).SetField("conversation"))
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var hits []Hit
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			return hits, nil
		}

		var hit Hit
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "conversation":
				hit.ConversationID = domain.ConversationID(value)
			case "sender":
				hit.SenderID = domain.UserID(value)
			case "content":
				hit.Content = string(value)
			case "sent_at":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					hit.SentAt = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
}
