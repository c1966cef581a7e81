package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-client/domain"

	"github.com/stretchr/testify/require"
)

func openIndex(t *testing.T) *MessageIndex {
	t.Helper()
	index, err := OpenIndex(t.TempDir(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func message(conv domain.ConversationID, sender domain.UserID, content string, at time.Time) domain.Message {
	return domain.Message{ConversationID: conv, SenderID: sender, Content: content, SentAt: at}
}

func TestMessageIndex_SearchByContent(t *testing.T) {
	req := require.New(t)
	index := openIndex(t)
	now := time.Now().UTC().Truncate(time.Second)

	index.IndexAll([]domain.Message{
		message("c1", "alice", "the deploy went fine", now),
		message("c1", "bob", "lunch at noon?", now.Add(time.Minute)),
		message("c2", "carol", "deploy is broken again", now.Add(2*time.Minute)),
	})

	hits, err := index.Search(context.Background(), "", "deploy", 10)

	req.NoError(err)
	req.Len(hits, 2)
}

func TestMessageIndex_RestrictToConversation(t *testing.T) {
	req := require.New(t)
	index := openIndex(t)
	now := time.Now().UTC().Truncate(time.Second)

	index.IndexAll([]domain.Message{
		message("c1", "alice", "the deploy went fine", now),
		message("c2", "carol", "deploy is broken again", now.Add(time.Minute)),
	})

	hits, err := index.Search(context.Background(), "c2", "deploy", 10)

	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(domain.ConversationID("c2"), hits[0].ConversationID)
	req.Equal(domain.UserID("carol"), hits[0].SenderID)
	req.Equal("deploy is broken again", hits[0].Content)
	req.True(hits[0].SentAt.Equal(now.Add(time.Minute)))
}

func TestMessageIndex_ReindexIsIdempotent(t *testing.T) {
	req := require.New(t)
	index := openIndex(t)
	at := time.Now().UTC().Truncate(time.Second)

	// Indexing the same fetched history twice must not duplicate hits
	m := message("c1", "alice", "idempotent indexing", at)
	req.NoError(index.Index(m))
	req.NoError(index.Index(m))

	hits, err := index.Search(context.Background(), "c1", "idempotent", 10)

	req.NoError(err)
	req.Len(hits, 1)
}

func TestMessageIndex_NoMatches(t *testing.T) {
	req := require.New(t)
	index := openIndex(t)

	req.NoError(index.Index(message("c1", "alice", "hello", time.Now())))

	hits, err := index.Search(context.Background(), "", "absent", 10)

	req.NoError(err)
	req.Empty(hits)
}
