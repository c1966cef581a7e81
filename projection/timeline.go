// Package projection builds the local read models of the session: per
// conversation message timelines and the conversation directory. It merges
// REST-fetched snapshots with pushed events, handling ordering and
// deduplication. It does not emit events or touch the transport.
package projection

import (
	"sort"

	"chat-client/domain"
)

// TimelineStore holds one ordered, deduplicated message sequence per
// conversation. All mutation happens on the orchestrator's dispatch
// goroutine, so entry points are not locked.
type TimelineStore struct {
	byConversation map[domain.ConversationID][]domain.Message
	seen           map[domain.MessageKey]struct{}
	nextSeq        uint64
}

func NewTimelineStore() *TimelineStore {
	return &TimelineStore{
		byConversation: make(map[domain.ConversationID][]domain.Message),
		seen:           make(map[domain.MessageKey]struct{}),
	}
}

// LoadHistory replaces the stored timeline for a conversation wholesale.
// A later call supersedes an earlier one, which is what happens when the
// user reopens a conversation.
func (t *TimelineStore) LoadHistory(id domain.ConversationID, messages []domain.Message) {
	for _, old := range t.byConversation[id] {
		delete(t.seen, old.Key())
	}

	timeline := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		m.ConversationID = id
		if _, dup := t.seen[m.Key()]; dup {
			continue
		}
		t.nextSeq++
		m.Seq = t.nextSeq
		t.seen[m.Key()] = struct{}{}
		timeline = append(timeline, m)
	}

	// History arrives ordered, but a stable sort keeps the invariant even
	// for a backend that interleaves; ties stay in arrival order.
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].SentAt.Before(timeline[j].SentAt)
	})

	t.byConversation[id] = timeline
}

// Append inserts a message at its sorted position by SentAt. A message whose
// dedup key is already present leaves the timeline untouched and returns
// false; that is the guard against the same push being redelivered after a
// reconnect-triggered re-subscription.
func (t *TimelineStore) Append(m domain.Message) bool {
	if _, dup := t.seen[m.Key()]; dup {
		return false
	}

	t.nextSeq++
	m.Seq = t.nextSeq
	t.seen[m.Key()] = struct{}{}

	timeline := t.byConversation[m.ConversationID]
	// First index with a strictly later SentAt; equal timestamps land after
	// the existing entries, preserving arrival order.
	at := sort.Search(len(timeline), func(i int) bool {
		return timeline[i].SentAt.After(m.SentAt)
	})

	timeline = append(timeline, domain.Message{})
	copy(timeline[at+1:], timeline[at:])
	timeline[at] = m
	t.byConversation[m.ConversationID] = timeline
	return true
}

// TimelineOf returns an ordered snapshot of one conversation's messages.
// The slice is a copy: re-iterable, and unaffected by later mutations.
func (t *TimelineStore) TimelineOf(id domain.ConversationID) []domain.Message {
	timeline := t.byConversation[id]
	out := make([]domain.Message, len(timeline))
	copy(out, timeline)
	return out
}

func (t *TimelineStore) Len(id domain.ConversationID) int {
	return len(t.byConversation[id])
}

// Reset drops every timeline. Used on logout; the next login rebuilds from
// fetched history.
func (t *TimelineStore) Reset() {
	t.byConversation = make(map[domain.ConversationID][]domain.Message)
	t.seen = make(map[domain.MessageKey]struct{})
}
