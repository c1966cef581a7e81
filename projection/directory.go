package projection

import (
	"strings"
	"time"

	"chat-client/domain"

	"github.com/samber/lo"
)

// Directory is the ordered collection of conversation summaries. Ordering is
// insertion order from the backing store: the list never re-sorts on unread
// count, so a conversation keeps a stable position while counters move.
type Directory struct {
	self  domain.UserID
	order []domain.ConversationID
	byID  map[domain.ConversationID]*domain.Conversation
}

func NewDirectory(self domain.UserID) *Directory {
	return &Directory{
		self: self,
		byID: make(map[domain.ConversationID]*domain.Conversation),
	}
}

// ReplaceAll installs the result of the initial REST fetch.
func (d *Directory) ReplaceAll(conversations []domain.Conversation) {
	d.order = d.order[:0]
	d.byID = make(map[domain.ConversationID]*domain.Conversation, len(conversations))
	for _, c := range conversations {
		c := c
		d.order = append(d.order, c.ID)
		d.byID[c.ID] = &c
	}
}

// UpsertFromNewConversation applies a new_chat push. Conversations that do
// not name the local user as a participant are ignored. A fresh entry starts
// with an unread count of zero.
func (d *Directory) UpsertFromNewConversation(c domain.Conversation) bool {
	if !c.HasParticipant(d.self) {
		return false
	}

	if existing, ok := d.byID[c.ID]; ok {
		existing.DisplayName = c.DisplayName
		existing.AvatarRef = c.AvatarRef
		existing.Participants = c.Participants
		return true
	}

	c.UnreadCount = 0
	d.order = append(d.order, c.ID)
	d.byID[c.ID] = &c
	return true
}

// RecordIncomingMessage is the only place unread counts move upward, shared
// by the push path and the fetch path. For the currently open conversation
// the counter pins to zero and only the preview moves.
func (d *Directory) RecordIncomingMessage(id domain.ConversationID, preview string, isCurrentlyOpen bool) bool {
	c, ok := d.byID[id]
	if !ok {
		return false
	}

	c.LatestPreview = preview
	c.LastActivityAt = time.Now()
	if isCurrentlyOpen {
		c.UnreadCount = 0
	} else {
		c.UnreadCount++
	}
	return true
}

// RefreshPreview moves the preview and activity marker without touching the
// unread counter. Own echoes land here: they must not inflate the counter,
// but they must not wipe unread state accumulated while the conversation
// sat in the background either.
func (d *Directory) RefreshPreview(id domain.ConversationID, preview string) bool {
	c, ok := d.byID[id]
	if !ok {
		return false
	}
	c.LatestPreview = preview
	c.LastActivityAt = time.Now()
	return true
}

// MarkRead zeroes the unread counter without touching the preview.
func (d *Directory) MarkRead(id domain.ConversationID) {
	if c, ok := d.byID[id]; ok {
		c.UnreadCount = 0
	}
}

// ListOrdered returns the conversations in stable insertion order. A non
// empty query filters by case-insensitive substring match on display name.
func (d *Directory) ListOrdered(query string) []domain.Conversation {
	needle := strings.ToLower(query)
	out := make([]domain.Conversation, 0, len(d.order))
	for _, id := range d.order {
		c := d.byID[id]
		if needle != "" && !strings.Contains(strings.ToLower(c.DisplayName), needle) {
			continue
		}
		out = append(out, *c)
	}
	return out
}

func (d *Directory) Get(id domain.ConversationID) (domain.Conversation, bool) {
	c, ok := d.byID[id]
	if !ok {
		return domain.Conversation{}, false
	}
	return *c, true
}

// TotalUnread sums the counters for badge display.
func (d *Directory) TotalUnread() uint {
	return lo.SumBy(lo.Values(d.byID), func(c *domain.Conversation) uint {
		return c.UnreadCount
	})
}
