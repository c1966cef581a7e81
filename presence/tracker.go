// Package presence tracks which users are currently online.
// The server resends the full resulting set on every change, so the tracker
// only replaces its snapshot and reports the transition delta.
package presence

import "chat-client/domain"

type Set map[domain.UserID]struct{}

// Delta lists the users whose status changed between two snapshots,
// computed as the symmetric difference.
type Delta struct {
	NewlyOnline  Set
	NewlyOffline Set
}

func (d Delta) Empty() bool {
	return len(d.NewlyOnline) == 0 && len(d.NewlyOffline) == 0
}

type Tracker struct {
	online Set
}

func NewTracker() *Tracker {
	return &Tracker{online: make(Set)}
}

// ApplySnapshot replaces the stored set wholesale and returns the delta
// against the previous one. Applying the same set twice yields an empty
// delta, which makes the post-reconnect full snapshot self-healing.
func (t *Tracker) ApplySnapshot(onlineUserIDs []domain.UserID) Delta {
	next := make(Set, len(onlineUserIDs))
	for _, id := range onlineUserIDs {
		next[id] = struct{}{}
	}

	delta := Delta{NewlyOnline: make(Set), NewlyOffline: make(Set)}
	for id := range next {
		if _, ok := t.online[id]; !ok {
			delta.NewlyOnline[id] = struct{}{}
		}
	}
	for id := range t.online {
		if _, ok := next[id]; !ok {
			delta.NewlyOffline[id] = struct{}{}
		}
	}

	t.online = next
	return delta
}

func (t *Tracker) IsOnline(id domain.UserID) bool {
	_, ok := t.online[id]
	return ok
}

// Reset discards the snapshot, used when the session ends.
func (t *Tracker) Reset() {
	t.online = make(Set)
}
