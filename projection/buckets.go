package projection

import (
	"time"

	"chat-client/domain"
)

// DayBucket groups consecutive messages sent on the same local calendar day.
type DayBucket struct {
	Label    string
	Messages []domain.Message
}

// DayLabel names the calendar day of sentAt relative to now: "Today",
// "Yesterday", or a formatted date. The comparison is local calendar date
// equality, not an elapsed-time threshold, so 23:59 and 00:01 the next
// minute fall in different buckets while 23 hours apart on one day do not.
func DayLabel(sentAt, now time.Time) string {
	loc := now.Location()
	day := sentAt.In(loc)

	if sameDay(day, now) {
		return "Today"
	}
	if sameDay(day, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return day.Format("January 2, 2006")
}

// GroupByDay splits an ordered timeline into consecutive day buckets.
// Pure display computation, no stored state.
func GroupByDay(messages []domain.Message, now time.Time) []DayBucket {
	var buckets []DayBucket
	for _, m := range messages {
		label := DayLabel(m.SentAt, now)
		if n := len(buckets); n > 0 && buckets[n-1].Label == label {
			buckets[n-1].Messages = append(buckets[n-1].Messages, m)
			continue
		}
		buckets = append(buckets, DayBucket{Label: label, Messages: []domain.Message{m}})
	}
	return buckets
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
