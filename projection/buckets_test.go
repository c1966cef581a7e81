package projection

import (
	"testing"
	"time"

	"chat-client/domain"

	"github.com/stretchr/testify/require"
)

func TestDayLabel_TodayAndYesterday(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.Local)

	require.Equal(t, "Today", DayLabel(now.Add(-time.Hour), now))
	require.Equal(t, "Yesterday", DayLabel(now.Add(-24*time.Hour), now))
	require.Equal(t, "March 8, 2026", DayLabel(now.Add(-48*time.Hour), now))
}

func TestDayLabel_MidnightBoundary(t *testing.T) {
	// Two minutes apart, different calendar days
	before := time.Date(2026, time.March, 9, 23, 59, 59, 0, time.Local)
	after := time.Date(2026, time.March, 10, 0, 0, 1, 0, time.Local)
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.Local)

	require.Equal(t, "Yesterday", DayLabel(before, now))
	require.Equal(t, "Today", DayLabel(after, now))
	require.NotEqual(t, DayLabel(before, now), DayLabel(after, now))
}

func TestDayLabel_SameDayHoursApart(t *testing.T) {
	// 23 hours apart but the same calendar day: one bucket
	morning := time.Date(2026, time.March, 10, 0, 30, 0, 0, time.Local)
	night := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.Local)
	now := time.Date(2026, time.March, 10, 23, 45, 0, 0, time.Local)

	require.Equal(t, DayLabel(morning, now), DayLabel(night, now))
}

func TestGroupByDay_ConsecutiveBuckets(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local)
	timeline := []domain.Message{
		msg("c1", "alice", "old", time.Date(2026, time.March, 8, 9, 0, 0, 0, time.Local)),
		msg("c1", "bob", "older evening", time.Date(2026, time.March, 8, 22, 0, 0, 0, time.Local)),
		msg("c1", "alice", "yesterday", time.Date(2026, time.March, 9, 10, 0, 0, 0, time.Local)),
		msg("c1", "bob", "fresh", time.Date(2026, time.March, 10, 11, 0, 0, 0, time.Local)),
	}

	buckets := GroupByDay(timeline, now)

	require.Len(t, buckets, 3)
	require.Equal(t, "March 8, 2026", buckets[0].Label)
	require.Len(t, buckets[0].Messages, 2)
	require.Equal(t, "Yesterday", buckets[1].Label)
	require.Equal(t, "Today", buckets[2].Label)
}

func TestGroupByDay_EmptyTimeline(t *testing.T) {
	require.Empty(t, GroupByDay(nil, time.Now()))
}
