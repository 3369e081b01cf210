package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketsEndingMonths(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	buckets := bucketsEnding(now, "month", 3)

	require.Len(t, buckets, 3)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), buckets[1])
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), buckets[2])
}

func TestBucketsEndingMonthsAcrossYear(t *testing.T) {
	now := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	buckets := bucketsEnding(now, "month", 3)

	require.Len(t, buckets, 3)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), buckets[1])
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), buckets[2])
}

func TestBucketsEndingWeeks(t *testing.T) {
	// 2026-03-11 is a Wednesday; the containing ISO week starts Monday 03-09
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	buckets := bucketsEnding(now, "week", 2)

	require.Len(t, buckets, 2)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), buckets[1])
	assert.Equal(t, time.Monday, buckets[0].Weekday())
	assert.Equal(t, time.Monday, buckets[1].Weekday())
}

func TestBucketsEndingWeekOnMonday(t *testing.T) {
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // Monday
	buckets := bucketsEnding(now, "week", 1)

	require.Len(t, buckets, 1)
	assert.Equal(t, now, buckets[0])
}

func TestBucketsEndingDays(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	buckets := bucketsEnding(now, "day", 3)

	require.Len(t, buckets, 3)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), buckets[1])
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), buckets[2])
}

func TestBucketsEndingDaysAcrossMonth(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	buckets := bucketsEnding(now, "day", 2)

	require.Len(t, buckets, 2)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), buckets[1])
}

func TestBucketsEndingYears(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	buckets := bucketsEnding(now, "year", 3)

	require.Len(t, buckets, 3)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), buckets[1])
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), buckets[2])
}
