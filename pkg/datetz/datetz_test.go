package datetz_test

import (
	"testing"
	"time"

	"go-distribusi-ops/pkg/datetz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clock pinned to Wednesday 2025-03-12 15:04 Jakarta time.
func newTestRanger(t *testing.T) *datetz.Ranger {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	now := time.Date(2025, 3, 12, 15, 4, 0, 0, loc)
	r, err := datetz.NewRangerAt("Asia/Jakarta", func() time.Time { return now })
	require.NoError(t, err)
	return r
}

func TestRanger_Between_InclusiveEndDate(t *testing.T) {
	r := newTestRanger(t)

	from, err := r.ParseDate("2025-03-01")
	require.NoError(t, err)
	to, err := r.ParseDate("2025-03-10")
	require.NoError(t, err)

	window := r.Between(from, to)

	// An event at 23:59:59 on the end date is still inside the window.
	lastMoment := time.Date(2025, 3, 10, 23, 59, 59, 0, r.Location())
	assert.True(t, window.Contains(lastMoment))

	// Midnight of the next day is outside.
	nextMidnight := time.Date(2025, 3, 11, 0, 0, 0, 0, r.Location())
	assert.False(t, window.Contains(nextMidnight))

	// Midnight of the start date is inside.
	startMidnight := time.Date(2025, 3, 1, 0, 0, 0, 0, r.Location())
	assert.True(t, window.Contains(startMidnight))
}

func TestRanger_Between_OpenEnds(t *testing.T) {
	r := newTestRanger(t)

	from, err := r.ParseDate("2025-03-01")
	require.NoError(t, err)

	window := r.Between(from, time.Time{})
	assert.False(t, window.From.IsZero())
	assert.True(t, window.To.IsZero())

	window = r.Between(time.Time{}, from)
	assert.True(t, window.From.IsZero())
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, r.Location()), window.To)
}

func TestRanger_Shortcut_Today(t *testing.T) {
	r := newTestRanger(t)

	window, ok := r.Shortcut("today")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, r.Location()), window.From)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, r.Location()), window.To)
}

func TestRanger_Shortcut_ThisWeekStartsMonday(t *testing.T) {
	r := newTestRanger(t)

	window, ok := r.Shortcut("this_week")
	require.True(t, ok)
	// 2025-03-12 is a Wednesday; the week runs Mon 10 through Sun 16.
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, r.Location()), window.From)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, r.Location()), window.To)
}

func TestRanger_Shortcut_MonthBoundaries(t *testing.T) {
	r := newTestRanger(t)

	current, ok := r.Shortcut("current_month")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, r.Location()), current.From)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, r.Location()), current.To)

	last, ok := r.Shortcut("last_month")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, r.Location()), last.From)
	assert.Equal(t, current.From, last.To)

	// last_month.To meets current_month.From exactly: no gap, no overlap.
	boundary := current.From
	assert.False(t, last.Contains(boundary))
	assert.True(t, current.Contains(boundary))
}

func TestRanger_Shortcut_Unknown(t *testing.T) {
	r := newTestRanger(t)

	_, ok := r.Shortcut("last_quarter")
	assert.False(t, ok)
}

func TestRanger_DayKey_UsesFixedZone(t *testing.T) {
	r := newTestRanger(t)

	// 2025-03-12 18:30 UTC is already 2025-03-13 01:30 in Jakarta (UTC+7).
	utcEvening := time.Date(2025, 3, 12, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-13", r.DayKey(utcEvening))
}

func TestNewRanger_DefaultsAndErrors(t *testing.T) {
	r, err := datetz.NewRanger("")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", r.Location().String())

	_, err = datetz.NewRanger("Not/AZone")
	assert.Error(t, err)
}
