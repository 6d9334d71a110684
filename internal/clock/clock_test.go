package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(t time.Time) Option {
	return WithNow(func() time.Time { return t })
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("default zone", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultZone, c.Location().String())
	})

	t.Run("explicit zone", func(t *testing.T) {
		c, err := Load("America/New_York")
		require.NoError(t, err)
		assert.Equal(t, "America/New_York", c.Location().String())
	})

	t.Run("unknown zone", func(t *testing.T) {
		_, err := Load("Mars/Olympus_Mons")
		require.Error(t, err)
	})

	t.Run("nil location falls back to UTC", func(t *testing.T) {
		assert.Equal(t, time.UTC, New(nil).Location())
	})
}

func TestAtLeastTomorrow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	c, err := Load("Africa/Tunis", fixed(now))
	require.NoError(t, err)

	tests := []struct {
		name     string
		deadline time.Time
		want     bool
	}{
		{"exactly one day later", now.Add(24 * time.Hour), true},
		{"one second short", now.Add(24*time.Hour - time.Second), false},
		{"a week later", now.Add(7 * 24 * time.Hour), true},
		{"in the past", now.Add(-time.Hour), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.AtLeastTomorrow(tc.deadline))
		})
	}
}

func TestAddDaysAcrossDST(t *testing.T) {
	t.Parallel()

	// 2024-03-10 is the US spring-forward day; local wall clock must be kept.
	c, err := Load("America/New_York")
	require.NoError(t, err)

	start := time.Date(2024, 3, 9, 12, 0, 0, 0, c.Location())
	next := c.AddDays(start, 1)

	assert.Equal(t, 23*time.Hour, next.Sub(start))
	local := c.Local(next)
	assert.Equal(t, 12, local.Hour())
	assert.Equal(t, 10, local.Day())
}

func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	tunis, err := time.LoadLocation("Africa/Tunis")
	require.NoError(t, err)
	c := New(tunis, fixed(time.Date(2024, 1, 1, 10, 0, 0, 0, tunis)))

	assert.Equal(t, time.UTC, c.Now().Location())
	assert.Equal(t, 9, c.Now().Hour())
}

func TestParseLocal(t *testing.T) {
	t.Parallel()

	c, err := Load("Africa/Tunis")
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		want     time.Time
		dateOnly bool
		wantErr  bool
	}{
		{
			name:  "seconds precision local",
			input: "2024-05-01T10:15:30",
			want:  time.Date(2024, 5, 1, 9, 15, 30, 0, time.UTC),
		},
		{
			name:  "minutes precision local",
			input: "2024-05-01T10:15",
			want:  time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			input:    "2024-05-01",
			want:     time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC),
			dateOnly: true,
		},
		{
			name:  "rfc3339 keeps offset",
			input: "2024-05-01T10:15:30Z",
			want:  time.Date(2024, 5, 1, 10, 15, 30, 0, time.UTC),
		},
		{name: "garbage", input: "next tuesday", wantErr: true},
		{name: "empty", input: "  ", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, dateOnly, err := c.ParseLocal(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnparseableTime)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
			assert.Equal(t, tc.dateOnly, dateOnly)
		})
	}
}

func TestDayBounds(t *testing.T) {
	t.Parallel()

	c, err := Load("Africa/Tunis")
	require.NoError(t, err)

	instant := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC) // 00:30 on May 2 in Tunis
	assert.Equal(t, time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC), c.StartOfDay(instant))
	assert.Equal(t, time.Date(2024, 5, 2, 22, 59, 59, 0, time.UTC), c.EndOfDay(instant))
}
