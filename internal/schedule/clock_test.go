package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Clock
	}{
		{"09:00", Clock{9, 0}},
		{"9:00", Clock{9, 0}},
		{"13:30", Clock{13, 30}},
		{"1:30 PM", Clock{13, 30}},
		{"1:30pm", Clock{13, 30}},
		{"9am", Clock{9, 0}},
		{"9 a.m.", Clock{9, 0}},
		{"12:00 PM", Clock{12, 0}},
		{"12:15 am", Clock{0, 15}},
		{"17", Clock{17, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClock_Invalid(t *testing.T) {
	for _, in := range []string{"", "noon-ish", "25:00", "9:75", "13pm"} {
		_, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestClock_String(t *testing.T) {
	assert.Equal(t, "09:05", Clock{9, 5}.String())
	assert.Equal(t, "23:59", Clock{23, 59}.String())
	assert.Equal(t, 545, Clock{9, 5}.Minutes())
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	tests := map[string]time.Weekday{
		"Tuesday":   time.Tuesday,
		"tue":       time.Tuesday,
		"Tues.":     time.Tuesday,
		"THURS":     time.Thursday,
		"R":         time.Thursday,
		"mon":       time.Monday,
		"  Sunday ": time.Sunday,
		"sat":       time.Saturday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWeekday("someday")
	assert.Error(t, err)
	_, err = ParseWeekday("t")
	assert.Error(t, err)
}
