// Package schedule expands weekly meeting definitions into dated calendar
// occurrences.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Clock is a local wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

var clockLayouts = []string{"15:04", "3:04pm", "3pm", "15"}

// ParseClock accepts 24-hour ("13:30", "9:00") and 12-hour ("1:30 PM",
// "9am", "9 a.m.") forms.
func ParseClock(s string) (Clock, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", ".", "").Replace(norm)
	if norm == "" {
		return Clock{}, eris.New("schedule: empty time")
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Clock{}, eris.Errorf("schedule: unrecognized time %q", s)
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "su": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "mo": time.Monday, "m": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday, "tu": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "we": time.Wednesday, "w": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "th": time.Thursday, "r": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "fr": time.Friday, "f": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "sa": time.Saturday,
}

// ParseWeekday accepts full English day names and the usual registrar
// abbreviations, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
	if d, ok := weekdays[key]; ok {
		return d, nil
	}
	return 0, eris.Errorf("schedule: unrecognized weekday %q", s)
}
