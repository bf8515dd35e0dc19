package schedule

import (
	"sort"
	"time"

	_ "time/tzdata" // IANA zones on hosts without a zoneinfo database
)

// Horizon is how far ahead of commit time recurrences are expanded.
const Horizon = 14 * 24 * time.Hour

// Definition is one weekly recurring meeting in local wall-clock time.
type Definition struct {
	Weekday  time.Weekday
	Start    Clock
	End      Clock
	Location string
}

func (d Definition) key() [3]int {
	return [3]int{int(d.Weekday), d.Start.Minutes(), d.End.Minutes()}
}

// Overnight reports whether the meeting ends on the following day.
func (d Definition) Overnight() bool {
	return d.End.Minutes() <= d.Start.Minutes()
}

// Occurrence is one dated instance of a Definition.
type Occurrence struct {
	Definition Definition
	Start      time.Time
	End        time.Time
}

// Dedupe drops definitions that repeat the weekday, start and end of an
// earlier one. The first occurrence wins.
func Dedupe(defs []Definition) []Definition {
	seen := make(map[[3]int]bool, len(defs))
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if seen[d.key()] {
			continue
		}
		seen[d.key()] = true
		out = append(out, d)
	}
	return out
}

// Expand returns the occurrences of def whose start lies in
// [now, now+horizon). Each instant is built from the calendar date and wall
// clock in loc, so every occurrence carries the UTC offset in force on its
// own date.
func Expand(def Definition, loc *time.Location, now time.Time, horizon time.Duration) []Occurrence {
	if loc == nil {
		loc = time.UTC
	}
	end := now.Add(horizon)
	local := now.In(loc)
	y, m, d := local.Date()
	days := int(horizon/(24*time.Hour)) + 2

	var out []Occurrence
	for i := 0; i < days; i++ {
		day := time.Date(y, m, d+i, 12, 0, 0, 0, loc)
		if day.Weekday() != def.Weekday {
			continue
		}
		start := time.Date(y, m, d+i, def.Start.Hour, def.Start.Minute, 0, 0, loc)
		if start.Before(now) || !start.Before(end) {
			continue
		}
		endDay := d + i
		if def.Overnight() {
			endDay++
		}
		out = append(out, Occurrence{
			Definition: def,
			Start:      start,
			End:        time.Date(y, m, endDay, def.End.Hour, def.End.Minute, 0, 0, loc),
		})
	}
	return out
}

// Materialize expands every distinct definition and returns the occurrences
// ordered by start time.
func Materialize(defs []Definition, loc *time.Location, now time.Time, horizon time.Duration) []Occurrence {
	var out []Occurrence
	for _, def := range Dedupe(defs) {
		out = append(out, Expand(def, loc, now, horizon)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
