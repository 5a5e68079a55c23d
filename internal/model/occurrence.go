package model

import (
	"fmt"
	"strings"
	"time"
)

// maxPeriods bounds the search for occurrences when filters reject most
// candidates, e.g. a minutely rule limited to one month of the year.
const maxPeriods = 200000

// Preview lists up to count occurrences of the rule beginning at start
// (inclusive). COUNT is counted from start; UNTIL is inclusive.
func (s RecurrenceSpec) Preview(start time.Time, count int) []time.Time {
	if count <= 0 {
		return []time.Time{}
	}
	s = s.Normalize()
	start = start.UTC().Truncate(time.Second)

	out := make([]time.Time, 0, count)
	emitted := 0
	for period := 0; period < maxPeriods; period++ {
		for _, c := range s.periodCandidates(start, period) {
			if c.Before(start) || !s.matches(c) {
				continue
			}
			if s.pastUntil(c) {
				return out
			}
			if s.Termination.Kind == EndCount && emitted >= s.Termination.Count {
				return out
			}
			emitted++
			out = append(out, c)
			if len(out) == count {
				return out
			}
		}
	}
	return out
}

// NextAfter returns the first occurrence strictly after from, measuring the
// series from start.
func (s RecurrenceSpec) NextAfter(start, from time.Time) (time.Time, bool) {
	s = s.Normalize()
	limit := 1
	for limit <= 1<<16 {
		list := s.Preview(start, limit)
		for _, t := range list {
			if t.After(from) {
				return t, true
			}
		}
		if len(list) < limit {
			return time.Time{}, false
		}
		limit *= 4
	}
	return time.Time{}, false
}

func (s RecurrenceSpec) periodCandidates(start time.Time, period int) []time.Time {
	step := period * s.Interval
	switch s.Frequency {
	case Minutely:
		return []time.Time{start.Add(time.Duration(step) * time.Minute)}
	case Hourly:
		return []time.Time{start.Add(time.Duration(step) * time.Hour)}
	case Weekly:
		if s.Weekdays.IsEmpty() {
			return []time.Time{start.AddDate(0, 0, 7*step)}
		}
		offset := (int(start.Weekday()) + 6) % 7
		monday := start.AddDate(0, 0, 7*step-offset)
		out := make([]time.Time, 0, 7)
		for i, d := range weekOrder {
			if s.Weekdays.Has(d) {
				out = append(out, monday.AddDate(0, 0, i))
			}
		}
		return out
	case Monthly:
		first := time.Date(start.Year(), start.Month(), 1, start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
		month := first.AddDate(0, step, 0)
		return s.daysInMonth(start, month.Year(), month.Month())
	case Yearly:
		year := start.Year() + step
		months := s.Months.Months()
		if len(months) == 0 {
			months = []time.Month{start.Month()}
		}
		var out []time.Time
		for _, m := range months {
			out = append(out, s.daysInMonth(start, year, m)...)
		}
		return out
	default:
		return []time.Time{start.AddDate(0, 0, step)}
	}
}

// daysInMonth expands one month: every selected weekday when BYDAY is set,
// otherwise the start's day of month when the month has it.
func (s RecurrenceSpec) daysInMonth(start time.Time, year int, month time.Month) []time.Time {
	at := func(day int) time.Time {
		return time.Date(year, month, day, start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
	}
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if s.Weekdays.IsEmpty() {
		if start.Day() > last {
			return nil
		}
		return []time.Time{at(start.Day())}
	}
	out := make([]time.Time, 0, 5*7)
	for day := 1; day <= last; day++ {
		if t := at(day); s.Weekdays.Has(t.Weekday()) {
			out = append(out, t)
		}
	}
	return out
}

func (s RecurrenceSpec) matches(t time.Time) bool {
	if !s.Months.IsEmpty() && !s.Months.Has(t.Month()) {
		return false
	}
	if !s.Weekdays.IsEmpty() && !s.Weekdays.Has(t.Weekday()) {
		return false
	}
	return true
}

func (s RecurrenceSpec) pastUntil(t time.Time) bool {
	if s.Termination.Kind != EndUntil {
		return false
	}
	if s.Termination.UntilHasTime {
		return t.After(s.Termination.Until)
	}
	return !t.Before(s.Termination.Until.AddDate(0, 0, 1))
}

var frequencyUnits = [...]string{"minutes", "hours", "days", "weeks", "months", "years"}

// Describe renders the rule for humans, e.g.
// "Repeat every 2 weeks on MO, WE, 5 times".
func (s RecurrenceSpec) Describe() string {
	s = s.Normalize()
	var b strings.Builder
	fmt.Fprintf(&b, "Repeat every %d %s", s.Interval, frequencyUnits[s.Frequency])
	if !s.Weekdays.IsEmpty() {
		b.WriteString(" on " + strings.Join(s.Weekdays.Codes(), ", "))
	}
	if !s.Months.IsEmpty() {
		names := make([]string, 0, 12)
		for _, m := range s.Months.Months() {
			names = append(names, m.String()[:3])
		}
		b.WriteString(" in " + strings.Join(names, ", "))
	}
	switch s.Termination.Kind {
	case EndUntil:
		layout := DateLayout
		if s.Termination.UntilHasTime {
			layout = DateTimeLayout
		}
		b.WriteString(", until " + s.Termination.Until.Format(layout))
	case EndCount:
		fmt.Fprintf(&b, ", %d times", s.Termination.Count)
	default:
		b.WriteString(", infinitely")
	}
	return b.String()
}
