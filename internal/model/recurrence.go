package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RulePrefix marks the start of every encoded recurrence rule.
const RulePrefix = "RRULE:"

const (
	untilDateLayout     = "20060102"
	untilDateTimeLayout = "20060102T150405Z"
	// Older documents carried the start time verbatim after the date.
	untilLegacyLayout = "20060102T15:04:05Z"
)

var (
	ErrMissingFrequency = errors.New("model: recurrence rule has no FREQ")
	ErrUnknownFrequency = errors.New("model: unknown recurrence frequency")
	ErrInvalidInterval  = errors.New("model: invalid recurrence interval")
	ErrInvalidWeekday   = errors.New("model: invalid BYDAY value")
	ErrInvalidMonth     = errors.New("model: invalid BYMONTH value")
	ErrInvalidUntil     = errors.New("model: invalid UNTIL value")
	ErrInvalidCount     = errors.New("model: invalid COUNT value")
)

// Frequency values follow the order of the frequency selector.
type Frequency int

const (
	Minutely Frequency = iota
	Hourly
	Daily
	Weekly
	Monthly
	Yearly
)

var frequencyNames = [...]string{"MINUTELY", "HOURLY", "DAILY", "WEEKLY", "MONTHLY", "YEARLY"}

func (f Frequency) IsValid() bool {
	return f >= Minutely && f <= Yearly
}

func (f Frequency) String() string {
	if !f.IsValid() {
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
	return frequencyNames[f]
}

// ParseFrequency accepts rule names in any case.
func ParseFrequency(s string) (Frequency, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range frequencyNames {
		if name == s {
			return Frequency(i), true
		}
	}
	return 0, false
}

// WeekdaySet is a set of weekdays indexed by time.Weekday.
type WeekdaySet uint8

// weekOrder is the canonical BYDAY emission order.
var weekOrder = [...]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

var weekdayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && s&(1<<uint(d)) != 0
}

func (s WeekdaySet) IsEmpty() bool { return s == 0 }

// Days returns the members in canonical order, Monday first.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for _, d := range weekOrder {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Codes returns the two-letter rule codes of the members in canonical order.
func (s WeekdaySet) Codes() []string {
	days := s.Days()
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, weekdayCodes[d])
	}
	return out
}

// ParseWeekdayCode maps a two-letter rule code to a weekday.
func ParseWeekdayCode(code string) (time.Weekday, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for d, c := range weekdayCodes {
		if c == code {
			return d, true
		}
	}
	return 0, false
}

// MonthSet is a set of months indexed by time.Month.
type MonthSet uint16

func NewMonthSet(months ...time.Month) MonthSet {
	var s MonthSet
	for _, m := range months {
		s = s.With(m)
	}
	return s
}

func (s MonthSet) With(m time.Month) MonthSet {
	if m < time.January || m > time.December {
		return s
	}
	return s | 1<<uint(m)
}

func (s MonthSet) Has(m time.Month) bool {
	return m >= time.January && m <= time.December && s&(1<<uint(m)) != 0
}

func (s MonthSet) IsEmpty() bool { return s == 0 }

func (s MonthSet) Months() []time.Month {
	out := make([]time.Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

type TerminationKind int

const (
	EndNever TerminationKind = iota
	EndUntil
	EndCount
)

// Termination says when a recurrence stops. Until and Count are never both
// in effect: Kind selects one.
type Termination struct {
	Kind         TerminationKind
	Until        time.Time
	UntilHasTime bool
	Count        int
}

func NeverEnds() Termination {
	return Termination{Kind: EndNever}
}

// UntilDate ends the recurrence on t. Without withTime only the UTC date of
// t is kept.
func UntilDate(t time.Time, withTime bool) Termination {
	t = t.UTC()
	if withTime {
		t = t.Truncate(time.Second)
	} else {
		y, m, d := t.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return Termination{Kind: EndUntil, Until: t, UntilHasTime: withTime}
}

// AfterCount ends the recurrence after n occurrences. n <= 0 never ends.
func AfterCount(n int) Termination {
	if n <= 0 {
		return NeverEnds()
	}
	return Termination{Kind: EndCount, Count: n}
}

// UntilFromStart builds an UNTIL termination from a YYYY-MM-DD date, taking
// the time of day from the task's start date when it has one.
func UntilFromStart(untilDate, startDate string) (Termination, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(untilDate))
	if err != nil {
		return Termination{}, fmt.Errorf("%w: %q", ErrInvalidDate, untilDate)
	}
	if startDate == "" {
		return UntilDate(day, false), nil
	}
	start, hasTime, err := ParseDate(startDate)
	if err != nil {
		return Termination{}, err
	}
	if !hasTime {
		return UntilDate(day, false), nil
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
	return UntilDate(at, true), nil
}

func (t Termination) equal(o Termination) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case EndUntil:
		return t.Until.Equal(o.Until) && t.UntilHasTime == o.UntilHasTime
	case EndCount:
		return t.Count == o.Count
	default:
		return true
	}
}

type RecurrenceSpec struct {
	Frequency   Frequency
	Interval    int
	Weekdays    WeekdaySet
	Months      MonthSet
	Termination Termination
}

// DefaultRecurrence is the rule a fresh editor starts from: daily, every day,
// forever.
func DefaultRecurrence() RecurrenceSpec {
	return RecurrenceSpec{Frequency: Daily, Interval: 1, Termination: NeverEnds()}
}

// Normalize clamps the spec to the values the encoder can express.
func (s RecurrenceSpec) Normalize() RecurrenceSpec {
	if !s.Frequency.IsValid() {
		s.Frequency = Daily
	}
	if s.Interval < 1 {
		s.Interval = 1
	}
	s.Weekdays &= 0x7f
	s.Months &= 0x1ffe
	switch s.Termination.Kind {
	case EndUntil:
		s.Termination = UntilDate(s.Termination.Until, s.Termination.UntilHasTime)
	case EndCount:
		s.Termination = AfterCount(s.Termination.Count)
	default:
		s.Termination = NeverEnds()
	}
	return s
}

func (s RecurrenceSpec) Equal(o RecurrenceSpec) bool {
	return s.Frequency == o.Frequency &&
		s.Interval == o.Interval &&
		s.Weekdays == o.Weekdays &&
		s.Months == o.Months &&
		s.Termination.equal(o.Termination)
}

// EncodeRecurrence renders spec as a canonical rule string, for example
// "RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=5;".
func EncodeRecurrence(spec RecurrenceSpec) string {
	spec = spec.Normalize()

	var b strings.Builder
	b.WriteString(RulePrefix)
	writeToken(&b, "FREQ", spec.Frequency.String())
	writeToken(&b, "INTERVAL", strconv.Itoa(spec.Interval))
	if !spec.Weekdays.IsEmpty() {
		writeToken(&b, "BYDAY", strings.Join(spec.Weekdays.Codes(), ","))
	}
	if !spec.Months.IsEmpty() {
		months := spec.Months.Months()
		parts := make([]string, 0, len(months))
		for _, m := range months {
			parts = append(parts, strconv.Itoa(int(m)))
		}
		writeToken(&b, "BYMONTH", strings.Join(parts, ","))
	}
	switch spec.Termination.Kind {
	case EndUntil:
		layout := untilDateLayout
		if spec.Termination.UntilHasTime {
			layout = untilDateTimeLayout
		}
		writeToken(&b, "UNTIL", spec.Termination.Until.Format(layout))
	case EndCount:
		writeToken(&b, "COUNT", strconv.Itoa(spec.Termination.Count))
	}
	return b.String()
}

func writeToken(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte(';')
}

// DecodeError lists every component of a rule that could not be decoded.
type DecodeError struct {
	Rule     string
	Problems []error
}

func (e *DecodeError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return fmt.Sprintf("decode %q: %s", e.Rule, strings.Join(msgs, "; "))
}

func (e *DecodeError) Unwrap() []error { return e.Problems }

// DecodeRecurrence never fails: every missing or malformed component falls
// back to its default.
func DecodeRecurrence(rule string) RecurrenceSpec {
	spec, _ := decodeRecurrence(rule)
	return spec
}

// DecodeRecurrenceStrict decodes like DecodeRecurrence but reports the
// components it had to default, including a missing FREQ.
func DecodeRecurrenceStrict(rule string) (RecurrenceSpec, error) {
	spec, problems := decodeRecurrence(rule)
	if len(problems) > 0 {
		return spec, &DecodeError{Rule: rule, Problems: problems}
	}
	return spec, nil
}

func decodeRecurrence(rule string) (RecurrenceSpec, []error) {
	spec := DefaultRecurrence()
	values := ruleValues(rule)
	var problems []error

	if raw, ok := values["FREQ"]; !ok {
		problems = append(problems, ErrMissingFrequency)
	} else if f, ok := ParseFrequency(raw); ok {
		spec.Frequency = f
	} else {
		problems = append(problems, fmt.Errorf("%w: %q", ErrUnknownFrequency, raw))
	}

	if raw, ok := values["INTERVAL"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			spec.Interval = n
		} else {
			problems = append(problems, fmt.Errorf("%w: %q", ErrInvalidInterval, raw))
		}
	}

	if raw, ok := values["BYDAY"]; ok {
		for _, code := range splitList(raw) {
			d, ok := ParseWeekdayCode(code)
			if !ok {
				problems = append(problems, fmt.Errorf("%w: %q", ErrInvalidWeekday, code))
				continue
			}
			spec.Weekdays = spec.Weekdays.With(d)
		}
	}

	if raw, ok := values["BYMONTH"]; ok {
		for _, item := range splitList(raw) {
			n, err := strconv.Atoi(item)
			if err != nil || n < 1 || n > 12 {
				problems = append(problems, fmt.Errorf("%w: %q", ErrInvalidMonth, item))
				continue
			}
			spec.Months = spec.Months.With(time.Month(n))
		}
	}

	if raw, ok := values["UNTIL"]; ok {
		if until, withTime, err := parseUntil(raw); err == nil {
			spec.Termination = UntilDate(until, withTime)
			return spec, problems
		}
		problems = append(problems, fmt.Errorf("%w: %q", ErrInvalidUntil, raw))
	}

	if raw, ok := values["COUNT"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			spec.Termination = AfterCount(n)
		} else {
			problems = append(problems, fmt.Errorf("%w: %q", ErrInvalidCount, raw))
		}
	}
	return spec, problems
}

// ruleValues splits a rule into KEY=VALUE pairs. Later keys replace earlier
// ones.
func ruleValues(rule string) map[string]string {
	body := strings.TrimSpace(rule)
	if len(body) >= len(RulePrefix) && strings.EqualFold(body[:len(RulePrefix)], RulePrefix) {
		body = body[len(RulePrefix):]
	}
	out := make(map[string]string)
	for _, token := range strings.Split(body, ";") {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseUntil(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(untilDateTimeLayout, raw); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(untilLegacyLayout, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(untilDateLayout, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, false, nil
}
