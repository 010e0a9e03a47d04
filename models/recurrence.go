package models

import (
	"fmt"
	"time"
)

type WindowKind string

const (
	WindowRecurring WindowKind = "recurring"
	WindowSpecific  WindowKind = "specific"
)

const dateLayout = "2006-01-02"

// Recurrence says which calendar days a window applies to: either every week on
// one weekday, or exactly one date.
type Recurrence interface {
	Kind() WindowKind
	// DayKey identifies the day a window occupies. Two windows can only clash
	// when their day keys are equal.
	DayKey() string
	AppliesTo(date time.Time) bool
}

type Weekly struct {
	Day time.Weekday
}

func (w Weekly) Kind() WindowKind { return WindowRecurring }

func (w Weekly) DayKey() string { return WeekdayKey(w.Day) }

func (w Weekly) AppliesTo(date time.Time) bool { return date.Weekday() == w.Day }

// OnDate holds a calendar date; only year, month and day are significant.
type OnDate struct {
	Date time.Time
}

func (o OnDate) Kind() WindowKind { return WindowSpecific }

func (o OnDate) DayKey() string { return DateKey(o.Date) }

func (o OnDate) AppliesTo(date time.Time) bool { return DateKey(date) == DateKey(o.Date) }

func WeekdayKey(d time.Weekday) string {
	return fmt.Sprintf("dow:%d", int(d))
}

func DateKey(date time.Time) string {
	return "date:" + date.Format(dateLayout)
}

// DayKeysFor returns the two day keys a query for date has to look at.
func DayKeysFor(date time.Time) []string {
	return []string{WeekdayKey(date.Weekday()), DateKey(date)}
}

// Midnight truncates t to the start of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, loc)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
