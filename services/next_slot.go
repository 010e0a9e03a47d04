package services

import (
	"math"
	"sort"
	"time"

	"github.com/anjiri1684/review_scheduler/models"
	"github.com/google/uuid"
)

type NextSlot struct {
	WindowID uuid.UUID `json:"window_id"`
	At       time.Time `json:"at"`
	Label    string    `json:"label"`
}

// NextAvailableSlot finds the next bookable window after now. Weekly windows
// are tried first: later today, then later this week, then the days that wrap
// into next week, and finally today's weekday a week out. Only when no weekly
// window exists does it fall back to the earliest one-off window that has not
// started yet.
func NextAvailableSlot(windows []models.AvailabilityWindow, now time.Time, loc *time.Location) (NextSlot, bool) {
	now = now.In(loc)
	today := int(now.Weekday())
	nowTOD := models.TimeOfDayOf(now, loc)

	var recurring, specific []*models.AvailabilityWindow
	for i := range windows {
		w := &windows[i]
		if !w.IsBookable() {
			continue
		}
		switch {
		case w.Kind == models.WindowRecurring && w.DayOfWeek != nil:
			recurring = append(recurring, w)
		case w.Kind == models.WindowSpecific && w.Date != nil:
			specific = append(specific, w)
		}
	}
	sort.SliceStable(recurring, func(i, j int) bool {
		if *recurring[i].DayOfWeek != *recurring[j].DayOfWeek {
			return *recurring[i].DayOfWeek < *recurring[j].DayOfWeek
		}
		return recurring[i].StartTime < recurring[j].StartTime
	})

	stages := []func(w *models.AvailabilityWindow) bool{
		func(w *models.AvailabilityWindow) bool { return *w.DayOfWeek == today && w.StartTime > nowTOD },
		func(w *models.AvailabilityWindow) bool { return *w.DayOfWeek > today },
		func(w *models.AvailabilityWindow) bool { return *w.DayOfWeek < today },
		func(w *models.AvailabilityWindow) bool { return *w.DayOfWeek == today },
	}
	for _, match := range stages {
		for _, w := range recurring {
			if !match(w) {
				continue
			}
			days := (*w.DayOfWeek - today + 7) % 7
			if days == 0 && w.StartTime <= nowTOD {
				days = 7
			}
			at := w.StartTime.On(models.Midnight(now, loc).AddDate(0, 0, days), loc)
			return NextSlot{WindowID: w.ID, At: at, Label: slotLabel(days, at)}, true
		}
	}

	var best *models.AvailabilityWindow
	var bestAt time.Time
	for _, w := range specific {
		at := w.StartTime.On(time.Date(w.Date.Year(), w.Date.Month(), w.Date.Day(), 0, 0, 0, 0, loc), loc)
		if at.Before(now) {
			continue
		}
		if best == nil || at.Before(bestAt) {
			best, bestAt = w, at
		}
	}
	if best == nil {
		return NextSlot{}, false
	}
	days := daysBetween(models.Midnight(now, loc), models.Midnight(bestAt, loc))
	return NextSlot{WindowID: best.ID, At: bestAt, Label: slotLabel(days, bestAt)}, true
}

func slotLabel(daysAhead int, at time.Time) string {
	hhmm := at.Format("15:04")
	switch {
	case daysAhead == 0:
		return "Today " + hhmm
	case daysAhead == 1:
		return "Tomorrow " + hhmm
	case daysAhead < 7:
		return at.Weekday().String() + " " + hhmm
	}
	return at.Format("2006-01-02 15:04")
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
