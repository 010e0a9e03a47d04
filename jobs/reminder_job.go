package jobs

import (
	"context"
	"log"
	"time"

	"github.com/anjiri1684/review_scheduler/models"
	"github.com/anjiri1684/review_scheduler/services"
)

const (
	reminderLead   = 60 * time.Minute
	reminderWindow = 5 * time.Minute
)

// SessionReminder notifies the student and the reviewer of every confirmed
// session starting about an hour from now. It is meant to run every five
// minutes so each session falls into exactly one run.
type SessionReminder struct {
	Store    services.Store
	Notifier services.Notifier
	Loc      *time.Location
	Now      func() time.Time
}

func (r *SessionReminder) Run() {
	log.Println("Running job: SendSessionReminders...")

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	loc := r.Loc
	if loc == nil {
		loc = time.UTC
	}
	from := now.Add(reminderLead)
	to := from.Add(reminderWindow)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	upcoming, err := r.Store.ListSessions(ctx, models.SessionFilter{
		Statuses: []models.SessionStatus{models.StatusAccepted, models.StatusScheduled},
		From:     &from,
		To:       &to,
	})
	if err != nil {
		log.Printf("Error checking for upcoming review sessions: %v", err)
		return
	}

	for i := range upcoming {
		session := &upcoming[i]
		log.Printf("Sending reminder for review session ID: %s", session.ID)
		payload := services.SessionPayload(session, loc)
		r.Notifier.Notify(services.EventSessionReminder, session.StudentID, payload)
		r.Notifier.Notify(services.EventSessionReminder, session.ReviewerID, payload)
	}
}
