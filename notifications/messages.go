package notifications

import (
	"fmt"
	"html"
	"strings"
)

var subjects = map[string]string{
	"session.created":     "New review session request",
	"session.accepted":    "Your review session was accepted",
	"session.rejected":    "Review session declined",
	"session.rescheduled": "Review session rescheduled",
	"session.cancelled":   "Review session cancelled",
	"session.completed":   "Review completed, awaiting final score",
	"session.scored":      "Your review has been scored",
	"session.reminder":    "Reminder: your review starts in 1 hour",
}

func renderEmail(n Notification) (string, string) {
	subject, ok := subjects[n.Event]
	if !ok {
		subject = "Review session update"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(subject))
	name := n.Recipient.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(name))

	if week, ok := n.Payload["week"]; ok {
		fmt.Fprintf(&b, "<p><b>Week:</b> %v</p>", week)
	}
	if at, ok := n.Payload["scheduled_at"].(string); ok {
		fmt.Fprintf(&b, "<p><b>When:</b> %s</p>", html.EscapeString(at))
	}
	if link, ok := n.Payload["meeting_link"].(string); ok {
		fmt.Fprintf(&b, "<p><b>Meeting Link:</b> <a href='%s'>Join Review</a></p>", html.EscapeString(link))
	}
	if where, ok := n.Payload["location"].(string); ok {
		fmt.Fprintf(&b, "<p><b>Location:</b> %s</p>", html.EscapeString(where))
	}
	if reason, ok := n.Payload["reason"].(string); ok {
		fmt.Fprintf(&b, "<p><b>Reason:</b> %s</p>", html.EscapeString(reason))
	}
	return subject, b.String()
}
