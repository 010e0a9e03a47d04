package services

import "github.com/anjiri1684/review_scheduler/models"

type Action string

const (
	ActionAccept     Action = "accept"
	ActionReject     Action = "reject"
	ActionReschedule Action = "reschedule"
	ActionCancel     Action = "cancel"
	ActionComplete   Action = "complete"
	ActionScore      Action = "score"
)

type transition struct {
	from  []models.SessionStatus
	to    models.SessionStatus
	actor models.Role
}

// transitions is the whole lifecycle of a review session. Anything not listed
// here is refused. Rejected, scored and cancelled have no way out.
var transitions = map[Action]transition{
	ActionAccept:     {from: []models.SessionStatus{models.StatusPending}, to: models.StatusAccepted, actor: models.RoleReviewer},
	ActionReject:     {from: []models.SessionStatus{models.StatusPending}, to: models.StatusRejected, actor: models.RoleReviewer},
	ActionReschedule: {from: models.ActiveStatuses, to: models.StatusScheduled, actor: models.RoleAdvisor},
	ActionCancel:     {from: models.ActiveStatuses, to: models.StatusCancelled, actor: models.RoleAdvisor},
	ActionComplete:   {from: []models.SessionStatus{models.StatusAccepted}, to: models.StatusCompleted, actor: models.RoleReviewer},
	ActionScore:      {from: []models.SessionStatus{models.StatusCompleted}, to: models.StatusScored, actor: models.RoleAdvisor},
}

func CanTransition(action Action, from models.SessionStatus) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range t.from {
		if s == from {
			return true
		}
	}
	return false
}

func TargetStatus(action Action) (models.SessionStatus, bool) {
	t, ok := transitions[action]
	return t.to, ok
}

// mayAct reports whether actor is the participant entitled to run action on s.
func mayAct(actor models.Actor, action Action, s *models.ReviewSession) bool {
	t, ok := transitions[action]
	if !ok || actor.Role != t.actor {
		return false
	}
	switch t.actor {
	case models.RoleAdvisor:
		return actor.ID == s.AdvisorID
	case models.RoleReviewer:
		return actor.ID == s.ReviewerID
	}
	return false
}
