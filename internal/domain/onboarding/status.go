package onboarding

import (
	"fmt"

	"github.com/shogunhq/shogun/internal/domain"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusVerified    Status = "VERIFIED"
	StatusRejected    Status = "REJECTED"
	StatusSubmitted   Status = "SUBMITTED"
	StatusPromoted    Status = "PROMOTED"
)

// ValidStatuses is the closed set of application statuses. UNDER_REVIEW,
// SUBMITTED and REJECTED belong to an external moderation workflow; no
// operation in this module moves an application into them.
var ValidStatuses = map[Status]bool{
	StatusDraft:       true,
	StatusUnderReview: true,
	StatusVerified:    true,
	StatusRejected:    true,
	StatusSubmitted:   true,
	StatusPromoted:    true,
}

// Event triggers a status transition.
type Event string

const (
	EventVerify  Event = "verify"
	EventPromote Event = "promote"
)

// Human-readable guard failures surfaced to API clients.
const (
	ReasonOnlyDraftVerifiable = "Only draft onboardings can be verified"
	ReasonNotVerified         = "Onboarding must be verified before promotion"
	ReasonAlreadyPromoted     = "Onboarding already promoted"
)

// Transition returns the status reached by applying ev to from. Every pair
// not listed in the table fails with domain.ErrInvalidState.
//
//	DRAFT    --verify-->  VERIFIED
//	VERIFIED --promote--> PROMOTED
func Transition(from Status, ev Event) (Status, error) {
	switch ev {
	case EventVerify:
		switch from {
		case StatusDraft:
			return StatusVerified, nil
		case StatusUnderReview, StatusVerified, StatusRejected, StatusSubmitted, StatusPromoted:
			return from, stateError(ReasonOnlyDraftVerifiable)
		}
	case EventPromote:
		switch from {
		case StatusVerified:
			return StatusPromoted, nil
		case StatusPromoted:
			return from, stateError(ReasonAlreadyPromoted)
		case StatusDraft, StatusUnderReview, StatusRejected, StatusSubmitted:
			return from, stateError(ReasonNotVerified)
		}
	default:
		return from, fmt.Errorf("%w: unknown event %q", domain.ErrInvalidState, ev)
	}
	return from, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidState, from)
}

func stateError(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidState, reason)
}
