package appointment

import (
	"errors"
	"time"
)

var (
	ErrForbidden         = errors.New("actor not allowed to perform this transition")
	ErrTooLateToCancel   = errors.New("too late to cancel")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Transition decides whether actor may move the appointment to target at the
// given instant, under the owning clinic's cancellation policy. It returns
// the cancelledAt timestamp to persist (non-nil only for cancellations) and
// does not mutate anything itself.
//
// Chain: PENDING -> CONFIRMED -> CHECKED_IN -> COMPLETED, with NO_SHOW and
// CANCELLED as side exits. COMPLETED, CANCELLED and NO_SHOW are terminal.
func Transition(a *Appointment, actor Actor, target Status, now time.Time, policy *Clinic) (*time.Time, error) {
	if a.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	switch target {
	case StatusConfirmed:
		if !isClinicStaff(actor, policy) {
			return nil, ErrForbidden
		}
		if a.Status != StatusPending {
			return nil, ErrInvalidTransition
		}
		return nil, nil

	case StatusCheckedIn, StatusCompleted, StatusNoShow:
		if !isClinicStaff(actor, policy) && !isTreatingDoctor(actor, a) {
			return nil, ErrForbidden
		}
		return nil, nil

	case StatusCancelled:
		if actor.Role == RoleCustomer {
			if a.CustomerID == nil || *a.CustomerID != actor.ID {
				return nil, ErrForbidden
			}
			cutoff := DefaultCancelBeforeMinutes
			if policy != nil {
				cutoff = policy.CancelBeforeMinutes
			}
			deadline := a.StartAt.Add(-time.Duration(cutoff) * time.Minute)
			if now.After(deadline) {
				return nil, ErrTooLateToCancel
			}
		} else if !isClinicStaff(actor, policy) {
			return nil, ErrForbidden
		}
		cancelledAt := now
		return &cancelledAt, nil

	default:
		return nil, ErrInvalidTransition
	}
}

func isClinicStaff(actor Actor, policy *Clinic) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.Role == RoleClinicOwner &&
		policy != nil && policy.OwnerID != nil && *policy.OwnerID == actor.ID
}

func isTreatingDoctor(actor Actor, a *Appointment) bool {
	return actor.Role == RoleDoctor &&
		actor.DoctorID != nil && *actor.DoctorID == a.DoctorID
}
