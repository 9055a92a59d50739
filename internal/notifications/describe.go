package notifications

import "fmt"

// initiatedBy reports whether userID sent the original invitation or request.
// Without an inviter on record the event creator counts as the initiator.
func initiatedBy(item Item, userID string) bool {
	if item.InvitedByUserID != "" {
		return item.InvitedByUserID == userID
	}
	return item.IsCreator
}

// Describe renders the status line of an item for the viewer. Reschedules take
// priority over the RSVP status.
func Describe(item Item, role Role, userID string) string {
	other := item.OtherUserName

	if rr := item.ReschedulePending; rr != nil {
		mine := rr.RequestedByUserID != "" && rr.RequestedByUserID == userID
		switch rr.Status {
		case RescheduleAccepted:
			if mine {
				return fmt.Sprintf("%s aceptó tu solicitud de reprogramación", other)
			}
			return fmt.Sprintf("Aceptaste la reprogramación solicitada por %s", other)
		case RescheduleRejected:
			if mine {
				return fmt.Sprintf("%s rechazó tu solicitud de reprogramación", other)
			}
			return fmt.Sprintf("Rechazaste la reprogramación solicitada por %s", other)
		default:
			if mine {
				return fmt.Sprintf("Solicitaste reprogramar la sesión con %s", other)
			}
			return fmt.Sprintf("%s solicitó reprogramar la sesión", other)
		}
	}

	mine := initiatedBy(item, userID)
	switch item.RSVPStatus {
	case StatusPending:
		switch {
		case mine:
			return fmt.Sprintf("Enviaste una invitación a %s", other)
		case role == RoleCoach:
			return fmt.Sprintf("%s solicitó una sesión contigo", other)
		default:
			return fmt.Sprintf("%s te invitó a una sesión", other)
		}
	case StatusAccepted, StatusConfirmed:
		if mine {
			return fmt.Sprintf("%s aceptó tu invitación", other)
		}
		return fmt.Sprintf("Aceptaste la invitación de %s", other)
	case StatusDeclined:
		if mine {
			return fmt.Sprintf("%s rechazó tu invitación", other)
		}
		return fmt.Sprintf("Rechazaste la invitación de %s", other)
	case StatusCancelled:
		return fmt.Sprintf("La sesión con %s fue cancelada", other)
	default:
		return fmt.Sprintf("Actualización de la sesión con %s", other)
	}
}

// ShowActions reports whether accept/reject controls apply to the viewer.
// Nothing is shown unless the item awaits an answer, and never to whoever
// sent the invitation or the reschedule request.
func ShowActions(item Item, role Role, userID string) bool {
	rr := item.ReschedulePending
	reschedulePending := rr != nil && rr.Status == ReschedulePending
	if item.RSVPStatus != StatusPending && !reschedulePending {
		return false
	}

	switch {
	case initiatedBy(item, userID):
		return false
	case role == RoleClient && item.InvitedByRole == string(RoleClient):
		return false
	case rr != nil && rr.RequestedByUserID != "" && rr.RequestedByUserID == userID:
		return false
	}
	return true
}
