package reservation

import "github.com/pawanbhattarai/PMS/internal/models"

var transitionMap = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationConfirmed: {models.ReservationCheckedIn, models.ReservationCancelled},
	models.ReservationCheckedIn: {models.ReservationCheckedOut, models.ReservationCancelled},
}

// ValidTransition reports whether a reservation in from may move to to.
// checked_out and cancelled have no outgoing transitions.
func ValidTransition(from, to models.ReservationStatus) bool {
	for _, s := range transitionMap[from] {
		if s == to {
			return true
		}
	}
	return false
}
