package domain

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// CanTransition reports whether an admin may move a reservation from s to next.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return next == ReservationConfirmed || next == ReservationCancelled
	case ReservationConfirmed:
		return next == ReservationCancelled
	}
	return false
}

type Reservation struct {
	ID           string            `json:"id"`
	PackageID    string            `json:"package_id"`
	PackageTitle string            `json:"package_title,omitempty"`
	UserID       string            `json:"user_id"`
	TravelDate   time.Time         `json:"travel_date"`
	Travelers    int               `json:"travelers"`
	ContactName  string            `json:"contact_name"`
	ContactPhone string            `json:"contact_phone"`
	Status       ReservationStatus `json:"status"`
	TotalAmount  int64             `json:"total_amount"`
	CreatedAt    time.Time         `json:"created_at"`
}

type ReservationFilter struct {
	UserID string
	Status ReservationStatus
	Limit  int
}
