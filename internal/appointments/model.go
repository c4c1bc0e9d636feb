package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is one confirmed booking. Date is a calendar date in
// YYYY-MM-DD and TimeOfDay is a 24-hour HH:MM clock, both kept as strings
// because the clinic's wall clock is authoritative and no timezone math is
// ever applied.
type Appointment struct {
	ID          uuid.UUID
	ReferenceID string
	OwnerName   string
	PetName     string
	Phone       string
	Date        string
	TimeOfDay   string
	Notes       string
	CreatedAt   time.Time
}
