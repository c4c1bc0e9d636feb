package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aaryan182/veterinary-chatbot-sdk/internal/booking"
	"github.com/aaryan182/veterinary-chatbot-sdk/pkg/logging"
)

// Inserter is the persistence dependency of the service; *Repository
// satisfies it.
type Inserter interface {
	Insert(ctx context.Context, appt *Appointment) error
}

// Service turns a completed set of booking fields into a stored appointment
// with a human-friendly reference.
type Service struct {
	repo   Inserter
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates an appointment service.
func NewService(repo Inserter, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger.Component("appointments"),
		now:    time.Now,
	}
}

// Create persists an appointment from validated booking fields and returns
// the stored record. Missing required fields are an error; the engine
// guarantees they are present when a booking is confirmed.
func (s *Service) Create(ctx context.Context, fields map[booking.FieldName]string) (*Appointment, error) {
	for _, f := range booking.RequiredFields {
		if strings.TrimSpace(fields[f]) == "" {
			return nil, fmt.Errorf("appointments: missing required field %q", f)
		}
	}

	id := uuid.New()
	appt := &Appointment{
		ID:          id,
		ReferenceID: referenceFrom(id),
		OwnerName:   fields[booking.FieldOwnerName],
		PetName:     fields[booking.FieldPetName],
		Phone:       fields[booking.FieldPhone],
		Date:        fields[booking.FieldDate],
		TimeOfDay:   fields[booking.FieldTime],
		Notes:       fields[booking.FieldNotes],
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment created",
		"reference_id", appt.ReferenceID,
		"date", appt.Date,
		"time", appt.TimeOfDay,
	)
	return appt, nil
}

// referenceFrom derives the short booking reference shown to the user from
// the appointment ID, e.g. "VET-1A2B3C".
func referenceFrom(id uuid.UUID) string {
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return "VET-" + hex[:6]
}
