package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Storage-level sentinels. The validator translates these into the
// caller-facing rejection messages in errors.go.
var (
	ErrUserMissing          = errors.New("user not found")
	ErrDoctorProfileMissing = errors.New("doctor profile not found")
	ErrAppointmentMissing   = errors.New("appointment not found in storage")
)

// Repository contains all DB interactions needed by the service. Identity and
// doctor-profile lookups live here too; account management itself is owned by
// the auth subsystem.
type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)

	// Create persists a new Pending appointment. The appointments table
	// carries an exclusion constraint over (doctor, time range) scoped to
	// open statuses; a violation surfaces as ErrSlotTaken so concurrent
	// bookings cannot both commit.
	Create(ctx context.Context, a *Appointment) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAll(ctx context.Context) ([]Appointment, error)
	GetByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
	GetByPatientID(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)

	// Conflict checks
	GetOpenByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
	GetOpenByPatientAndDoctor(ctx context.Context, patientID, doctorID uuid.UUID) ([]Appointment, error)
	FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]Appointment, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error)

	// Reminder worker
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)
}
