package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/medcore/hospital-scheduling/internal/schedule"
)

// Status values are stored verbatim and appear in API payloads, so they keep
// their historical capitalization.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Canceled"
)

// IsOpen reports whether the appointment still occupies the doctor's calendar.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusConfirmed
}

const (
	// Duration is fixed server-side; clients only supply a start instant.
	Duration = 30 * time.Minute

	// MinGapMinutes is the minimum spacing between any two of a doctor's
	// appointment boundaries, independent of overlap.
	MinGapMinutes = 30
)

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

// User is the identity record shared by doctors and patients.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  Role
}

// Doctor is the profile attached to a user with the doctor role. The weekly
// schedule is owned by the profile editor; this package only reads it.
type Doctor struct {
	UserID         uuid.UUID
	Specialization *string
	Schedule       schedule.WeeklySchedule
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	StartsAt  time.Time
	EndsAt    time.Time
	Status    Status
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interval returns the appointment's occupied window.
func (a *Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.StartsAt, End: a.EndsAt}
}

// BookingRequest is a candidate appointment before validation. EndsAt is
// always derived, never taken from the caller.
type BookingRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	StartsAt  time.Time
	Notes     string
}

// Window returns the interval the candidate would occupy.
func (r BookingRequest) Window() schedule.Interval {
	return schedule.Interval{Start: r.StartsAt, End: r.StartsAt.Add(Duration)}
}
