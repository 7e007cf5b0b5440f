package appointment

import (
	"errors"
	"fmt"
	"time"
)

// Rejection messages are part of the API contract and surface verbatim to
// callers, hence the sentence casing.
var (
	ErrDoctorNotFound        = errors.New("Doctor not found")
	ErrPatientNotFound       = errors.New("Patient not found")
	ErrNotADoctor            = errors.New("This user is not a doctor")
	ErrNotAPatient           = errors.New("This user is not a patient")
	ErrScheduleNotFound      = errors.New("Doctor schedule not found")
	ErrDayUnavailable        = errors.New("Doctor is not available on this day")
	ErrOutsideSchedule       = errors.New("Appointment not within doctor's schedule")
	ErrSlotTaken             = errors.New("This slot is already booked for the doctor")
	ErrTooClose              = errors.New("Appointments must be at least 30 minutes apart")
	ErrAppointmentNotFound   = errors.New("Appointment not found")
	ErrNotAuthorized         = errors.New("Not authorized")
	ErrBookingInProgress     = errors.New("This slot is currently being booked, please retry")
	ErrInvalidStatus         = errors.New("Status must be one of: Confirmed, Canceled")
	ErrNoAppointments        = errors.New("No appointments found")
	ErrNoDoctorAppointments  = errors.New("No appointments found for this doctor")
	ErrNoPatientAppointments = errors.New("No appointments found for this patient")
)

// DuplicateBookingError rejects a second open appointment between the same
// patient and doctor.
type DuplicateBookingError struct {
	DoctorName string
	StartsAt   time.Time
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("You already have an appointment with Dr. %s on %s",
		e.DoctorName, e.StartsAt.UTC().Format("Mon, 02 Jan 2006 15:04"))
}

var rejections = []error{
	ErrDoctorNotFound,
	ErrPatientNotFound,
	ErrNotADoctor,
	ErrNotAPatient,
	ErrScheduleNotFound,
	ErrDayUnavailable,
	ErrOutsideSchedule,
	ErrSlotTaken,
	ErrTooClose,
	ErrAppointmentNotFound,
	ErrNotAuthorized,
	ErrBookingInProgress,
	ErrInvalidStatus,
	ErrNoAppointments,
	ErrNoDoctorAppointments,
	ErrNoPatientAppointments,
}

// IsRejection distinguishes business rejections, whose messages are safe to
// return to the caller, from infrastructure failures, which are logged and
// collapsed to a generic server error.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	var dup *DuplicateBookingError
	return errors.As(err, &dup)
}

// ReasonCode maps a rejection to a stable short code, used as a metric label.
func ReasonCode(err error) string {
	var dup *DuplicateBookingError
	switch {
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrNotADoctor):
		return "doctor_invalid"
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrNotAPatient):
		return "patient_invalid"
	case errors.Is(err, ErrScheduleNotFound), errors.Is(err, ErrDayUnavailable):
		return "day_unavailable"
	case errors.Is(err, ErrOutsideSchedule):
		return "outside_schedule"
	case errors.As(err, &dup):
		return "duplicate"
	case errors.Is(err, ErrSlotTaken):
		return "overlap"
	case errors.Is(err, ErrTooClose):
		return "gap"
	case errors.Is(err, ErrBookingInProgress):
		return "lock_contention"
	default:
		return "other"
	}
}
