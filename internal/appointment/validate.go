package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/medcore/hospital-scheduling/internal/schedule"
)

// Validation runs in a fixed order and the first failure wins; callers rely on
// getting the schedule-level message before any conflict message, and the
// overlap message before the gap message.

// resolveParties loads both sides of the candidate booking and enforces roles.
func (s *Service) resolveParties(ctx context.Context, req BookingRequest) (doctor, patient *User, err error) {
	doctor, err = s.repo.GetUserByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrUserMissing) {
			return nil, nil, ErrDoctorNotFound
		}
		return nil, nil, fmt.Errorf("load doctor: %w", err)
	}

	patient, err = s.repo.GetUserByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, ErrUserMissing) {
			return nil, nil, ErrPatientNotFound
		}
		return nil, nil, fmt.Errorf("load patient: %w", err)
	}

	if doctor.Role != RoleDoctor {
		return nil, nil, ErrNotADoctor
	}
	if patient.Role != RolePatient {
		return nil, nil, ErrNotAPatient
	}

	return doctor, patient, nil
}

// checkSchedule verifies the candidate window sits inside the doctor's
// recurring availability for that weekday.
func checkSchedule(profile *Doctor, win schedule.Interval) error {
	if profile == nil || len(profile.Schedule) == 0 {
		return ErrScheduleNotFound
	}
	if _, ok := profile.Schedule.SlotsFor(win.Start); !ok {
		return ErrDayUnavailable
	}
	if !profile.Schedule.ContainsInterval(win) {
		return ErrOutsideSchedule
	}
	return nil
}

// checkDuplicate enforces one open appointment per patient/doctor pair.
func checkDuplicate(existing []Appointment, doctorName string) error {
	for i := range existing {
		if existing[i].Status.IsOpen() {
			return &DuplicateBookingError{
				DoctorName: doctorName,
				StartsAt:   existing[i].StartsAt,
			}
		}
	}
	return nil
}

// checkConflicts scans the doctor's open appointments once, applying the
// overlap test and then the 30-minute gap rule. The gap rule compares start
// against start and end against end, so two bookings exactly 30 minutes apart
// pass regardless of which boundary is closer.
func checkConflicts(open []Appointment, win schedule.Interval) error {
	for i := range open {
		if win.Overlaps(open[i].Interval()) {
			return ErrSlotTaken
		}
	}
	for i := range open {
		if schedule.MinutesApart(win.Start, open[i].StartsAt) < MinGapMinutes ||
			schedule.MinutesApart(win.End, open[i].EndsAt) < MinGapMinutes {
			return ErrTooClose
		}
	}
	return nil
}
