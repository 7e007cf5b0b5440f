package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/medcore/hospital-scheduling/internal/redis"
)

// Notifier receives lifecycle events after the state change has committed.
// Dispatch is fire-and-forget: implementations must not block and their
// failures never roll back a transition.
type Notifier interface {
	DoctorNewAppointment(appt *Appointment, doctor, patient *User)
	PatientConfirmed(appt *Appointment, doctor, patient *User)
	PatientRejected(appt *Appointment, doctor, patient *User)
	PatientReminder(appt *Appointment, doctor, patient *User)
}

// DecisionResult is what a confirm/reject transition returns. A rejection
// keeps the historical message-only shape: Appointment stays nil and Message
// carries the outcome.
type DecisionResult struct {
	Appointment *Appointment
	Message     string
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	log      zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log.With().Str("component", "appointment").Logger(),
	}
}

// Book validates a candidate appointment against the doctor's weekly schedule
// and existing bookings, then persists it as Pending. The conflict check and
// insert run under a per-doctor lock so concurrent requests for the same
// window cannot both pass against a stale snapshot; the table's exclusion
// constraint backstops the lock.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	doctor, patient, err := s.resolveParties(ctx, req)
	if err != nil {
		return nil, err
	}

	win := req.Window()

	profile, err := s.repo.GetDoctorByUserID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorProfileMissing) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}
	if err := checkSchedule(profile, win); err != nil {
		return nil, err
	}

	withDoctor, err := s.repo.GetOpenByPatientAndDoctor(ctx, req.PatientID, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load patient appointments: %w", err)
	}
	if err := checkDuplicate(withDoctor, doctor.Name); err != nil {
		return nil, err
	}

	// Fast fail before taking the lock: an already-booked slot can be rejected
	// from a range query alone. The authoritative check still runs under the
	// lock, where the snapshot cannot go stale.
	clashing, err := s.repo.FindOverlapping(ctx, req.DoctorID, win.Start, win.End)
	if err != nil {
		return nil, fmt.Errorf("probe overlapping appointments: %w", err)
	}
	if len(clashing) > 0 {
		return nil, ErrSlotTaken
	}

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, req.DoctorID, func(lockCtx context.Context) error {
		open, err := s.repo.GetOpenByDoctorID(lockCtx, req.DoctorID)
		if err != nil {
			return fmt.Errorf("load doctor appointments: %w", err)
		}
		if err := checkConflicts(open, win); err != nil {
			return err
		}

		created, err = s.repo.Create(lockCtx, &Appointment{
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			StartsAt:  win.Start,
			EndsAt:    win.End,
			Status:    StatusPending,
			Notes:     req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.log.Info().
		Stringer("appointment_id", created.ID).
		Stringer("doctor_id", created.DoctorID).
		Stringer("patient_id", created.PatientID).
		Time("starts_at", created.StartsAt).
		Msg("appointment booked")

	s.notifier.DoctorNewAppointment(created, doctor, patient)

	return created, nil
}

// Decide is the doctor-side transition: Confirmed updates the stored status,
// Canceled marks the record cancelled and notifies the patient. Cancelled
// rows are retained for audit but disappear from every read path.
func (s *Service) Decide(ctx context.Context, appointmentID, doctorID uuid.UUID, decision Status) (*DecisionResult, error) {
	if decision != StatusConfirmed && decision != StatusCancelled {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentMissing) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.DoctorID != doctorID {
		return nil, ErrNotAuthorized
	}

	doctor, patient, err := s.loadParticipants(ctx, appt)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, decision)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.log.Info().
		Stringer("appointment_id", appt.ID).
		Str("status", string(decision)).
		Msg("appointment decided")

	if decision == StatusCancelled {
		s.notifier.PatientRejected(appt, doctor, patient)
		return &DecisionResult{Message: "Appointment rejected"}, nil
	}

	s.notifier.PatientConfirmed(updated, doctor, patient)
	return &DecisionResult{Appointment: updated}, nil
}

func (s *Service) loadParticipants(ctx context.Context, appt *Appointment) (doctor, patient *User, err error) {
	doctor, err = s.repo.GetUserByID(ctx, appt.DoctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("load doctor: %w", err)
	}
	patient, err = s.repo.GetUserByID(ctx, appt.PatientID)
	if err != nil {
		return nil, nil, fmt.Errorf("load patient: %w", err)
	}
	return doctor, patient, nil
}

func (s *Service) GetAll(ctx context.Context) ([]Appointment, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return all, nil
}

// GetByID hides cancelled appointments: a rejected booking is gone as far as
// callers are concerned.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentMissing) {
			return nil, ErrNoAppointments
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	appts, err := s.repo.GetByDoctorID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	if len(appts) == 0 {
		return nil, ErrNoDoctorAppointments
	}
	return appts, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	appts, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	if len(appts) == 0 {
		return nil, ErrNoPatientAppointments
	}
	return appts, nil
}

// SendReminders dispatches a reminder for every open appointment starting
// inside the window. Called periodically by the reminder worker.
func (s *Service) SendReminders(ctx context.Context, from, to time.Time) (int, error) {
	upcoming, err := s.repo.FindStartingBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("find upcoming appointments: %w", err)
	}

	sent := 0
	for i := range upcoming {
		appt := upcoming[i]
		doctor, patient, err := s.loadParticipants(ctx, &appt)
		if err != nil {
			s.log.Error().Err(err).Stringer("appointment_id", appt.ID).Msg("skip reminder")
			continue
		}
		s.notifier.PatientReminder(&appt, doctor, patient)
		sent++
	}
	return sent, nil
}
