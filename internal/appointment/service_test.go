package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/medcore/hospital-scheduling/internal/redis"
	"github.com/medcore/hospital-scheduling/internal/schedule"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*User
	doctors      map[uuid.UUID]*Doctor
	appointments []Appointment
	createErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   make(map[uuid.UUID]*User),
		doctors: make(map[uuid.UUID]*Doctor),
	}
}

func (f *fakeRepo) addUser(role Role, name string) uuid.UUID {
	id := uuid.New()
	f.users[id] = &User{ID: id, Name: name, Email: name + "@example.com", Role: role}
	return id
}

func (f *fakeRepo) addDoctor(name string, ws schedule.WeeklySchedule) uuid.UUID {
	id := f.addUser(RoleDoctor, name)
	f.doctors[id] = &Doctor{UserID: id, Schedule: ws}
	return id
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserMissing
}

func (f *fakeRepo) GetDoctorByUserID(_ context.Context, userID uuid.UUID) (*Doctor, error) {
	if d, ok := f.doctors[userID]; ok {
		return d, nil
	}
	return nil, ErrDoctorProfileMissing
}

func (f *fakeRepo) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	stored := *a
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.appointments = append(f.appointments, stored)
	return &stored, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.appointments {
		if f.appointments[i].ID == id && f.appointments[i].Status != StatusCancelled {
			a := f.appointments[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentMissing
}

func (f *fakeRepo) GetAll(_ context.Context) ([]Appointment, error) {
	return f.filter(func(a *Appointment) bool { return a.Status != StatusCancelled }), nil
}

func (f *fakeRepo) GetByDoctorID(_ context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return f.filter(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.Status != StatusCancelled
	}), nil
}

func (f *fakeRepo) GetByPatientID(_ context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return f.filter(func(a *Appointment) bool {
		return a.PatientID == patientID && a.Status != StatusCancelled
	}), nil
}

func (f *fakeRepo) GetOpenByDoctorID(_ context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return f.filter(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.Status.IsOpen()
	}), nil
}

func (f *fakeRepo) GetOpenByPatientAndDoctor(_ context.Context, patientID, doctorID uuid.UUID) ([]Appointment, error) {
	return f.filter(func(a *Appointment) bool {
		return a.PatientID == patientID && a.DoctorID == doctorID && a.Status.IsOpen()
	}), nil
}

func (f *fakeRepo) FindOverlapping(_ context.Context, doctorID uuid.UUID, start, end time.Time) ([]Appointment, error) {
	win := schedule.Interval{Start: start, End: end}
	return f.filter(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.Status.IsOpen() && win.Overlaps(a.Interval())
	}), nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.appointments {
		if f.appointments[i].ID == id {
			f.appointments[i].Status = to
			f.appointments[i].UpdatedAt = time.Now()
			a := f.appointments[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentMissing
}

func (f *fakeRepo) FindStartingBetween(_ context.Context, from, to time.Time) ([]Appointment, error) {
	return f.filter(func(a *Appointment) bool {
		return a.Status.IsOpen() && !a.StartsAt.Before(from) && a.StartsAt.Before(to)
	}), nil
}

func (f *fakeRepo) filter(keep func(*Appointment) bool) []Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Appointment
	for i := range f.appointments {
		if keep(&f.appointments[i]) {
			out = append(out, f.appointments[i])
		}
	}
	return out
}

// noopLocker runs the critical section inline.
type noopLocker struct{}

func (noopLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// contendedLocker simulates a lost SetNX race.
type contendedLocker struct{}

func (contendedLocker) WithBookingLock(context.Context, uuid.UUID, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// recordingNotifier captures dispatched events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(ev string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) DoctorNewAppointment(*Appointment, *User, *User) { n.record("doctor_new") }
func (n *recordingNotifier) PatientConfirmed(*Appointment, *User, *User)    { n.record("patient_confirmed") }
func (n *recordingNotifier) PatientRejected(*Appointment, *User, *User)     { n.record("patient_rejected") }
func (n *recordingNotifier) PatientReminder(*Appointment, *User, *User)     { n.record("patient_reminder") }

func newTestService(repo *fakeRepo, notifier Notifier) *Service {
	return NewService(repo, noopLocker{}, notifier, zerolog.Nop())
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

// mondaySchedule is 09:00-12:00 on Mondays; 2025-09-22 is a Monday.
func mondaySchedule() schedule.WeeklySchedule {
	return schedule.WeeklySchedule{"Monday": {"09:00-12:00"}}
}

func TestBookRejectsUnknownParties(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})
	patientID := repo.addUser(RolePatient, "Pat")

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  uuid.New(),
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	doctorID := repo.addDoctor("Gregory", mondaySchedule())
	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestBookRejectsRoleMismatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	patientID := repo.addUser(RolePatient, "Pat")
	otherPatient := repo.addUser(RolePatient, "NotADoctor")
	doctorID := repo.addDoctor("Gregory", mondaySchedule())

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  otherPatient,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrNotADoctor)

	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: doctorID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrNotAPatient)
}

func TestBookRejectsWhenDayUnavailable(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	patientID := repo.addUser(RolePatient, "Pat")
	doctorID := repo.addDoctor("Gregory", mondaySchedule())

	// 2025-09-23 is a Tuesday
	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-23T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrDayUnavailable)
	assert.EqualError(t, err, "Doctor is not available on this day")
}

func TestBookRejectsWhenScheduleMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	patientID := repo.addUser(RolePatient, "Pat")
	doctorID := repo.addUser(RoleDoctor, "NoProfile")

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestBookRejectsOutsideSchedule(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	patientID := repo.addUser(RolePatient, "Pat")
	doctorID := repo.addDoctor("Gregory", mondaySchedule())

	// 08:45 starts before the 09:00 slot opens
	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T08:45:00Z"),
	})
	assert.ErrorIs(t, err, ErrOutsideSchedule)

	// 11:45 would end at 12:15, past the slot
	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T11:45:00Z"),
	})
	assert.ErrorIs(t, err, ErrOutsideSchedule)
}

func TestBookAcceptsAndNotifiesDoctor(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	patientID := repo.addUser(RolePatient, "Pat")
	doctorID := repo.addDoctor("Gregory", mondaySchedule())

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
		Notes:     "first consultation",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, ts(t, "2025-09-22T09:30:00Z"), appt.EndsAt)
	assert.Equal(t, "first consultation", appt.Notes)
	assert.Equal(t, []string{"doctor_new"}, notifier.events)
}

func TestBookRejectsOverlap(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	doctorID := repo.addDoctor("Gregory", mondaySchedule())
	first := repo.addUser(RolePatient, "First")
	second := repo.addUser(RolePatient, "Second")

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: first,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T10:00:00Z"),
	})
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: second,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T10:15:00Z"),
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookGapRule(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	doctorID := repo.addDoctor("Gregory", mondaySchedule())
	first := repo.addUser(RolePatient, "First")
	second := repo.addUser(RolePatient, "Second")
	third := repo.addUser(RolePatient, "Third")

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: first,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	require.NoError(t, err)

	// back-to-back does not overlap, but violates the 30-minute gap
	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: second,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:30:00Z"),
	})
	assert.ErrorIs(t, err, ErrTooClose)

	// exactly 30 minutes of spacing on both boundaries is accepted
	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: third,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T10:00:00Z"),
	})
	assert.NoError(t, err)
}

func TestBookRejectsDuplicateRelationship(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	doctorID := repo.addDoctor("House", mondaySchedule())
	patientID := repo.addUser(RolePatient, "Pat")

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	require.NoError(t, err)

	// identical resubmission is caught by the duplicate check, not the overlap check
	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	var dup *DuplicateBookingError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "House", dup.DoctorName)
	assert.Contains(t, err.Error(), "You already have an appointment with Dr. House")

	// a different start with the same doctor is also a duplicate
	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T11:00:00Z"),
	})
	assert.ErrorAs(t, err, &dup)
}

func TestBookAllowsRebookingAfterCancellation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	doctorID := repo.addDoctor("House", mondaySchedule())
	patientID := repo.addUser(RolePatient, "Pat")

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), appt.ID, doctorID, StatusCancelled)
	require.NoError(t, err)

	// the cancelled appointment no longer blocks the pair
	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T10:00:00Z"),
	})
	assert.NoError(t, err)
}

func TestBookLockContention(t *testing.T) {
	repo := newFakeRepo()
	patientID := repo.addUser(RolePatient, "Pat")
	doctorID := repo.addDoctor("Gregory", mondaySchedule())

	svc := NewService(repo, contendedLocker{}, &recordingNotifier{}, zerolog.Nop())

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrBookingInProgress)
}

func TestDecideGuards(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	doctorID := repo.addDoctor("Gregory", mondaySchedule())
	otherDoctor := repo.addDoctor("Wilson", mondaySchedule())
	patientID := repo.addUser(RolePatient, "Pat")

	_, err := svc.Decide(context.Background(), uuid.New(), doctorID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), appt.ID, otherDoctor, StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Decide(context.Background(), appt.ID, doctorID, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDecideConfirm(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	doctorID := repo.addDoctor("Gregory", mondaySchedule())
	patientID := repo.addUser(RolePatient, "Pat")

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	require.NoError(t, err)

	res, err := svc.Decide(context.Background(), appt.ID, doctorID, StatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, res.Appointment)
	assert.Equal(t, StatusConfirmed, res.Appointment.Status)
	assert.Equal(t, []string{"doctor_new", "patient_confirmed"}, notifier.events)
}

func TestDecideReject(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	doctorID := repo.addDoctor("Gregory", mondaySchedule())
	patientID := repo.addUser(RolePatient, "Pat")

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	require.NoError(t, err)

	res, err := svc.Decide(context.Background(), appt.ID, doctorID, StatusCancelled)
	require.NoError(t, err)
	assert.Nil(t, res.Appointment)
	assert.Equal(t, "Appointment rejected", res.Message)
	assert.Equal(t, []string{"doctor_new", "patient_rejected"}, notifier.events)

	// the rejected appointment is gone from every read path
	_, err = svc.GetByID(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrNoAppointments)

	_, err = svc.ListByDoctor(context.Background(), doctorID)
	assert.ErrorIs(t, err, ErrNoDoctorAppointments)
}

func TestListEndpointsRejectWhenEmpty(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	_, err := svc.ListByDoctor(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoDoctorAppointments)

	_, err = svc.ListByPatient(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoPatientAppointments)
}

func TestWednesdayScenario(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingNotifier{})

	// 2025-09-24 is a Wednesday
	doctorID := repo.addDoctor("Cuddy", schedule.WeeklySchedule{"Wednesday": {"10:00-13:00"}})
	first := repo.addUser(RolePatient, "First")
	second := repo.addUser(RolePatient, "Second")

	appt, err := svc.Book(context.Background(), BookingRequest{
		PatientID: first,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-24T10:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)

	res, err := svc.Decide(context.Background(), appt.ID, doctorID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Appointment.Status)

	_, err = svc.Book(context.Background(), BookingRequest{
		PatientID: second,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-24T10:15:00Z"),
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestSendReminders(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	doctorID := repo.addDoctor("Gregory", mondaySchedule())
	patientID := repo.addUser(RolePatient, "Pat")

	_, err := svc.Book(context.Background(), BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  ts(t, "2025-09-22T09:00:00Z"),
	})
	require.NoError(t, err)

	sent, err := svc.SendReminders(context.Background(),
		ts(t, "2025-09-22T08:30:00Z"), ts(t, "2025-09-22T09:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"doctor_new", "patient_reminder"}, notifier.events)

	sent, err = svc.SendReminders(context.Background(),
		ts(t, "2025-09-22T10:00:00Z"), ts(t, "2025-09-22T11:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
