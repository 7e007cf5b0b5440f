package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcore/hospital-scheduling/internal/appointment"
	"github.com/medcore/hospital-scheduling/internal/metrics"
)

// Scheduler is the slice of the appointment service the handlers need.
type Scheduler interface {
	Book(ctx context.Context, req appointment.BookingRequest) (*appointment.Appointment, error)
	Decide(ctx context.Context, appointmentID, doctorID uuid.UUID, decision appointment.Status) (*appointment.DecisionResult, error)
	GetAll(ctx context.Context) ([]appointment.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.Appointment, error)
}

func createAppointmentHandler(svc Scheduler, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "could not parse JSON body")
			return
		}

		patientID, err := uuid.Parse(req.PatientUserID)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "patient_user_id must be a valid UUID")
			return
		}
		doctorID, err := uuid.Parse(req.DoctorUserID)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "doctor_user_id must be a valid UUID")
			return
		}
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "starts_at must be an RFC3339 timestamp")
			return
		}

		appt, err := svc.Book(r.Context(), appointment.BookingRequest{
			PatientID: patientID,
			DoctorID:  doctorID,
			StartsAt:  startsAt.UTC(),
			Notes:     req.Notes,
		})
		if err != nil {
			metrics.BookingsRejected.WithLabelValues(appointment.ReasonCode(err)).Inc()
			respondError(w, log, err)
			return
		}

		metrics.BookingsAccepted.Inc()
		writeData(w, http.StatusCreated, toResponse(appt))
	}
}

func updateStatusHandler(svc Scheduler, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "could not parse JSON body")
			return
		}
		if req.AppointmentID == "" || req.DoctorID == "" || req.Status == "" {
			writeFailure(w, http.StatusBadRequest, "appointmentId, doctorId and status are required")
			return
		}

		decide(w, r, svc, log, req.AppointmentID, req.DoctorID, req.Status)
	}
}

// decisionLinkHandler serves the approve/reject links embedded in the doctor
// notification mail: GET /appointments/{confirm|reject}?appointmentId=&doctorId=
func decisionLinkHandler(svc Scheduler, log zerolog.Logger, status appointment.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		decide(w, r, svc, log, q.Get("appointmentId"), q.Get("doctorId"), string(status))
	}
}

func decide(w http.ResponseWriter, r *http.Request, svc Scheduler, log zerolog.Logger, apptIDStr, doctorIDStr, status string) {
	apptID, err := uuid.Parse(apptIDStr)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "appointmentId must be a valid UUID")
		return
	}
	doctorID, err := uuid.Parse(doctorIDStr)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "doctorId must be a valid UUID")
		return
	}

	res, err := svc.Decide(r.Context(), apptID, doctorID, appointment.Status(status))
	if err != nil {
		respondError(w, log, err)
		return
	}

	metrics.Decisions.WithLabelValues(status).Inc()

	// Rejection keeps its historical message-only shape.
	if res.Appointment == nil {
		writeMessage(w, http.StatusOK, res.Message)
		return
	}
	writeData(w, http.StatusOK, toResponse(res.Appointment))
}

func listAppointmentsHandler(svc Scheduler, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := svc.GetAll(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, toResponses(all))
	}
}

func getAppointmentHandler(svc Scheduler, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "id must be a valid UUID")
			return
		}

		appt, err := svc.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, toResponse(appt))
	}
}

func listByDoctorHandler(svc Scheduler, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "doctorId must be a valid UUID")
			return
		}

		appts, err := svc.ListByDoctor(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, toResponses(appts))
	}
}

func listByPatientHandler(svc Scheduler, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "patientId"))
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "patientId must be a valid UUID")
			return
		}

		appts, err := svc.ListByPatient(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, toResponses(appts))
	}
}

// respondError maps business rejections to their verbatim messages and hides
// everything else behind a generic server error.
func respondError(w http.ResponseWriter, log zerolog.Logger, err error) {
	if appointment.IsRejection(err) {
		writeFailure(w, rejectionStatus(err), err.Error())
		return
	}
	log.Error().Err(err).Msg("request failed")
	writeFailure(w, http.StatusInternalServerError, "Server error")
}

func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, appointment.ErrNoAppointments),
		errors.Is(err, appointment.ErrNoDoctorAppointments),
		errors.Is(err, appointment.ErrNoPatientAppointments):
		return http.StatusNotFound
	case errors.Is(err, appointment.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, appointment.ErrSlotTaken),
		errors.Is(err, appointment.ErrBookingInProgress):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
