package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medcore/hospital-scheduling/internal/appointment"
)

type CreateAppointmentRequest struct {
	PatientUserID string `json:"patient_user_id"`
	DoctorUserID  string `json:"doctor_user_id"`
	StartsAt      string `json:"starts_at"`
	Notes         string `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	AppointmentID string `json:"appointmentId"`
	DoctorID      string `json:"doctorId"`
	Status        string `json:"status"`
}

type AppointmentResponse struct {
	ID            uuid.UUID `json:"id"`
	PatientUserID uuid.UUID `json:"patient_user_id"`
	DoctorUserID  uuid.UUID `json:"doctor_user_id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
}

// Envelope is the discriminated result every endpoint returns: success with
// data, or failure with a human-readable message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func toResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		PatientUserID: a.PatientID,
		DoctorUserID:  a.DoctorID,
		StartsAt:      a.StartsAt,
		EndsAt:        a.EndsAt,
		Status:        string(a.Status),
		Notes:         a.Notes,
	}
}

func toResponses(appts []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toResponse(&appts[i]))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: true, Message: msg})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg})
}
