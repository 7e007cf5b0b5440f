// Package notify turns appointment lifecycle events into outbound email.
// Dispatch is decoupled from the state transition that produced the event:
// events are queued on a channel and delivered by a single worker goroutine,
// and delivery failures are logged, never propagated back to the caller.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medcore/hospital-scheduling/internal/appointment"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

type message struct {
	to      string
	subject string
	body    string
}

// Dispatcher implements appointment.Notifier.
type Dispatcher struct {
	sender  Sender
	baseURL string
	queue   chan message
	done    chan struct{}
	log     zerolog.Logger
}

// NewDispatcher builds a dispatcher with the given queue capacity. baseURL is
// the public address used for the approve/reject links placed in doctor mail.
func NewDispatcher(sender Sender, baseURL string, buffer int, log zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		sender:  sender,
		baseURL: baseURL,
		queue:   make(chan message, buffer),
		done:    make(chan struct{}),
		log:     log.With().Str("component", "notify").Logger(),
	}
}

// Start runs the delivery loop until ctx is cancelled, then drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-d.queue:
						d.deliver(m)
					default:
						return
					}
				}
			case m := <-d.queue:
				d.deliver(m)
			}
		}
	}()
}

// Wait blocks until the delivery loop has exited.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) deliver(m message) {
	if err := d.sender.Send(m.to, m.subject, m.body); err != nil {
		d.log.Error().Err(err).Str("to", m.to).Str("subject", m.subject).Msg("mail delivery failed")
	}
}

func (d *Dispatcher) enqueue(m message) {
	select {
	case d.queue <- m:
	default:
		d.log.Warn().Str("to", m.to).Str("subject", m.subject).Msg("notification queue full, dropping")
	}
}

func (d *Dispatcher) DoctorNewAppointment(appt *appointment.Appointment, doctor, patient *appointment.User) {
	confirmURL := fmt.Sprintf("%s/appointments/confirm?appointmentId=%s&doctorId=%s", d.baseURL, appt.ID, doctor.ID)
	rejectURL := fmt.Sprintf("%s/appointments/reject?appointmentId=%s&doctorId=%s", d.baseURL, appt.ID, doctor.ID)

	body := fmt.Sprintf(
		`<p>Dear Dr. %s,</p>
<p>%s has requested an appointment from %s to %s.</p>
<p><a href="%s">Approve</a> &nbsp; <a href="%s">Reject</a></p>`,
		doctor.Name,
		patient.Name,
		appt.StartsAt.UTC().Format(timeLayout),
		appt.EndsAt.UTC().Format(timeLayout),
		confirmURL,
		rejectURL,
	)

	d.enqueue(message{to: doctor.Email, subject: "New appointment request", body: body})
}

func (d *Dispatcher) PatientConfirmed(appt *appointment.Appointment, doctor, patient *appointment.User) {
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>Dr. %s has confirmed your appointment from %s to %s.</p>`,
		patient.Name,
		doctor.Name,
		appt.StartsAt.UTC().Format(timeLayout),
		appt.EndsAt.UTC().Format(timeLayout),
	)

	d.enqueue(message{to: patient.Email, subject: "Appointment confirmed", body: body})
}

func (d *Dispatcher) PatientRejected(appt *appointment.Appointment, doctor, patient *appointment.User) {
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>Dr. %s is unable to take your appointment from %s to %s. Please book a different time.</p>`,
		patient.Name,
		doctor.Name,
		appt.StartsAt.UTC().Format(timeLayout),
		appt.EndsAt.UTC().Format(timeLayout),
	)

	d.enqueue(message{to: patient.Email, subject: "Appointment rejected", body: body})
}

func (d *Dispatcher) PatientReminder(appt *appointment.Appointment, doctor, patient *appointment.User) {
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>A reminder of your appointment with Dr. %s at %s.</p>`,
		patient.Name,
		doctor.Name,
		appt.StartsAt.UTC().Format(timeLayout),
	)

	d.enqueue(message{to: patient.Email, subject: "Appointment reminder", body: body})
}
