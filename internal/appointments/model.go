// Package appointments implements the appointment schedule.
package appointments

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/mdental/practice-platform/internal/ids"
)

// ErrAppointmentNotFound is returned when an appointment lookup misses.
var ErrAppointmentNotFound = errors.New("appointments: not found")

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Appointment is one scheduled visit. Patient name and email are denormalized
// at creation time so the schedule view renders without joins.
type Appointment struct {
	ID           string    `json:"appointment_id"`
	PatientID    string    `json:"patient_id"`
	PatientName  string    `json:"patient_name,omitempty"`
	PatientEmail string    `json:"patient_email,omitempty"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Time         string    `json:"time"` // HH:MM
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by,omitempty"`
}

// CreateAppointmentRequest carries the writable fields. SendEmail asks for a
// confirmation email when the patient has an address on file.
type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	SendEmail bool   `json:"send_email"`
}

// Validate enforces required fields and the date/time formats.
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("patient_id is required")
	}
	if !dateRe.MatchString(r.Date) {
		return errors.New("date must be YYYY-MM-DD")
	}
	if !timeRe.MatchString(r.Time) {
		return errors.New("time must be HH:MM")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required")
	}
	if r.Status != "" && !validStatus(r.Status) {
		return errors.New("status must be scheduled, completed or cancelled")
	}
	return nil
}

func validStatus(s string) bool {
	return s == StatusScheduled || s == StatusCompleted || s == StatusCancelled
}

// NewAppointment builds an appointment from a validated request.
func NewAppointment(req *CreateAppointmentRequest, patientName, patientEmail, createdBy string) *Appointment {
	status := req.Status
	if status == "" {
		status = StatusScheduled
	}
	return &Appointment{
		ID:           ids.New("apt"),
		PatientID:    req.PatientID,
		PatientName:  patientName,
		PatientEmail: patientEmail,
		Date:         req.Date,
		Time:         req.Time,
		Reason:       req.Reason,
		Status:       status,
		Notes:        req.Notes,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    createdBy,
	}
}
