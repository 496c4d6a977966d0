// Package patients implements the patient records collection.
package patients

import (
	"errors"
	"strings"
	"time"

	"github.com/mdental/practice-platform/internal/ids"
)

// ErrPatientNotFound is returned when a patient lookup misses.
var ErrPatientNotFound = errors.New("patients: not found")

// Patient is one clinic patient record.
type Patient struct {
	ID        string    `json:"patient_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	BirthDate string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// FullName renders the display name used on invoices and appointments.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CreatePatientRequest carries the writable fields.
type CreatePatientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	BirthDate string `json:"birth_date"`
	Notes     string `json:"notes"`
}

// Validate enforces the required-field rules the UI also checks.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return errors.New("first_name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return errors.New("last_name is required")
	}
	return nil
}

// NewPatient builds a patient from a validated request.
func NewPatient(req *CreatePatientRequest, createdBy string) *Patient {
	return &Patient{
		ID:        ids.New("pat"),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		BirthDate: req.BirthDate,
		Notes:     req.Notes,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}
}
