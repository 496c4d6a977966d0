package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdental/practice-platform/pkg/logging"
)

// Service sends clinic notifications: appointment confirmations to patients
// and registration notices to administrators. All sends are best effort;
// callers treat failures as logged, not surfaced.
type Service struct {
	email       EmailSender
	adminEmails []string
	logger      *logging.Logger
}

// NewService creates a notification service. adminEmails receive account
// registration notices.
func NewService(email EmailSender, adminEmails []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, adminEmails: adminEmails, logger: logger}
}

// AppointmentScheduled emails the patient a confirmation of their visit.
func (s *Service) AppointmentScheduled(ctx context.Context, toEmail, toName, date, timeOfDay, reason string) {
	if s.email == nil || toEmail == "" {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", displayName(toName))
	fmt.Fprintf(&b, "Your dental appointment is confirmed for %s at %s.\n", date, timeOfDay)
	if reason != "" {
		fmt.Fprintf(&b, "Reason for visit: %s\n", reason)
	}
	b.WriteString("\nIf you need to reschedule, please call the clinic.\n")

	msg := EmailMessage{
		To:      toEmail,
		ToName:  toName,
		Subject: fmt.Sprintf("Appointment confirmed for %s", date),
		Body:    b.String(),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("appointment confirmation failed", "error", err, "to", toEmail)
		return
	}
	s.logger.Info("appointment confirmation sent", "to", toEmail, "date", date)
}

// AccountPending tells the administrators that a new account is waiting for
// approval.
func (s *Service) AccountPending(ctx context.Context, email, name string) {
	if s.email == nil || len(s.adminEmails) == 0 {
		return
	}

	body := fmt.Sprintf("%s (%s) registered and is waiting for approval.\n\nPromote the account from the staff management page.\n",
		displayName(name), email)
	for _, admin := range s.adminEmails {
		msg := EmailMessage{
			To:      admin,
			Subject: "New account awaiting approval",
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("registration notice failed", "error", err, "to", admin)
		}
	}
}

func displayName(name string) string {
	if name == "" {
		return "patient"
	}
	return name
}
