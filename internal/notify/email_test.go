package notify

import (
	"context"
	"testing"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "clinic@mdental.mk",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "clinic@mdental.mk",
		FromName:  "",
	}, nil)

	if sender == nil {
		t.Fatal("expected sender with API key set")
	}
	if sender.fromName != "MDental" {
		t.Errorf("fromName = %q, want MDental", sender.fromName)
	}
}

func TestNewSendGridSender_CustomFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "clinic@mdental.mk",
		FromName:  "M-Dental Skopje",
	}, nil)

	if sender == nil {
		t.Fatal("expected sender with API key set")
	}
	if sender.fromName != "M-Dental Skopje" {
		t.Errorf("fromName = %q", sender.fromName)
	}
}

func TestSendGridSender_SendWithoutClient(t *testing.T) {
	sender := &SendGridSender{}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "patient@example.com",
		Subject: "Appointment confirmed",
		Body:    "See you Tuesday.",
	})

	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "patient@example.com",
		Subject: "Appointment confirmed",
		Body:    "See you Tuesday.",
	})

	if err != nil {
		t.Errorf("stub should not error, got: %v", err)
	}
}
