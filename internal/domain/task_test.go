package domain

import (
	"errors"
	"testing"
)

func TestCorrelationKey(t *testing.T) {
	t.Parallel()

	key := CorrelationKey("b-1", EventBookingCreated, ChannelEmail, RoleGuest)
	want := "b-1:booking.created:EMAIL:GUEST"
	if key != want {
		t.Fatalf("CorrelationKey() = %q, want %q", key, want)
	}

	// Same inputs must always derive the same key.
	if again := CorrelationKey("b-1", EventBookingCreated, ChannelEmail, RoleGuest); again != key {
		t.Fatalf("CorrelationKey() not deterministic: %q vs %q", again, key)
	}

	if other := CorrelationKey("b-1", EventBookingCreated, ChannelWhatsApp, RoleGuest); other == key {
		t.Fatal("different channels must derive different keys")
	}
}

func TestParseChannelFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseChannelFromString(" whatsapp ")
	if err != nil {
		t.Fatalf("ParseChannelFromString() unexpected error = %v", err)
	}
	if got != ChannelWhatsApp {
		t.Fatalf("ParseChannelFromString() = %s, want %s", got, ChannelWhatsApp)
	}

	_, err = ParseChannelFromString("fax")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseChannelFromString() error = %v, want ErrValidation", err)
	}
}

func TestTaskStatusIsTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []TaskStatus{TaskSent, TaskAbandoned} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskPending, TaskInFlight, TaskFailedRetryable} {
		if s.IsTerminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestNotificationTaskValidate(t *testing.T) {
	t.Parallel()

	base := NotificationTask{
		CorrelationKey: "b-1:booking.created:EMAIL:GUEST",
		EntityType:     EntityBooking,
		EntityID:       "b-1",
		EventType:      EventBookingCreated,
		Channel:        ChannelEmail,
		RecipientRole:  RoleGuest,
		Recipient:      "guest@example.com",
		TemplateID:     "booking-created-guest",
		Status:         TaskPending,
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*NotificationTask)
	}{
		{name: "missing correlation key", mutate: func(n *NotificationTask) { n.CorrelationKey = "" }},
		{name: "missing recipient", mutate: func(n *NotificationTask) { n.Recipient = "" }},
		{name: "missing template", mutate: func(n *NotificationTask) { n.TemplateID = "" }},
		{name: "invalid channel", mutate: func(n *NotificationTask) { n.Channel = "FAX" }},
		{name: "invalid role", mutate: func(n *NotificationTask) { n.RecipientRole = "INTRUDER" }},
		{name: "invalid status", mutate: func(n *NotificationTask) { n.Status = "SENDING" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			task := base
			tt.mutate(&task)
			if err := task.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestParseEventTypeFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseEventTypeFromString(" Booking.Created ")
	if err != nil {
		t.Fatalf("ParseEventTypeFromString() unexpected error = %v", err)
	}
	if got != EventBookingCreated {
		t.Fatalf("ParseEventTypeFromString() = %s, want %s", got, EventBookingCreated)
	}

	_, err = ParseEventTypeFromString("booking.deleted")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseEventTypeFromString() error = %v, want ErrValidation", err)
	}
}
