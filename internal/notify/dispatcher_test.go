package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sehyun-park/clinicbook/internal/model"
)

type recordingSender struct {
	to   string
	body string
	err  error
}

func (s *recordingSender) Send(_ context.Context, to, body string) error {
	s.to = to
	s.body = body
	return s.err
}

func (s *recordingSender) ProviderID() string { return "sms-test" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfirmBooking_NormalizesRecipient(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, testLogger(), time.Second)

	d.ConfirmBooking(model.Appointment{
		ID:          1,
		PatientName: "Kim Min",
		Phone:       "01012345678",
		Date:        "2025-03-01",
		Time:        "09:00",
	})

	if sender.to != "+821012345678" {
		t.Fatalf("expected normalized recipient, got %q", sender.to)
	}
	if sender.body == "" {
		t.Fatal("expected a message body")
	}
}

func TestConfirmBooking_SwallowsSendErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider down")}
	d := NewDispatcher(sender, testLogger(), time.Second)

	// Must not panic or propagate; the booking is already committed.
	d.ConfirmBooking(model.Appointment{ID: 2, PatientName: "Lee", Phone: "01099998888"})

	if sender.to == "" {
		t.Fatal("send should have been attempted")
	}
}
