package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sehyun-park/clinicbook/internal/model"
	"github.com/sehyun-park/clinicbook/internal/sms"
)

// Dispatcher sends booking confirmations. Delivery is fire-and-forget with
// respect to the booking outcome: the record is already committed before a
// confirmation is attempted, and failures are only logged.
type Dispatcher struct {
	sender  sms.Sender
	logger  *slog.Logger
	timeout time.Duration
}

func NewDispatcher(sender sms.Sender, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Dispatcher{sender: sender, logger: logger, timeout: timeout}
}

// ConfirmBooking attempts an SMS confirmation for a freshly created
// appointment. It returns nothing: no outcome of this call may influence the
// booking's success. The send runs on a detached context with a bounded
// timeout so a slow provider cannot hold the request hostage.
func (d *Dispatcher) ConfirmBooking(appt model.Appointment) {
	to := sms.NormalizePhone(appt.Phone)
	body := fmt.Sprintf("[Clinic] %s, your consultation is booked for %s at %s.",
		appt.PatientName, appt.Date, appt.Time)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, to, body); err != nil {
		d.logger.Warn("booking confirmation sms failed",
			"appointment_id", appt.ID,
			"provider", d.sender.ProviderID(),
			"err", err,
		)
		return
	}
	d.logger.Info("booking confirmation sms sent",
		"appointment_id", appt.ID,
		"provider", d.sender.ProviderID(),
	)
}
