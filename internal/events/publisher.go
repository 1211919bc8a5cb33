package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sehyun-park/clinicbook/internal/model"
	"github.com/sehyun-park/clinicbook/libs/kafkax"
)

const (
	TopicBooked      = "appointment.booked.v1"
	TopicRescheduled = "appointment.rescheduled.v1"
	TopicCancelled   = "appointment.cancelled.v1"
)

// Publisher emits appointment lifecycle events for downstream consumers
// (analytics, reporting). Publishing is best-effort: errors are logged and
// swallowed, and a Publisher built without brokers drops everything. Booking
// outcomes never depend on it.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewPublisher(brokers string, logger *slog.Logger) *Publisher {
	list := kafkax.SplitBrokers(brokers)
	if len(list) == 0 {
		logger.Warn("event publishing disabled (no kafka brokers configured)")
		return &Publisher{logger: logger}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(list...),
			Balancer:     &kafka.Hash{},
			WriteTimeout: 2 * time.Second,
		},
		logger: logger,
	}
}

func (p *Publisher) Close() {
	if p.writer != nil {
		_ = p.writer.Close()
	}
}

func (p *Publisher) Booked(ctx context.Context, appt model.Appointment) {
	p.publish(ctx, TopicBooked, appt.ID, map[string]any{
		"appointment_id": appt.ID,
		"date":           appt.Date,
		"time":           appt.Time,
		"booked_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) Rescheduled(ctx context.Context, appt model.Appointment, oldDate, oldTime string) {
	p.publish(ctx, TopicRescheduled, appt.ID, map[string]any{
		"appointment_id": appt.ID,
		"old_date":       oldDate,
		"old_time":       oldTime,
		"date":           appt.Date,
		"time":           appt.Time,
		"rescheduled_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) Cancelled(ctx context.Context, id int64) {
	p.publish(ctx, TopicCancelled, id, map[string]any{
		"appointment_id": id,
		"cancelled_at":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) publish(ctx context.Context, topic string, id int64, payload map[string]any) {
	if p.writer == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("event payload marshal failed", "topic", topic, "err", err)
		return
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(id, 10)),
		Value: raw,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(topic)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)

	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.logger.Warn("event publish failed", "topic", topic, "appointment_id", id, "err", err)
	}
}
