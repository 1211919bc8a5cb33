package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/sehyun-park/clinicbook/internal/availability"
	"github.com/sehyun-park/clinicbook/internal/events"
	"github.com/sehyun-park/clinicbook/internal/model"
	"github.com/sehyun-park/clinicbook/internal/notify"
	"github.com/sehyun-park/clinicbook/internal/privacy"
	"github.com/sehyun-park/clinicbook/internal/sms"
)

const dateLayout = "2006-01-02"

// Store is the persistence surface the handlers need. Satisfied by
// storage.AppointmentRepository.
type Store interface {
	Create(ctx context.Context, patientName, phone, date, slot string) (int64, error)
	List(ctx context.Context) ([]model.Appointment, error)
	Get(ctx context.Context, id int64) (model.Appointment, error)
	BookedTimes(ctx context.Context, date string) ([]string, error)
	Reschedule(ctx context.Context, id int64, newDate, newSlot string) error
	Delete(ctx context.Context, id int64) error
}

type BookingHandler struct {
	store    Store
	slots    []string
	notifier *notify.Dispatcher
	events   *events.Publisher
	logger   *slog.Logger
}

func NewBookingHandler(store Store, slots []string, notifier *notify.Dispatcher, publisher *events.Publisher, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		store:    store,
		slots:    slots,
		notifier: notifier,
		events:   publisher,
		logger:   logger,
	}
}

type bookRequest struct {
	PatientName string `json:"patient_name"`
	Phone       string `json:"phone"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

type bookResponse struct {
	AppointmentID int64 `json:"appointment_id"`
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type appointmentItem struct {
	AppointmentID int64  `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	Phone         string `json:"phone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

// Slots returns the open slot labels for a date, in fixed clinic order. An
// empty list means the date is fully booked.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if _, err := time.Parse(dateLayout, date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	booked, err := h.store.BookedTimes(r.Context(), date)
	if err != nil {
		h.logger.Error("booked times lookup failed", "date", date, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	open := availability.AvailableSlots(h.slots, booked, "")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(slotsResponse{Date: date, Slots: open})
}

// Book validates a submission and creates the appointment. The SMS
// confirmation and the domain event run after the insert and cannot fail the
// booking.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.PatientName = strings.TrimSpace(req.PatientName)
	phone := sms.Digits(req.Phone)
	if req.PatientName == "" || phone == "" {
		http.Error(w, "patient_name and phone are required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if !availability.IsSlot(h.slots, req.Time) {
		http.Error(w, "unknown time slot", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	booked, err := h.store.BookedTimes(ctx, req.Date)
	if err != nil {
		h.logger.Error("booked times lookup failed", "date", req.Date, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if slices.Contains(booked, req.Time) {
		http.Error(w, "time slot already booked", http.StatusConflict)
		return
	}

	id, err := h.store.Create(ctx, req.PatientName, phone, req.Date, req.Time)
	if err != nil {
		h.logger.Error("appointment create failed", "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	appt := model.Appointment{
		ID:          id,
		PatientName: req.PatientName,
		Phone:       phone,
		Date:        req.Date,
		Time:        req.Time,
	}

	// The booking is durable from here on; confirmation and event are
	// best-effort only.
	h.notifier.ConfirmBooking(appt)
	h.events.Booked(ctx, appt)

	h.logger.Info("appointment booked", "appointment_id", id, "date", req.Date, "time", req.Time)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(bookResponse{AppointmentID: id})
}

// List renders all bookings with patient name and phone masked.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	appts, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentItem{
			AppointmentID: a.ID,
			PatientName:   privacy.MaskName(a.PatientName),
			Phone:         privacy.MaskPhone(a.Phone),
			Date:          a.Date,
			Time:          a.Time,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}
