package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/sehyun-park/clinicbook/internal/availability"
	"github.com/sehyun-park/clinicbook/internal/events"
	"github.com/sehyun-park/clinicbook/internal/storage"
)

const AdminSecretHeader = "X-Admin-Secret"

// AdminHandler serves the management view: unmasked listing, reschedule and
// cancel. Every route is gated by the shared admin secret; all mutations on
// existing records live here, there is no anonymous cancellation.
type AdminHandler struct {
	store  Store
	slots  []string
	secret string
	events *events.Publisher
	logger *slog.Logger
}

func NewAdminHandler(store Store, slots []string, secret string, publisher *events.Publisher, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		slots:  slots,
		secret: secret,
		events: publisher,
		logger: logger,
	}
}

// RequireSecret rejects requests whose X-Admin-Secret header does not match
// the configured secret. Plain shared-string comparison (constant-time); no
// sessions, no lockout.
func (h *AdminHandler) RequireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			http.Error(w, "invalid admin secret", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type rescheduleRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type rescheduleResponse struct {
	AppointmentID int64  `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type cancelRequest struct {
	AppointmentID int64 `json:"appointment_id"`
}

type cancelResponse struct {
	AppointmentID int64  `json:"appointment_id"`
	Status        string `json:"status"`
}

// List renders all bookings unmasked for the management view.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
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
			PatientName:   a.PatientName,
			Phone:         a.Phone,
			Date:          a.Date,
			Time:          a.Time,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

// Reschedule moves an existing appointment to a new date/time. The record's
// current slot is excluded from the conflict check so it can keep its own
// slot; name and phone are never changed by this path.
func (h *AdminHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if !availability.IsSlot(h.slots, req.Time) {
		http.Error(w, "unknown time slot", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	current, err := h.store.Get(ctx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("appointment lookup failed", "appointment_id", req.AppointmentID, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	booked, err := h.store.BookedTimes(ctx, req.Date)
	if err != nil {
		h.logger.Error("booked times lookup failed", "date", req.Date, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	exclude := ""
	if current.Date == req.Date {
		exclude = current.Time
	}
	open := availability.AvailableSlots(h.slots, booked, exclude)
	if !slices.Contains(open, req.Time) {
		http.Error(w, "time slot already booked", http.StatusConflict)
		return
	}

	if err := h.store.Reschedule(ctx, req.AppointmentID, req.Date, req.Time); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("reschedule failed", "appointment_id", req.AppointmentID, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	updated := current
	updated.Date = req.Date
	updated.Time = req.Time
	h.events.Rescheduled(ctx, updated, current.Date, current.Time)

	h.logger.Info("appointment rescheduled",
		"appointment_id", req.AppointmentID, "date", req.Date, "time", req.Time)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rescheduleResponse{
		AppointmentID: req.AppointmentID,
		Date:          req.Date,
		Time:          req.Time,
	})
}

// Cancel deletes an appointment by id. Idempotent: cancelling an id that no
// longer exists succeeds without changing anything.
func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.store.Delete(ctx, req.AppointmentID); err != nil {
		h.logger.Error("cancel failed", "appointment_id", req.AppointmentID, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	h.events.Cancelled(ctx, req.AppointmentID)

	h.logger.Info("appointment cancelled", "appointment_id", req.AppointmentID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cancelResponse{
		AppointmentID: req.AppointmentID,
		Status:        "cancelled",
	})
}
