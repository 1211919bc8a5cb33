package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func TestRequireSecret(t *testing.T) {
	env := newTestEnv()
	h := env.admin.RequireSecret(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret: expected 401, got %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments", nil)
	req.Header.Set(AdminSecretHeader, "wrong")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected 401, got %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments", nil)
	req.Header.Set(AdminSecretHeader, testAdminSecret)
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("correct secret: expected 200, got %d", rw.Code)
	}
}

func TestAdminList_Unmasked(t *testing.T) {
	env := newTestEnv()
	_, _ = env.store.Create(context.Background(), "Kim Min", "01012345678", "2025-03-01", "09:00")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments", nil)
	rw := httptest.NewRecorder()
	env.admin.List(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	var items []appointmentItem
	if err := json.NewDecoder(rw.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].PatientName != "Kim Min" || items[0].Phone != "01012345678" {
		t.Fatalf("admin list must be unmasked, got %+v", items[0])
	}
}

func TestReschedule_UnknownIDIs404(t *testing.T) {
	env := newTestEnv()
	rw := postJSON(t, env.admin.Reschedule, "/api/v1/admin/appointments/reschedule", rescheduleRequest{
		AppointmentID: 42, Date: "2025-03-01", Time: "09:00",
	})
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestReschedule_KeepsOwnSlotAvailable(t *testing.T) {
	env := newTestEnv()
	id, _ := env.store.Create(context.Background(), "Kim", "01012345678", "2025-03-01", "09:00")

	// Re-selecting the record's own slot must not count as a conflict.
	rw := postJSON(t, env.admin.Reschedule, "/api/v1/admin/appointments/reschedule", rescheduleRequest{
		AppointmentID: id, Date: "2025-03-01", Time: "09:00",
	})
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
}

func TestReschedule_ConflictWithOtherRecord(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	id, _ := env.store.Create(ctx, "Kim", "01012345678", "2025-03-01", "09:00")
	_, _ = env.store.Create(ctx, "Lee", "01087654321", "2025-03-01", "10:30")

	rw := postJSON(t, env.admin.Reschedule, "/api/v1/admin/appointments/reschedule", rescheduleRequest{
		AppointmentID: id, Date: "2025-03-01", Time: "10:30",
	})
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
}

func TestReschedule_PreservesNameAndPhone(t *testing.T) {
	env := newTestEnv()
	id, _ := env.store.Create(context.Background(), "Kim", "01012345678", "2025-03-01", "09:00")

	rw := postJSON(t, env.admin.Reschedule, "/api/v1/admin/appointments/reschedule", rescheduleRequest{
		AppointmentID: id, Date: "2025-03-02", Time: "13:00",
	})
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	got := env.store.appts[0]
	if got.Date != "2025-03-02" || got.Time != "13:00" {
		t.Fatalf("date/time not updated: %+v", got)
	}
	if got.PatientName != "Kim" || got.Phone != "01012345678" {
		t.Fatalf("name/phone must be untouched: %+v", got)
	}
}

func TestCancel_Idempotent(t *testing.T) {
	env := newTestEnv()
	id, _ := env.store.Create(context.Background(), "Kim", "01012345678", "2025-03-01", "09:00")

	rw := postJSON(t, env.admin.Cancel, "/api/v1/admin/appointments/cancel", cancelRequest{AppointmentID: id})
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if len(env.store.appts) != 0 {
		t.Fatal("record should be gone")
	}

	// Cancelling again must succeed and change nothing.
	rw = postJSON(t, env.admin.Cancel, "/api/v1/admin/appointments/cancel", cancelRequest{AppointmentID: id})
	if rw.Code != http.StatusOK {
		t.Fatalf("second cancel: expected 200, got %d", rw.Code)
	}
}

// Full booking-and-edit walkthrough: book 09:00, verify the slot closes, move
// the booking to 10:30 (its own 09:00 stays offered during the edit), then
// verify 09:00 reopened and 10:30 closed.
func TestBookingEditScenario(t *testing.T) {
	env := newTestEnv()

	rw := postJSON(t, env.booking.Book, "/api/v1/public/book", bookRequest{
		PatientName: "Kim Min", Phone: "01012345678", Date: "2025-03-01", Time: "09:00",
	})
	if rw.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d", rw.Code)
	}
	var created bookResponse
	if err := json.NewDecoder(rw.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	open := fetchSlots(t, env, "2025-03-01")
	if slices.Contains(open, "09:00") {
		t.Fatalf("09:00 should be closed after booking, open=%v", open)
	}

	rw = postJSON(t, env.admin.Reschedule, "/api/v1/admin/appointments/reschedule", rescheduleRequest{
		AppointmentID: created.AppointmentID, Date: "2025-03-01", Time: "10:30",
	})
	if rw.Code != http.StatusOK {
		t.Fatalf("reschedule: expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	open = fetchSlots(t, env, "2025-03-01")
	if slices.Contains(open, "10:30") {
		t.Fatalf("10:30 should be closed after reschedule, open=%v", open)
	}
	if !slices.Contains(open, "09:00") {
		t.Fatalf("09:00 should have reopened, open=%v", open)
	}
}

func fetchSlots(t *testing.T, env *testEnv, date string) []string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?date="+date, nil)
	rw := httptest.NewRecorder()
	env.booking.Slots(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("slots: expected 200, got %d", rw.Code)
	}
	var resp slotsResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	return resp.Slots
}
