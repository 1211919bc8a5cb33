package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/sehyun-park/clinicbook/internal/model"
	"github.com/sehyun-park/clinicbook/libs/db"
)

// ErrNotFound is returned when an appointment id does not exist.
var ErrNotFound = errors.New("appointment not found")

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Init creates the appointments table if it does not exist. Safe to call on
// every start. There is intentionally no unique constraint on (date, time):
// double-booking under concurrent submissions is accepted behavior here, and
// the availability check at selection time is the only guard.
func (r *AppointmentRepository) Init(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS appointments (
			id BIGSERIAL PRIMARY KEY,
			patient_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL
		)
	`)
	return err
}

func (r *AppointmentRepository) Create(ctx context.Context, patientName, phone, date, slot string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_name, phone, date, time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, patientName, phone, date, slot).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *AppointmentRepository) List(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_name, phone, date, time
		FROM appointments
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.PatientName, &a.Phone, &a.Date, &a.Time); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (model.Appointment, error) {
	var a model.Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT id, patient_name, phone, date, time
		FROM appointments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.PatientName, &a.Phone, &a.Date, &a.Time)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// BookedTimes returns the slot labels already taken on a date, in slot order
// as stored. Callers filter the fixed slot list against this.
func (r *AppointmentRepository) BookedTimes(ctx context.Context, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time FROM appointments WHERE date = $1 ORDER BY time ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return times, nil
}

// Reschedule overwrites date and time for an existing appointment. Name and
// phone are never touched by this path.
func (r *AppointmentRepository) Reschedule(ctx context.Context, id int64, newDate, newSlot string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET date = $2, time = $3 WHERE id = $1
	`, id, newDate, newSlot)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an appointment. Deleting an id that does not exist is not an
// error; cancellation is idempotent.
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
