package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

var appointmentFields = []string{
	"id", "patient_name", "email", "phone", "service", "practitioner", "location",
	"date", "time", "status", "age", "gender", "health_concerns",
	"previous_treatments", "notes", "user_id", "created_at", "updated_at",
}

// appointmentColumns renders the select list, formatting the date column
// as YYYY-MM-DD. prefix qualifies every column, e.g. "a.".
func appointmentColumns(prefix string) string {
	cols := make([]string, len(appointmentFields))
	for i, f := range appointmentFields {
		if f == "date" {
			cols[i] = fmt.Sprintf("to_char(%sdate, 'YYYY-MM-DD') AS date", prefix)
			continue
		}
		cols[i] = prefix + f
	}
	return strings.Join(cols, ", ")
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			patient_name, email, phone, service, practitioner, location,
			date, time, status, age, gender, health_concerns,
			previous_treatments, notes, user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		appointment.PatientName,
		appointment.Email,
		appointment.Phone,
		appointment.Service,
		appointment.Practitioner,
		appointment.Location,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Age,
		appointment.Gender,
		appointment.HealthConcerns,
		appointment.PreviousTreatments,
		appointment.Notes,
		appointment.UserID,
		appointment.CreatedAt,
	)
	if err := row.Scan(&appointment.ID, &appointment.CreatedAt); err != nil {
		return wrap("create appointment", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns(""))

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, wrap("get appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE 1=1`, appointmentColumns(""))
	args := []interface{}{}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC"

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, wrap("list appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, appointmentColumns(""))

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, userID); err != nil {
		return nil, wrap("list user appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	to model.AppointmentStatus,
	allowedFrom []model.AppointmentStatus,
	at time.Time,
) (*model.StatusChange, error) {
	// The row lock in prev makes the check and the write one step.
	query := fmt.Sprintf(`
		WITH prev AS (
			SELECT id, status FROM appointments WHERE id = $1 FOR UPDATE
		)
		UPDATE appointments a
		SET status = $2, updated_at = $3
		FROM prev
		WHERE a.id = prev.id AND prev.status = ANY($4::text[])
		RETURNING %s, prev.status AS previous_status
	`, appointmentColumns("a."))

	from := make([]string, len(allowedFrom))
	for i, s := range allowedFrom {
		from[i] = string(s)
	}

	var change model.StatusChange
	if err := r.db.GetContext(ctx, &change, query, id, to, at, pq.Array(from)); err != nil {
		return nil, wrap("update appointment status", err)
	}
	return &change, nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := fmt.Sprintf(`DELETE FROM appointments WHERE id = $1 RETURNING %s`, appointmentColumns(""))

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, wrap("delete appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context) (model.StatusCounts, error) {
	query := `SELECT status, COUNT(*) AS count FROM appointments GROUP BY status`

	var rows []struct {
		Status model.AppointmentStatus `db:"status"`
		Count  int                     `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrap("count appointments", err)
	}

	counts := make(model.StatusCounts, len(model.AppointmentStatuses))
	for _, s := range model.AppointmentStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
