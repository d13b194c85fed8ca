package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, patient_name, patient_email, barangay_id, service, scheduled_at, status,
	otp_hash, otp_expires_at, confirmed_at, created_at, updated_at`

func scan(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientName, &a.PatientEmail, &a.BarangayID, &a.Service, &a.ScheduledAt, &a.Status,
		&a.OTPHash, &a.OTPExpiresAt, &a.ConfirmedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_name, patient_email, barangay_id, service,
			scheduled_at, status, otp_hash, otp_expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientName, a.PatientEmail, a.BarangayID, a.Service,
		a.ScheduledAt, a.Status, a.OTPHash, a.OTPExpiresAt).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments SET status=$2, otp_hash=$3, otp_expires_at=$4, confirmed_at=$5, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Status, a.OTPHash, a.OTPExpiresAt, a.ConfirmedAt).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE ($1 = '' OR status = $1)`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn.Query(ctx, `SELECT `+cols+` FROM appointments
		WHERE ($1 = '' OR status = $1)
		ORDER BY scheduled_at LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
