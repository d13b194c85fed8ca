package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `s.id, s.barangay_id, b.name, s.report_type, s.report_period, s.due_at,
	s.status, s.payload, s.remarks, s.submitted_by, s.reviewed_by,
	s.submitted_at, s.reviewed_at, s.created_at, s.updated_at`

const from = ` FROM report_submissions s JOIN barangays b ON b.id = s.barangay_id`

func scan(row pgx.Row) (*Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.BarangayID, &s.BarangayName, &s.ReportType, &s.ReportPeriod, &s.DueAt,
		&s.Status, &s.Payload, &s.Remarks, &s.SubmittedBy, &s.ReviewedBy,
		&s.SubmittedAt, &s.ReviewedAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collect(rows pgx.Rows) ([]*Submission, error) {
	defer rows.Close()
	var out []*Submission
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, s *Submission) error {
	s.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO report_submissions (id, barangay_id, report_type, report_period, due_at,
			status, payload, remarks, submitted_by, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		s.ID, s.BarangayID, s.ReportType, s.ReportPeriod, s.DueAt,
		s.Status, s.Payload, s.Remarks, s.SubmittedBy, s.SubmittedAt).Scan(&s.CreatedAt, &s.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+from+` WHERE s.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *Submission) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE report_submissions SET due_at=$2, status=$3, payload=$4, remarks=$5,
			submitted_by=$6, reviewed_by=$7, submitted_at=$8, reviewed_at=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.DueAt, s.Status, s.Payload, s.Remarks,
		s.SubmittedBy, s.ReviewedBy, s.SubmittedAt, s.ReviewedAt).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) MarkSuperseded(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE report_submissions SET status = 'superseded', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Submission, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.BarangayID != nil {
		where += fmt.Sprintf(` AND s.barangay_id = $%d`, idx)
		args = append(args, *f.BarangayID)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(` AND s.status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Period != "" {
		where += fmt.Sprintf(` AND s.report_period = $%d`, idx)
		args = append(args, f.Period)
		idx++
	}
	if f.ReportType != "" {
		where += fmt.Sprintf(` AND s.report_type = $%d`, idx)
		args = append(args, f.ReportType)
		idx++
	}

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + cols + from + where +
		fmt.Sprintf(` ORDER BY s.report_period DESC, b.name LIMIT $%d OFFSET $%d`, idx, idx+1)
	rows, err := conn.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) FindActive(ctx context.Context, barangayID uuid.UUID, reportType, period string) (*Submission, error) {
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+from+`
		WHERE s.barangay_id = $1 AND s.report_type = $2 AND s.report_period = $3
			AND s.status <> 'superseded'`, barangayID, reportType, period))
}

func (r *repoPG) ListPending(ctx context.Context) ([]*Submission, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+cols+from+`
		WHERE s.status = 'pending'
		ORDER BY b.name, s.barangay_id, s.created_at`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListForPeriod(ctx context.Context, period string) ([]*Submission, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+cols+from+`
		WHERE s.report_period = $1 AND s.status <> 'superseded'
		ORDER BY s.report_type, b.name`, period)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
