package sample

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/errs"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const sampleCols = `id, sample_id, barcode, patient_id, patient_name, uhid, tests, sample_type,
	collection_date, status, collected_by, tat_deadline, is_rejected, rejection_reason, created_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.SampleID, &s.Barcode, &s.PatientID, &s.PatientName, &s.UHID,
		&s.Tests, &s.SampleType, &s.CollectionDate, &s.Status, &s.CollectedBy,
		&s.TATDeadline, &s.IsRejected, &s.RejectionReason, &s.CreatedAt)
	return &s, err
}

func (r *RepoPG) Create(ctx context.Context, s *Sample) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	// Accession number and barcode share one sequence value: SMP%08d on the
	// requisition, the zero-padded 12-digit form on the tube label.
	return r.conn(ctx).QueryRow(ctx, `
		WITH seq AS (SELECT nextval('sample_accession_seq') AS n)
		INSERT INTO sample (id, sample_id, barcode, patient_id, patient_name, uhid, tests, sample_type,
			collection_date, status, collected_by, tat_deadline)
		SELECT $1, 'SMP' || lpad(n::text, 8, '0'), lpad(n::text, 12, '0'),
			$2, $3, $4, $5, $6, $7, $8, $9, $10
		FROM seq
		RETURNING sample_id, barcode, created_at`,
		s.ID, s.PatientID, s.PatientName, s.UHID, s.Tests, s.SampleType,
		s.CollectionDate, s.Status, s.CollectedBy, s.TATDeadline).
		Scan(&s.SampleID, &s.Barcode, &s.CreatedAt)
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	s, err := scanSample(r.conn(ctx).QueryRow(ctx, `SELECT `+sampleCols+` FROM sample WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("sample", id.String())
	}
	return s, err
}

func (r *RepoPG) GetBySampleID(ctx context.Context, sampleID string) (*Sample, error) {
	s, err := scanSample(r.conn(ctx).QueryRow(ctx, `SELECT `+sampleCols+` FROM sample WHERE sample_id = $1`, sampleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("sample", sampleID)
	}
	return s, err
}

func (r *RepoPG) GetByBarcode(ctx context.Context, barcode string) (*Sample, error) {
	s, err := scanSample(r.conn(ctx).QueryRow(ctx, `SELECT `+sampleCols+` FROM sample WHERE barcode = $1`, barcode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("sample", barcode)
	}
	return s, err
}

func (r *RepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Sample, int, error) {
	query := `SELECT ` + sampleCols + ` FROM sample WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sample WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["patient"]; ok {
		query += fmt.Sprintf(` AND patient_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

func (r *RepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE sample SET status = $2 WHERE id = $1 AND status = $3`, id, to, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleWrite(ctx, id, to)
	}
	return nil
}

func (r *RepoPG) MarkRejected(ctx context.Context, id uuid.UUID, from, reason string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE sample SET status = $2, is_rejected = TRUE, rejection_reason = $3
		WHERE id = $1 AND status = $4`,
		id, StatusRejected, reason, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleWrite(ctx, id, StatusRejected)
	}
	return nil
}

// staleWrite classifies a zero-row compare-and-swap: either the sample is
// gone, or another writer moved its status since the caller's read.
func (r *RepoPG) staleWrite(ctx context.Context, id uuid.UUID, to string) error {
	var current string
	err := r.conn(ctx).QueryRow(ctx, `SELECT status FROM sample WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound("sample", id.String())
	}
	if err != nil {
		return err
	}
	return errs.InvalidTransition("sample", id.String(), current, to)
}

func (r *RepoPG) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM sample GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *RepoPG) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM sample WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

// CountBreached mirrors BreachStatus in SQL: past deadline and not approved.
func (r *RepoPG) CountBreached(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM sample WHERE tat_deadline < $1 AND status <> $2`,
		now, StatusApproved).Scan(&n)
	return n, err
}
