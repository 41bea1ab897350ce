package result

import (
	"context"
	"errors"
	"fmt"

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

const resultCols = `id, sample_id, patient_id, test_id, test_name, parameters, status,
	entered_by, reviewed_by, approved_by, has_critical_values, interpretation, created_at, updated_at`

func scanResult(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(&res.ID, &res.SampleID, &res.PatientID, &res.TestID, &res.TestName,
		&res.Parameters, &res.Status, &res.EnteredBy, &res.ReviewedBy, &res.ApprovedBy,
		&res.HasCriticalValues, &res.Interpretation, &res.CreatedAt, &res.UpdatedAt)
	return &res, err
}

func (r *RepoPG) Create(ctx context.Context, res *Result) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO test_result (id, sample_id, patient_id, test_id, test_name, parameters, status,
			entered_by, has_critical_values, interpretation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		res.ID, res.SampleID, res.PatientID, res.TestID, res.TestName, res.Parameters,
		res.Status, res.EnteredBy, res.HasCriticalValues, res.Interpretation).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	res, err := scanResult(r.conn(ctx).QueryRow(ctx, `SELECT `+resultCols+` FROM test_result WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("result", id.String())
	}
	return res, err
}

func (r *RepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Result, int, error) {
	query := `SELECT ` + resultCols + ` FROM test_result WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM test_result WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["sample"]; ok {
		query += fmt.Sprintf(` AND sample_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND sample_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["patient"]; ok {
		query += fmt.Sprintf(` AND patient_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
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

	var items []*Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, nil
}

func (r *RepoPG) Update(ctx context.Context, res *Result, fromStatus string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE test_result SET parameters=$2, status=$3, reviewed_by=$4, approved_by=$5,
			has_critical_values=$6, interpretation=$7, updated_at=NOW()
		WHERE id = $1 AND status = $8`,
		res.ID, res.Parameters, res.Status, res.ReviewedBy, res.ApprovedBy,
		res.HasCriticalValues, res.Interpretation, fromStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleWrite(ctx, res.ID)
	}
	return nil
}

// staleWrite classifies a zero-row compare-and-swap: either the result is
// gone, or another writer moved its status since the caller's read.
func (r *RepoPG) staleWrite(ctx context.Context, id uuid.UUID) error {
	var current string
	err := r.conn(ctx).QueryRow(ctx, `SELECT status FROM test_result WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound("result", id.String())
	}
	if err != nil {
		return err
	}
	return errs.InvalidState("result", id.String(), current, "update")
}

func (r *RepoPG) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM test_result WHERE status = $1`, status).Scan(&n)
	return n, err
}

// CountCriticalPending counts critical results not yet finalized, the number
// the dashboard surfaces for callback follow-up.
func (r *RepoPG) CountCriticalPending(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM test_result WHERE has_critical_values AND status <> $1`,
		StatusFinalized).Scan(&n)
	return n, err
}
