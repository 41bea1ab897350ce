package qc

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
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

const qcCols = `id, date, test_name, qc_type, level, lot_number, parameter,
	target_value, measured_value, deviation, deviation_percent, status, entered_by, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Date, &e.TestName, &e.QCType, &e.Level, &e.LotNumber, &e.Parameter,
		&e.TargetValue, &e.MeasuredValue, &e.Deviation, &e.DeviationPercent, &e.Status, &e.EnteredBy, &e.CreatedAt)
	return &e, err
}

func (r *RepoPG) Create(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO qc_entry (id, date, test_name, qc_type, level, lot_number, parameter,
			target_value, measured_value, deviation, deviation_percent, status, entered_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at`,
		e.ID, e.Date, e.TestName, e.QCType, e.Level, e.LotNumber, e.Parameter,
		e.TargetValue, e.MeasuredValue, e.Deviation, e.DeviationPercent, e.Status, e.EnteredBy).
		Scan(&e.CreatedAt)
}

func (r *RepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error) {
	where := []string{}
	args := []interface{}{}
	idx := 1

	if v, ok := params["test_name"]; ok {
		where = append(where, fmt.Sprintf("test_name = $%d", idx))
		args = append(args, v)
		idx++
	}
	if v, ok := params["qc_type"]; ok {
		where = append(where, fmt.Sprintf("qc_type = $%d", idx))
		args = append(args, v)
		idx++
	}
	if v, ok := params["status"]; ok {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, v)
		idx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM qc_entry %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM qc_entry %s ORDER BY date DESC LIMIT $%d OFFSET $%d", qcCols, whereClause, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}
