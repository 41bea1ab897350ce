package catalog

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

const tdCols = `id, test_code, test_name, category, price, tat_hours, sample_type, parameters, created_at`

func scanTD(row pgx.Row) (*TestDefinition, error) {
	var td TestDefinition
	err := row.Scan(&td.ID, &td.TestCode, &td.TestName, &td.Category,
		&td.Price, &td.TATHours, &td.SampleType, &td.Parameters, &td.CreatedAt)
	return &td, err
}

func (r *RepoPG) Create(ctx context.Context, td *TestDefinition) error {
	if td.ID == uuid.Nil {
		td.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO test_definition (id, test_code, test_name, category, price, tat_hours, sample_type, parameters)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		td.ID, td.TestCode, td.TestName, td.Category, td.Price, td.TATHours, td.SampleType, td.Parameters)
	return err
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TestDefinition, error) {
	td, err := scanTD(r.conn(ctx).QueryRow(ctx, `SELECT `+tdCols+` FROM test_definition WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("test definition", id.String())
	}
	return td, err
}

func (r *RepoPG) GetByCode(ctx context.Context, code string) (*TestDefinition, error) {
	td, err := scanTD(r.conn(ctx).QueryRow(ctx, `SELECT `+tdCols+` FROM test_definition WHERE test_code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("test definition", code)
	}
	return td, err
}

func (r *RepoPG) List(ctx context.Context, category string, limit, offset int) ([]*TestDefinition, int, error) {
	where := ""
	args := []interface{}{}
	idx := 1
	if category != "" {
		where = fmt.Sprintf("WHERE category = $%d", idx)
		args = append(args, category)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM test_definition %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM test_definition %s ORDER BY test_name ASC LIMIT $%d OFFSET $%d`, tdCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*TestDefinition
	for rows.Next() {
		td, err := scanTD(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, td)
	}
	return items, total, nil
}
