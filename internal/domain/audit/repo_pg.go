package audit

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

const auditCols = `id, actor_id, actor_name, actor_role, action, module, record_id, details, ip_address, recorded`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.ActorRole,
		&e.Action, &e.Module, &e.RecordID, &e.Details, &e.IPAddress, &e.Recorded)
	return &e, err
}

func (r *RepoPG) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, actor_name, actor_role, action, module, record_id, details, ip_address, recorded)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.ActorID, e.ActorName, e.ActorRole, e.Action, e.Module, e.RecordID, e.Details, e.IPAddress, e.Recorded)
	return err
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return scanEvent(r.conn(ctx).QueryRow(ctx, `SELECT `+auditCols+` FROM audit_log WHERE id = $1`, id))
}

func (r *RepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Event, int, error) {
	where := []string{}
	args := []interface{}{}
	idx := 1

	if v, ok := params["module"]; ok {
		where = append(where, fmt.Sprintf("module = $%d", idx))
		args = append(args, v)
		idx++
	}
	if v, ok := params["action"]; ok {
		where = append(where, fmt.Sprintf("action = $%d", idx))
		args = append(args, v)
		idx++
	}
	if v, ok := params["actor"]; ok {
		where = append(where, fmt.Sprintf("(actor_id = $%d OR actor_name ILIKE $%d)", idx, idx+1))
		args = append(args, v, "%"+v+"%")
		idx += 2
	}
	if v, ok := params["record"]; ok {
		where = append(where, fmt.Sprintf("record_id = $%d", idx))
		args = append(args, v)
		idx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQ := fmt.Sprintf("SELECT COUNT(*) FROM audit_log %s", whereClause)
	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM audit_log %s ORDER BY recorded DESC LIMIT $%d OFFSET $%d",
		auditCols, whereClause, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}
