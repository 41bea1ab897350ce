package inventory

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

const itemCols = `id, item_name, item_type, lot_number, quantity, unit,
	expiry_date, minimum_stock, supplier, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.ItemName, &i.ItemType, &i.LotNumber, &i.Quantity, &i.Unit,
		&i.ExpiryDate, &i.MinimumStock, &i.Supplier, &i.CreatedAt)
	return &i, err
}

func (r *RepoPG) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inventory_item (id, item_name, item_type, lot_number, quantity, unit,
			expiry_date, minimum_stock, supplier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		item.ID, item.ItemName, item.ItemType, item.LotNumber, item.Quantity, item.Unit,
		item.ExpiryDate, item.MinimumStock, item.Supplier).
		Scan(&item.CreatedAt)
}

func (r *RepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Item, int, error) {
	where := []string{}
	args := []interface{}{}
	idx := 1

	if v, ok := params["item_type"]; ok {
		where = append(where, fmt.Sprintf("item_type = $%d", idx))
		args = append(args, v)
		idx++
	}
	if v, ok := params["search"]; ok {
		where = append(where, fmt.Sprintf("(item_name ILIKE $%d OR supplier ILIKE $%d)", idx, idx))
		args = append(args, "%"+v+"%")
		idx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM inventory_item %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM inventory_item %s ORDER BY item_name LIMIT $%d OFFSET $%d",
		itemCols, whereClause, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, nil
}

func (r *RepoPG) ListAll(ctx context.Context) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf("SELECT %s FROM inventory_item ORDER BY item_name", itemCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, nil
}
