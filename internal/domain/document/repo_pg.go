package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const documentCols = `id, document_type, document_id, title, version, status,
	uploaded_by, approved_by, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.DocumentType, &d.DocumentID, &d.Title, &d.Version, &d.Status,
		&d.UploadedBy, &d.ApprovedBy, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *RepoPG) Create(ctx context.Context, d *Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO nabl_document (id, document_type, document_id, title, version, status, uploaded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		d.ID, d.DocumentType, d.DocumentID, d.Title, d.Version, d.Status, d.UploadedBy).
		Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM nabl_document WHERE id = $1", documentCols), id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("document", id.String())
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *RepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Document, int, error) {
	where := []string{}
	args := []interface{}{}
	idx := 1

	if v, ok := params["document_type"]; ok {
		where = append(where, fmt.Sprintf("document_type = $%d", idx))
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
	if err := r.conn(ctx).QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM nabl_document %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM nabl_document %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		documentCols, whereClause, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

func (r *RepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, approvedBy *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE nabl_document SET status = $2, approved_by = COALESCE($3, approved_by), updated_at = NOW()
		WHERE id = $1`,
		id, status, approvedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("document", id.String())
	}
	return nil
}
