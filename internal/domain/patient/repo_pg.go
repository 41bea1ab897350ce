package patient

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

const patientCols = `id, uhid, name, age, gender, phone, email, address, patient_type, created_by, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UHID, &p.Name, &p.Age, &p.Gender, &p.Phone,
		&p.Email, &p.Address, &p.PatientType, &p.CreatedBy, &p.CreatedAt)
	return &p, err
}

func (r *RepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	// UHID%06d comes from the uhid_seq sequence so concurrent registrations
	// never collide.
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, uhid, name, age, gender, phone, email, address, patient_type, created_by)
		VALUES ($1, 'UHID' || lpad(nextval('uhid_seq')::text, 6, '0'), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING uhid, created_at`,
		p.ID, p.Name, p.Age, p.Gender, p.Phone, p.Email, p.Address, p.PatientType, p.CreatedBy).
		Scan(&p.UHID, &p.CreatedAt)
}

func (r *RepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("patient", id.String())
	}
	return p, err
}

func (r *RepoPG) GetByUHID(ctx context.Context, uhid string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE uhid = $1`, uhid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("patient", uhid)
	}
	return p, err
}

func (r *RepoPG) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE phone = $1 ORDER BY created_at LIMIT 1`, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("patient", phone)
	}
	return p, err
}

func (r *RepoPG) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	where := ""
	args := []interface{}{}
	idx := 1
	if search != "" {
		where = fmt.Sprintf("WHERE name ILIKE $%d OR uhid ILIKE $%d OR phone ILIKE $%d", idx, idx, idx)
		args = append(args, "%"+search+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM patient %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM patient %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, patientCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *RepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&n)
	return n, err
}
