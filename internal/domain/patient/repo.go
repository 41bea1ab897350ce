package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the patient, issuing its UHID from the registry sequence.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUHID(ctx context.Context, uhid string) (*Patient, error)
	GetByPhone(ctx context.Context, phone string) (*Patient, error)
	// List returns patients newest first; search matches name, UHID or phone.
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
	Count(ctx context.Context) (int, error)
}
