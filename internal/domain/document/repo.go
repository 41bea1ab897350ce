package document

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Document, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, approvedBy *string) error
}
