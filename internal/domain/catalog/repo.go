package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, td *TestDefinition) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestDefinition, error)
	GetByCode(ctx context.Context, code string) (*TestDefinition, error)
	List(ctx context.Context, category string, limit, offset int) ([]*TestDefinition, int, error)
}
