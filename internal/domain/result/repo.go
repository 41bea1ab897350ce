package result

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Result, int, error)
	// Update writes only if the row still carries the status the caller
	// loaded, guarding the review workflow against concurrent writers.
	Update(ctx context.Context, r *Result, fromStatus string) error

	// Dashboard aggregates.
	CountByStatus(ctx context.Context, status string) (int, error)
	CountCriticalPending(ctx context.Context) (int, error)
}
