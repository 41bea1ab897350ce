package inventory

import "context"

type Repository interface {
	Create(ctx context.Context, item *Item) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Item, int, error)
	// ListAll returns the full inventory without pagination, for alert scans.
	ListAll(ctx context.Context) ([]*Item, error)
}
