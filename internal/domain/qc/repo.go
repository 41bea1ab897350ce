package qc

import "context"

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error)
}
