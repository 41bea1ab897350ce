package sample

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the sample, issuing its accession number and barcode
	// from the accession sequence.
	Create(ctx context.Context, s *Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	GetBySampleID(ctx context.Context, sampleID string) (*Sample, error)
	GetByBarcode(ctx context.Context, barcode string) (*Sample, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Sample, int, error)
	// UpdateStatus and MarkRejected take the status the caller read and
	// only write if the row still carries it, so a concurrent writer
	// cannot silently overwrite a transition validated against a stale
	// snapshot.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	MarkRejected(ctx context.Context, id uuid.UUID, from, reason string) error

	// Dashboard aggregates.
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountBreached(ctx context.Context, now time.Time) (int, error)
}
