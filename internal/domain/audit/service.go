package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder is implemented by the audit service and consumed by every domain
// service that performs a mutating operation. Recording happens inside the
// caller's transaction so the state change and its trail entry commit
// together.
type Recorder interface {
	Record(ctx context.Context, e *Event) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, e *Event) error {
	if e.Recorded.IsZero() {
		e.Recorded = time.Now().UTC()
	}
	if e.ActorID == "" {
		actor := ActorFromContext(ctx)
		e.ActorID = actor.ID
		e.ActorName = actor.Name
		e.ActorRole = actor.Role
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SearchEvents(ctx context.Context, params map[string]string, limit, offset int) ([]*Event, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
