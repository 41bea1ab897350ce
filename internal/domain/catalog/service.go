package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/pkg/errs"
)

type Service struct {
	repo     Repository
	recorder audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// CreateTest registers a new test definition. Codes are unique; critical
// thresholds must describe a non-empty band.
func (s *Service) CreateTest(ctx context.Context, td *TestDefinition) error {
	if td.TestCode == "" {
		return errs.Validation("test definition", "test_code", "is required")
	}
	if td.TestName == "" {
		return errs.Validation("test definition", "test_name", "is required")
	}
	if td.TATHours <= 0 {
		return errs.Validation("test definition", "tat_hours", "must be positive")
	}
	if td.Price < 0 {
		return errs.Validation("test definition", "price", "must not be negative")
	}
	if len(td.Parameters) == 0 {
		return errs.Validation("test definition", "parameters", "at least one parameter is required")
	}
	for _, p := range td.Parameters {
		if p.Name == "" {
			return errs.Validation("test definition", "parameters", "parameter name is required")
		}
		if p.CriticalLow != nil && p.CriticalHigh != nil && *p.CriticalLow >= *p.CriticalHigh {
			return errs.Validation("test definition", "parameters",
				"critical_low must be below critical_high for "+p.Name)
		}
	}

	if existing, err := s.repo.GetByCode(ctx, td.TestCode); err == nil && existing != nil {
		return errs.Validation("test definition", "test_code", "already exists: "+td.TestCode)
	}

	if err := s.repo.Create(ctx, td); err != nil {
		return err
	}
	return s.recorder.Record(ctx, &audit.Event{
		Action:   audit.ActionCreate,
		Module:   "tests",
		RecordID: td.ID.String(),
		Details:  map[string]interface{}{"test_code": td.TestCode, "test_name": td.TestName},
	})
}

func (s *Service) GetTest(ctx context.Context, id uuid.UUID) (*TestDefinition, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetTestByCode(ctx context.Context, code string) (*TestDefinition, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) ListTests(ctx context.Context, category string, limit, offset int) ([]*TestDefinition, int, error) {
	return s.repo.List(ctx, category, limit, offset)
}
