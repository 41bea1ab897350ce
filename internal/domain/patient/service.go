package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/pkg/errs"
)

var validPatientTypes = map[string]bool{"OPD": true, "IPD": true}

type Service struct {
	repo     Repository
	recorder audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return errs.Validation("patient", "name", "is required")
	}
	if p.Age < 0 {
		return errs.Validation("patient", "age", "must not be negative")
	}
	if p.Gender == "" {
		return errs.Validation("patient", "gender", "is required")
	}
	if p.Phone == "" {
		return errs.Validation("patient", "phone", "is required")
	}
	if !validPatientTypes[p.PatientType] {
		return errs.Validation("patient", "patient_type", "must be OPD or IPD")
	}
	if p.CreatedBy == "" {
		p.CreatedBy = audit.ActorFromContext(ctx).ID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	return s.recorder.Record(ctx, &audit.Event{
		Action:   audit.ActionCreate,
		Module:   "patients",
		RecordID: p.ID.String(),
		Details:  map[string]interface{}{"uhid": p.UHID, "name": p.Name},
	})
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetPatientByUHID(ctx context.Context, uhid string) (*Patient, error) {
	return s.repo.GetByUHID(ctx, uhid)
}

func (s *Service) GetPatientByPhone(ctx context.Context, phone string) (*Patient, error) {
	return s.repo.GetByPhone(ctx, phone)
}

func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, search, limit, offset)
}
