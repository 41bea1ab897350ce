package sample

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/internal/domain/patient"
	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/errs"
)

// PatientLookup resolves the patient a sample belongs to.
type PatientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// CatalogLookup resolves ordered tests so their price and TAT budget can be
// snapshotted onto the sample.
type CatalogLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.TestDefinition, error)
}

// CreateInput is a collection request: which patient, which tests, what tube.
type CreateInput struct {
	PatientID  uuid.UUID   `json:"patient_id"`
	TestIDs    []uuid.UUID `json:"test_ids"`
	SampleType string      `json:"sample_type"`
}

type Service struct {
	repo     Repository
	patients PatientLookup
	tests    CatalogLookup
	recorder audit.Recorder
	inTx     db.TxRunner
	now      func() time.Time
}

func NewService(repo Repository, patients PatientLookup, tests CatalogLookup, recorder audit.Recorder, inTx db.TxRunner) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		tests:    tests,
		recorder: recorder,
		inTx:     inTx,
		now:      time.Now,
	}
}

// Create registers a collected sample: snapshots the ordered tests from the
// catalog, computes the TAT deadline from the slowest test in the panel, and
// writes the sample and its audit entry in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sample, error) {
	if len(in.TestIDs) == 0 {
		return nil, errs.Validation("sample", "test_ids", "at least one test is required")
	}
	if in.SampleType == "" {
		return nil, errs.Validation("sample", "sample_type", "is required")
	}

	p, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}

	items := make([]TestItem, 0, len(in.TestIDs))
	for _, id := range in.TestIDs {
		td, err := s.tests.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, TestItem{
			TestID:   td.ID.String(),
			TestName: td.TestName,
			Price:    td.Price,
			TATHours: td.TATHours,
		})
	}

	collectedAt := s.now().UTC()
	deadline, err := ComputeDeadline(collectedAt, MaxTATHours(items))
	if err != nil {
		return nil, err
	}

	smp := &Sample{
		PatientID:      p.ID,
		PatientName:    p.Name,
		UHID:           p.UHID,
		Tests:          items,
		SampleType:     in.SampleType,
		CollectionDate: collectedAt,
		Status:         StatusCollected,
		CollectedBy:    audit.ActorFromContext(ctx).ID,
		TATDeadline:    deadline,
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, smp); err != nil {
			return err
		}
		return s.recorder.Record(ctx, &audit.Event{
			Action:   audit.ActionCreate,
			Module:   "samples",
			RecordID: smp.SampleID,
			Details:  map[string]interface{}{"patient_id": p.ID.String(), "uhid": p.UHID},
		})
	})
	if err != nil {
		return nil, err
	}
	return smp, nil
}

// Transition moves the sample forward along the lifecycle. The state change
// and its audit entry commit together, and the write is conditioned on the
// status this call validated against, so two operators acting on the same
// snapshot cannot both succeed.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, newStatus string) (*Sample, error) {
	smp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(smp.SampleID, smp.Status, newStatus); err != nil {
		return nil, err
	}

	from := smp.Status
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, id, from, newStatus); err != nil {
			return err
		}
		return s.recorder.Record(ctx, &audit.Event{
			Action:   audit.ActionUpdateStatus,
			Module:   "samples",
			RecordID: smp.SampleID,
			Details:  map[string]interface{}{"from": from, "to": newStatus},
		})
	})
	if err != nil {
		return nil, err
	}
	smp.Status = newStatus
	return smp, nil
}

// Reject drops the sample out of the workflow with a mandatory reason.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Sample, error) {
	if reason == "" {
		return nil, errs.Validation("sample", "rejection_reason", "is required")
	}
	smp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(smp.Status) {
		return nil, errs.InvalidState("sample", smp.SampleID, smp.Status, "reject")
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.MarkRejected(ctx, id, smp.Status, reason); err != nil {
			return err
		}
		return s.recorder.Record(ctx, &audit.Event{
			Action:   audit.ActionReject,
			Module:   "samples",
			RecordID: smp.SampleID,
			Details:  map[string]interface{}{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	smp.Status = StatusRejected
	smp.IsRejected = true
	smp.RejectionReason = &reason
	return smp, nil
}

// IsBreached reports whether the sample has blown its TAT deadline.
func (s *Service) IsBreached(smp *Sample) bool {
	return BreachStatus(smp.TATDeadline, smp.Status, s.now().UTC()) == TATBreached
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySampleID(ctx context.Context, sampleID string) (*Sample, error) {
	return s.repo.GetBySampleID(ctx, sampleID)
}

func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*Sample, error) {
	return s.repo.GetByBarcode(ctx, barcode)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Sample, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}
