package qc

import (
	"context"
	"math"
	"time"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/pkg/errs"
)

type Service struct {
	repo     Repository
	recorder audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder, now: time.Now}
}

// Grade computes the deviation of a control run from target and applies the
// ±10% acceptance band. A zero target cannot express a percent deviation and
// passes only on an exact match.
func Grade(target, measured float64) (deviation, deviationPercent float64, status string) {
	deviation = measured - target
	if target != 0 {
		deviationPercent = deviation / target * 100
	}
	status = StatusPass
	if target == 0 {
		if deviation != 0 {
			status = StatusFail
		}
		return
	}
	if math.Abs(deviationPercent) > MaxDeviationPercent {
		status = StatusFail
	}
	return
}

func (s *Service) CreateEntry(ctx context.Context, e *Entry) error {
	if e.TestName == "" {
		return errs.Validation("qc entry", "test_name", "is required")
	}
	if e.QCType != TypeInternal && e.QCType != TypeExternal {
		return errs.Validation("qc entry", "qc_type", "must be internal or external")
	}
	if e.Parameter == "" {
		return errs.Validation("qc entry", "parameter", "is required")
	}

	e.Deviation, e.DeviationPercent, e.Status = Grade(e.TargetValue, e.MeasuredValue)
	if e.Date.IsZero() {
		e.Date = s.now().UTC()
	}
	if e.EnteredBy == "" {
		e.EnteredBy = audit.ActorFromContext(ctx).ID
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	return s.recorder.Record(ctx, &audit.Event{
		Action:   audit.ActionCreate,
		Module:   "qc_entries",
		RecordID: e.ID.String(),
		Details:  map[string]interface{}{"test_name": e.TestName, "status": e.Status},
	})
}

func (s *Service) ListEntries(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}
