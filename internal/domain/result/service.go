package result

import (
	"context"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/internal/domain/sample"
	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/errs"
)

// SampleLookup resolves the sample a result belongs to.
type SampleLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*sample.Sample, error)
}

// CatalogLookup resolves the parameter definitions used for classification.
type CatalogLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.TestDefinition, error)
}

// ValueEntry is one raw measured value keyed by parameter name.
type ValueEntry struct {
	Parameter string `json:"parameter_name"`
	Value     string `json:"value"`
}

// CreateInput is a result entry submission for one test on one sample.
type CreateInput struct {
	SampleID       uuid.UUID    `json:"sample_id"`
	TestID         uuid.UUID    `json:"test_id"`
	Values         []ValueEntry `json:"values"`
	Demographic    string       `json:"demographic"`
	Interpretation *string      `json:"interpretation,omitempty"`
}

// UpdateInput corrects parameters and/or moves the result forward in the
// review chain before finalization.
type UpdateInput struct {
	Values         []ValueEntry `json:"values,omitempty"`
	Status         *string      `json:"status,omitempty"`
	Demographic    string       `json:"demographic"`
	Interpretation *string      `json:"interpretation,omitempty"`
}

type Service struct {
	repo     Repository
	samples  SampleLookup
	tests    CatalogLookup
	recorder audit.Recorder
	inTx     db.TxRunner
}

func NewService(repo Repository, samples SampleLookup, tests CatalogLookup, recorder audit.Recorder, inTx db.TxRunner) *Service {
	return &Service{repo: repo, samples: samples, tests: tests, recorder: recorder, inTx: inTx}
}

// Create evaluates a raw-value submission and stores the classified result as
// a draft. When any parameter is critical the CREATE audit entry is joined by
// a critical_alerts entry in the same transaction, so a critical value is
// never stored without its notification trail.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Result, error) {
	smp, err := s.samples.GetByID(ctx, in.SampleID)
	if err != nil {
		return nil, err
	}
	td, err := s.tests.GetByID(ctx, in.TestID)
	if err != nil {
		return nil, err
	}

	params, hasCritical, err := s.evaluate(td, in.Values, in.Demographic)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SampleID:          smp.ID,
		PatientID:         smp.PatientID,
		TestID:            td.ID,
		TestName:          td.TestName,
		Parameters:        params,
		Status:            StatusDraft,
		EnteredBy:         audit.ActorFromContext(ctx).ID,
		HasCriticalValues: hasCritical,
		Interpretation:    in.Interpretation,
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, res); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, &audit.Event{
			Action:   audit.ActionCreate,
			Module:   "test_results",
			RecordID: res.ID.String(),
			Details: map[string]interface{}{
				"sample_id":    smp.SampleID,
				"test_name":    td.TestName,
				"has_critical": hasCritical,
			},
		}); err != nil {
			return err
		}
		if hasCritical {
			return s.recorder.Record(ctx, &audit.Event{
				Action:   audit.ActionCreate,
				Module:   "critical_alerts",
				RecordID: res.ID.String(),
				Details: map[string]interface{}{
					"sample_id":  smp.SampleID,
					"test_name":  td.TestName,
					"parameters": criticalNames(params),
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Update corrects parameters or advances the review workflow. Finalized
// results reject everything.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Result, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == StatusFinalized {
		return nil, errs.InvalidState("result", res.ID.String(), res.Status, "update")
	}

	loadedStatus := res.Status
	wasCritical := res.HasCriticalValues
	changed := []string{}

	if len(in.Values) > 0 {
		td, err := s.tests.GetByID(ctx, res.TestID)
		if err != nil {
			return nil, err
		}
		params, hasCritical, err := s.evaluate(td, in.Values, in.Demographic)
		if err != nil {
			return nil, err
		}
		res.Parameters = params
		res.HasCriticalValues = hasCritical
		changed = append(changed, "parameters")
	}

	if in.Status != nil {
		if err := ValidateTransition(res.ID.String(), res.Status, *in.Status); err != nil {
			return nil, err
		}
		actor := audit.ActorFromContext(ctx).ID
		switch *in.Status {
		case StatusUnderReview:
			res.ReviewedBy = &actor
		case StatusApproved:
			res.ApprovedBy = &actor
		}
		res.Status = *in.Status
		changed = append(changed, "status")
	}

	if in.Interpretation != nil {
		res.Interpretation = in.Interpretation
		changed = append(changed, "interpretation")
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, res, loadedStatus); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, &audit.Event{
			Action:   audit.ActionUpdate,
			Module:   "test_results",
			RecordID: res.ID.String(),
			Details:  map[string]interface{}{"updates": changed},
		}); err != nil {
			return err
		}
		// A correction that introduces a critical value needs the same
		// notification trail as a critical entry.
		if res.HasCriticalValues && !wasCritical {
			return s.recorder.Record(ctx, &audit.Event{
				Action:   audit.ActionCreate,
				Module:   "critical_alerts",
				RecordID: res.ID.String(),
				Details:  map[string]interface{}{"parameters": criticalNames(res.Parameters)},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Result, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}

// evaluate matches submitted values to the test's parameter definitions and
// classifies the batch.
func (s *Service) evaluate(td *catalog.TestDefinition, values []ValueEntry, demographic string) ([]ResultParameter, bool, error) {
	if len(values) == 0 {
		return nil, false, errs.Validation("result", "values", "at least one value is required")
	}

	defs := make(map[string]catalog.Parameter, len(td.Parameters))
	for _, p := range td.Parameters {
		defs[p.Name] = p
	}

	entries := make([]EvalEntry, 0, len(values))
	for _, v := range values {
		def, ok := defs[v.Parameter]
		if !ok {
			return nil, false, errs.Validation("result", "values", "unknown parameter: "+v.Parameter)
		}
		entries = append(entries, EvalEntry{Definition: def, RawValue: v.Value})
	}
	return Evaluate(entries, demographic)
}

func criticalNames(params []ResultParameter) []string {
	var names []string
	for _, p := range params {
		if p.Status == ParamCritical {
			names = append(names, p.Name)
		}
	}
	return names
}
