package result

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/internal/domain/sample"
	"github.com/lims/lims/pkg/errs"
)

type mockRepo struct {
	results map[uuid.UUID]*Result
}

func newMockRepo() *mockRepo {
	return &mockRepo{results: make(map[uuid.UUID]*Result)}
}

func (m *mockRepo) Create(_ context.Context, r *Result) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	m.results[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Result, error) {
	r, ok := m.results[id]
	if !ok {
		return nil, errs.NotFound("result", id.String())
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, params map[string]string, limit, offset int) ([]*Result, int, error) {
	var result []*Result
	for _, r := range m.results {
		if st, ok := params["status"]; ok && r.Status != st {
			continue
		}
		result = append(result, r)
	}
	return result, len(result), nil
}

func (m *mockRepo) Update(_ context.Context, r *Result, fromStatus string) error {
	stored, ok := m.results[r.ID]
	if !ok {
		return errs.NotFound("result", r.ID.String())
	}
	if stored.Status != fromStatus {
		return errs.InvalidState("result", r.ID.String(), stored.Status, "update")
	}
	r.UpdatedAt = time.Now()
	m.results[r.ID] = r
	return nil
}

func (m *mockRepo) CountByStatus(_ context.Context, status string) (int, error) {
	n := 0
	for _, r := range m.results {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CountCriticalPending(_ context.Context) (int, error) {
	n := 0
	for _, r := range m.results {
		if r.HasCriticalValues && r.Status != StatusFinalized {
			n++
		}
	}
	return n, nil
}

type mockSamples struct {
	samples map[uuid.UUID]*sample.Sample
}

func (m *mockSamples) GetByID(_ context.Context, id uuid.UUID) (*sample.Sample, error) {
	s, ok := m.samples[id]
	if !ok {
		return nil, errs.NotFound("sample", id.String())
	}
	return s, nil
}

type mockCatalog struct {
	defs map[uuid.UUID]*catalog.TestDefinition
}

func (m *mockCatalog) GetByID(_ context.Context, id uuid.UUID) (*catalog.TestDefinition, error) {
	td, ok := m.defs[id]
	if !ok {
		return nil, errs.NotFound("test definition", id.String())
	}
	return td, nil
}

type mockRecorder struct {
	events []*audit.Event
}

func (m *mockRecorder) Record(_ context.Context, e *audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockRecorder) byModule(module string) []*audit.Event {
	var out []*audit.Event
	for _, e := range m.events {
		if e.Module == module {
			out = append(out, e)
		}
	}
	return out
}

func passThroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	recorder *mockRecorder
	smp      *sample.Sample
	glucose  *catalog.TestDefinition
}

func newFixture() *fixture {
	smp := &sample.Sample{
		ID:        uuid.New(),
		SampleID:  "SMP00000001",
		PatientID: uuid.New(),
		Status:    sample.StatusUnderValidation,
	}
	glucose := &catalog.TestDefinition{
		ID:       uuid.New(),
		TestCode: "GLU",
		TestName: "Glucose Fasting",
		Parameters: []catalog.Parameter{{
			Name:           "Glucose",
			Unit:           "mg/dL",
			RefRangeMale:   "70-110",
			RefRangeFemale: "70-110",
			CriticalLow:    ptr(50),
			CriticalHigh:   ptr(400),
		}},
	}

	repo := newMockRepo()
	rec := &mockRecorder{}
	svc := NewService(repo,
		&mockSamples{samples: map[uuid.UUID]*sample.Sample{smp.ID: smp}},
		&mockCatalog{defs: map[uuid.UUID]*catalog.TestDefinition{glucose.ID: glucose}},
		rec, passThroughTx)

	return &fixture{svc: svc, repo: repo, recorder: rec, smp: smp, glucose: glucose}
}

func TestCreateResult(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Create(context.Background(), CreateInput{
		SampleID:    f.smp.ID,
		TestID:      f.glucose.ID,
		Values:      []ValueEntry{{Parameter: "Glucose", Value: "95"}},
		Demographic: DemographicMale,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusDraft {
		t.Errorf("expected draft, got %q", res.Status)
	}
	if res.HasCriticalValues {
		t.Error("95 mg/dL must not be critical")
	}
	if res.Parameters[0].Status != ParamNormal || res.Parameters[0].RefRange != "70-110" {
		t.Errorf("unexpected classification: %+v", res.Parameters[0])
	}
	if len(f.recorder.byModule("critical_alerts")) != 0 {
		t.Error("no critical alert expected for a normal result")
	}
	if len(f.recorder.byModule("test_results")) != 1 {
		t.Error("expected one CREATE audit event")
	}
}

func TestCreateResult_CriticalEmitsAlert(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Create(context.Background(), CreateInput{
		SampleID:    f.smp.ID,
		TestID:      f.glucose.ID,
		Values:      []ValueEntry{{Parameter: "Glucose", Value: "450"}},
		Demographic: DemographicMale,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasCriticalValues {
		t.Error("expected has_critical_values")
	}

	alerts := f.recorder.byModule("critical_alerts")
	if len(alerts) != 1 {
		t.Fatalf("expected one critical alert event, got %d", len(alerts))
	}
	names, _ := alerts[0].Details["parameters"].([]string)
	if len(names) != 1 || names[0] != "Glucose" {
		t.Errorf("alert should name the critical parameters, got %+v", alerts[0].Details)
	}
}

func TestCreateResult_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateInput{
		SampleID: f.smp.ID, TestID: f.glucose.ID, Demographic: DemographicMale,
	})
	if !errs.IsValidation(err) {
		t.Errorf("empty values: expected ValidationError, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), CreateInput{
		SampleID: f.smp.ID, TestID: f.glucose.ID,
		Values: []ValueEntry{{Parameter: "Sodium", Value: "140"}}, Demographic: DemographicMale,
	})
	if !errs.IsValidation(err) {
		t.Errorf("unknown parameter: expected ValidationError, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), CreateInput{
		SampleID: uuid.New(), TestID: f.glucose.ID,
		Values: []ValueEntry{{Parameter: "Glucose", Value: "95"}}, Demographic: DemographicMale,
	})
	if !errs.IsNotFound(err) {
		t.Errorf("unknown sample: expected NotFoundError, got %v", err)
	}
}

func TestUpdateResult_Workflow(t *testing.T) {
	f := newFixture()
	res, _ := f.svc.Create(context.Background(), CreateInput{
		SampleID: f.smp.ID, TestID: f.glucose.ID,
		Values: []ValueEntry{{Parameter: "Glucose", Value: "95"}}, Demographic: DemographicMale,
	})

	review := StatusUnderReview
	updated, err := f.svc.Update(context.Background(), res.ID, UpdateInput{Status: &review})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusUnderReview || updated.ReviewedBy == nil {
		t.Errorf("expected under_review with reviewer stamped, got %+v", updated)
	}

	approve := StatusApproved
	updated, err = f.svc.Update(context.Background(), res.ID, UpdateInput{Status: &approve})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusApproved || updated.ApprovedBy == nil {
		t.Errorf("expected approved with approver stamped, got %+v", updated)
	}

	// Backward move is rejected.
	back := StatusDraft
	_, err = f.svc.Update(context.Background(), res.ID, UpdateInput{Status: &back})
	var ite *errs.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Errorf("expected InvalidTransitionError, got %v", err)
	}
}

// staleResultRepo serves reads from a snapshot taken at construction,
// modelling a reviewer acting on a result another reviewer already moved.
type staleResultRepo struct {
	*mockRepo
	snapshot Result
}

func (s *staleResultRepo) GetByID(_ context.Context, _ uuid.UUID) (*Result, error) {
	cp := s.snapshot
	return &cp, nil
}

func TestUpdateResult_StaleReviewerLoses(t *testing.T) {
	f := newFixture()
	res, _ := f.svc.Create(context.Background(), CreateInput{
		SampleID: f.smp.ID, TestID: f.glucose.ID,
		Values: []ValueEntry{{Parameter: "Glucose", Value: "95"}}, Demographic: DemographicMale,
	})

	snap, _ := f.repo.GetByID(context.Background(), res.ID)
	staleSvc := NewService(&staleResultRepo{mockRepo: f.repo, snapshot: *snap},
		&mockSamples{}, &mockCatalog{defs: map[uuid.UUID]*catalog.TestDefinition{f.glucose.ID: f.glucose}},
		f.recorder, passThroughTx)

	review := StatusUnderReview
	if _, err := f.svc.Update(context.Background(), res.ID, UpdateInput{Status: &review}); err != nil {
		t.Fatalf("first reviewer: %v", err)
	}

	// Second reviewer still sees the draft and submits the same move.
	_, err := staleSvc.Update(context.Background(), res.ID, UpdateInput{Status: &review})
	var ise *errs.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected stale update to fail with InvalidStateError, got %v", err)
	}

	stored, _ := f.repo.GetByID(context.Background(), res.ID)
	if stored.Status != StatusUnderReview {
		t.Errorf("expected under_review to stand, got %q", stored.Status)
	}
}

func TestUpdateResult_FinalizedIsImmutable(t *testing.T) {
	f := newFixture()
	res, _ := f.svc.Create(context.Background(), CreateInput{
		SampleID: f.smp.ID, TestID: f.glucose.ID,
		Values: []ValueEntry{{Parameter: "Glucose", Value: "95"}}, Demographic: DemographicMale,
	})

	final := StatusFinalized
	if _, err := f.svc.Update(context.Background(), res.ID, UpdateInput{Status: &final}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	note := "see comment"
	_, err := f.svc.Update(context.Background(), res.ID, UpdateInput{Interpretation: &note})
	var ise *errs.InvalidStateError
	if !errors.As(err, &ise) {
		t.Errorf("expected InvalidStateError, got %v", err)
	}
}

func TestUpdateResult_CorrectionRecomputesCritical(t *testing.T) {
	f := newFixture()
	res, _ := f.svc.Create(context.Background(), CreateInput{
		SampleID: f.smp.ID, TestID: f.glucose.ID,
		Values: []ValueEntry{{Parameter: "Glucose", Value: "95"}}, Demographic: DemographicMale,
	})

	updated, err := f.svc.Update(context.Background(), res.ID, UpdateInput{
		Values:      []ValueEntry{{Parameter: "Glucose", Value: "30"}},
		Demographic: DemographicMale,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.HasCriticalValues {
		t.Error("correction to 30 mg/dL must set has_critical_values")
	}
	if len(f.recorder.byModule("critical_alerts")) != 1 {
		t.Error("correction introducing a critical value must emit an alert")
	}
}
