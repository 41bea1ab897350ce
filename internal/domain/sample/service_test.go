package sample

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/internal/domain/patient"
	"github.com/lims/lims/pkg/errs"
)

type mockRepo struct {
	samples map[uuid.UUID]*Sample
	seq     int
}

func newMockRepo() *mockRepo {
	return &mockRepo{samples: make(map[uuid.UUID]*Sample)}
}

func (m *mockRepo) Create(_ context.Context, s *Sample) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.seq++
	s.SampleID = fmt.Sprintf("SMP%08d", m.seq)
	s.Barcode = fmt.Sprintf("%012d", m.seq)
	s.CreatedAt = time.Now()
	m.samples[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Sample, error) {
	s, ok := m.samples[id]
	if !ok {
		return nil, errs.NotFound("sample", id.String())
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) GetBySampleID(_ context.Context, sampleID string) (*Sample, error) {
	for _, s := range m.samples {
		if s.SampleID == sampleID {
			return s, nil
		}
	}
	return nil, errs.NotFound("sample", sampleID)
}

func (m *mockRepo) GetByBarcode(_ context.Context, barcode string) (*Sample, error) {
	for _, s := range m.samples {
		if s.Barcode == barcode {
			return s, nil
		}
	}
	return nil, errs.NotFound("sample", barcode)
}

func (m *mockRepo) List(_ context.Context, params map[string]string, limit, offset int) ([]*Sample, int, error) {
	var result []*Sample
	for _, s := range m.samples {
		if st, ok := params["status"]; ok && s.Status != st {
			continue
		}
		result = append(result, s)
	}
	return result, len(result), nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) error {
	s, ok := m.samples[id]
	if !ok {
		return errs.NotFound("sample", id.String())
	}
	if s.Status != from {
		return errs.InvalidTransition("sample", id.String(), s.Status, to)
	}
	s.Status = to
	return nil
}

func (m *mockRepo) MarkRejected(_ context.Context, id uuid.UUID, from, reason string) error {
	s, ok := m.samples[id]
	if !ok {
		return errs.NotFound("sample", id.String())
	}
	if s.Status != from {
		return errs.InvalidTransition("sample", id.String(), s.Status, StatusRejected)
	}
	s.Status = StatusRejected
	s.IsRejected = true
	s.RejectionReason = &reason
	return nil
}

func (m *mockRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, s := range m.samples {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *mockRepo) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, s := range m.samples {
		if !s.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CountBreached(_ context.Context, now time.Time) (int, error) {
	n := 0
	for _, s := range m.samples {
		if BreachStatus(s.TATDeadline, s.Status, now) == TATBreached {
			n++
		}
	}
	return n, nil
}

type mockPatients struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, errs.NotFound("patient", id.String())
	}
	return p, nil
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

func passThroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	recorder *mockRecorder
	patient  *patient.Patient
	glucose  *catalog.TestDefinition
	hba1c    *catalog.TestDefinition
}

func newFixture(now time.Time) *fixture {
	p := &patient.Patient{ID: uuid.New(), UHID: "UHID000007", Name: "Asha Verma"}
	glucose := &catalog.TestDefinition{ID: uuid.New(), TestCode: "GLU", TestName: "Glucose Fasting", Price: 150, TATHours: 4}
	hba1c := &catalog.TestDefinition{ID: uuid.New(), TestCode: "HBA1C", TestName: "HbA1c", Price: 450, TATHours: 24}

	repo := newMockRepo()
	rec := &mockRecorder{}
	svc := NewService(repo,
		&mockPatients{patients: map[uuid.UUID]*patient.Patient{p.ID: p}},
		&mockCatalog{defs: map[uuid.UUID]*catalog.TestDefinition{glucose.ID: glucose, hba1c.ID: hba1c}},
		rec, passThroughTx)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, repo: repo, recorder: rec, patient: p, glucose: glucose, hba1c: hba1c}
}

func TestCreate_SnapshotsTestsAndComputesDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newFixture(now)

	smp, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:  f.patient.ID,
		TestIDs:    []uuid.UUID{f.glucose.ID, f.hba1c.ID},
		SampleType: "Serum",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if smp.SampleID != "SMP00000001" {
		t.Errorf("expected SMP00000001, got %q", smp.SampleID)
	}
	if len(smp.Barcode) != 12 {
		t.Errorf("expected 12-digit barcode, got %q", smp.Barcode)
	}
	if smp.Status != StatusCollected {
		t.Errorf("expected initial status collected, got %q", smp.Status)
	}
	if smp.UHID != "UHID000007" || smp.PatientName != "Asha Verma" {
		t.Errorf("patient snapshot wrong: %+v", smp)
	}
	if len(smp.Tests) != 2 || smp.Tests[1].TestName != "HbA1c" || smp.Tests[1].Price != 450 {
		t.Errorf("test snapshot wrong: %+v", smp.Tests)
	}
	// Deadline follows the slowest test in the panel.
	want := now.Add(24 * time.Hour)
	if !smp.TATDeadline.Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, smp.TATDeadline)
	}
	if len(f.recorder.events) != 1 || f.recorder.events[0].Action != audit.ActionCreate {
		t.Errorf("expected one CREATE audit event, got %+v", f.recorder.events)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(time.Now())

	_, err := f.svc.Create(context.Background(), CreateInput{PatientID: f.patient.ID, SampleType: "Serum"})
	if !errs.IsValidation(err) {
		t.Errorf("empty tests: expected ValidationError, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), CreateInput{PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}})
	if !errs.IsValidation(err) {
		t.Errorf("empty sample_type: expected ValidationError, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), CreateInput{
		PatientID: uuid.New(), TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})
	if !errs.IsNotFound(err) {
		t.Errorf("unknown patient: expected NotFoundError, got %v", err)
	}
}

func TestTransition_AuditsFromAndTo(t *testing.T) {
	f := newFixture(time.Now())
	smp, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})

	updated, err := f.svc.Transition(context.Background(), smp.ID, StatusReceived)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusReceived {
		t.Errorf("expected received, got %q", updated.Status)
	}

	last := f.recorder.events[len(f.recorder.events)-1]
	if last.Action != audit.ActionUpdateStatus {
		t.Errorf("expected UPDATE_STATUS event, got %q", last.Action)
	}
	if last.Details["from"] != StatusCollected || last.Details["to"] != StatusReceived {
		t.Errorf("expected from/to in details, got %+v", last.Details)
	}
}

func TestTransition_RejectsBackward(t *testing.T) {
	f := newFixture(time.Now())
	smp, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})
	_, _ = f.svc.Transition(context.Background(), smp.ID, StatusProcessing)

	_, err := f.svc.Transition(context.Background(), smp.ID, StatusReceived)
	var ite *errs.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Errorf("expected InvalidTransitionError, got %v", err)
	}
	// Failed transition must not record an audit event.
	for _, e := range f.recorder.events {
		if e.Details["to"] == StatusReceived {
			t.Errorf("audit event recorded for rejected transition: %+v", e)
		}
	}
}

// staleRepo serves reads from a snapshot taken at construction, modelling an
// operator whose screen has not refreshed since another operator wrote.
type staleRepo struct {
	*mockRepo
	snapshot Sample
}

func (s *staleRepo) GetByID(_ context.Context, _ uuid.UUID) (*Sample, error) {
	cp := s.snapshot
	return &cp, nil
}

func TestTransition_LostUpdateBetweenTwoOperators(t *testing.T) {
	f := newFixture(time.Now())
	smp, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})
	for _, st := range []string{StatusReceived, StatusProcessing, StatusOnMachine, StatusUnderValidation} {
		if _, err := f.svc.Transition(context.Background(), smp.ID, st); err != nil {
			t.Fatalf("setup transition to %s: %v", st, err)
		}
	}

	// Second operator loaded the sample while it was still under validation
	// and acts on that snapshot after the first operator's write lands.
	snap, _ := f.repo.GetByID(context.Background(), smp.ID)
	staleSvc := NewService(&staleRepo{mockRepo: f.repo, snapshot: *snap},
		&mockPatients{}, &mockCatalog{}, f.recorder, passThroughTx)

	if _, err := f.svc.Transition(context.Background(), smp.ID, StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, rejectErr := staleSvc.Reject(context.Background(), smp.ID, "hemolyzed specimen")
	var ite *errs.InvalidTransitionError
	if !errors.As(rejectErr, &ite) {
		t.Fatalf("expected stale reject to fail with InvalidTransitionError, got %v", rejectErr)
	}

	final, _ := f.repo.GetByID(context.Background(), smp.ID)
	if final.Status != StatusApproved || final.IsRejected {
		t.Errorf("approval overwritten by stale reject: %+v", final)
	}
	for _, e := range f.recorder.events {
		if e.Action == audit.ActionReject {
			t.Errorf("audit event recorded for failed stale reject: %+v", e)
		}
	}
}

func TestTransition_StaleApproveAfterReject(t *testing.T) {
	f := newFixture(time.Now())
	smp, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})
	_, _ = f.svc.Transition(context.Background(), smp.ID, StatusUnderValidation)

	snap, _ := f.repo.GetByID(context.Background(), smp.ID)
	staleSvc := NewService(&staleRepo{mockRepo: f.repo, snapshot: *snap},
		&mockPatients{}, &mockCatalog{}, f.recorder, passThroughTx)

	if _, err := f.svc.Reject(context.Background(), smp.ID, "clotted specimen"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	_, approveErr := staleSvc.Transition(context.Background(), smp.ID, StatusApproved)
	var ite *errs.InvalidTransitionError
	if !errors.As(approveErr, &ite) {
		t.Fatalf("expected stale approve to fail with InvalidTransitionError, got %v", approveErr)
	}

	final, _ := f.repo.GetByID(context.Background(), smp.ID)
	if final.Status != StatusRejected {
		t.Errorf("rejection overwritten by stale approve: %+v", final)
	}
}

func TestReject(t *testing.T) {
	f := newFixture(time.Now())
	smp, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})

	rejected, err := f.svc.Reject(context.Background(), smp.ID, "hemolyzed specimen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Status != StatusRejected || !rejected.IsRejected {
		t.Errorf("expected rejected sample, got %+v", rejected)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "hemolyzed specimen" {
		t.Error("rejection reason not stored")
	}
	last := f.recorder.events[len(f.recorder.events)-1]
	if last.Action != audit.ActionReject {
		t.Errorf("expected REJECT audit event, got %q", last.Action)
	}

	// Terminal: no further transitions, no second rejection.
	if _, err := f.svc.Transition(context.Background(), smp.ID, StatusApproved); err == nil {
		t.Error("expected transition on rejected sample to fail")
	}
	if _, err := f.svc.Reject(context.Background(), smp.ID, "again"); err == nil {
		t.Error("expected second rejection to fail")
	}
}

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture(time.Now())
	smp, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})
	if _, err := f.svc.Reject(context.Background(), smp.ID, ""); !errs.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestIsBreached(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newFixture(now)
	smp, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patient.ID, TestIDs: []uuid.UUID{f.glucose.ID}, SampleType: "Serum",
	})

	// Inside the 4h window.
	if f.svc.IsBreached(smp) {
		t.Error("expected on_time inside TAT window")
	}

	f.svc.now = func() time.Time { return now.Add(5 * time.Hour) }
	if !f.svc.IsBreached(smp) {
		t.Error("expected breached past deadline")
	}

	// Approved samples never count as breached.
	_, _ = f.svc.Transition(context.Background(), smp.ID, StatusApproved)
	approved, _ := f.svc.Get(context.Background(), smp.ID)
	if f.svc.IsBreached(approved) {
		t.Error("approved sample must not be breached")
	}
}
