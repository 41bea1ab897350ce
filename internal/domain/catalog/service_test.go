package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/pkg/errs"
)

type mockRepo struct {
	defs map[uuid.UUID]*TestDefinition
}

func newMockRepo() *mockRepo {
	return &mockRepo{defs: make(map[uuid.UUID]*TestDefinition)}
}

func (m *mockRepo) Create(_ context.Context, td *TestDefinition) error {
	if td.ID == uuid.Nil {
		td.ID = uuid.New()
	}
	td.CreatedAt = time.Now()
	m.defs[td.ID] = td
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*TestDefinition, error) {
	td, ok := m.defs[id]
	if !ok {
		return nil, errs.NotFound("test definition", id.String())
	}
	return td, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*TestDefinition, error) {
	for _, td := range m.defs {
		if td.TestCode == code {
			return td, nil
		}
	}
	return nil, errs.NotFound("test definition", code)
}

func (m *mockRepo) List(_ context.Context, category string, limit, offset int) ([]*TestDefinition, int, error) {
	var result []*TestDefinition
	for _, td := range m.defs {
		if category == "" || td.Category == category {
			result = append(result, td)
		}
	}
	return result, len(result), nil
}

type mockRecorder struct {
	events []*audit.Event
}

func (m *mockRecorder) Record(_ context.Context, e *audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

func validDefinition() *TestDefinition {
	low, high := 70.0, 400.0
	return &TestDefinition{
		TestCode:   "GLU",
		TestName:   "Glucose Fasting",
		Category:   "Biochemistry",
		Price:      150,
		TATHours:   4,
		SampleType: "Serum",
		Parameters: []Parameter{{
			Name:           "Glucose",
			Unit:           "mg/dL",
			RefRangeMale:   "70-110",
			RefRangeFemale: "70-110",
			CriticalLow:    &low,
			CriticalHigh:   &high,
		}},
	}
}

func TestCreateTest(t *testing.T) {
	repo := newMockRepo()
	rec := &mockRecorder{}
	svc := NewService(repo, rec)

	td := validDefinition()
	if err := svc.CreateTest(context.Background(), td); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if td.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if len(rec.events) != 1 || rec.events[0].Action != audit.ActionCreate {
		t.Errorf("expected one CREATE audit event, got %+v", rec.events)
	}
}

func TestCreateTest_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TestDefinition)
	}{
		{"missing code", func(td *TestDefinition) { td.TestCode = "" }},
		{"missing name", func(td *TestDefinition) { td.TestName = "" }},
		{"zero tat", func(td *TestDefinition) { td.TATHours = 0 }},
		{"negative price", func(td *TestDefinition) { td.Price = -1 }},
		{"no parameters", func(td *TestDefinition) { td.Parameters = nil }},
		{"unnamed parameter", func(td *TestDefinition) { td.Parameters[0].Name = "" }},
		{"inverted critical band", func(td *TestDefinition) {
			lo, hi := 400.0, 70.0
			td.Parameters[0].CriticalLow = &lo
			td.Parameters[0].CriticalHigh = &hi
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMockRepo(), &mockRecorder{})
			td := validDefinition()
			tt.mutate(td)
			err := svc.CreateTest(context.Background(), td)
			if !errs.IsValidation(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateTest_DuplicateCode(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockRecorder{})

	if err := svc.CreateTest(context.Background(), validDefinition()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.CreateTest(context.Background(), validDefinition())
	if !errs.IsValidation(err) {
		t.Errorf("expected ValidationError for duplicate code, got %v", err)
	}
}

func TestListTests_FiltersByCategory(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockRecorder{})

	td1 := validDefinition()
	td2 := validDefinition()
	td2.TestCode = "CBC"
	td2.TestName = "Complete Blood Count"
	td2.Category = "Hematology"
	_ = svc.CreateTest(context.Background(), td1)
	_ = svc.CreateTest(context.Background(), td2)

	items, total, err := svc.ListTests(context.Background(), "Hematology", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].TestCode != "CBC" {
		t.Errorf("expected only the hematology panel, got %d items", total)
	}
}
