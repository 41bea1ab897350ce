package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	events map[uuid.UUID]*Event
}

func newMockRepo() *mockRepo {
	return &mockRepo{events: make(map[uuid.UUID]*Event)}
}

func (m *mockRepo) Create(_ context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.events[e.ID] = e
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return e, nil
}

func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Event, int, error) {
	var result []*Event
	for _, e := range m.events {
		if mod, ok := params["module"]; ok && e.Module != mod {
			continue
		}
		result = append(result, e)
	}
	return result, len(result), nil
}

func TestRecord_StampsTimestampAndActor(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	e := &Event{Action: ActionCreate, Module: "samples", RecordID: "SMP00000001"}
	if err := svc.Record(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := svc.GetEvent(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Recorded.IsZero() {
		t.Error("expected recorded timestamp to be stamped")
	}
	if stored.ActorID != "system" {
		t.Errorf("expected system actor for unauthenticated context, got %q", stored.ActorID)
	}
}

func TestRecord_PreservesExplicitActor(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	e := &Event{
		ActorID:   "u-1",
		ActorName: "Dr. Rao",
		ActorRole: "pathologist",
		Action:    ActionUpdateStatus,
		Module:    "samples",
		RecordID:  "SMP00000002",
		Details:   map[string]interface{}{"from": "received", "to": "processing"},
	}
	if err := svc.Record(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.events[e.ID]
	if stored.ActorID != "u-1" || stored.ActorName != "Dr. Rao" {
		t.Errorf("explicit actor overwritten: %+v", stored)
	}
	if stored.Details["from"] != "received" {
		t.Errorf("details not preserved: %+v", stored.Details)
	}
}

func TestSearchEvents_FiltersByModule(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	_ = svc.Record(context.Background(), &Event{Action: ActionCreate, Module: "samples", RecordID: "a"})
	_ = svc.Record(context.Background(), &Event{Action: ActionCreate, Module: "patients", RecordID: "b"})

	items, total, err := svc.SearchEvents(context.Background(), map[string]string{"module": "samples"}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 samples event, got %d", total)
	}
	if items[0].Module != "samples" {
		t.Errorf("wrong module: %s", items[0].Module)
	}
}
