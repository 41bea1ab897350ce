package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/lims/lims/internal/domain/result"
	"github.com/lims/lims/internal/domain/sample"
)

type mockPatients struct {
	total int
}

func (m *mockPatients) Count(_ context.Context) (int, error) { return m.total, nil }

type mockSamples struct {
	byStatus map[string]int
	created  map[time.Time]int
	breached int

	sinceArg time.Time
	nowArg   time.Time
}

func (m *mockSamples) CountByStatus(_ context.Context) (map[string]int, error) {
	return m.byStatus, nil
}

func (m *mockSamples) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	m.sinceArg = since
	return m.created[since], nil
}

func (m *mockSamples) CountBreached(_ context.Context, now time.Time) (int, error) {
	m.nowArg = now
	return m.breached, nil
}

type mockResults struct {
	drafts   int
	critical int
}

func (m *mockResults) CountByStatus(_ context.Context, status string) (int, error) {
	if status == result.StatusDraft {
		return m.drafts, nil
	}
	return 0, nil
}

func (m *mockResults) CountCriticalPending(_ context.Context) (int, error) {
	return m.critical, nil
}

func TestStats(t *testing.T) {
	now := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	midnight := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	samples := &mockSamples{
		byStatus: map[string]int{
			sample.StatusCollected:  4,
			sample.StatusProcessing: 2,
			sample.StatusApproved:   9,
		},
		created:  map[time.Time]int{midnight: 6},
		breached: 3,
	}
	svc := NewService(&mockPatients{total: 120}, samples, &mockResults{drafts: 5, critical: 2})
	svc.now = func() time.Time { return now }

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalPatients != 120 {
		t.Errorf("total_patients: got %d", stats.TotalPatients)
	}
	if stats.TotalSamplesToday != 6 {
		t.Errorf("total_samples_today: got %d", stats.TotalSamplesToday)
	}
	if stats.PendingResults != 5 {
		t.Errorf("pending_results: got %d", stats.PendingResults)
	}
	if stats.CriticalResults != 2 {
		t.Errorf("critical_results: got %d", stats.CriticalResults)
	}
	if stats.TATBreaches != 3 {
		t.Errorf("tat_breaches: got %d", stats.TATBreaches)
	}
	if stats.SamplesByStatus[sample.StatusApproved] != 9 {
		t.Errorf("samples_by_status: got %v", stats.SamplesByStatus)
	}

	if !samples.sinceArg.Equal(midnight) {
		t.Errorf("today cutoff should be midnight UTC, got %v", samples.sinceArg)
	}
	if !samples.nowArg.Equal(now) {
		t.Errorf("breach check should use current time, got %v", samples.nowArg)
	}
}
