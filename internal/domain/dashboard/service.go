package dashboard

import (
	"context"
	"time"

	"github.com/lims/lims/internal/domain/result"
)

// Stats is the aggregate snapshot the dashboard polls.
type Stats struct {
	TotalPatients     int            `json:"total_patients"`
	TotalSamplesToday int            `json:"total_samples_today"`
	PendingResults    int            `json:"pending_results"`
	CriticalResults   int            `json:"critical_results"`
	SamplesByStatus   map[string]int `json:"samples_by_status"`
	TATBreaches       int            `json:"tat_breaches"`
}

type PatientCounter interface {
	Count(ctx context.Context) (int, error)
}

type SampleCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountBreached(ctx context.Context, now time.Time) (int, error)
}

type ResultCounter interface {
	CountByStatus(ctx context.Context, status string) (int, error)
	CountCriticalPending(ctx context.Context) (int, error)
}

type Service struct {
	patients PatientCounter
	samples  SampleCounter
	results  ResultCounter
	now      func() time.Time
}

func NewService(patients PatientCounter, samples SampleCounter, results ResultCounter) *Service {
	return &Service{patients: patients, samples: samples, results: results, now: time.Now}
}

// Stats aggregates counts across the registry. Counts are read one after
// another without a snapshot transaction; the dashboard tolerates a sample
// registered mid-aggregation.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := &Stats{}

	var err error
	if stats.TotalPatients, err = s.patients.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalSamplesToday, err = s.samples.CountCreatedSince(ctx, midnight); err != nil {
		return nil, err
	}
	if stats.PendingResults, err = s.results.CountByStatus(ctx, result.StatusDraft); err != nil {
		return nil, err
	}
	if stats.CriticalResults, err = s.results.CountCriticalPending(ctx); err != nil {
		return nil, err
	}
	if stats.SamplesByStatus, err = s.samples.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if stats.TATBreaches, err = s.samples.CountBreached(ctx, now); err != nil {
		return nil, err
	}
	return stats, nil
}
