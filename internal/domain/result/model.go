package result

import (
	"time"

	"github.com/google/uuid"
)

// Result workflow statuses, forward-only. Finalized results reject all
// further mutation.
const (
	StatusDraft       = "draft"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusFinalized   = "finalized"
)

// Per-parameter classification statuses.
const (
	ParamNormal   = "normal"
	ParamLow      = "low"
	ParamHigh     = "high"
	ParamCritical = "critical"
)

// ResultParameter is one classified analyte value within a result.
type ResultParameter struct {
	Name     string `db:"name" json:"parameter_name"`
	Value    string `db:"value" json:"value"`
	Unit     string `db:"unit" json:"unit"`
	RefRange string `db:"ref_range" json:"ref_range"`
	Status   string `db:"status" json:"status"`
}

// Result maps to the test_result table. One result per sample per test;
// has_critical_values is true iff at least one parameter is critical.
type Result struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	SampleID          uuid.UUID         `db:"sample_id" json:"sample_id"`
	PatientID         uuid.UUID         `db:"patient_id" json:"patient_id"`
	TestID            uuid.UUID         `db:"test_id" json:"test_id"`
	TestName          string            `db:"test_name" json:"test_name"`
	Parameters        []ResultParameter `db:"parameters" json:"parameters"`
	Status            string            `db:"status" json:"status"`
	EnteredBy         string            `db:"entered_by" json:"entered_by"`
	ReviewedBy        *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ApprovedBy        *string           `db:"approved_by" json:"approved_by,omitempty"`
	HasCriticalValues bool              `db:"has_critical_values" json:"has_critical_values"`
	Interpretation    *string           `db:"interpretation" json:"interpretation,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}
