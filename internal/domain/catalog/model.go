package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Parameter is a single measurable analyte within a test panel. Reference
// ranges are free-text ("10-50") and resolved per patient sex at evaluation
// time; critical thresholds are numeric and optional.
type Parameter struct {
	Name           string   `db:"name" json:"parameter_name"`
	Unit           string   `db:"unit" json:"unit"`
	RefRangeMale   string   `db:"ref_range_male" json:"ref_range_male"`
	RefRangeFemale string   `db:"ref_range_female" json:"ref_range_female"`
	RefRangeChild  *string  `db:"ref_range_child" json:"ref_range_child,omitempty"`
	CriticalLow    *float64 `db:"critical_low" json:"critical_low,omitempty"`
	CriticalHigh   *float64 `db:"critical_high" json:"critical_high,omitempty"`
}

// TestDefinition maps to the test_definition table. Definitions are
// append-mostly: samples snapshot {test_id, test_name, price, tat_hours} at
// collection time, so later edits never rewrite history.
type TestDefinition struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	TestCode   string      `db:"test_code" json:"test_code"`
	TestName   string      `db:"test_name" json:"test_name"`
	Category   string      `db:"category" json:"category"`
	Price      float64     `db:"price" json:"price"`
	TATHours   int         `db:"tat_hours" json:"tat_hours"`
	SampleType string      `db:"sample_type" json:"sample_type"`
	Parameters []Parameter `db:"parameters" json:"parameters"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
