package qc

import (
	"time"

	"github.com/google/uuid"
)

// QC entry statuses and types.
const (
	StatusPass = "pass"
	StatusFail = "fail"

	TypeInternal = "internal"
	TypeExternal = "external"
)

// MaxDeviationPercent is the acceptance band for control runs: a measured
// value within ±10% of target passes.
const MaxDeviationPercent = 10.0

// Entry maps to the qc_entry table, one row per control run.
type Entry struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Date             time.Time `db:"date" json:"date"`
	TestName         string    `db:"test_name" json:"test_name"`
	QCType           string    `db:"qc_type" json:"qc_type"`
	Level            string    `db:"level" json:"level"` // Level 1, Level 2, Level 3
	LotNumber        string    `db:"lot_number" json:"lot_number"`
	Parameter        string    `db:"parameter" json:"parameter"`
	TargetValue      float64   `db:"target_value" json:"target_value"`
	MeasuredValue    float64   `db:"measured_value" json:"measured_value"`
	Deviation        float64   `db:"deviation" json:"deviation"`
	DeviationPercent float64   `db:"deviation_percent" json:"deviation_percent"`
	Status           string    `db:"status" json:"status"`
	EnteredBy        string    `db:"entered_by" json:"entered_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
