package sample

import (
	"time"

	"github.com/google/uuid"
)

// Sample statuses. A sample moves forward through the bench workflow and
// terminates at approved, or drops to rejected from any non-terminal state.
const (
	StatusCollected       = "collected"
	StatusReceived        = "received"
	StatusProcessing      = "processing"
	StatusOnMachine       = "on_machine"
	StatusUnderValidation = "under_validation"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// TestItem is the snapshot of a catalog test taken at collection time.
// Catalog edits after collection never change what was ordered.
type TestItem struct {
	TestID   string  `db:"test_id" json:"test_id"`
	TestName string  `db:"test_name" json:"test_name"`
	Price    float64 `db:"price" json:"price"`
	TATHours int     `db:"tat_hours" json:"tat_hours"`
}

// Sample maps to the sample table. SampleID is the human accession number
// (SMP%08d); Barcode is the 12-digit code printed on the tube label.
type Sample struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	SampleID        string     `db:"sample_id" json:"sample_id"`
	Barcode         string     `db:"barcode" json:"barcode"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName     string     `db:"patient_name" json:"patient_name"`
	UHID            string     `db:"uhid" json:"uhid"`
	Tests           []TestItem `db:"tests" json:"tests"`
	SampleType      string     `db:"sample_type" json:"sample_type"`
	CollectionDate  time.Time  `db:"collection_date" json:"collection_date"`
	Status          string     `db:"status" json:"status"`
	CollectedBy     string     `db:"collected_by" json:"collected_by"`
	TATDeadline     time.Time  `db:"tat_deadline" json:"tat_deadline"`
	IsRejected      bool       `db:"is_rejected" json:"is_rejected"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
