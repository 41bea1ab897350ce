package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. UHID is the human-facing hospital
// identifier (UHID%06d), issued from a database sequence at registration.
type Patient struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UHID        string    `db:"uhid" json:"uhid"`
	Name        string    `db:"name" json:"name"`
	Age         int       `db:"age" json:"age"`
	Gender      string    `db:"gender" json:"gender"`
	Phone       string    `db:"phone" json:"phone"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	PatientType string    `db:"patient_type" json:"patient_type"` // OPD, IPD
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
