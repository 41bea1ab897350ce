package document

import (
	"time"

	"github.com/google/uuid"
)

// Document types follow the NABL quality-system categories.
const (
	TypeSOP      = "SOP"
	TypeNCR      = "NCR"
	TypeCAPA     = "CAPA"
	TypeTraining = "Training"
	TypeAudit    = "Audit"
)

const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
	StatusArchived = "archived"
)

// Document is a controlled quality-system document. document_id is the
// lab-assigned reference (e.g. "SOP-BIO-012"); version is free text so labs
// can keep their existing numbering schemes.
type Document struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DocumentType string    `db:"document_type" json:"document_type"`
	DocumentID   string    `db:"document_id" json:"document_id"`
	Title        string    `db:"title" json:"title"`
	Version      string    `db:"version" json:"version"`
	Status       string    `db:"status" json:"status"`
	UploadedBy   string    `db:"uploaded_by" json:"uploaded_by"`
	ApprovedBy   *string   `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

var documentTypes = map[string]bool{
	TypeSOP:      true,
	TypeNCR:      true,
	TypeCAPA:     true,
	TypeTraining: true,
	TypeAudit:    true,
}

var documentStatuses = map[string]bool{
	StatusDraft:    true,
	StatusApproved: true,
	StatusArchived: true,
}

func ValidType(t string) bool   { return documentTypes[t] }
func ValidStatus(s string) bool { return documentStatuses[s] }
