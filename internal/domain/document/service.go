package document

import (
	"context"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/pkg/errs"
)

type Service struct {
	repo     Repository
	recorder audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// Register files a new controlled document. Every document enters the
// registry as a draft regardless of what the caller sends.
func (s *Service) Register(ctx context.Context, d *Document) error {
	if !ValidType(d.DocumentType) {
		return errs.Validation("document", "document_type", "must be one of SOP, NCR, CAPA, Training, Audit")
	}
	if d.DocumentID == "" {
		return errs.Validation("document", "document_id", "is required")
	}
	if d.Title == "" {
		return errs.Validation("document", "title", "is required")
	}
	if d.Version == "" {
		return errs.Validation("document", "version", "is required")
	}

	d.Status = StatusDraft
	d.ApprovedBy = nil
	if d.UploadedBy == "" {
		d.UploadedBy = audit.ActorFromContext(ctx).ID
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return err
	}
	return s.recorder.Record(ctx, &audit.Event{
		Action:   audit.ActionCreate,
		Module:   "nabl_documents",
		RecordID: d.ID.String(),
		Details:  map[string]interface{}{"document_id": d.DocumentID, "type": d.DocumentType},
	})
}

// SetStatus moves a document between draft, approved and archived. Archived
// documents are immutable; approval stamps the acting user.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Document, error) {
	if !ValidStatus(status) {
		return nil, errs.Validation("document", "status", "must be one of draft, approved, archived")
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusArchived {
		return nil, errs.InvalidState("document", id.String(), d.Status, "change status")
	}
	if d.Status == status {
		return d, nil
	}

	var approvedBy *string
	if status == StatusApproved {
		actor := audit.ActorFromContext(ctx).ID
		approvedBy = &actor
	}

	if err := s.repo.UpdateStatus(ctx, id, status, approvedBy); err != nil {
		return nil, err
	}
	if err := s.recorder.Record(ctx, &audit.Event{
		Action:   audit.ActionUpdateStatus,
		Module:   "nabl_documents",
		RecordID: id.String(),
		Details:  map[string]interface{}{"from": d.Status, "to": status},
	}); err != nil {
		return nil, err
	}

	d.Status = status
	if approvedBy != nil {
		d.ApprovedBy = approvedBy
	}
	return d, nil
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListDocuments(ctx context.Context, params map[string]string, limit, offset int) ([]*Document, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}
