// Package emr is the integration surface for external EMR/HIS systems:
// patient registration, lab ordering by test code, and read-only status
// lookups keyed by the identifiers those systems hold (UHID, accession
// number) rather than internal UUIDs.
package emr

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/internal/domain/patient"
	"github.com/lims/lims/internal/domain/result"
	"github.com/lims/lims/internal/domain/sample"
	"github.com/lims/lims/pkg/errs"
)

// PatientDirectory is the slice of the patient service the integration needs.
type PatientDirectory interface {
	Register(ctx context.Context, p *patient.Patient) error
	GetPatientByUHID(ctx context.Context, uhid string) (*patient.Patient, error)
	GetPatientByPhone(ctx context.Context, phone string) (*patient.Patient, error)
}

// CatalogLookup resolves ordered tests by the codes EMR systems send.
type CatalogLookup interface {
	GetTestByCode(ctx context.Context, code string) (*catalog.TestDefinition, error)
}

// SampleIntake accepts the collection request built from a lab order.
type SampleIntake interface {
	Create(ctx context.Context, in sample.CreateInput) (*sample.Sample, error)
	GetBySampleID(ctx context.Context, sampleID string) (*sample.Sample, error)
	IsBreached(smp *sample.Sample) bool
}

// ResultLookup serves the per-patient result feed.
type ResultLookup interface {
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*result.Result, int, error)
}

// RegisterInput is a patient registration pushed from an EMR. The EMR keeps
// its own patient identifier; we echo it back so the caller can store the
// UHID mapping on its side.
type RegisterInput struct {
	EMRPatientID string  `json:"emr_patient_id"`
	Name         string  `json:"name"`
	Age          int     `json:"age"`
	Gender       string  `json:"gender"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email,omitempty"`
	Address      *string `json:"address,omitempty"`
	PatientType  string  `json:"patient_type"`
}

// Registration statuses returned to the EMR.
const (
	RegistrationCreated = "created"
	RegistrationExists  = "exists"
)

type Registration struct {
	Status       string    `json:"status"`
	UHID         string    `json:"uhid"`
	PatientID    uuid.UUID `json:"patient_id"`
	EMRPatientID string    `json:"emr_patient_id"`
}

// OrderInput is a lab order from a doctor's prescription. The patient is
// identified by UHID when already registered, otherwise PatientDetails
// carries enough to register them inline.
type OrderInput struct {
	EMROrderID     string         `json:"emr_order_id"`
	UHID           string         `json:"uhid,omitempty"`
	PatientDetails *RegisterInput `json:"patient_details,omitempty"`
	SampleType     string         `json:"sample_type"`
	TestCodes      []string       `json:"test_codes"`
	OrderedBy      string         `json:"ordered_by"`
}

type OrderedTest struct {
	TestName string `json:"test_name"`
	TATHours int    `json:"tat_hours"`
}

type Order struct {
	EMROrderID  string        `json:"emr_order_id"`
	OrderedBy   string        `json:"ordered_by"`
	UHID        string        `json:"uhid"`
	PatientID   uuid.UUID     `json:"patient_id"`
	PatientName string        `json:"patient_name"`
	SampleID    string        `json:"sample_id"`
	Barcode     string        `json:"barcode"`
	Tests       []OrderedTest `json:"tests"`
	TATDeadline time.Time     `json:"tat_deadline"`
}

// SampleStatus is the order-tracking view an EMR polls.
type SampleStatus struct {
	SampleID    string    `json:"sample_id"`
	Status      string    `json:"status"`
	TATStatus   string    `json:"tat_status"`
	TATDeadline time.Time `json:"tat_deadline"`
	IsRejected  bool      `json:"is_rejected"`
	Reason      *string   `json:"rejection_reason,omitempty"`
}

type Service struct {
	patients PatientDirectory
	tests    CatalogLookup
	samples  SampleIntake
	results  ResultLookup
}

func NewService(patients PatientDirectory, tests CatalogLookup, samples SampleIntake, results ResultLookup) *Service {
	return &Service{patients: patients, tests: tests, samples: samples, results: results}
}

// RegisterPatient registers a patient pushed from an EMR, deduplicating on
// phone number so repeated pushes return the existing UHID instead of
// minting a second registration.
func (s *Service) RegisterPatient(ctx context.Context, in RegisterInput) (*Registration, error) {
	if in.Phone == "" {
		return nil, errs.Validation("patient", "phone", "is required")
	}
	if existing, err := s.patients.GetPatientByPhone(ctx, in.Phone); err == nil {
		return &Registration{
			Status:       RegistrationExists,
			UHID:         existing.UHID,
			PatientID:    existing.ID,
			EMRPatientID: in.EMRPatientID,
		}, nil
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	p := in.toPatient()
	if err := s.patients.Register(ctx, p); err != nil {
		return nil, err
	}
	return &Registration{
		Status:       RegistrationCreated,
		UHID:         p.UHID,
		PatientID:    p.ID,
		EMRPatientID: in.EMRPatientID,
	}, nil
}

// CreateOrder turns a prescription into a collected sample: resolves or
// registers the patient, maps test codes to catalog entries (unknown codes
// are skipped, an order with no known code is rejected), and hands the
// collection request to the sample service, which issues the accession
// number and TAT deadline.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	p, err := s.resolvePatient(ctx, in)
	if err != nil {
		return nil, err
	}

	var testIDs []uuid.UUID
	var ordered []OrderedTest
	for _, code := range in.TestCodes {
		td, err := s.tests.GetTestByCode(ctx, code)
		if errs.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		testIDs = append(testIDs, td.ID)
		ordered = append(ordered, OrderedTest{TestName: td.TestName, TATHours: td.TATHours})
	}
	if len(testIDs) == 0 {
		return nil, errs.Validation("order", "test_codes", "no known test codes in order")
	}

	smp, err := s.samples.Create(ctx, sample.CreateInput{
		PatientID:  p.ID,
		TestIDs:    testIDs,
		SampleType: in.SampleType,
	})
	if err != nil {
		return nil, err
	}

	return &Order{
		EMROrderID:  in.EMROrderID,
		OrderedBy:   in.OrderedBy,
		UHID:        p.UHID,
		PatientID:   p.ID,
		PatientName: p.Name,
		SampleID:    smp.SampleID,
		Barcode:     smp.Barcode,
		Tests:       ordered,
		TATDeadline: smp.TATDeadline,
	}, nil
}

func (s *Service) resolvePatient(ctx context.Context, in OrderInput) (*patient.Patient, error) {
	if in.UHID != "" {
		return s.patients.GetPatientByUHID(ctx, in.UHID)
	}
	if in.PatientDetails == nil {
		return nil, errs.Validation("order", "uhid", "uhid or patient_details is required")
	}
	if in.PatientDetails.Phone != "" {
		if existing, err := s.patients.GetPatientByPhone(ctx, in.PatientDetails.Phone); err == nil {
			return existing, nil
		} else if !errs.IsNotFound(err) {
			return nil, err
		}
	}
	p := in.PatientDetails.toPatient()
	if err := s.patients.Register(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) PatientByUHID(ctx context.Context, uhid string) (*patient.Patient, error) {
	return s.patients.GetPatientByUHID(ctx, uhid)
}

func (s *Service) PatientResults(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*result.Result, int, error) {
	return s.results.List(ctx, map[string]string{"patient": patientID.String()}, limit, offset)
}

// SampleStatus reports lifecycle and TAT standing for one accession number.
func (s *Service) SampleStatus(ctx context.Context, sampleID string) (*SampleStatus, error) {
	smp, err := s.samples.GetBySampleID(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	status := sample.TATOnTime
	if s.samples.IsBreached(smp) {
		status = sample.TATBreached
	}
	return &SampleStatus{
		SampleID:    smp.SampleID,
		Status:      smp.Status,
		TATStatus:   status,
		TATDeadline: smp.TATDeadline,
		IsRejected:  smp.IsRejected,
		Reason:      smp.RejectionReason,
	}, nil
}

func (in RegisterInput) toPatient() *patient.Patient {
	pt := in.PatientType
	if pt == "" {
		pt = "OPD"
	}
	return &patient.Patient{
		Name:        in.Name,
		Age:         in.Age,
		Gender:      in.Gender,
		Phone:       in.Phone,
		Email:       in.Email,
		Address:     in.Address,
		PatientType: pt,
	}
}
