package result

import (
	"testing"

	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/pkg/errs"
)

func ptr(v float64) *float64 { return &v }

func glucoseParam() catalog.Parameter {
	return catalog.Parameter{
		Name:           "Glucose",
		Unit:           "mg/dL",
		RefRangeMale:   "10-50",
		RefRangeFemale: "10-50",
		CriticalLow:    ptr(5),
		CriticalHigh:   ptr(100),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"normal", "30", ParamNormal},
		{"high above range", "60", ParamHigh},
		{"low below range", "8", ParamLow},
		{"critical above critical_high", "120", ParamCritical},
		{"critical below critical_low", "3", ParamCritical},
		{"at critical_high boundary", "100", ParamHigh},
		{"at range boundary", "50", ParamNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp, err := Classify(glucoseParam(), tt.value, DemographicMale)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rp.Status != tt.want {
				t.Errorf("value %s: expected %s, got %s", tt.value, tt.want, rp.Status)
			}
		})
	}
}

// Critical always wins: a value below critical_low is also below the normal
// range, but must be reported critical, never low.
func TestClassify_CriticalWinsOverRange(t *testing.T) {
	rp, err := Classify(glucoseParam(), "3", DemographicMale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Status != ParamCritical {
		t.Errorf("expected critical, got %s", rp.Status)
	}

	rp, err = Classify(glucoseParam(), "120", DemographicMale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Status != ParamCritical {
		t.Errorf("expected critical, got %s", rp.Status)
	}
}

func TestClassify_NoCriticalThresholds(t *testing.T) {
	p := glucoseParam()
	p.CriticalLow = nil
	p.CriticalHigh = nil

	rp, err := Classify(p, "60", DemographicMale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Status != ParamHigh {
		t.Errorf("expected high, got %s", rp.Status)
	}
}

func TestClassify_UnparseableValue(t *testing.T) {
	_, err := Classify(glucoseParam(), "abc", DemographicMale)
	if !errs.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestClassify_DemographicRanges(t *testing.T) {
	child := "20-40"
	p := catalog.Parameter{
		Name:           "Hemoglobin",
		Unit:           "g/dL",
		RefRangeMale:   "13-17",
		RefRangeFemale: "12-15",
		RefRangeChild:  &child,
	}

	rp, _ := Classify(p, "16", DemographicFemale)
	if rp.Status != ParamHigh {
		t.Errorf("female range: expected high, got %s", rp.Status)
	}
	if rp.RefRange != "12-15" {
		t.Errorf("expected female range text, got %q", rp.RefRange)
	}

	rp, _ = Classify(p, "16", DemographicMale)
	if rp.Status != ParamNormal {
		t.Errorf("male range: expected normal, got %s", rp.Status)
	}

	rp, _ = Classify(p, "16", DemographicChild)
	if rp.Status != ParamLow {
		t.Errorf("child range: expected low, got %s", rp.Status)
	}
}

func TestClassify_NonNumericRangeText(t *testing.T) {
	p := catalog.Parameter{
		Name:         "HBsAg",
		Unit:         "",
		RefRangeMale: "negative",
	}
	rp, err := Classify(p, "0.4", DemographicMale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Status != ParamNormal {
		t.Errorf("unparseable range must not grade high/low, got %s", rp.Status)
	}
}

func TestEvaluate(t *testing.T) {
	entries := []EvalEntry{
		{Definition: glucoseParam(), RawValue: "30"},
		{Definition: glucoseParam(), RawValue: "120"},
	}
	params, hasCritical, err := Evaluate(entries, DemographicMale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasCritical {
		t.Error("expected hasCritical true")
	}
	if len(params) != 2 || params[0].Status != ParamNormal || params[1].Status != ParamCritical {
		t.Errorf("unexpected classification: %+v", params)
	}
}

func TestEvaluate_EmptyIsNotCritical(t *testing.T) {
	params, hasCritical, err := Evaluate(nil, DemographicMale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasCritical {
		t.Error("empty submission must not be critical")
	}
	if len(params) != 0 {
		t.Errorf("expected no parameters, got %d", len(params))
	}
}

func TestEvaluate_Atomic(t *testing.T) {
	entries := []EvalEntry{
		{Definition: glucoseParam(), RawValue: "30"},
		{Definition: glucoseParam(), RawValue: "not-a-number"},
	}
	params, _, err := Evaluate(entries, DemographicMale)
	if !errs.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if params != nil {
		t.Error("failed batch must not return partial results")
	}
}
