package result

import (
	"strconv"
	"strings"

	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/pkg/errs"
)

// Demographics select which reference range text applies. The child range is
// used only when the caller explicitly asks for it; age-based selection is an
// input, not something computed here.
const (
	DemographicMale   = "male"
	DemographicFemale = "female"
	DemographicChild  = "child"
)

// EvalEntry pairs a catalog parameter definition with the raw measured value.
type EvalEntry struct {
	Definition catalog.Parameter
	RawValue   string
}

// Classify parses the raw value and grades it against the parameter's
// thresholds. Critical thresholds always win over normal-range high/low: a
// value below critical_low is critical, never low.
func Classify(def catalog.Parameter, rawValue, demographic string) (ResultParameter, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if err != nil {
		return ResultParameter{}, errs.Validation("result", def.Name, "value is not numeric: "+rawValue)
	}

	refRange := resolveRange(def, demographic)
	rp := ResultParameter{
		Name:     def.Name,
		Value:    rawValue,
		Unit:     def.Unit,
		RefRange: refRange,
		Status:   ParamNormal,
	}

	if def.CriticalLow != nil && v < *def.CriticalLow {
		rp.Status = ParamCritical
		return rp, nil
	}
	if def.CriticalHigh != nil && v > *def.CriticalHigh {
		rp.Status = ParamCritical
		return rp, nil
	}

	if lo, hi, ok := parseRange(refRange); ok {
		switch {
		case v > hi:
			rp.Status = ParamHigh
		case v < lo:
			rp.Status = ParamLow
		}
	}
	return rp, nil
}

// Evaluate classifies a whole submission atomically: one unparseable value
// fails the batch with no partial result. hasCritical is the OR across all
// parameter statuses; an empty submission is never critical.
func Evaluate(entries []EvalEntry, demographic string) ([]ResultParameter, bool, error) {
	params := make([]ResultParameter, 0, len(entries))
	hasCritical := false
	for _, e := range entries {
		rp, err := Classify(e.Definition, e.RawValue, demographic)
		if err != nil {
			return nil, false, err
		}
		if rp.Status == ParamCritical {
			hasCritical = true
		}
		params = append(params, rp)
	}
	return params, hasCritical, nil
}

func resolveRange(def catalog.Parameter, demographic string) string {
	switch demographic {
	case DemographicChild:
		if def.RefRangeChild != nil && *def.RefRangeChild != "" {
			return *def.RefRangeChild
		}
		return def.RefRangeMale
	case DemographicFemale:
		return def.RefRangeFemale
	default:
		return def.RefRangeMale
	}
}

// parseRange understands "10-50" style reference text. Anything else (e.g.
// "<5", "negative") disables range grading; critical thresholds still apply.
func parseRange(text string) (lo, hi float64, ok bool) {
	parts := strings.SplitN(text, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}
