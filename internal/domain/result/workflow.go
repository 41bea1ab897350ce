package result

import "github.com/lims/lims/pkg/errs"

var statusOrder = map[string]int{
	StatusDraft:       0,
	StatusUnderReview: 1,
	StatusApproved:    2,
	StatusFinalized:   3,
}

// ValidStatus reports whether s is a known workflow status.
func ValidStatus(s string) bool {
	_, ok := statusOrder[s]
	return ok
}

// ValidateTransition enforces the forward-only review chain
// draft -> under_review -> approved -> finalized. Forward skips are allowed;
// finalized is terminal.
func ValidateTransition(resultID, from, to string) error {
	if !ValidStatus(to) {
		return errs.Validation("result", "status", "unknown status: "+to)
	}
	if from == StatusFinalized {
		return errs.InvalidState("result", resultID, from, "change status")
	}
	if statusOrder[to] <= statusOrder[from] {
		return errs.InvalidTransition("result", resultID, from, to)
	}
	return nil
}
