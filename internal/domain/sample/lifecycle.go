package sample

import "github.com/lims/lims/pkg/errs"

// statusOrder positions each workflow status on the forward path. Rejected
// sits outside the path and is handled separately.
var statusOrder = map[string]int{
	StatusCollected:       0,
	StatusReceived:        1,
	StatusProcessing:      2,
	StatusOnMachine:       3,
	StatusUnderValidation: 4,
	StatusApproved:        5,
}

// IsTerminal reports whether no further transitions are allowed.
func IsTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// ValidStatus reports whether s is a known sample status.
func ValidStatus(s string) bool {
	if s == StatusRejected {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// ValidateTransition enforces the forward-only lifecycle: a sample may move
// to any later status on the path (skipping intermediate steps is allowed,
// moving backward is not), or to rejected from any non-terminal status.
func ValidateTransition(sampleID, from, to string) error {
	if !ValidStatus(to) {
		return errs.Validation("sample", "status", "unknown status: "+to)
	}
	if IsTerminal(from) {
		return errs.InvalidTransition("sample", sampleID, from, to)
	}
	if to == StatusRejected {
		return nil
	}
	if statusOrder[to] <= statusOrder[from] {
		return errs.InvalidTransition("sample", sampleID, from, to)
	}
	return nil
}
