package labtest

import (
	"strings"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// ValidateTransition checks that the requested stage move is a declared
// graph edge and that the evidence bag carries every field the target
// stage requires. Evidence values that are empty or whitespace-only count
// as absent.
func ValidateTransition(current, target types.Stage, evidence map[string]string) error {
	if !CanTransition(current, target) {
		return types.NewIllegalTransitionError(current, target)
	}

	step, ok := StepOf(target)
	if !ok {
		return types.NewIllegalTransitionError(current, target)
	}

	for _, field := range step.RequiredEvidence {
		if strings.TrimSpace(evidence[field]) == "" {
			return types.NewMissingEvidenceError(field, target)
		}
	}

	return nil
}
