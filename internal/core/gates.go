package core

// gates.go is the activation gate engine: pure predicates over
// already-fetched entity snapshots. No I/O happens here; correctness
// depends entirely on the freshness of the snapshots passed in, so the
// write path re-fetches immediately before evaluating.
//
// Clauses never short-circuit: every failing clause contributes one
// human-readable reason so a caller sees the complete list of blockers in
// one pass.

import (
	"fmt"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

// GateResult is the outcome of an activation gate check.
type GateResult struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons,omitempty"`
}

// CanActivateSpecVersion reports whether a spec version may carry the
// valid status: its validation status must be valid and its completeness
// must be 100 percent.
func CanActivateSpecVersion(sv entity.SpecVersion) GateResult {
	var reasons []string
	if sv.ValidationStatus != entity.SpecValid {
		reasons = append(reasons, fmt.Sprintf(
			"validation status is %q, must be %q", sv.ValidationStatus, entity.SpecValid))
	}
	if sv.CompletenessPercent != 100 {
		reasons = append(reasons, fmt.Sprintf(
			"completeness is %d%%, must be 100%%", sv.CompletenessPercent))
	}
	return GateResult{Allowed: len(reasons) == 0, Reasons: reasons}
}

// CanActivateAssessment reports whether an assessment may be marked active:
// it needs a resolvable, activatable current spec version, at least one
// linked content bank, and at least one scoring output. The spec-version
// clauses collapse into one combined reason when the id is missing or
// unresolved; otherwise the sub-gate's reasons nest into the message.
func CanActivateAssessment(a entity.Assessment, specVersions []entity.SpecVersion, links []entity.AssessmentBank, scoringOutputs []entity.ScoringOutput) GateResult {
	var reasons []string

	if a.CurrentSpecVersionID == "" {
		reasons = append(reasons, "no current specification version is set")
	} else {
		var current *entity.SpecVersion
		for i := range specVersions {
			if specVersions[i].ID == a.CurrentSpecVersionID {
				current = &specVersions[i]
				break
			}
		}
		if current == nil {
			reasons = append(reasons, fmt.Sprintf(
				"current specification version %q does not exist", a.CurrentSpecVersionID))
		} else if sub := CanActivateSpecVersion(*current); !sub.Allowed {
			reasons = append(reasons, fmt.Sprintf(
				"current specification version %q is not activatable: %s",
				current.ID, strings.Join(sub.Reasons, "; ")))
		}
	}

	hasLink := false
	for _, l := range links {
		if l.AssessmentID == a.ID {
			hasLink = true
			break
		}
	}
	if !hasLink {
		reasons = append(reasons, "no content bank is linked to this assessment")
	}

	hasScoring := false
	for _, so := range scoringOutputs {
		if so.AssessmentID == a.ID {
			hasScoring = true
			break
		}
	}
	if !hasScoring {
		reasons = append(reasons, "no scoring output is defined for this assessment")
	}

	return GateResult{Allowed: len(reasons) == 0, Reasons: reasons}
}
