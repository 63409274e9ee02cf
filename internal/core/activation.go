package core

// activation.go is the write path the gate engine guards. Every
// status-advancing mutation re-fetches the freshest snapshot, evaluates the
// relevant gate, and rejects the write without mutating store state when
// the gate fails. The check-then-act window against concurrent external
// updates is accepted for an administrative tool.

import (
	"context"
	"fmt"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

// GateError rejects a status write whose activation gate failed. Reasons
// carry the complete list of unmet conditions, not just the first.
type GateError struct {
	Entity  string
	Reasons []string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s cannot advance: %s", e.Entity, strings.Join(e.Reasons, "; "))
}

// NotFoundError reports a missing activation target.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// CheckAssessmentActivation fetches fresh state and evaluates the
// assessment gate without writing anything.
func (s *Service) CheckAssessmentActivation(ctx context.Context, id string) (GateResult, error) {
	a, specs, links, scoring, err := s.fetchAssessmentGraph(ctx, id)
	if err != nil {
		return GateResult{}, err
	}
	return CanActivateAssessment(*a, specs, links, scoring), nil
}

// ActivateAssessment flips an assessment to active, gated on a fresh
// snapshot of the assessment and its dependents. A failed gate rejects the
// write and surfaces every unmet condition.
func (s *Service) ActivateAssessment(ctx context.Context, id, actor string) error {
	a, specs, links, scoring, err := s.fetchAssessmentGraph(ctx, id)
	if err != nil {
		return err
	}

	if res := CanActivateAssessment(*a, specs, links, scoring); !res.Allowed {
		return &GateError{Entity: "assessment " + id, Reasons: res.Reasons}
	}

	if err := s.store.Assessments().Update(ctx, id, map[string]any{
		"status": string(entity.AssessmentActive),
	}); err != nil {
		return fmt.Errorf("activate assessment %s: %w", id, err)
	}
	s.log.Info("assessment activated", "assessment_id", id, "actor", actor)
	return nil
}

// MarkSpecVersionValid advances a spec version from incomplete to valid.
// The gate is evaluated against the prospective state (status already
// valid), so the effective condition is 100% completeness.
func (s *Service) MarkSpecVersionValid(ctx context.Context, id, actor string) error {
	sv, err := s.store.SpecVersions().FetchByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch spec version %s: %w", id, err)
	}
	if sv == nil {
		return &NotFoundError{Entity: "spec version", ID: id}
	}

	prospective := *sv
	prospective.ValidationStatus = entity.SpecValid
	if res := CanActivateSpecVersion(prospective); !res.Allowed {
		return &GateError{Entity: "spec version " + id, Reasons: res.Reasons}
	}

	if actor == "" {
		actor = DefaultActor
	}
	changeLog := AppendChangeLog(sv.ChangeLog,
		NewChangeLogEntry(s.now(), actor, "validation status set to valid"))

	if err := s.store.SpecVersions().Update(ctx, id, map[string]any{
		"validation_status": string(entity.SpecValid),
		"change_log":        changeLog,
	}); err != nil {
		return fmt.Errorf("mark spec version %s valid: %w", id, err)
	}
	s.log.Info("spec version marked valid", "spec_version_id", id, "actor", actor)
	return nil
}

// MarkSpecVersionIncomplete reverses a valid status. The incomplete
// direction is not gated.
func (s *Service) MarkSpecVersionIncomplete(ctx context.Context, id, actor string) error {
	sv, err := s.store.SpecVersions().FetchByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch spec version %s: %w", id, err)
	}
	if sv == nil {
		return &NotFoundError{Entity: "spec version", ID: id}
	}

	if actor == "" {
		actor = DefaultActor
	}
	changeLog := AppendChangeLog(sv.ChangeLog,
		NewChangeLogEntry(s.now(), actor, "validation status set to incomplete"))

	if err := s.store.SpecVersions().Update(ctx, id, map[string]any{
		"validation_status": string(entity.SpecIncomplete),
		"change_log":        changeLog,
	}); err != nil {
		return fmt.Errorf("mark spec version %s incomplete: %w", id, err)
	}
	s.log.Info("spec version marked incomplete", "spec_version_id", id, "actor", actor)
	return nil
}

func (s *Service) fetchAssessmentGraph(ctx context.Context, id string) (*entity.Assessment, []entity.SpecVersion, []entity.AssessmentBank, []entity.ScoringOutput, error) {
	a, err := s.store.Assessments().FetchByID(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("fetch assessment %s: %w", id, err)
	}
	if a == nil {
		return nil, nil, nil, nil, &NotFoundError{Entity: "assessment", ID: id}
	}
	specs, err := s.store.SpecVersions().ListByAssessment(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("list spec versions for %s: %w", id, err)
	}
	links, err := s.store.AssessmentBanks().ListByAssessment(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("list bank links for %s: %w", id, err)
	}
	scoring, err := s.store.ScoringOutputs().ListByAssessment(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("list scoring outputs for %s: %w", id, err)
	}
	return a, specs, links, scoring, nil
}
