package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clebronrivera/reading-compass-sub001/internal/database"
	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

// seedReadyAssessment seeds a draft assessment with everything activation
// needs: a valid, complete current spec version, a bank link, and a
// scoring output.
func seedReadyAssessment(t *testing.T, mem *database.Memory) {
	t.Helper()
	ctx := context.Background()

	if err := mem.Assessments().UpsertBatch(ctx, []entity.Assessment{{
		ID: "READING", Status: entity.AssessmentDraft, CurrentSpecVersionID: "READING.ASR.v2",
	}}); err != nil {
		t.Fatal(err)
	}
	if err := mem.SpecVersions().UpsertBatch(ctx, []entity.SpecVersion{{
		ID: "READING.ASR.v2", AssessmentID: "READING",
		ValidationStatus: entity.SpecValid, CompletenessPercent: 100,
	}}); err != nil {
		t.Fatal(err)
	}
	if err := mem.AssessmentBanks().UpsertBatch(ctx, []entity.AssessmentBank{{
		AssessmentID: "READING", BankID: "READING.BANK.core",
	}}); err != nil {
		t.Fatal(err)
	}
	if err := mem.ScoringOutputs().UpsertBatch(ctx, []entity.ScoringOutput{{
		ID: "READING.SCORE.standard", AssessmentID: "READING",
	}}); err != nil {
		t.Fatal(err)
	}
}

func TestActivateAssessment(t *testing.T) {
	mem := database.NewMemory()
	seedReadyAssessment(t, mem)
	svc := newTestService(mem)

	if err := svc.ActivateAssessment(context.Background(), "READING", "admin"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	a, _ := mem.Assessments().FetchByID(context.Background(), "READING")
	if a.Status != entity.AssessmentActive {
		t.Errorf("status = %q, want active", a.Status)
	}
}

func TestActivateAssessmentGateBlocks(t *testing.T) {
	mem := database.NewMemory()
	seedReadyAssessment(t, mem)

	// Break one condition after seeding: the current spec goes stale.
	if err := mem.SpecVersions().Update(context.Background(), "READING.ASR.v2", map[string]any{
		"validation_status": string(entity.SpecIncomplete),
	}); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(mem)
	err := svc.ActivateAssessment(context.Background(), "READING", "admin")

	var gateErr *GateError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected GateError, got %v", err)
	}
	if len(gateErr.Reasons) != 1 || !strings.Contains(gateErr.Reasons[0], "is not activatable") {
		t.Errorf("reasons = %v", gateErr.Reasons)
	}

	a, _ := mem.Assessments().FetchByID(context.Background(), "READING")
	if a.Status != entity.AssessmentDraft {
		t.Errorf("blocked activation must not mutate status, got %q", a.Status)
	}
}

func TestActivateAssessmentNotFound(t *testing.T) {
	svc := newTestService(database.NewMemory())
	err := svc.ActivateAssessment(context.Background(), "MISSING", "admin")

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCheckAssessmentActivationReportsWithoutWriting(t *testing.T) {
	mem := database.NewMemory()
	seedReadyAssessment(t, mem)
	svc := newTestService(mem)

	res, err := svc.CheckAssessmentActivation(context.Background(), "READING")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed {
		t.Errorf("expected allowed, reasons: %v", res.Reasons)
	}

	a, _ := mem.Assessments().FetchByID(context.Background(), "READING")
	if a.Status != entity.AssessmentDraft {
		t.Errorf("check must not write, status = %q", a.Status)
	}
}

func TestMarkSpecVersionValid(t *testing.T) {
	mem := database.NewMemory()
	ctx := context.Background()
	if err := mem.SpecVersions().UpsertBatch(ctx, []entity.SpecVersion{{
		ID: "READING.ASR.v2", AssessmentID: "READING",
		ValidationStatus: entity.SpecIncomplete, CompletenessPercent: 100,
	}}); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(mem)

	if err := svc.MarkSpecVersionValid(ctx, "READING.ASR.v2", "reviewer"); err != nil {
		t.Fatalf("mark valid: %v", err)
	}

	sv, _ := mem.SpecVersions().FetchByID(ctx, "READING.ASR.v2")
	if sv.ValidationStatus != entity.SpecValid {
		t.Errorf("status = %q, want valid", sv.ValidationStatus)
	}
	if len(sv.ChangeLog) != 1 || sv.ChangeLog[0].Author != "reviewer" {
		t.Errorf("change log = %v", sv.ChangeLog)
	}
}

func TestMarkSpecVersionValidRequiresCompleteness(t *testing.T) {
	mem := database.NewMemory()
	ctx := context.Background()
	if err := mem.SpecVersions().UpsertBatch(ctx, []entity.SpecVersion{{
		ID: "READING.ASR.v2", AssessmentID: "READING",
		ValidationStatus: entity.SpecIncomplete, CompletenessPercent: 80,
	}}); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(mem)

	err := svc.MarkSpecVersionValid(ctx, "READING.ASR.v2", "reviewer")
	var gateErr *GateError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected GateError, got %v", err)
	}
	if !strings.Contains(gateErr.Reasons[0], "completeness is 80%") {
		t.Errorf("reasons = %v", gateErr.Reasons)
	}

	sv, _ := mem.SpecVersions().FetchByID(ctx, "READING.ASR.v2")
	if sv.ValidationStatus != entity.SpecIncomplete || len(sv.ChangeLog) != 0 {
		t.Errorf("blocked write must not mutate: %+v", sv)
	}
}

func TestMarkSpecVersionIncompleteIsUngated(t *testing.T) {
	mem := database.NewMemory()
	ctx := context.Background()
	if err := mem.SpecVersions().UpsertBatch(ctx, []entity.SpecVersion{{
		ID: "READING.ASR.v2", AssessmentID: "READING",
		ValidationStatus: entity.SpecValid, CompletenessPercent: 100,
	}}); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(mem)

	if err := svc.MarkSpecVersionIncomplete(ctx, "READING.ASR.v2", "reviewer"); err != nil {
		t.Fatalf("mark incomplete: %v", err)
	}

	sv, _ := mem.SpecVersions().FetchByID(ctx, "READING.ASR.v2")
	if sv.ValidationStatus != entity.SpecIncomplete {
		t.Errorf("status = %q, want incomplete", sv.ValidationStatus)
	}
	if len(sv.ChangeLog) != 1 {
		t.Errorf("change log = %v", sv.ChangeLog)
	}
}
