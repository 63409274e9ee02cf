package core

// references.go checks that foreign-key-shaped columns name entities that
// exist (or are allowed to be forward-created), and classifies the batch's
// natural keys as creates vs updates for pre-commit review.
//
// Fatality policy: rows scoped to an assessment context (items into forms,
// vertical ASR rows into spec versions) require their target to pre-exist;
// forms, banks, and scoring tolerate forward creation of their referents
// and only warn. A context mismatch on assessment_id is always fatal, since
// it indicates a cross-context paste.

import (
	"context"
	"fmt"
	"sort"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

func (s *Service) validateReferences(ctx context.Context, ts schema.TypeSpec, idx HeaderIndex, rows []indexedRow, contextID string) (*ReferenceReport, error) {
	report := &ReferenceReport{}

	// Cross-context paste guard.
	if _, hasAssessment := idx["assessment_id"]; hasAssessment && contextID != "" {
		for _, row := range rows {
			got := cellAt(row.cells, idx, "assessment_id")
			if got != "" && got != contextID {
				report.Errors = append(report.Errors, RowError{
					Row: row.display, Field: "assessment_id", Value: got,
					Message: fmt.Sprintf("does not match the current assessment context %q", contextID),
				})
			}
		}
	}

	var err error
	switch ts.Type {
	case schema.ImportItems:
		err = s.checkItemReferences(ctx, idx, rows, report)
	case schema.ImportForms:
		err = s.checkFormReferences(ctx, idx, rows, report)
	case schema.ImportBanks:
		err = s.checkBankReferences(ctx, idx, rows, report)
	case schema.ImportSpecVersion:
		err = s.checkSpecVersionReferences(ctx, idx, rows, report)
	case schema.ImportScoring:
		err = s.checkScoringReferences(ctx, idx, rows, report)
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(report.Analysis.Creates)
	sort.Strings(report.Analysis.Updates)
	report.Warnings = append(report.Warnings, fmt.Sprintf(
		"%d new records will be created, %d existing records will be updated",
		len(report.Analysis.Creates), len(report.Analysis.Updates)))
	report.Valid = len(report.Errors) == 0
	return report, nil
}

// distinctValues collects the distinct non-empty values of one column, in
// first-appearance order.
func distinctValues(idx HeaderIndex, rows []indexedRow, col string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		v := cellAt(row.cells, idx, col)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// classify splits keys into creates and updates according to existence.
func classify(report *ReferenceReport, keys []string, existing map[string]bool) {
	for _, k := range keys {
		if existing[k] {
			report.Analysis.Updates = append(report.Analysis.Updates, k)
		} else {
			report.Analysis.Creates = append(report.Analysis.Creates, k)
		}
	}
}

func (s *Service) checkItemReferences(ctx context.Context, idx HeaderIndex, rows []indexedRow, report *ReferenceReport) error {
	formIDs := distinctValues(idx, rows, "form_id")
	existingForms, err := s.store.Forms().ExistingIDs(ctx, formIDs)
	if err != nil {
		return fmt.Errorf("check form ids: %w", err)
	}
	for _, row := range rows {
		if formID := cellAt(row.cells, idx, "form_id"); formID != "" && !existingForms[formID] {
			report.Errors = append(report.Errors, RowError{
				Row: row.display, Field: "form_id", Value: formID,
				Message: "form does not exist; items may only be imported into existing forms",
			})
		}
	}

	// Natural keys for create/update analysis are the composed item ids.
	seen := make(map[string]bool)
	var itemIDs []string
	for _, row := range rows {
		formID := cellAt(row.cells, idx, "form_id")
		seq := intAt(row.cells, idx, "sequence")
		if formID == "" || seq < 1 {
			continue
		}
		id := entity.ItemID(formID, seq)
		if !seen[id] {
			seen[id] = true
			itemIDs = append(itemIDs, id)
		}
	}
	existingItems, err := s.store.Items().ExistingIDs(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("check item ids: %w", err)
	}
	classify(report, itemIDs, existingItems)
	return nil
}

func (s *Service) checkFormReferences(ctx context.Context, idx HeaderIndex, rows []indexedRow, report *ReferenceReport) error {
	assessmentIDs := distinctValues(idx, rows, "assessment_id")
	existingAssessments, err := s.store.Assessments().ExistingIDs(ctx, assessmentIDs)
	if err != nil {
		return fmt.Errorf("check assessment ids: %w", err)
	}
	for _, id := range assessmentIDs {
		if !existingAssessments[id] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("assessment %q does not exist yet; forms will link once it is created", id))
		}
	}

	bankIDs := distinctValues(idx, rows, "content_bank_id")
	existingBanks, err := s.store.ContentBanks().ExistingIDs(ctx, bankIDs)
	if err != nil {
		return fmt.Errorf("check content bank ids: %w", err)
	}
	for _, id := range bankIDs {
		if !existingBanks[id] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("content bank %q does not exist yet; forms will link once it is created", id))
		}
	}

	formIDs := distinctValues(idx, rows, "form_id")
	existingForms, err := s.store.Forms().ExistingIDs(ctx, formIDs)
	if err != nil {
		return fmt.Errorf("check form ids: %w", err)
	}
	classify(report, formIDs, existingForms)
	return nil
}

func (s *Service) checkBankReferences(ctx context.Context, idx HeaderIndex, rows []indexedRow, report *ReferenceReport) error {
	assessmentIDs := distinctValues(idx, rows, "assessment_id")
	existingAssessments, err := s.store.Assessments().ExistingIDs(ctx, assessmentIDs)
	if err != nil {
		return fmt.Errorf("check assessment ids: %w", err)
	}
	for _, id := range assessmentIDs {
		if !existingAssessments[id] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("assessment %q does not exist yet; banks will link once it is created", id))
		}
	}

	bankIDs := distinctValues(idx, rows, "bank_id")
	existingBanks, err := s.store.ContentBanks().ExistingIDs(ctx, bankIDs)
	if err != nil {
		return fmt.Errorf("check bank ids: %w", err)
	}
	classify(report, bankIDs, existingBanks)
	return nil
}

func (s *Service) checkSpecVersionReferences(ctx context.Context, idx HeaderIndex, rows []indexedRow, report *ReferenceReport) error {
	versionIDs := distinctValues(idx, rows, "version_id")
	existing, err := s.store.SpecVersions().ExistingIDs(ctx, versionIDs)
	if err != nil {
		return fmt.Errorf("check spec version ids: %w", err)
	}
	for _, row := range rows {
		if id := cellAt(row.cells, idx, "version_id"); id != "" && !existing[id] {
			report.Errors = append(report.Errors, RowError{
				Row: row.display, Field: "version_id", Value: id,
				Message: "spec version does not exist; the vertical format merges into existing versions",
			})
		}
	}
	classify(report, versionIDs, existing)
	return nil
}

func (s *Service) checkScoringReferences(ctx context.Context, idx HeaderIndex, rows []indexedRow, report *ReferenceReport) error {
	assessmentIDs := distinctValues(idx, rows, "assessment_id")
	existingAssessments, err := s.store.Assessments().ExistingIDs(ctx, assessmentIDs)
	if err != nil {
		return fmt.Errorf("check assessment ids: %w", err)
	}
	for _, id := range assessmentIDs {
		if !existingAssessments[id] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("assessment %q does not exist yet; scoring models will link once it is created", id))
		}
	}

	modelIDs := distinctValues(idx, rows, "model_id")
	existingModels, err := s.store.ScoringOutputs().ExistingIDs(ctx, modelIDs)
	if err != nil {
		return fmt.Errorf("check scoring model ids: %w", err)
	}
	classify(report, modelIDs, existingModels)
	return nil
}
