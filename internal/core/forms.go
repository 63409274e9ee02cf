package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

func init() {
	register(schema.ImportForms, transformForms)
}

// transformForms builds one Form per row. Status defaults to draft when
// omitted. The form id must encode its lineage (assessment, grade, number);
// a mismatched id is a row failure, not a silent rewrite.
func transformForms(ctx context.Context, s *Service, job *importJob) {
	recs := make([]batchRecord[entity.Form], 0, len(job.rows))
	for _, row := range job.rows {
		f := entity.Form{
			ID:               job.cell(row, "form_id"),
			AssessmentID:     job.cell(row, "assessment_id"),
			ContentBankID:    job.cell(row, "content_bank_id"),
			GradeLevel:       job.cell(row, "grade_level"),
			FormNumber:       intAt(row.cells, job.idx, "form_number"),
			Status:           entity.FormStatus(strings.ToLower(job.cell(row, "status"))),
			EquivalenceSetID: job.cell(row, "equivalence_set_id"),
		}
		if f.Status == "" {
			f.Status = entity.FormDraft
		}

		if want := entity.FormID(f.AssessmentID, f.GradeLevel, f.FormNumber); f.ID != want {
			job.result.RowsFailed++
			job.result.Errors = append(job.result.Errors, ImportError{
				Row: row.display, Field: "form_id",
				Message: fmt.Sprintf("id does not encode assessment/grade/number (expected %q)", want),
			})
			continue
		}

		recs = append(recs, batchRecord[entity.Form]{key: f.ID, rec: f, rows: 1})
	}

	forms := s.store.Forms()
	writeBatches(ctx, s, job, "writing forms", recs, forms.ExistingIDs, forms.UpsertBatch)
}
