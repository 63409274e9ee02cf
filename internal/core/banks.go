package core

import (
	"context"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

func init() {
	register(schema.ImportBanks, transformBanks)
}

// transformBanks builds one ContentBank per row, parsing boolean and
// pipe-delimited list columns. Status defaults to empty. Each written bank
// also upserts its assessment-bank link so the activation gate can see the
// association.
func transformBanks(ctx context.Context, s *Service, job *importJob) {
	recs := make([]batchRecord[entity.ContentBank], 0, len(job.rows))
	for _, row := range job.rows {
		adaptive, _ := parseBoolish(job.cell(row, "adaptive"))
		cb := entity.ContentBank{
			ID:           job.cell(row, "bank_id"),
			AssessmentID: job.cell(row, "assessment_id"),
			TargetSize:   intAt(row.cells, job.idx, "target_size"),
			Status:       entity.BankStatus(strings.ToLower(job.cell(row, "status"))),
			Domains:      SplitPipe(job.cell(row, "domains")),
			Adaptive:     adaptive,
		}
		if cb.Status == "" {
			cb.Status = entity.BankEmpty
		}
		recs = append(recs, batchRecord[entity.ContentBank]{key: cb.ID, rec: cb, rows: 1})
	}

	banks := s.store.ContentBanks()
	failedBefore := job.result.RowsFailed
	writeBatches(ctx, s, job, "writing banks", recs, banks.ExistingIDs, banks.UpsertBatch)

	// Link written banks to their assessments. Links for failed batches are
	// skipped wholesale only when every bank failed; a partially failed
	// import may still link banks that committed, which is harmless since
	// the join upsert is DO NOTHING on conflict.
	if job.result.RowsFailed-failedBefore >= len(recs) {
		return
	}
	var links []entity.AssessmentBank
	seen := make(map[string]bool)
	for _, r := range recs {
		key := r.rec.AssessmentID + "|" + r.rec.ID
		if r.rec.AssessmentID == "" || seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, entity.AssessmentBank{
			AssessmentID: r.rec.AssessmentID,
			BankID:       r.rec.ID,
		})
	}
	if len(links) == 0 {
		return
	}
	if err := s.store.AssessmentBanks().UpsertBatch(ctx, links); err != nil {
		job.result.Errors = append(job.result.Errors, ImportError{
			Message: "link banks to assessments: " + err.Error(),
		})
	}
}
