package core

import (
	"context"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

func init() {
	register(schema.ImportItems, transformItems)
}

// transformItems builds one Item per row. The structured content payload is
// composed from flat columns: pipe-delimited choices become labeled options,
// the correct answer is resolved to an option label, and passages without
// an explicit word count get one computed by whitespace tokenization.
func transformItems(ctx context.Context, s *Service, job *importJob) {
	recs := make([]batchRecord[entity.Item], 0, len(job.rows))
	for _, row := range job.rows {
		formID := job.cell(row, "form_id")
		seq := intAt(row.cells, job.idx, "sequence")
		itemType := entity.ItemType(strings.ToLower(job.cell(row, "item_type")))

		it := entity.Item{
			ID:             entity.ItemID(formID, seq),
			FormID:         formID,
			Type:           itemType,
			SequenceNumber: seq,
			Content:        buildItemContent(job, row, itemType),
			ScoringTags:    SplitPipe(job.cell(row, "scoring_tags")),
		}
		recs = append(recs, batchRecord[entity.Item]{key: it.ID, rec: it, rows: 1})
	}

	items := s.store.Items()
	writeBatches(ctx, s, job, "writing items", recs, items.ExistingIDs, items.UpsertBatch)
}

func buildItemContent(job *importJob, row indexedRow, itemType entity.ItemType) entity.ItemContent {
	content := entity.ItemContent{
		Stimulus: job.cell(row, "stimulus"),
		Text:     job.cell(row, "text"),
	}

	for i, choice := range SplitPipe(job.cell(row, "choices")) {
		content.Options = append(content.Options, entity.ItemOption{
			ID:   optionLabel(i),
			Text: choice,
		})
	}

	if len(content.Options) > 0 {
		// Lenient policy: an answer that matches no option text falls back
		// to the first label rather than failing the row.
		content.CorrectOptionID = content.Options[0].ID
		answer := job.cell(row, "correct_answer")
		for _, opt := range content.Options {
			if strings.EqualFold(opt.Text, answer) {
				content.CorrectOptionID = opt.ID
				break
			}
		}
	}

	content.WordCount = intAt(row.cells, job.idx, "word_count")
	if content.WordCount == 0 && itemType == entity.ItemPassage && content.Text != "" {
		content.WordCount = countWords(content.Text)
	}

	return content
}
