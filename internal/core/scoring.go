package core

import (
	"context"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

func init() {
	register(schema.ImportScoring, transformScoring)
}

// transformScoring groups rows by scoring-model id and assembles one
// ScoringOutput per group: raw rows declare raw metrics, derived rows
// declare derived metrics, and derived rows carrying a formula additionally
// declare a formula whose output is that row's metric id. By construction
// every formula output names a declared metric.
func transformScoring(ctx context.Context, s *Service, job *importJob) {
	type group struct {
		out  entity.ScoringOutput
		rows int
	}
	var order []string
	byID := make(map[string]*group)

	for _, row := range job.rows {
		modelID := job.cell(row, "model_id")
		g, ok := byID[modelID]
		if !ok {
			g = &group{out: entity.ScoringOutput{
				ID:           modelID,
				AssessmentID: job.cell(row, "assessment_id"),
			}}
			byID[modelID] = g
			order = append(order, modelID)
		}
		g.rows++

		metricID := job.cell(row, "metric_id")
		metric := entity.MetricSpec{ID: metricID, Label: job.cell(row, "label")}

		switch strings.ToLower(job.cell(row, "metric_type")) {
		case "raw":
			g.out.RawMetrics = append(g.out.RawMetrics, metric)
		case "derived":
			g.out.DerivedMetrics = append(g.out.DerivedMetrics, metric)
			if formula := job.cell(row, "formula"); formula != "" {
				g.out.Formulas = append(g.out.Formulas, entity.Formula{
					OutputMetricID: metricID,
					Expression:     formula,
				})
			}
		}

		if flag := job.cell(row, "flag"); flag != "" {
			g.out.Flags = append(g.out.Flags, flag)
		}
		if job.cell(row, "threshold") != "" {
			g.out.Thresholds = append(g.out.Thresholds, entity.Threshold{
				MetricID: metricID,
				Value:    floatAt(row.cells, job.idx, "threshold"),
			})
		}
	}

	recs := make([]batchRecord[entity.ScoringOutput], 0, len(order))
	for _, id := range order {
		g := byID[id]
		recs = append(recs, batchRecord[entity.ScoringOutput]{key: id, rec: g.out, rows: g.rows})
	}

	scoring := s.store.ScoringOutputs()
	writeBatches(ctx, s, job, "writing scoring models", recs, scoring.ExistingIDs, scoring.UpsertBatch)
}
