package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

func init() {
	register(schema.ImportSpecVersion, transformSpecVersion)
}

// transformSpecVersion handles the vertical ASR format: many rows each
// carry one (section, field, value) triple for a target spec version.
// Rows are grouped by version id; each group is a read-modify-write merge
// into the stored entity followed by exactly one change-log append. A
// group failure is recorded and does not abort the other groups.
func transformSpecVersion(ctx context.Context, s *Service, job *importJob) {
	type group struct {
		id   string
		rows []indexedRow
	}
	var (
		order  []string
		byID   = make(map[string]*group)
		groups []*group
	)
	for _, row := range job.rows {
		id := job.cell(row, "version_id")
		g, ok := byID[id]
		if !ok {
			g = &group{id: id}
			byID[id] = g
			order = append(order, id)
		}
		g.rows = append(g.rows, row)
	}
	for _, id := range order {
		groups = append(groups, byID[id])
	}

	specVersions := s.store.SpecVersions()
	for gi, g := range groups {
		err := func() error {
			sv, err := specVersions.FetchByID(ctx, g.id)
			if err != nil {
				return fmt.Errorf("fetch: %w", err)
			}
			if sv == nil {
				return fmt.Errorf("spec version does not exist")
			}

			updates := 0
			for _, row := range g.rows {
				section := strings.ToLower(job.cell(row, "section"))
				field := job.cell(row, "field")
				sv.Section(section)[field] = CoerceValue(job.cell(row, "value"))
				updates++
			}

			entry := NewChangeLogEntry(s.now(), job.req.Actor, mergeSummary(updates, job.req.Note))
			sv.ChangeLog = AppendChangeLog(sv.ChangeLog, entry)

			if err := specVersions.Update(ctx, g.id, map[string]any{
				"sections":   sv.Sections,
				"change_log": sv.ChangeLog,
			}); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			return nil
		}()

		if err != nil {
			job.result.RowsFailed += len(g.rows)
			job.result.Errors = append(job.result.Errors, ImportError{
				Group:   g.id,
				Message: err.Error(),
			})
		} else {
			job.result.RowsUpdated += len(g.rows)
		}
		job.progress(gi+1, len(groups), "merging spec versions")
	}
}
