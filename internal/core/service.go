package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clebronrivera/reading-compass-sub001/internal/database"
	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

// DefaultBatchSize is the number of records written per upsert batch.
const DefaultBatchSize = 100

// DefaultActor attributes mutations when the caller supplies no identity.
const DefaultActor = "system"

// Service runs the import pipeline and the gate-checked status writes
// against a store. It is safe for concurrent use; each import submission
// is single-flight and batches within it run sequentially.
type Service struct {
	store     database.Store
	log       *slog.Logger
	validate  *validator.Validate
	batchSize int
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize overrides the upsert batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock injects the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over the given store.
func NewService(store database.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		log:       slog.Default(),
		validate:  validator.New(),
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// importJob is the per-submission working state shared with transforms.
type importJob struct {
	req    ImportRequest
	idx    HeaderIndex
	rows   []indexedRow
	result *ImportResult
}

func (j *importJob) progress(done, total int, phase string) {
	if j.req.OnProgress != nil {
		j.req.OnProgress(Progress{UnitsDone: done, UnitsTotal: total, Phase: phase})
	}
}

// cell reads a named column from a job row.
func (j *importJob) cell(row indexedRow, name string) string {
	return cellAt(row.cells, j.idx, name)
}

// ProcessImport runs the full pipeline for one submission: schema
// validation, reference validation, per-type transform, batched writes,
// and history recording. It always returns a complete summary; row, batch,
// and group failures are accumulated, never thrown.
func (s *Service) ProcessImport(ctx context.Context, req ImportRequest) *ImportResult {
	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	result := &ImportResult{RowsProcessed: len(req.Rows)}
	ts, ok := schema.Lookup(req.Type)
	if !ok {
		result.RowsFailed = len(req.Rows)
		result.Errors = append(result.Errors, ImportError{
			Message: "unknown import type " + string(req.Type),
		})
		return result
	}
	fn, ok := lookupTransform(req.Type)
	if !ok {
		result.RowsFailed = len(req.Rows)
		result.Errors = append(result.Errors, ImportError{
			Message: "no transform registered for import type " + string(req.Type),
		})
		return result
	}

	// Schema validation. A header-level failure sinks the whole submission;
	// row failures sink only their rows.
	failedRows := make(map[int]bool)
	for _, re := range ValidateRows(req.Type, req.Header, req.Rows) {
		result.Errors = append(result.Errors, rowImportError(re))
		if re.Row == 1 {
			result.RowsFailed = len(req.Rows)
			s.recordImport(ctx, req, result)
			return result
		}
		failedRows[re.Row] = true
	}

	idx := MakeHeaderIndex(req.Header)
	var survivors []indexedRow
	for i, row := range req.Rows {
		display := i + 2
		if failedRows[display] {
			continue
		}
		survivors = append(survivors, indexedRow{display: display, cells: row})
	}
	result.RowsFailed = len(failedRows)

	// Reference validation on the schema-valid remainder.
	report, err := s.validateReferences(ctx, ts, idx, survivors, req.AssessmentID)
	if err != nil {
		// Store failure before any write: everything remaining fails.
		result.RowsFailed += len(survivors)
		result.Errors = append(result.Errors, ImportError{
			Message: "reference validation: " + err.Error(),
		})
		s.recordImport(ctx, req, result)
		return result
	}
	if len(report.Errors) > 0 {
		refFailed := make(map[int]bool)
		for _, re := range report.Errors {
			result.Errors = append(result.Errors, rowImportError(re))
			refFailed[re.Row] = true
		}
		result.RowsFailed += len(refFailed)
		kept := survivors[:0]
		for _, row := range survivors {
			if !refFailed[row.display] {
				kept = append(kept, row)
			}
		}
		survivors = kept
	}

	// Transform and write.
	job := &importJob{req: req, idx: idx, rows: survivors, result: result}
	fn(ctx, s, job)

	result.Success = len(result.Errors) == 0
	s.recordImport(ctx, req, result)
	return result
}

// ValidateRowsOnly exposes schema validation without touching the store,
// for pre-commit review surfaces.
func (s *Service) ValidateRowsOnly(t schema.ImportType, header []string, rows [][]string) []RowError {
	return ValidateRows(t, header, rows)
}

// ValidateReferences checks foreign-key-shaped columns against the store
// and classifies the batch's natural keys as creates vs updates. It writes
// nothing.
func (s *Service) ValidateReferences(ctx context.Context, t schema.ImportType, header []string, rows [][]string, contextAssessmentID string) (*ReferenceReport, error) {
	ts, ok := schema.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("unknown import type %q", t)
	}
	idx := MakeHeaderIndex(header)
	indexed := make([]indexedRow, len(rows))
	for i, row := range rows {
		indexed[i] = indexedRow{display: i + 2, cells: row}
	}
	return s.validateReferences(ctx, ts, idx, indexed, contextAssessmentID)
}

// ImportHistory lists recent import records, optionally scoped to one
// assessment.
func (s *Service) ImportHistory(ctx context.Context, assessmentID string, limit int) ([]entity.ImportRecord, error) {
	return s.store.ImportRecords().List(ctx, assessmentID, limit)
}

// recordImport appends the submission's audit entry and logs the summary.
// History is advisory: a failure to record never fails the import whose
// writes already committed.
func (s *Service) recordImport(ctx context.Context, req ImportRequest, result *ImportResult) {
	rec := entity.ImportRecord{
		ID:            uuid.NewString(),
		AssessmentID:  req.AssessmentID,
		ImportType:    string(req.Type),
		RowsProcessed: result.RowsProcessed,
		RowsCreated:   result.RowsCreated,
		RowsUpdated:   result.RowsUpdated,
		RowsFailed:    result.RowsFailed,
		Note:          req.Note,
		CreatedAt:     s.now(),
		Actor:         req.Actor,
	}
	if err := s.store.ImportRecords().Append(ctx, rec); err != nil {
		s.log.Warn("failed to record import history",
			"import_type", req.Type, "error", err)
	}
	s.log.Info("import processed",
		"import_type", req.Type,
		"assessment_id", req.AssessmentID,
		"processed", result.RowsProcessed,
		"created", result.RowsCreated,
		"updated", result.RowsUpdated,
		"failed", result.RowsFailed,
		"actor", req.Actor,
	)
}

// batchRecord pairs one typed record with its natural key and the number of
// source rows it absorbs (1 for horizontal formats, the group size for
// grouped formats).
type batchRecord[T any] struct {
	key  string
	rec  T
	rows int
}

// writeBatches chunks records into fixed-size batches and writes each with
// an insert-or-replace upsert. Before each batch it probes which keys
// already exist so the result can report creates vs updates. A failed batch
// is recorded with its 1-based index and does not stop later batches.
func writeBatches[T any](ctx context.Context, s *Service, job *importJob, phase string,
	recs []batchRecord[T],
	existing func(context.Context, []string) (map[string]bool, error),
	upsert func(context.Context, []T) error,
) {
	// Final structural guard on the built records.
	var kept []batchRecord[T]
	for _, r := range recs {
		if err := s.validate.Struct(r.rec); err != nil {
			job.result.RowsFailed += r.rows
			job.result.Errors = append(job.result.Errors, ImportError{
				Group:   r.key,
				Message: "invalid record: " + err.Error(),
			})
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return
	}

	batches := chunk(kept, s.batchSize)
	for bi, batch := range batches {
		keys := make([]string, len(batch))
		vals := make([]T, len(batch))
		rows := 0
		for i, r := range batch {
			keys[i] = r.key
			vals[i] = r.rec
			rows += r.rows
		}

		existed, err := existing(ctx, keys)
		if err == nil {
			err = upsert(ctx, vals)
		}
		if err != nil {
			job.result.RowsFailed += rows
			job.result.Errors = append(job.result.Errors, ImportError{
				Batch:   bi + 1,
				Message: err.Error(),
			})
			job.progress(bi+1, len(batches), phase)
			continue
		}

		for _, r := range batch {
			if existed[r.key] {
				job.result.RowsUpdated += r.rows
			} else {
				job.result.RowsCreated += r.rows
			}
		}
		job.progress(bi+1, len(batches), phase)
	}
}

func chunk[T any](recs []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]T
	for len(recs) > size {
		out = append(out, recs[:size])
		recs = recs[size:]
	}
	if len(recs) > 0 {
		out = append(out, recs)
	}
	return out
}
