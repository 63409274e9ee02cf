package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

// DBTX is the subset of pgx operations the store uses.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Postgres is the production Store backed by PostgreSQL.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps a pgx pool (or transaction) as a Store.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Assessments() AssessmentStore         { return pgAssessments{p.db} }
func (p *Postgres) SpecVersions() SpecVersionStore       { return pgSpecVersions{p.db} }
func (p *Postgres) ContentBanks() ContentBankStore       { return pgBanks{p.db} }
func (p *Postgres) AssessmentBanks() AssessmentBankStore { return pgAssessmentBanks{p.db} }
func (p *Postgres) Forms() FormStore                     { return pgForms{p.db} }
func (p *Postgres) Items() ItemStore                     { return pgItems{p.db} }
func (p *Postgres) ScoringOutputs() ScoringOutputStore   { return pgScoring{p.db} }
func (p *Postgres) ImportRecords() ImportRecordStore     { return pgImports{p.db} }

// Shared helpers.

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Entity types are plain data; marshal failure is a programming error.
		panic(fmt.Sprintf("store: marshal %T: %v", v, err))
	}
	return b
}

func fromJSON[T any](b []byte, out *T) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}

func existingIDs(ctx context.Context, db DBTX, table string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.Query(ctx, fmt.Sprintf("SELECT id FROM %s WHERE id = ANY($1)", table), ids)
	if err != nil {
		return nil, fmt.Errorf("query %s ids: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// sendUpsertBatch queues one statement per record and drains the results.
// The first failed statement fails the whole batch; the caller treats that
// as a batch-scoped error and moves on to the next batch.
func sendUpsertBatch(ctx context.Context, db DBTX, b *pgx.Batch) error {
	br := db.SendBatch(ctx, b)
	defer br.Close()
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

// updateFields builds and runs a partial UPDATE limited to an allowed column
// set. JSON-typed values must already be marshalable.
func updateFields(ctx context.Context, db DBTX, table, id string, fields map[string]any, allowed map[string]bool, jsonCols map[string]bool) error {
	if len(fields) == 0 {
		return nil
	}
	var (
		sets []string
		args []any
	)
	args = append(args, id)
	for col, val := range fields {
		if !allowed[col] {
			return fmt.Errorf("%s field %q is not updatable", table, col)
		}
		if jsonCols[col] {
			val = mustJSON(val)
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	tag, err := db.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", table, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %q not found", table, id)
	}
	return nil
}

// Assessments.

type pgAssessments struct{ db DBTX }

const assessmentCols = "id, component_code, status, current_spec_version_id"

func scanAssessment(row pgx.Row) (*entity.Assessment, error) {
	var a entity.Assessment
	var current pgtype.Text
	if err := row.Scan(&a.ID, &a.ComponentCode, &a.Status, &current); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.CurrentSpecVersionID = current.String
	return &a, nil
}

func (s pgAssessments) FetchByID(ctx context.Context, id string) (*entity.Assessment, error) {
	return scanAssessment(s.db.QueryRow(ctx,
		"SELECT "+assessmentCols+" FROM assessments WHERE id = $1", id))
}

func (s pgAssessments) List(ctx context.Context) ([]entity.Assessment, error) {
	rows, err := s.db.Query(ctx, "SELECT "+assessmentCols+" FROM assessments ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Assessment
	for rows.Next() {
		var a entity.Assessment
		var current pgtype.Text
		if err := rows.Scan(&a.ID, &a.ComponentCode, &a.Status, &current); err != nil {
			return nil, err
		}
		a.CurrentSpecVersionID = current.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s pgAssessments) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return existingIDs(ctx, s.db, "assessments", ids)
}

func (s pgAssessments) UpsertBatch(ctx context.Context, recs []entity.Assessment) error {
	b := &pgx.Batch{}
	for _, a := range recs {
		b.Queue(`INSERT INTO assessments (id, component_code, status, current_spec_version_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				component_code = EXCLUDED.component_code,
				status = EXCLUDED.status,
				current_spec_version_id = EXCLUDED.current_spec_version_id`,
			a.ID, a.ComponentCode, a.Status, textOrNull(a.CurrentSpecVersionID))
	}
	return sendUpsertBatch(ctx, s.db, b)
}

func (s pgAssessments) Update(ctx context.Context, id string, fields map[string]any) error {
	return updateFields(ctx, s.db, "assessments", id, fields,
		map[string]bool{"status": true, "current_spec_version_id": true}, nil)
}

// Spec versions.

type pgSpecVersions struct{ db DBTX }

const specVersionCols = "id, assessment_id, sections, validation_status, completeness_percent, change_log"

func scanSpecVersion(scan func(dest ...any) error) (*entity.SpecVersion, error) {
	var sv entity.SpecVersion
	var sections, changeLog []byte
	if err := scan(&sv.ID, &sv.AssessmentID, &sections, &sv.ValidationStatus,
		&sv.CompletenessPercent, &changeLog); err != nil {
		return nil, err
	}
	if err := fromJSON(sections, &sv.Sections); err != nil {
		return nil, fmt.Errorf("decode sections for %s: %w", sv.ID, err)
	}
	if err := fromJSON(changeLog, &sv.ChangeLog); err != nil {
		return nil, fmt.Errorf("decode change log for %s: %w", sv.ID, err)
	}
	return &sv, nil
}

func (s pgSpecVersions) FetchByID(ctx context.Context, id string) (*entity.SpecVersion, error) {
	row := s.db.QueryRow(ctx, "SELECT "+specVersionCols+" FROM spec_versions WHERE id = $1", id)
	sv, err := scanSpecVersion(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return sv, err
}

func (s pgSpecVersions) ListByAssessment(ctx context.Context, assessmentID string) ([]entity.SpecVersion, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+specVersionCols+" FROM spec_versions WHERE assessment_id = $1 ORDER BY id", assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.SpecVersion
	for rows.Next() {
		sv, err := scanSpecVersion(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *sv)
	}
	return out, rows.Err()
}

func (s pgSpecVersions) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return existingIDs(ctx, s.db, "spec_versions", ids)
}

func (s pgSpecVersions) UpsertBatch(ctx context.Context, recs []entity.SpecVersion) error {
	b := &pgx.Batch{}
	for _, sv := range recs {
		b.Queue(`INSERT INTO spec_versions
			(id, assessment_id, sections, validation_status, completeness_percent, change_log)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				assessment_id = EXCLUDED.assessment_id,
				sections = EXCLUDED.sections,
				validation_status = EXCLUDED.validation_status,
				completeness_percent = EXCLUDED.completeness_percent,
				change_log = EXCLUDED.change_log`,
			sv.ID, sv.AssessmentID, mustJSON(sv.Sections), sv.ValidationStatus,
			sv.CompletenessPercent, mustJSON(sv.ChangeLog))
	}
	return sendUpsertBatch(ctx, s.db, b)
}

func (s pgSpecVersions) Update(ctx context.Context, id string, fields map[string]any) error {
	return updateFields(ctx, s.db, "spec_versions", id, fields,
		map[string]bool{
			"sections": true, "validation_status": true,
			"completeness_percent": true, "change_log": true,
		},
		map[string]bool{"sections": true, "change_log": true})
}

// Content banks.

type pgBanks struct{ db DBTX }

func (s pgBanks) FetchByID(ctx context.Context, id string) (*entity.ContentBank, error) {
	var cb entity.ContentBank
	var domains []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, assessment_id, target_size, current_size, status, domains, adaptive
		 FROM content_banks WHERE id = $1`, id).
		Scan(&cb.ID, &cb.AssessmentID, &cb.TargetSize, &cb.CurrentSize, &cb.Status, &domains, &cb.Adaptive)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := fromJSON(domains, &cb.Domains); err != nil {
		return nil, err
	}
	return &cb, nil
}

func (s pgBanks) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return existingIDs(ctx, s.db, "content_banks", ids)
}

func (s pgBanks) UpsertBatch(ctx context.Context, recs []entity.ContentBank) error {
	b := &pgx.Batch{}
	for _, cb := range recs {
		b.Queue(`INSERT INTO content_banks
			(id, assessment_id, target_size, current_size, status, domains, adaptive)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				assessment_id = EXCLUDED.assessment_id,
				target_size = EXCLUDED.target_size,
				current_size = EXCLUDED.current_size,
				status = EXCLUDED.status,
				domains = EXCLUDED.domains,
				adaptive = EXCLUDED.adaptive`,
			cb.ID, cb.AssessmentID, cb.TargetSize, cb.CurrentSize, cb.Status,
			mustJSON(cb.Domains), cb.Adaptive)
	}
	return sendUpsertBatch(ctx, s.db, b)
}

// Assessment-bank links.

type pgAssessmentBanks struct{ db DBTX }

func (s pgAssessmentBanks) ListByAssessment(ctx context.Context, assessmentID string) ([]entity.AssessmentBank, error) {
	rows, err := s.db.Query(ctx,
		"SELECT assessment_id, bank_id FROM assessment_banks WHERE assessment_id = $1 ORDER BY bank_id",
		assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.AssessmentBank
	for rows.Next() {
		var ab entity.AssessmentBank
		if err := rows.Scan(&ab.AssessmentID, &ab.BankID); err != nil {
			return nil, err
		}
		out = append(out, ab)
	}
	return out, rows.Err()
}

func (s pgAssessmentBanks) UpsertBatch(ctx context.Context, recs []entity.AssessmentBank) error {
	b := &pgx.Batch{}
	for _, ab := range recs {
		b.Queue(`INSERT INTO assessment_banks (assessment_id, bank_id)
			VALUES ($1, $2)
			ON CONFLICT (assessment_id, bank_id) DO NOTHING`,
			ab.AssessmentID, ab.BankID)
	}
	return sendUpsertBatch(ctx, s.db, b)
}

// Forms.

type pgForms struct{ db DBTX }

const formCols = "id, assessment_id, content_bank_id, grade_level, form_number, status, equivalence_set_id"

func scanForm(scan func(dest ...any) error) (*entity.Form, error) {
	var f entity.Form
	var equiv pgtype.Text
	if err := scan(&f.ID, &f.AssessmentID, &f.ContentBankID, &f.GradeLevel,
		&f.FormNumber, &f.Status, &equiv); err != nil {
		return nil, err
	}
	f.EquivalenceSetID = equiv.String
	return &f, nil
}

func (s pgForms) FetchByID(ctx context.Context, id string) (*entity.Form, error) {
	row := s.db.QueryRow(ctx, "SELECT "+formCols+" FROM forms WHERE id = $1", id)
	f, err := scanForm(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (s pgForms) ListByAssessment(ctx context.Context, assessmentID string) ([]entity.Form, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+formCols+" FROM forms WHERE assessment_id = $1 ORDER BY id", assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Form
	for rows.Next() {
		f, err := scanForm(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (s pgForms) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return existingIDs(ctx, s.db, "forms", ids)
}

func (s pgForms) UpsertBatch(ctx context.Context, recs []entity.Form) error {
	b := &pgx.Batch{}
	for _, f := range recs {
		b.Queue(`INSERT INTO forms
			(id, assessment_id, content_bank_id, grade_level, form_number, status, equivalence_set_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				assessment_id = EXCLUDED.assessment_id,
				content_bank_id = EXCLUDED.content_bank_id,
				grade_level = EXCLUDED.grade_level,
				form_number = EXCLUDED.form_number,
				status = EXCLUDED.status,
				equivalence_set_id = EXCLUDED.equivalence_set_id`,
			f.ID, f.AssessmentID, f.ContentBankID, f.GradeLevel, f.FormNumber,
			f.Status, textOrNull(f.EquivalenceSetID))
	}
	return sendUpsertBatch(ctx, s.db, b)
}

// Items.

type pgItems struct{ db DBTX }

const itemCols = "id, form_id, item_type, sequence_number, content, scoring_tags"

func scanItem(scan func(dest ...any) error) (*entity.Item, error) {
	var it entity.Item
	var content, tags []byte
	if err := scan(&it.ID, &it.FormID, &it.Type, &it.SequenceNumber, &content, &tags); err != nil {
		return nil, err
	}
	if err := fromJSON(content, &it.Content); err != nil {
		return nil, fmt.Errorf("decode content for %s: %w", it.ID, err)
	}
	if err := fromJSON(tags, &it.ScoringTags); err != nil {
		return nil, fmt.Errorf("decode scoring tags for %s: %w", it.ID, err)
	}
	return &it, nil
}

func (s pgItems) FetchByID(ctx context.Context, id string) (*entity.Item, error) {
	row := s.db.QueryRow(ctx, "SELECT "+itemCols+" FROM items WHERE id = $1", id)
	it, err := scanItem(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return it, err
}

func (s pgItems) ListByForm(ctx context.Context, formID string) ([]entity.Item, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+itemCols+" FROM items WHERE form_id = $1 ORDER BY sequence_number", formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Item
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (s pgItems) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return existingIDs(ctx, s.db, "items", ids)
}

func (s pgItems) UpsertBatch(ctx context.Context, recs []entity.Item) error {
	b := &pgx.Batch{}
	for _, it := range recs {
		b.Queue(`INSERT INTO items
			(id, form_id, item_type, sequence_number, content, scoring_tags)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				form_id = EXCLUDED.form_id,
				item_type = EXCLUDED.item_type,
				sequence_number = EXCLUDED.sequence_number,
				content = EXCLUDED.content,
				scoring_tags = EXCLUDED.scoring_tags`,
			it.ID, it.FormID, it.Type, it.SequenceNumber,
			mustJSON(it.Content), mustJSON(it.ScoringTags))
	}
	return sendUpsertBatch(ctx, s.db, b)
}

// Scoring outputs.

type pgScoring struct{ db DBTX }

const scoringCols = "id, assessment_id, raw_metrics, derived_metrics, formulas, flags, thresholds"

func scanScoring(scan func(dest ...any) error) (*entity.ScoringOutput, error) {
	var so entity.ScoringOutput
	var raw, derived, formulas, flags, thresholds []byte
	if err := scan(&so.ID, &so.AssessmentID, &raw, &derived, &formulas, &flags, &thresholds); err != nil {
		return nil, err
	}
	for _, dec := range []struct {
		b []byte
		v any
	}{
		{raw, &so.RawMetrics}, {derived, &so.DerivedMetrics},
		{formulas, &so.Formulas}, {flags, &so.Flags}, {thresholds, &so.Thresholds},
	} {
		if len(dec.b) > 0 {
			if err := json.Unmarshal(dec.b, dec.v); err != nil {
				return nil, fmt.Errorf("decode scoring output %s: %w", so.ID, err)
			}
		}
	}
	return &so, nil
}

func (s pgScoring) FetchByID(ctx context.Context, id string) (*entity.ScoringOutput, error) {
	row := s.db.QueryRow(ctx, "SELECT "+scoringCols+" FROM scoring_outputs WHERE id = $1", id)
	so, err := scanScoring(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return so, err
}

func (s pgScoring) ListByAssessment(ctx context.Context, assessmentID string) ([]entity.ScoringOutput, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+scoringCols+" FROM scoring_outputs WHERE assessment_id = $1 ORDER BY id", assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.ScoringOutput
	for rows.Next() {
		so, err := scanScoring(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *so)
	}
	return out, rows.Err()
}

func (s pgScoring) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return existingIDs(ctx, s.db, "scoring_outputs", ids)
}

func (s pgScoring) UpsertBatch(ctx context.Context, recs []entity.ScoringOutput) error {
	b := &pgx.Batch{}
	for _, so := range recs {
		b.Queue(`INSERT INTO scoring_outputs
			(id, assessment_id, raw_metrics, derived_metrics, formulas, flags, thresholds)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				assessment_id = EXCLUDED.assessment_id,
				raw_metrics = EXCLUDED.raw_metrics,
				derived_metrics = EXCLUDED.derived_metrics,
				formulas = EXCLUDED.formulas,
				flags = EXCLUDED.flags,
				thresholds = EXCLUDED.thresholds`,
			so.ID, so.AssessmentID, mustJSON(so.RawMetrics), mustJSON(so.DerivedMetrics),
			mustJSON(so.Formulas), mustJSON(so.Flags), mustJSON(so.Thresholds))
	}
	return sendUpsertBatch(ctx, s.db, b)
}

// Import history.

type pgImports struct{ db DBTX }

func (s pgImports) Append(ctx context.Context, rec entity.ImportRecord) error {
	_, err := s.db.Exec(ctx, `INSERT INTO import_records
		(id, assessment_id, import_type, rows_processed, rows_created, rows_updated, rows_failed, note, created_at, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, textOrNull(rec.AssessmentID), rec.ImportType,
		rec.RowsProcessed, rec.RowsCreated, rec.RowsUpdated, rec.RowsFailed,
		textOrNull(rec.Note), rec.CreatedAt, rec.Actor)
	if err != nil {
		return fmt.Errorf("append import record: %w", err)
	}
	return nil
}

func (s pgImports) List(ctx context.Context, assessmentID string, limit int) ([]entity.ImportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows pgx.Rows
		err  error
	)
	const cols = `id, COALESCE(assessment_id, ''), import_type, rows_processed,
		rows_created, rows_updated, rows_failed, COALESCE(note, ''), created_at, actor`
	if assessmentID != "" {
		rows, err = s.db.Query(ctx, "SELECT "+cols+` FROM import_records
			WHERE assessment_id = $1 ORDER BY created_at DESC LIMIT $2`, assessmentID, limit)
	} else {
		rows, err = s.db.Query(ctx, "SELECT "+cols+` FROM import_records
			ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.ImportRecord
	for rows.Next() {
		var rec entity.ImportRecord
		if err := rows.Scan(&rec.ID, &rec.AssessmentID, &rec.ImportType, &rec.RowsProcessed,
			&rec.RowsCreated, &rec.RowsUpdated, &rec.RowsFailed, &rec.Note,
			&rec.CreatedAt, &rec.Actor); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
