package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

// Memory is an in-memory Store. It backs unit tests and local development
// without a database; it is safe for concurrent use and deep-copies records
// on the way in and out so callers cannot alias stored state.
type Memory struct {
	mu              sync.RWMutex
	assessments     map[string]entity.Assessment
	specVersions    map[string]entity.SpecVersion
	banks           map[string]entity.ContentBank
	assessmentBanks map[string]entity.AssessmentBank
	forms           map[string]entity.Form
	items           map[string]entity.Item
	scoring         map[string]entity.ScoringOutput
	imports         []entity.ImportRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		assessments:     make(map[string]entity.Assessment),
		specVersions:    make(map[string]entity.SpecVersion),
		banks:           make(map[string]entity.ContentBank),
		assessmentBanks: make(map[string]entity.AssessmentBank),
		forms:           make(map[string]entity.Form),
		items:           make(map[string]entity.Item),
		scoring:         make(map[string]entity.ScoringOutput),
	}
}

func (m *Memory) Assessments() AssessmentStore         { return memAssessments{m} }
func (m *Memory) SpecVersions() SpecVersionStore       { return memSpecVersions{m} }
func (m *Memory) ContentBanks() ContentBankStore       { return memBanks{m} }
func (m *Memory) AssessmentBanks() AssessmentBankStore { return memAssessmentBanks{m} }
func (m *Memory) Forms() FormStore                     { return memForms{m} }
func (m *Memory) Items() ItemStore                     { return memItems{m} }
func (m *Memory) ScoringOutputs() ScoringOutputStore   { return memScoring{m} }
func (m *Memory) ImportRecords() ImportRecordStore     { return memImports{m} }

// cloneVal deep-copies v through JSON. All entity types are plain data, so
// this is lossless.
func cloneVal[T any](v T) T {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memory store clone: %v", err))
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("memory store clone: %v", err))
	}
	return out
}

func fetchFrom[T any](m *Memory, table map[string]T, id string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := table[id]
	if !ok {
		return nil, nil
	}
	c := cloneVal(v)
	return &c, nil
}

func existingFrom[T any](m *Memory, table map[string]T, ids []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := table[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func upsertInto[T any](m *Memory, table map[string]T, recs []T, key func(T) string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		table[key(r)] = cloneVal(r)
	}
	return nil
}

func listWhere[T any](m *Memory, table map[string]T, key func(T) string, keep func(T) bool) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []T
	for _, v := range table {
		if keep(v) {
			out = append(out, cloneVal(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

type memAssessments struct{ m *Memory }

func (s memAssessments) FetchByID(_ context.Context, id string) (*entity.Assessment, error) {
	return fetchFrom(s.m, s.m.assessments, id)
}

func (s memAssessments) List(_ context.Context) ([]entity.Assessment, error) {
	return listWhere(s.m, s.m.assessments,
		func(a entity.Assessment) string { return a.ID },
		func(entity.Assessment) bool { return true }), nil
}

func (s memAssessments) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	return existingFrom(s.m, s.m.assessments, ids)
}

func (s memAssessments) UpsertBatch(_ context.Context, recs []entity.Assessment) error {
	return upsertInto(s.m, s.m.assessments, recs, func(a entity.Assessment) string { return a.ID })
}

func (s memAssessments) Update(_ context.Context, id string, fields map[string]any) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.assessments[id]
	if !ok {
		return fmt.Errorf("assessment %q not found", id)
	}
	for k, v := range fields {
		switch k {
		case "status":
			a.Status = entity.AssessmentStatus(v.(string))
		case "current_spec_version_id":
			a.CurrentSpecVersionID = v.(string)
		default:
			return fmt.Errorf("assessment field %q is not updatable", k)
		}
	}
	s.m.assessments[id] = a
	return nil
}

type memSpecVersions struct{ m *Memory }

func (s memSpecVersions) FetchByID(_ context.Context, id string) (*entity.SpecVersion, error) {
	return fetchFrom(s.m, s.m.specVersions, id)
}

func (s memSpecVersions) ListByAssessment(_ context.Context, assessmentID string) ([]entity.SpecVersion, error) {
	return listWhere(s.m, s.m.specVersions,
		func(sv entity.SpecVersion) string { return sv.ID },
		func(sv entity.SpecVersion) bool { return sv.AssessmentID == assessmentID }), nil
}

func (s memSpecVersions) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	return existingFrom(s.m, s.m.specVersions, ids)
}

func (s memSpecVersions) UpsertBatch(_ context.Context, recs []entity.SpecVersion) error {
	return upsertInto(s.m, s.m.specVersions, recs, func(sv entity.SpecVersion) string { return sv.ID })
}

func (s memSpecVersions) Update(_ context.Context, id string, fields map[string]any) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sv, ok := s.m.specVersions[id]
	if !ok {
		return fmt.Errorf("spec version %q not found", id)
	}
	for k, v := range fields {
		switch k {
		case "sections":
			sv.Sections = cloneVal(v.(map[string]entity.Section))
		case "validation_status":
			sv.ValidationStatus = entity.ValidationStatus(v.(string))
		case "completeness_percent":
			sv.CompletenessPercent = v.(int)
		case "change_log":
			sv.ChangeLog = cloneVal(v.([]entity.ChangeLogEntry))
		default:
			return fmt.Errorf("spec version field %q is not updatable", k)
		}
	}
	s.m.specVersions[id] = sv
	return nil
}

type memBanks struct{ m *Memory }

func (s memBanks) FetchByID(_ context.Context, id string) (*entity.ContentBank, error) {
	return fetchFrom(s.m, s.m.banks, id)
}

func (s memBanks) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	return existingFrom(s.m, s.m.banks, ids)
}

func (s memBanks) UpsertBatch(_ context.Context, recs []entity.ContentBank) error {
	return upsertInto(s.m, s.m.banks, recs, func(b entity.ContentBank) string { return b.ID })
}

type memAssessmentBanks struct{ m *Memory }

func assessmentBankKey(ab entity.AssessmentBank) string {
	return ab.AssessmentID + "|" + ab.BankID
}

func (s memAssessmentBanks) ListByAssessment(_ context.Context, assessmentID string) ([]entity.AssessmentBank, error) {
	return listWhere(s.m, s.m.assessmentBanks, assessmentBankKey,
		func(ab entity.AssessmentBank) bool { return ab.AssessmentID == assessmentID }), nil
}

func (s memAssessmentBanks) UpsertBatch(_ context.Context, recs []entity.AssessmentBank) error {
	return upsertInto(s.m, s.m.assessmentBanks, recs, assessmentBankKey)
}

type memForms struct{ m *Memory }

func (s memForms) FetchByID(_ context.Context, id string) (*entity.Form, error) {
	return fetchFrom(s.m, s.m.forms, id)
}

func (s memForms) ListByAssessment(_ context.Context, assessmentID string) ([]entity.Form, error) {
	return listWhere(s.m, s.m.forms,
		func(f entity.Form) string { return f.ID },
		func(f entity.Form) bool { return f.AssessmentID == assessmentID }), nil
}

func (s memForms) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	return existingFrom(s.m, s.m.forms, ids)
}

func (s memForms) UpsertBatch(_ context.Context, recs []entity.Form) error {
	return upsertInto(s.m, s.m.forms, recs, func(f entity.Form) string { return f.ID })
}

type memItems struct{ m *Memory }

func (s memItems) FetchByID(_ context.Context, id string) (*entity.Item, error) {
	return fetchFrom(s.m, s.m.items, id)
}

func (s memItems) ListByForm(_ context.Context, formID string) ([]entity.Item, error) {
	items := listWhere(s.m, s.m.items,
		func(it entity.Item) string { return it.ID },
		func(it entity.Item) bool { return it.FormID == formID })
	sort.Slice(items, func(i, j int) bool { return items[i].SequenceNumber < items[j].SequenceNumber })
	return items, nil
}

func (s memItems) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	return existingFrom(s.m, s.m.items, ids)
}

func (s memItems) UpsertBatch(_ context.Context, recs []entity.Item) error {
	return upsertInto(s.m, s.m.items, recs, func(it entity.Item) string { return it.ID })
}

type memScoring struct{ m *Memory }

func (s memScoring) FetchByID(_ context.Context, id string) (*entity.ScoringOutput, error) {
	return fetchFrom(s.m, s.m.scoring, id)
}

func (s memScoring) ListByAssessment(_ context.Context, assessmentID string) ([]entity.ScoringOutput, error) {
	return listWhere(s.m, s.m.scoring,
		func(so entity.ScoringOutput) string { return so.ID },
		func(so entity.ScoringOutput) bool { return so.AssessmentID == assessmentID }), nil
}

func (s memScoring) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	return existingFrom(s.m, s.m.scoring, ids)
}

func (s memScoring) UpsertBatch(_ context.Context, recs []entity.ScoringOutput) error {
	return upsertInto(s.m, s.m.scoring, recs, func(so entity.ScoringOutput) string { return so.ID })
}

type memImports struct{ m *Memory }

func (s memImports) Append(_ context.Context, rec entity.ImportRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.imports = append(s.m.imports, cloneVal(rec))
	return nil
}

func (s memImports) List(_ context.Context, assessmentID string, limit int) ([]entity.ImportRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []entity.ImportRecord
	// Newest first.
	for i := len(s.m.imports) - 1; i >= 0; i-- {
		rec := s.m.imports[i]
		if assessmentID != "" && !strings.EqualFold(rec.AssessmentID, assessmentID) {
			continue
		}
		out = append(out, cloneVal(rec))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
