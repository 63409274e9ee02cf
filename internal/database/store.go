// Package database defines the persistence contract the content core
// requires from its store, plus two implementations: PostgreSQL (pgx) for
// production and an in-memory store for tests.
//
// Entities are addressed by natural key. Writes are either batched
// insert-or-replace upserts (imports) or partial field updates (status
// flips and spec-version merges). Nothing is ever physically deleted;
// retirement is a status value.
package database

import (
	"context"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

// Store aggregates the per-entity stores the core depends on.
type Store interface {
	Assessments() AssessmentStore
	SpecVersions() SpecVersionStore
	ContentBanks() ContentBankStore
	AssessmentBanks() AssessmentBankStore
	Forms() FormStore
	Items() ItemStore
	ScoringOutputs() ScoringOutputStore
	ImportRecords() ImportRecordStore
}

// Fetch methods return (nil, nil) when the id is absent; a non-nil error
// always indicates a store failure, never a miss.

type AssessmentStore interface {
	FetchByID(ctx context.Context, id string) (*entity.Assessment, error)
	List(ctx context.Context) ([]entity.Assessment, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	UpsertBatch(ctx context.Context, recs []entity.Assessment) error
	Update(ctx context.Context, id string, fields map[string]any) error
}

type SpecVersionStore interface {
	FetchByID(ctx context.Context, id string) (*entity.SpecVersion, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]entity.SpecVersion, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	UpsertBatch(ctx context.Context, recs []entity.SpecVersion) error
	Update(ctx context.Context, id string, fields map[string]any) error
}

type ContentBankStore interface {
	FetchByID(ctx context.Context, id string) (*entity.ContentBank, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	UpsertBatch(ctx context.Context, recs []entity.ContentBank) error
}

type AssessmentBankStore interface {
	ListByAssessment(ctx context.Context, assessmentID string) ([]entity.AssessmentBank, error)
	UpsertBatch(ctx context.Context, recs []entity.AssessmentBank) error
}

type FormStore interface {
	FetchByID(ctx context.Context, id string) (*entity.Form, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]entity.Form, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	UpsertBatch(ctx context.Context, recs []entity.Form) error
}

type ItemStore interface {
	FetchByID(ctx context.Context, id string) (*entity.Item, error)
	ListByForm(ctx context.Context, formID string) ([]entity.Item, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	UpsertBatch(ctx context.Context, recs []entity.Item) error
}

type ScoringOutputStore interface {
	FetchByID(ctx context.Context, id string) (*entity.ScoringOutput, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]entity.ScoringOutput, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	UpsertBatch(ctx context.Context, recs []entity.ScoringOutput) error
}

// ImportRecordStore is append-only: import history is never rewritten.
type ImportRecordStore interface {
	Append(ctx context.Context, rec entity.ImportRecord) error
	List(ctx context.Context, assessmentID string, limit int) ([]entity.ImportRecord, error)
}
