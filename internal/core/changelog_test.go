package core

import (
	"testing"
	"time"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

func TestImportSummary(t *testing.T) {
	tests := []struct {
		name             string
		importType       schema.ImportType
		created, updated int
		note             string
		want             string
	}{
		{
			name:       "with note",
			importType: schema.ImportItems,
			created:    3, updated: 2,
			note: "batch 7 reload",
			want: "[ITEMS Import] 3 created, 2 updated: batch 7 reload",
		},
		{
			name:       "without note",
			importType: schema.ImportForms,
			created:    1, updated: 0,
			want: "[FORMS Import] 1 created, 0 updated",
		},
		{
			name:       "asr label",
			importType: schema.ImportSpecVersion,
			created:    0, updated: 4,
			want: "[ASR Import] 0 created, 4 updated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImportSummary(tt.importType, tt.created, tt.updated, tt.note)
			if got != tt.want {
				t.Errorf("ImportSummary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeSummary(t *testing.T) {
	if got := mergeSummary(3, "sections a and e"); got != "[ASR Import] 3 field updates: sections a and e" {
		t.Errorf("mergeSummary = %q", got)
	}
	if got := mergeSummary(1, ""); got != "[ASR Import] 1 field updates" {
		t.Errorf("mergeSummary = %q", got)
	}
}

func TestAppendChangeLogPreservesHistory(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	log := []entity.ChangeLogEntry{
		NewChangeLogEntry(t0, "alice", "first"),
		NewChangeLogEntry(t0.Add(time.Hour), "bob", "second"),
	}

	out := AppendChangeLog(log, NewChangeLogEntry(t0.Add(2*time.Hour), "carol", "third"))
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	if out[0].Description != "first" || out[1].Description != "second" || out[2].Description != "third" {
		t.Errorf("entries out of order: %v", out)
	}

	// The returned slice must not alias the input backing array.
	out[0].Description = "mutated"
	if log[0].Description != "first" {
		t.Error("AppendChangeLog aliased the caller's slice")
	}
}

func TestNewChangeLogEntryDefaultsAuthor(t *testing.T) {
	entry := NewChangeLogEntry(time.Now(), "", "did a thing")
	if entry.Author != DefaultActor {
		t.Errorf("empty author should default to %q, got %q", DefaultActor, entry.Author)
	}
}
