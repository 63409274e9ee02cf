package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

// NewChangeLogEntry builds one immutable, attributed audit entry.
func NewChangeLogEntry(at time.Time, author, description string) entity.ChangeLogEntry {
	if author == "" {
		author = DefaultActor
	}
	return entity.ChangeLogEntry{Timestamp: at, Author: author, Description: description}
}

// AppendChangeLog appends an entry without dropping prior history. It
// copies so the stored log is never aliased by caller slices.
func AppendChangeLog(log []entity.ChangeLogEntry, entry entity.ChangeLogEntry) []entity.ChangeLogEntry {
	out := make([]entity.ChangeLogEntry, 0, len(log)+1)
	out = append(out, log...)
	return append(out, entry)
}

// ImportSummary renders the one-line description used when imports mutate
// entities with an audit trail: "[ITEMS Import] 3 created, 2 updated: note".
func ImportSummary(t schema.ImportType, created, updated int, note string) string {
	label := string(t)
	if ts, ok := schema.Lookup(t); ok {
		label = ts.Label
	}
	summary := fmt.Sprintf("[%s Import] %d created, %d updated", strings.ToUpper(label), created, updated)
	if note != "" {
		summary += ": " + note
	}
	return summary
}

// mergeSummary renders the per-group description for vertical ASR merges.
func mergeSummary(fieldUpdates int, note string) string {
	summary := fmt.Sprintf("[ASR Import] %d field updates", fieldUpdates)
	if note != "" {
		summary += ": " + note
	}
	return summary
}
