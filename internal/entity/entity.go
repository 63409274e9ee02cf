// Package entity defines the domain model for assessment content:
// assessments, specification versions (ASRs), content banks, forms, items,
// and scoring outputs. All identifiers are human-readable, dot-delimited
// strings that encode lineage (e.g. "READING.G3.form01").
package entity

import "time"

// AssessmentStatus is the lifecycle status of an assessment.
type AssessmentStatus string

const (
	AssessmentDraft  AssessmentStatus = "draft"
	AssessmentActive AssessmentStatus = "active"
)

// ValidationStatus is the lifecycle status of a spec version.
type ValidationStatus string

const (
	SpecIncomplete ValidationStatus = "incomplete"
	SpecValid      ValidationStatus = "valid"
)

// BankStatus is the fill status of a content bank.
type BankStatus string

const (
	BankEmpty      BankStatus = "empty"
	BankInProgress BankStatus = "in-progress"
	BankReady      BankStatus = "ready"
)

// FormStatus is the lifecycle status of a form.
type FormStatus string

const (
	FormDraft   FormStatus = "draft"
	FormActive  FormStatus = "active"
	FormRetired FormStatus = "retired"
)

// ItemType enumerates the supported item kinds.
type ItemType string

const (
	ItemMultipleChoice      ItemType = "multiple_choice"
	ItemConstructedResponse ItemType = "constructed_response"
	ItemPassage             ItemType = "passage"
	ItemRatingScale         ItemType = "rating_scale"
)

// ItemTypes lists every valid item type, in display order.
var ItemTypes = []string{
	string(ItemMultipleChoice),
	string(ItemConstructedResponse),
	string(ItemPassage),
	string(ItemRatingScale),
}

// ChangeLogEntry is one immutable entry in an entity's audit trail.
type ChangeLogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
}

// Assessment is the root entity of the content hierarchy.
type Assessment struct {
	ID                   string           `json:"id" validate:"required"`
	ComponentCode        string           `json:"componentCode"`
	Status               AssessmentStatus `json:"status" validate:"oneof=draft active"`
	CurrentSpecVersionID string           `json:"currentSpecVersionId,omitempty"`
}

// Section is one open record of domain fields within a spec version.
// Values are strings, numbers, booleans, or lists of strings depending
// on what the import coercion produced.
type Section map[string]any

// SectionKeys lists the ten section slots of a spec version, in order.
var SectionKeys = []string{
	"section_a", "section_b", "section_c", "section_d", "section_e",
	"section_f", "section_g", "section_h", "section_i", "section_j",
}

// IsSectionKey reports whether key names one of the ten sections.
func IsSectionKey(key string) bool {
	for _, k := range SectionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SpecVersion is one versioned specification document (ASR) for an
// assessment. Invariant: ValidationStatus == SpecValid implies
// CompletenessPercent == 100.
type SpecVersion struct {
	ID                  string             `json:"id" validate:"required"`
	AssessmentID        string             `json:"assessmentId" validate:"required"`
	Sections            map[string]Section `json:"sections"`
	ValidationStatus    ValidationStatus   `json:"validationStatus" validate:"oneof=incomplete valid"`
	CompletenessPercent int                `json:"completenessPercent" validate:"min=0,max=100"`
	ChangeLog           []ChangeLogEntry   `json:"changeLog"`
}

// Section returns the named section, allocating it (and the section map)
// on first access so merge writes always have a target.
func (sv *SpecVersion) Section(key string) Section {
	if sv.Sections == nil {
		sv.Sections = make(map[string]Section, len(SectionKeys))
	}
	sec, ok := sv.Sections[key]
	if !ok {
		sec = make(Section)
		sv.Sections[key] = sec
	}
	return sec
}

// ContentBank is a reusable pool of items from which forms are drawn.
type ContentBank struct {
	ID           string     `json:"id" validate:"required"`
	AssessmentID string     `json:"assessmentId" validate:"required"`
	TargetSize   int        `json:"targetSize" validate:"min=0"`
	CurrentSize  int        `json:"currentSize" validate:"min=0"`
	Status       BankStatus `json:"status" validate:"oneof=empty in-progress ready"`
	Domains      []string   `json:"domains,omitempty"`
	Adaptive     bool       `json:"adaptive"`
}

// AssessmentBank links an assessment to a content bank. Both referents
// must exist.
type AssessmentBank struct {
	AssessmentID string `json:"assessmentId" validate:"required"`
	BankID       string `json:"bankId" validate:"required"`
}

// Form is a concrete, orderable sequence of items for one grade level,
// drawn from one content bank.
type Form struct {
	ID               string     `json:"id" validate:"required"`
	AssessmentID     string     `json:"assessmentId" validate:"required"`
	ContentBankID    string     `json:"contentBankId" validate:"required"`
	GradeLevel       string     `json:"gradeLevel" validate:"required"`
	FormNumber       int        `json:"formNumber" validate:"min=1"`
	Status           FormStatus `json:"status" validate:"oneof=draft active retired"`
	EquivalenceSetID string     `json:"equivalenceSetId,omitempty"`
}

// ItemOption is one labeled answer option. ID is the positional label
// (A, B, C, ...).
type ItemOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ItemContent is the structured payload of an item. Which fields are
// populated depends on the item type: choice items carry Options and
// CorrectOptionID, passages carry Text and WordCount.
type ItemContent struct {
	Stimulus        string       `json:"stimulus,omitempty"`
	Text            string       `json:"text,omitempty"`
	Options         []ItemOption `json:"options,omitempty"`
	CorrectOptionID string       `json:"correctOptionId,omitempty"`
	WordCount       int          `json:"wordCount,omitempty"`
}

// Item is one scorable (or stimulus) unit on a form. Sequence numbers are
// 1-based and unique per form; the id encodes form + sequence.
type Item struct {
	ID             string      `json:"id" validate:"required"`
	FormID         string      `json:"formId" validate:"required"`
	Type           ItemType    `json:"type" validate:"oneof=multiple_choice constructed_response passage rating_scale"`
	SequenceNumber int         `json:"sequenceNumber" validate:"min=1"`
	Content        ItemContent `json:"content"`
	ScoringTags    []string    `json:"scoringTags,omitempty"`
}

// MetricSpec declares one raw or derived metric of a scoring model.
type MetricSpec struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// Formula computes one derived metric. OutputMetricID must name a
// declared metric of the same scoring model.
type Formula struct {
	OutputMetricID string `json:"outputMetricId"`
	Expression     string `json:"expression"`
}

// Threshold attaches a cut value to a metric.
type Threshold struct {
	MetricID string  `json:"metricId"`
	Value    float64 `json:"value"`
}

// ScoringOutput is one scoring model for an assessment.
type ScoringOutput struct {
	ID             string       `json:"id" validate:"required"`
	AssessmentID   string       `json:"assessmentId" validate:"required"`
	RawMetrics     []MetricSpec `json:"rawMetrics,omitempty"`
	DerivedMetrics []MetricSpec `json:"derivedMetrics,omitempty"`
	Formulas       []Formula    `json:"formulas,omitempty"`
	Flags          []string     `json:"flags,omitempty"`
	Thresholds     []Threshold  `json:"thresholds,omitempty"`
}

// ImportRecord is one append-only audit entry for an import submission.
type ImportRecord struct {
	ID            string    `json:"id"`
	AssessmentID  string    `json:"assessmentId,omitempty"`
	ImportType    string    `json:"importType"`
	RowsProcessed int       `json:"rowsProcessed"`
	RowsCreated   int       `json:"rowsCreated"`
	RowsUpdated   int       `json:"rowsUpdated"`
	RowsFailed    int       `json:"rowsFailed"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	Actor         string    `json:"actor"`
}
