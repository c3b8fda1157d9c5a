// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HeaderInfo holds the call identity fields parsed from the opening section
// of a transcript. A nil field means no pattern matched; values are never
// guessed.
type HeaderInfo struct {
	// Company is the canonical company name (e.g. "CIPLA").
	Company *string `json:"company" yaml:"company"`

	// ReportDate is the call date as written in the transcript (e.g. "July 25, 2025").
	ReportDate *string `json:"report_date" yaml:"report_date"`

	// Quarter is the fiscal quarter in canonical form ("Q1".."Q4").
	Quarter *string `json:"quarter" yaml:"quarter"`

	// FiscalYear is the four-digit fiscal year (e.g. "2026").
	FiscalYear *string `json:"fiscal_year" yaml:"fiscal_year"`
}

// ParticipantRole distinguishes the two participant rosters.
type ParticipantRole string

const (
	RoleManagementParticipant ParticipantRole = "management"
	RoleAnalystParticipant    ParticipantRole = "analyst"
)

// Participant is one roster entry. Management entries carry a Title,
// analysts carry a Firm. An entry whose roster line could not be split
// keeps the raw line as Name and leaves Title and Firm empty.
type Participant struct {
	Name  string          `json:"name" yaml:"name"`
	Title string          `json:"title,omitempty" yaml:"title,omitempty"`
	Firm  string          `json:"firm,omitempty" yaml:"firm,omitempty"`
	Role  ParticipantRole `json:"-" yaml:"-"`
}

// ManagementMember is the wire form of a management roster entry.
type ManagementMember struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`
}

// AnalystEntry is the wire form of an analyst roster entry.
type AnalystEntry struct {
	Name string `json:"name" yaml:"name"`
	Firm string `json:"firm" yaml:"firm"`
}

// Answer is one respondent's contiguous reply within a Q&A segment.
type Answer struct {
	Speaker  string `json:"speaker" yaml:"speaker"`
	Response string `json:"response" yaml:"response"`
}

// QASegment is one question and the answers it received. Every emitted
// segment has exactly one asking analyst and at least one answer.
type QASegment struct {
	AnalystName string   `json:"analyst_name" yaml:"analyst_name"`
	AnalystFirm string   `json:"analyst_firm,omitempty" yaml:"analyst_firm,omitempty"`
	Question    string   `json:"question" yaml:"question"`
	Answers     []Answer `json:"answers" yaml:"answers"`
}

// ExtractionMetadata describes how a record was produced.
type ExtractionMetadata struct {
	// SourceFile is the input file the text came from, if known.
	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`

	// TextLength is the length of the raw input text in bytes.
	TextLength int `json:"text_length" yaml:"text_length"`

	// Paragraphs is the number of normalized paragraphs.
	Paragraphs int `json:"paragraphs" yaml:"paragraphs"`

	// ExtractedAt is when the engine produced the record.
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`

	// DerivedFields lists header fields taken from the filename rather than the text.
	DerivedFields []string `json:"derived_fields,omitempty" yaml:"derived_fields,omitempty"`
}

// ExtractionRecord is the structured result of extracting one transcript.
// It is created once per document and not modified after it is returned.
type ExtractionRecord struct {
	HeaderInfo `yaml:",inline"`

	ManagementTeam []ManagementMember `json:"management_team" yaml:"management_team"`
	Analysts       []AnalystEntry     `json:"analysts" yaml:"analysts"`
	QASegments     []QASegment        `json:"qa_segments" yaml:"qa_segments"`

	// Metrics maps canonical metric keys to unit-normalized values.
	Metrics map[MetricKey]string `json:"key_financial_metrics" yaml:"key_financial_metrics"`

	// MetricUnits maps canonical metric keys to the detected unit token.
	MetricUnits map[MetricKey]string `json:"metric_units,omitempty" yaml:"metric_units,omitempty"`

	Moderator string `json:"moderator,omitempty" yaml:"moderator,omitempty"`
	Filename  string `json:"filename,omitempty" yaml:"filename,omitempty"`

	// Profile names the company profile used for extraction.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	Metadata *ExtractionMetadata `json:"extraction_metadata,omitempty" yaml:"extraction_metadata,omitempty"`
}

// NewExtractionRecord returns a record with every collection initialised
// empty, so an unparseable document still serializes as [] and {} rather
// than null.
func NewExtractionRecord() *ExtractionRecord {
	return &ExtractionRecord{
		ManagementTeam: []ManagementMember{},
		Analysts:       []AnalystEntry{},
		QASegments:     []QASegment{},
		Metrics:        map[MetricKey]string{},
	}
}
