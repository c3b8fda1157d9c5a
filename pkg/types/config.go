// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EngineConfig tunes the extraction engine. Zero values select defaults.
type EngineConfig struct {
	// HeaderDepth is how many leading paragraphs the header parser scans (default 30).
	HeaderDepth int `json:"header_depth" yaml:"header_depth" mapstructure:"header_depth"`

	// ResolveDepth is how many leading paragraphs profile resolution scans
	// for a company name when no hint matches (default 30).
	ResolveDepth int `json:"resolve_depth" yaml:"resolve_depth" mapstructure:"resolve_depth"`

	// RosterBudget caps how many paragraphs a roster section may span (default 12).
	RosterBudget int `json:"roster_budget" yaml:"roster_budget" mapstructure:"roster_budget"`

	// FilenameFallback derives missing date, quarter and fiscal year from
	// the source filename. Off by default: derived values are not in the text.
	FilenameFallback bool `json:"filename_fallback" yaml:"filename_fallback" mapstructure:"filename_fallback"`
}

// OutputFormat selects the record serialization written by batch extraction.
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	Engine EngineConfig `json:"engine" yaml:"engine" mapstructure:"engine"`

	// InputDir is scanned recursively for .txt and .pdf transcripts.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives one record file per transcript.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// ProfilesDir holds additional company profile YAML files.
	ProfilesDir string `json:"profiles_dir,omitempty" yaml:"profiles_dir,omitempty" mapstructure:"profiles_dir"`

	// Format is the record output format: json or yaml.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`

	// Workers bounds concurrent document extractions (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// DocTimeout bounds conversion plus extraction of one document (default 2m).
	DocTimeout time.Duration `json:"doc_timeout" yaml:"doc_timeout" mapstructure:"doc_timeout"`

	// Force re-extracts documents whose output is newer than the input.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`
}

// ConversionBackend identifies the PDF-to-text tool.
type ConversionBackend string

const (
	BackendNative    ConversionBackend = "native"
	BackendPdftotext ConversionBackend = "pdftotext"
)

// ConversionConfig holds settings for PDF-to-text conversion.
type ConversionConfig struct {
	// Backend selects the converter: native (pure Go) or pdftotext (poppler).
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// PdftotextPath overrides the pdftotext binary location.
	PdftotextPath string `json:"pdftotext_path,omitempty" yaml:"pdftotext_path,omitempty" mapstructure:"pdftotext_path"`
}

// StoreConfig holds settings for the record store.
type StoreConfig struct {
	// DBPath is the SQLite database file (default records/index/records.db).
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// WatchConfig holds settings for directory watching.
type WatchConfig struct {
	// Debounce delays re-extraction until writes to a file settle (default 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Debug      bool             `json:"debug" yaml:"debug" mapstructure:"debug"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Watch      WatchConfig      `json:"watch" yaml:"watch" mapstructure:"watch"`
}

// Defaults fills zero values with the documented defaults.
func (e EngineConfig) Defaults() EngineConfig {
	if e.HeaderDepth <= 0 {
		e.HeaderDepth = 30
	}
	if e.ResolveDepth <= 0 {
		e.ResolveDepth = 30
	}
	if e.RosterBudget <= 0 {
		e.RosterBudget = 12
	}
	return e
}

// Defaults fills zero values with the documented defaults.
func (c PipelineConfig) Defaults() PipelineConfig {
	c.Extraction.Engine = c.Extraction.Engine.Defaults()
	if c.Extraction.InputDir == "" {
		c.Extraction.InputDir = "transcripts"
	}
	if c.Extraction.OutputDir == "" {
		c.Extraction.OutputDir = "records/extracted"
	}
	if c.Extraction.Format == "" {
		c.Extraction.Format = OutputJSON
	}
	if c.Extraction.Workers <= 0 {
		c.Extraction.Workers = 4
	}
	if c.Extraction.DocTimeout <= 0 {
		c.Extraction.DocTimeout = 2 * time.Minute
	}
	if c.Conversion.Backend == "" {
		c.Conversion.Backend = BackendNative
	}
	if c.Store.DBPath == "" {
		c.Store.DBPath = "records/index/records.db"
	}
	if c.Store.MaxResults <= 0 {
		c.Store.MaxResults = 20
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	return c
}
