// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract assembles extraction records from transcript text and
// runs batch extraction over a directory of transcripts.
package extract

import (
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/earnings-extractor/internal/header"
	"github.com/pdiddy/earnings-extractor/internal/metrics"
	"github.com/pdiddy/earnings-extractor/internal/normalize"
	"github.com/pdiddy/earnings-extractor/internal/participants"
	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/internal/qa"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// ErrNoDefaultProfile is returned by NewEngine when the registry lacks a
// default profile to fall back on.
var ErrNoDefaultProfile = errors.New("registry has no default profile")

// Document is one normalized transcript and the profile resolved for it.
type Document struct {
	Paragraphs []string
	Profile    *profile.Profile
}

// Engine turns transcript text into extraction records. It is safe for
// concurrent use: the registry is sealed and every call is independent.
type Engine struct {
	registry *profile.Registry
	cfg      types.EngineConfig
	log      *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for debug output. The default discards logs.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the time source for extraction metadata.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine seals reg and returns an engine that resolves profiles from it.
func NewEngine(reg *profile.Registry, cfg types.EngineConfig, opts ...Option) (*Engine, error) {
	if reg.Default() == nil {
		return nil, ErrNoDefaultProfile
	}
	reg.Seal()
	e := &Engine{
		registry: reg,
		cfg:      cfg.Defaults(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Prepare normalizes text and resolves its profile.
func (e *Engine) Prepare(text, hint string) Document {
	paragraphs := normalize.Paragraphs(text)
	p := e.registry.Resolve(paragraphs, hint, e.cfg.ResolveDepth)
	return Document{Paragraphs: paragraphs, Profile: p}
}

// Extract builds the record for one transcript. hint optionally names the
// company. Extract never fails: unparseable input yields an empty record.
func (e *Engine) Extract(text, hint string) *types.ExtractionRecord {
	return e.ExtractSource(text, hint, "")
}

// ExtractSource is Extract for text read from sourceFile; the file name is
// recorded and, when filename fallback is enabled, fills missing header
// fields.
func (e *Engine) ExtractSource(text, hint, sourceFile string) *types.ExtractionRecord {
	doc := e.Prepare(text, hint)
	rec := e.Assemble(doc, sourceFile)
	rec.Metadata.TextLength = len(text)
	return rec
}

// Assemble composes header, rosters, Q&A segments and metrics for doc.
func (e *Engine) Assemble(doc Document, sourceFile string) *types.ExtractionRecord {
	rec := types.NewExtractionRecord()
	rec.Metadata = &types.ExtractionMetadata{
		SourceFile:  sourceFile,
		Paragraphs:  len(doc.Paragraphs),
		ExtractedAt: e.now().UTC(),
	}
	if sourceFile != "" {
		rec.Filename = filepath.Base(sourceFile)
	}
	if len(doc.Paragraphs) == 0 {
		return rec
	}

	p := doc.Profile
	rec.Profile = p.Name()

	rec.HeaderInfo = header.Parse(doc.Paragraphs, p, e.cfg.HeaderDepth)
	if e.cfg.FilenameFallback && sourceFile != "" {
		rec.Metadata.DerivedFields = header.FromFilename(sourceFile, &rec.HeaderInfo)
	}

	roster := participants.Extract(doc.Paragraphs, p, e.cfg.RosterBudget)
	for _, m := range roster.Management {
		rec.ManagementTeam = append(rec.ManagementTeam, types.ManagementMember{Name: m.Name, Title: m.Title})
	}
	for _, a := range roster.Analysts {
		rec.Analysts = append(rec.Analysts, types.AnalystEntry{Name: a.Name, Firm: a.Firm})
	}
	rec.Moderator = roster.Moderator

	tagged := qa.NewTagger(p, roster).Tag(doc.Paragraphs[roster.BodyStart:])
	rec.QASegments = qa.Segment(tagged)

	m := metrics.Extract(doc.Paragraphs, p)
	rec.Metrics = m.Values
	if len(m.Units) > 0 {
		rec.MetricUnits = m.Units
	}

	e.log.Debug("extracted record",
		zap.String("profile", p.Name()),
		zap.String("source", sourceFile),
		zap.Int("paragraphs", len(doc.Paragraphs)),
		zap.Int("management", len(rec.ManagementTeam)),
		zap.Int("analysts", len(rec.Analysts)),
		zap.Int("segments", len(rec.QASegments)),
		zap.Int("metrics", len(rec.Metrics)),
	)
	return rec
}
