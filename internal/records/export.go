// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// ExportEntry is a stored record with its store ID.
type ExportEntry struct {
	ID                     string `json:"id" yaml:"id"`
	types.ExtractionRecord `yaml:",inline"`
}

const exportLimit = 100000

const (
	sheetRecords = "Records"
	sheetQA      = "Q&A"
)

// Export writes the records matching opts to path. The format follows the
// extension: .json, .yaml/.yml or .xlsx.
func (s *Store) Export(ctx context.Context, opts QueryOptions, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return s.ExportJSON(ctx, opts, path)
	case ".yaml", ".yml":
		return s.ExportYAML(ctx, opts, path)
	case ".xlsx":
		return s.ExportXLSX(ctx, opts, path)
	}
	return fmt.Errorf("unsupported export format %q", filepath.Ext(path))
}

// ExportJSON writes matching records to path as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions, path string) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(path, data)
}

// ExportYAML writes matching records to path as a YAML sequence.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions, path string) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(path, data)
}

// ExportXLSX writes matching records to an Excel workbook with one row per
// call on the Records sheet (a column per metric key) and one row per
// answer on the Q&A sheet.
func (s *Store) ExportXLSX(ctx context.Context, opts QueryOptions, path string) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetRecords); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetQA); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	keys := types.MetricKeys()
	recHeaders := []any{"ID", "Company", "Report Date", "Quarter", "Fiscal Year", "Profile", "Q&A Segments"}
	for _, k := range keys {
		recHeaders = append(recHeaders, string(k))
	}
	if err := setRow(f, sheetRecords, 1, recHeaders); err != nil {
		return err
	}
	qaHeaders := []any{"ID", "Company", "Quarter", "Fiscal Year", "Segment", "Analyst", "Firm", "Question", "Speaker", "Response"}
	if err := setRow(f, sheetQA, 1, qaHeaders); err != nil {
		return err
	}

	qaRow := 2
	for i, e := range entries {
		row := []any{e.ID, deref(e.Company), deref(e.ReportDate), deref(e.Quarter), deref(e.FiscalYear), e.Profile, len(e.QASegments)}
		for _, k := range keys {
			row = append(row, e.Metrics[k])
		}
		if err := setRow(f, sheetRecords, i+2, row); err != nil {
			return err
		}

		for n, seg := range e.QASegments {
			for _, a := range seg.Answers {
				if err := setRow(f, sheetQA, qaRow, []any{
					e.ID, deref(e.Company), deref(e.Quarter), deref(e.FiscalYear), n + 1,
					seg.AnalystName, seg.AnalystFirm, seg.Question, a.Speaker, a.Response,
				}); err != nil {
					return err
				}
				qaRow++
			}
		}
	}

	_ = f.SetColWidth(sheetRecords, "A", "A", 28)
	_ = f.SetColWidth(sheetRecords, "B", "C", 18)
	_ = f.SetColWidth(sheetQA, "A", "B", 18)
	_ = f.SetColWidth(sheetQA, "F", "G", 22)
	_ = f.SetColWidth(sheetQA, "H", "H", 60)
	_ = f.SetColWidth(sheetQA, "J", "J", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return writeExport(path, buf.Bytes())
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	summaries, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, 0, len(summaries))
	for _, sum := range summaries {
		rec, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ExportEntry{ID: sum.ID, ExtractionRecord: *rec})
	}
	return entries, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	return nil
}

func writeExport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
