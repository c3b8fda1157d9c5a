// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/earnings-extractor/internal/convert"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// BatchSummary holds counts from a batch extraction run. Flagged counts
// extracted documents that produced no Q&A segments; they are included in
// Extracted as well.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
	Flagged   int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Status is the outcome of processing one document.
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome describes one processed document.
type Outcome struct {
	Path    string
	OutPath string
	Status  Status
	Record  *types.ExtractionRecord
	Err     error
}

// Flagged reports whether an extracted record has no Q&A segments.
func (o Outcome) Flagged() bool {
	return o.Status == StatusExtracted && o.Record != nil && len(o.Record.QASegments) == 0
}

// ExtractAll extracts every .txt and .pdf transcript under cfg.InputDir and
// writes one record per document under cfg.OutputDir, mirroring the input
// tree. Documents whose record is newer than the input are skipped unless
// cfg.Force is set. A non-empty hint names the company for every document;
// otherwise each document's parent folder is used as the hint.
//
// Per-document failures are counted and reported on w; the returned error
// is reserved for failures that stop the whole run.
func ExtractAll(ctx context.Context, e *Engine, l *convert.Loader, cfg types.ExtractionConfig, hint string, w io.Writer) (BatchSummary, error) {
	paths, err := listTranscripts(cfg.InputDir)
	if err != nil {
		return BatchSummary{}, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	outcomes := make([]Outcome, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(workers(cfg))

	for i, p := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i] = Outcome{Path: p, Status: StatusFailed, Err: ctx.Err()}
				return nil
			}
			h := hint
			if h == "" {
				h = HintFor(cfg.InputDir, p)
			}
			outcomes[i] = ProcessFile(ctx, e, l, cfg, p, h)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchSummary{}, err
	}

	var summary BatchSummary
	for _, o := range outcomes {
		name := displayName(cfg.InputDir, o.Path)
		switch o.Status {
		case StatusSkipped:
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
		case StatusFailed:
			fmt.Fprintf(w, "failed  %s: %v\n", name, o.Err)
			summary.Failed++
		case StatusExtracted:
			fmt.Fprintf(w, "extracted %s (%d segments, %d metrics)\n",
				name, len(o.Record.QASegments), len(o.Record.Metrics))
			summary.Extracted++
			if o.Flagged() {
				fmt.Fprintf(w, "flagged %s: no Q&A segments found\n", name)
				summary.Flagged++
			}
		}
	}
	return summary, ctx.Err()
}

// ProcessFile extracts one transcript and writes its record under
// cfg.OutputDir. Paths outside cfg.InputDir are written to the top of
// cfg.OutputDir.
func ProcessFile(ctx context.Context, e *Engine, l *convert.Loader, cfg types.ExtractionConfig, path, hint string) Outcome {
	out := Outcome{Path: path, OutPath: OutputPath(cfg, path)}

	if !cfg.Force {
		changed, err := hasChanged(path, out.OutPath)
		if err != nil {
			out.Status, out.Err = StatusFailed, err
			return out
		}
		if !changed {
			out.Status = StatusSkipped
			return out
		}
	}

	rec, err := ExtractFile(ctx, e, l, path, hint, cfg.DocTimeout)
	if err != nil {
		e.log.Warn("extraction failed", zap.String("path", path), zap.Error(err))
		out.Status, out.Err = StatusFailed, err
		return out
	}
	if err := os.MkdirAll(filepath.Dir(out.OutPath), 0o755); err != nil {
		out.Status, out.Err = StatusFailed, fmt.Errorf("creating output directory: %w", err)
		return out
	}
	if err := WriteRecord(out.OutPath, rec); err != nil {
		out.Status, out.Err = StatusFailed, fmt.Errorf("write error: %w", err)
		return out
	}

	out.Status, out.Record = StatusExtracted, rec
	if out.Flagged() {
		e.log.Warn("no Q&A segments found", zap.String("path", path), zap.String("profile", rec.Profile))
	}
	return out
}

// ExtractFile loads and extracts one transcript. A positive timeout bounds
// loading and extraction together.
func ExtractFile(ctx context.Context, e *Engine, l *convert.Loader, path, hint string, timeout time.Duration) (*types.ExtractionRecord, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	done := make(chan *types.ExtractionRecord, 1)
	go func() {
		done <- e.ExtractSource(text, hint, path)
	}()
	select {
	case rec := <-done:
		return rec, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("extracting %s: %w", path, ctx.Err())
	}
}

// OutputPath returns where the record for path is written.
func OutputPath(cfg types.ExtractionConfig, path string) string {
	ext := ".json"
	if cfg.Format == types.OutputYAML {
		ext = ".yaml"
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := cfg.OutputDir
	if rel, ok := relDir(cfg.InputDir, path); ok && rel != "." {
		dir = filepath.Join(dir, rel)
	}
	return filepath.Join(dir, base+ext)
}

// HintFor returns the company hint implied by path's location: the name of
// its parent folder when that folder is below inputDir, otherwise "".
func HintFor(inputDir, path string) string {
	rel, ok := relDir(inputDir, path)
	if !ok || rel == "." {
		return ""
	}
	return filepath.Base(rel)
}

// WriteRecord writes rec as indented JSON, or YAML when path ends in
// .yaml or .yml.
func WriteRecord(path string, rec *types.ExtractionRecord) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(rec)
	default:
		data, err = json.MarshalIndent(rec, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRecord reads a record written by WriteRecord.
func ReadRecord(path string) (*types.ExtractionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", path, err)
	}
	rec := types.NewExtractionRecord()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, rec)
	default:
		err = json.Unmarshal(data, rec)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", path, err)
	}
	return rec, nil
}

func listTranscripts(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if convert.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}
	return paths, nil
}

func relDir(inputDir, path string) (string, bool) {
	if inputDir == "" {
		return "", false
	}
	rel, err := filepath.Rel(inputDir, filepath.Dir(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func displayName(inputDir, path string) string {
	if rel, err := filepath.Rel(inputDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(path)
}

func workers(cfg types.ExtractionConfig) int {
	if cfg.Workers <= 0 {
		return 1
	}
	return cfg.Workers
}

// hasChanged reports whether the input file is newer than the output file,
// or the output file does not exist.
func hasChanged(inPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false, fmt.Errorf("stat input %s: %w", inPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}
