// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns transcript PDFs into plain text with pluggable
// backends, and loads transcript text from .txt or .pdf files.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// ErrUnsupported is returned for files that are neither text nor PDF.
var ErrUnsupported = errors.New("unsupported file type")

// textDir is the subdirectory of the output base that receives converted text.
const textDir = "text"

// Converter transforms a PDF file into plain text. Pages are separated by
// form feeds so that page furniture can be recognised downstream.
type Converter interface {
	// Convert reads the PDF at pdfPath and returns its text.
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// New returns the converter selected by cfg.Backend.
func New(cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case "", types.BackendNative:
		return NativeConverter{}, nil
	case types.BackendPdftotext:
		return NewPdftotextConverter(cfg.PdftotextPath)
	}
	return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
}

// Supported reports whether path has a transcript extension (.txt or .pdf).
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// Loader reads transcript text, converting PDFs on the way.
type Loader struct {
	pdf Converter
}

// NewLoader returns a loader that converts PDFs with c.
func NewLoader(c Converter) *Loader {
	return &Loader{pdf: c}
}

// Load returns the text of a .txt or .pdf transcript.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	case ".pdf":
		text, err := l.pdf.Convert(ctx, path)
		if err != nil {
			return "", err
		}
		return text, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupported)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any files failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Status is the outcome of converting one file.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// ConvertFile converts one PDF to outBase/text/<name>.txt. An existing
// output is left alone unless force is set.
func ConvertFile(ctx context.Context, c Converter, pdfPath, outBase string, force bool, w io.Writer) Status {
	outDir := filepath.Join(outBase, textDir)
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	txtPath := filepath.Join(outDir, base+".txt")

	if !force {
		if _, err := os.Stat(txtPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
			return StatusSkipped
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	text, err := c.Convert(ctx, pdfPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	fmt.Fprintf(w, "converted: %s\n", base)
	return StatusConverted
}

// ConvertPaths converts each PDF, printing per-file status to w and a
// summary line at the end.
func ConvertPaths(ctx context.Context, c Converter, pdfPaths []string, outBase string, force bool, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range pdfPaths {
		switch ConvertFile(ctx, c, p, outBase, force, w) {
		case StatusConverted:
			result.Converted++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
