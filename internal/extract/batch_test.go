// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/earnings-extractor/internal/convert"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// blockingConverter waits for cancellation.
type blockingConverter struct{}

func (blockingConverter) Convert(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupInput(t *testing.T) (inDir, outDir string) {
	t.Helper()
	root := t.TempDir()
	inDir = filepath.Join(root, "transcripts")
	outDir = filepath.Join(root, "records")

	writeFile(t, filepath.Join(inDir, "cipla", "cipla_q1_fy26.txt"), ciplaTranscript)
	writeFile(t, filepath.Join(inDir, "acme.txt"), "ACME WIDGETS LIMITED Q2 FY25 Earnings Call\n\nModerator: Welcome.")
	writeFile(t, filepath.Join(inDir, "broken.pdf"), "not a pdf")
	writeFile(t, filepath.Join(inDir, "notes.docx"), "ignored")
	writeFile(t, filepath.Join(inDir, ".cache", "old.txt"), "ignored")
	return inDir, outDir
}

func TestExtractAll(t *testing.T) {
	inDir, outDir := setupInput(t)
	e := newEngine(t, types.EngineConfig{})
	loader := convert.NewLoader(convert.NativeConverter{})
	cfg := types.ExtractionConfig{InputDir: inDir, OutputDir: outDir, Workers: 2}

	var log bytes.Buffer
	summary, err := ExtractAll(context.Background(), e, loader, cfg, "", &log)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Extracted: 2, Failed: 1, Flagged: 1}, summary)
	assert.True(t, summary.HasFailures())
	assert.Equal(t, 3, summary.Total())
	assert.Contains(t, log.String(), "extracted cipla/cipla_q1_fy26.txt (1 segments")
	assert.Contains(t, log.String(), "flagged acme.txt")
	assert.Contains(t, log.String(), "failed  broken.pdf")

	rec, err := ReadRecord(filepath.Join(outDir, "cipla", "cipla_q1_fy26.json"))
	require.NoError(t, err)
	assert.Equal(t, str("CIPLA"), rec.Company)
	assert.Len(t, rec.QASegments, 1)
	assert.FileExists(t, filepath.Join(outDir, "acme.json"))
	assert.NoFileExists(t, filepath.Join(outDir, "notes.json"))
	assert.NoDirExists(t, filepath.Join(outDir, ".cache"))

	// Outputs are now newer than inputs.
	log.Reset()
	summary, err = ExtractAll(context.Background(), e, loader, cfg, "", &log)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Skipped: 2, Failed: 1}, summary)

	cfg.Force = true
	summary, err = ExtractAll(context.Background(), e, loader, cfg, "", &log)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Extracted)
}

func TestExtractAll_MissingInput(t *testing.T) {
	e := newEngine(t, types.EngineConfig{})
	cfg := types.ExtractionConfig{InputDir: filepath.Join(t.TempDir(), "nope"), OutputDir: t.TempDir()}

	_, err := ExtractAll(context.Background(), e, convert.NewLoader(convert.NativeConverter{}), cfg, "", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestProcessFile_YAML(t *testing.T) {
	inDir, outDir := setupInput(t)
	e := newEngine(t, types.EngineConfig{})
	cfg := types.ExtractionConfig{InputDir: inDir, OutputDir: outDir, Format: types.OutputYAML}
	path := filepath.Join(inDir, "cipla", "cipla_q1_fy26.txt")

	o := ProcessFile(context.Background(), e, convert.NewLoader(convert.NativeConverter{}), cfg, path, "cipla")
	require.NoError(t, o.Err)
	assert.Equal(t, StatusExtracted, o.Status)
	assert.Equal(t, filepath.Join(outDir, "cipla", "cipla_q1_fy26.yaml"), o.OutPath)

	data, err := os.ReadFile(o.OutPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "company: CIPLA\n")
	assert.Contains(t, string(data), "key_financial_metrics:")

	rec, err := ReadRecord(o.OutPath)
	require.NoError(t, err)
	assert.Equal(t, o.Record.QASegments, rec.QASegments)
}

func TestExtractFile_Timeout(t *testing.T) {
	e := newEngine(t, types.EngineConfig{})
	path := filepath.Join(t.TempDir(), "slow.pdf")
	writeFile(t, path, "pdf")

	_, err := ExtractFile(context.Background(), e, convert.NewLoader(blockingConverter{}), path, "", 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHintFor(t *testing.T) {
	in := filepath.Join("data", "transcripts")
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(in, "lupin", "q1.pdf"), "lupin"},
		{filepath.Join(in, "2025", "cipla", "q1.pdf"), "cipla"},
		{filepath.Join(in, "q1.pdf"), ""},
		{filepath.Join("elsewhere", "lupin", "q1.pdf"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, HintFor(in, tt.path))
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg := types.ExtractionConfig{InputDir: "in", OutputDir: "out"}
	assert.Equal(t, filepath.Join("out", "lupin", "q1.json"), OutputPath(cfg, filepath.Join("in", "lupin", "q1.pdf")))
	assert.Equal(t, filepath.Join("out", "q1.json"), OutputPath(cfg, filepath.Join("tmp", "q1.txt")))

	cfg.Format = types.OutputYAML
	assert.True(t, strings.HasSuffix(OutputPath(cfg, "in/q1.txt"), "q1.yaml"))
}
