// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

const binPdftotext = "pdftotext"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return err
	}
	return nil
}

// PdftotextConverter shells out to poppler's pdftotext.
type PdftotextConverter struct {
	bin  string
	exec executor
}

// NewPdftotextConverter verifies that the pdftotext binary (bin, or
// "pdftotext" on PATH when empty) is available.
func NewPdftotextConverter(bin string) (*PdftotextConverter, error) {
	return newPdftotextConverter(bin, osExecutor{})
}

func newPdftotextConverter(bin string, ex executor) (*PdftotextConverter, error) {
	if bin == "" {
		bin = binPdftotext
	}
	path, err := ex.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}
	return &PdftotextConverter{bin: path, exec: ex}, nil
}

// Convert runs pdftotext and returns its output. pdftotext already
// separates pages with form feeds.
func (p *PdftotextConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	var out bytes.Buffer
	args := []string{"-enc", "UTF-8", pdfPath, "-"}
	if err := p.exec.RunPiped(ctx, p.bin, args, nil, &out); err != nil {
		return "", fmt.Errorf("converting %s with pdftotext: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}
	return out.String(), nil
}
