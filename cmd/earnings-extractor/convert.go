// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/earnings-extractor/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert transcript PDFs to plain text",
	Long: `Convert extracts the text layer of transcript PDFs and writes one .txt
file per PDF to <out-dir>/text/. Pages are separated by form feeds so that
running headers and page numbers can be removed during extraction.

Backends: native (pure Go, default) or pdftotext (poppler, must be on PATH).
With --batch, every PDF under input_dir is converted.`,
	RunE: runConvert,
}

var convertFlags = map[string]string{
	"extraction.input_dir":      "input-dir",
	"conversion.backend":        "backend",
	"conversion.pdftotext_path": "pdftotext",
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, convertFlags)
	if err != nil {
		return err
	}
	batch, _ := cmd.Flags().GetBool("batch")
	outDir, _ := cmd.Flags().GetString("out-dir")
	force, _ := cmd.Flags().GetBool("force")

	paths := args
	if batch {
		paths, err = findPDFs(cfg.Extraction.InputDir)
		if err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDFs given: name files or use --batch")
	}

	conv, err := convert.New(cfg.Conversion)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := convert.ConvertPaths(ctx, conv, paths, outDir, force, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}

func findPDFs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}
	return paths, nil
}

func init() {
	convertCmd.Flags().String("backend", "native", "conversion backend: native or pdftotext")
	convertCmd.Flags().String("pdftotext", "", "path to the pdftotext binary")
	convertCmd.Flags().String("input-dir", "transcripts", "directory scanned by --batch")
	convertCmd.Flags().String("out-dir", "converted", "base directory for converted text (writes text/)")
	convertCmd.Flags().Bool("batch", false, "convert every PDF under input-dir")
	convertCmd.Flags().Bool("force", false, "overwrite existing text files")

	rootCmd.AddCommand(convertCmd)
}
