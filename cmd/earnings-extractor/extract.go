// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/earnings-extractor/internal/convert"
	"github.com/pdiddy/earnings-extractor/internal/extract"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract structured records from transcripts",
	Long: `Extract reads earnings-call transcripts (.txt or .pdf) and writes one
structured record per transcript to output_dir, as JSON or YAML.

With --batch, every transcript under input_dir is processed; the name of
each file's parent folder is used as the company hint unless --company is
given. Records newer than their transcript are skipped unless --force.
With --stdout, records for the named files are printed instead of written.`,
	RunE: runExtract,
}

var extractFlags = map[string]string{
	"extraction.input_dir":                "input-dir",
	"extraction.output_dir":               "output-dir",
	"extraction.profiles_dir":             "profiles-dir",
	"extraction.format":                   "format",
	"extraction.workers":                  "workers",
	"extraction.force":                    "force",
	"extraction.doc_timeout":              "timeout",
	"extraction.engine.filename_fallback": "filename-fallback",
	"conversion.backend":                  "backend",
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, extractFlags)
	if err != nil {
		return err
	}
	batch, _ := cmd.Flags().GetBool("batch")
	company, _ := cmd.Flags().GetString("company")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	index, _ := cmd.Flags().GetBool("index")

	if !batch && len(args) == 0 {
		return fmt.Errorf("no transcripts given: name files or use --batch")
	}

	engine, loader, err := newEngine(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if toStdout {
		for _, path := range args {
			rec, err := extract.ExtractFile(ctx, engine, loader, path, company, cfg.Extraction.DocTimeout)
			if err != nil {
				return err
			}
			if err := printRecord(rec, cfg.Extraction.Format); err != nil {
				return err
			}
		}
		return nil
	}

	var summary extract.BatchSummary
	if batch {
		summary, err = extract.ExtractAll(ctx, engine, loader, cfg.Extraction, company, os.Stdout)
		if err != nil {
			return err
		}
	} else {
		summary = extractFiles(ctx, engine, loader, cfg.Extraction, company, args)
	}

	fmt.Printf("\nextracted: %d, skipped: %d, failed: %d, flagged: %d (total: %d)\n",
		summary.Extracted, summary.Skipped, summary.Failed, summary.Flagged, summary.Total())

	if index && summary.Extracted > 0 {
		if err := indexRecords(ctx, cfg, os.Stdout); err != nil {
			return err
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d transcript(s) failed extraction", summary.Failed)
	}
	return nil
}

func extractFiles(ctx context.Context, engine *extract.Engine, loader *convert.Loader, cfg types.ExtractionConfig, company string, paths []string) extract.BatchSummary {
	var summary extract.BatchSummary
	for _, path := range paths {
		hint := company
		if hint == "" {
			hint = extract.HintFor(cfg.InputDir, path)
		}
		o := extract.ProcessFile(ctx, engine, loader, cfg, path, hint)
		switch o.Status {
		case extract.StatusSkipped:
			fmt.Printf("skipped %s\n", path)
			summary.Skipped++
		case extract.StatusFailed:
			fmt.Printf("failed  %s: %v\n", path, o.Err)
			summary.Failed++
		case extract.StatusExtracted:
			fmt.Printf("extracted %s -> %s (%d segments)\n", path, o.OutPath, len(o.Record.QASegments))
			summary.Extracted++
			if o.Flagged() {
				logger.Warn("no Q&A segments found", zap.String("path", path))
				summary.Flagged++
			}
		}
	}
	return summary
}

func printRecord(rec *types.ExtractionRecord, format types.OutputFormat) error {
	if format == types.OutputYAML {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(rec)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func init() {
	extractCmd.Flags().Bool("batch", false, "process every transcript under input-dir")
	extractCmd.Flags().String("company", "", "company name or alias to use as the profile hint")
	extractCmd.Flags().String("input-dir", "transcripts", "directory scanned by --batch")
	extractCmd.Flags().String("output-dir", "records/extracted", "directory for record files")
	extractCmd.Flags().String("profiles-dir", "", "directory of additional company profile YAML files")
	extractCmd.Flags().String("format", "json", "record format: json or yaml")
	extractCmd.Flags().Int("workers", 4, "concurrent extractions in batch mode")
	extractCmd.Flags().Duration("timeout", 0, "per-transcript timeout (0 = config default)")
	extractCmd.Flags().Bool("force", false, "re-extract even when the record is up to date")
	extractCmd.Flags().Bool("filename-fallback", false, "fill missing date, quarter and fiscal year from file names")
	extractCmd.Flags().String("backend", "native", "PDF backend: native or pdftotext")
	extractCmd.Flags().Bool("stdout", false, "print records to stdout instead of writing files")
	extractCmd.Flags().Bool("index", false, "index written records into the record store")

	rootCmd.AddCommand(extractCmd)
}
