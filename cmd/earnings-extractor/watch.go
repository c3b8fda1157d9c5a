// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/earnings-extractor/internal/extract"
	"github.com/pdiddy/earnings-extractor/internal/records"
	"github.com/pdiddy/earnings-extractor/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-extract transcripts as they change",
	Long: `Watch monitors input_dir for new or modified transcripts and extracts
each one after its writes settle. Removing a transcript removes its record.
With --sync, existing transcripts are processed once at startup; with
--index, records are also kept in the record store.`,
	RunE: runWatch,
}

var watchFlags = map[string]string{
	"extraction.input_dir":    "input-dir",
	"extraction.output_dir":   "output-dir",
	"extraction.profiles_dir": "profiles-dir",
	"extraction.format":       "format",
	"extraction.doc_timeout":  "timeout",
	"conversion.backend":      "backend",
	"store.db_path":           "db",
	"watch.debounce":          "debounce",
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, watchFlags)
	if err != nil {
		return err
	}
	company, _ := cmd.Flags().GetString("company")
	sync, _ := cmd.Flags().GetBool("sync")
	index, _ := cmd.Flags().GetBool("index")
	exts, _ := cmd.Flags().GetStringSlice("ext")

	engine, loader, err := newEngine(cfg)
	if err != nil {
		return err
	}

	var store *records.Store
	if index {
		store, err = openStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Changes are always re-extracted; the record's mtime check would skip
	// a transcript rewritten within the same second.
	ecfg := cfg.Extraction
	ecfg.Force = true
	log := logger.Named("watch")

	onChange := func(path string) {
		hint := company
		if hint == "" {
			hint = extract.HintFor(ecfg.InputDir, path)
		}
		o := extract.ProcessFile(ctx, engine, loader, ecfg, path, hint)
		if o.Status != extract.StatusExtracted {
			if o.Err != nil {
				fmt.Printf("failed  %s: %v\n", path, o.Err)
			}
			return
		}
		fmt.Printf("extracted %s -> %s (%d segments)\n", path, o.OutPath, len(o.Record.QASegments))
		if store == nil {
			return
		}
		if err := store.Put(ctx, records.RecordID(ecfg.OutputDir, o.OutPath), o.Record); err != nil {
			log.Warn("indexing record failed", zap.String("path", o.OutPath), zap.Error(err))
		}
	}

	onRemove := func(path string) {
		out := extract.OutputPath(ecfg, path)
		if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("removing record failed", zap.String("path", out), zap.Error(err))
			return
		}
		fmt.Printf("removed %s\n", out)
		if store == nil {
			return
		}
		err := store.Delete(ctx, records.RecordID(ecfg.OutputDir, out))
		if err != nil && !errors.Is(err, records.ErrNotFound) {
			log.Warn("unindexing record failed", zap.String("path", out), zap.Error(err))
		}
	}

	w := watch.New(ecfg.InputDir, onChange, onRemove,
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithExtensions(exts...),
		watch.WithLogger(log),
	)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	if sync {
		w.Sync()
	}

	fmt.Printf("watching %s (ctrl-c to stop)\n", ecfg.InputDir)
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}

func init() {
	watchCmd.Flags().String("company", "", "company name or alias to use as the profile hint")
	watchCmd.Flags().String("input-dir", "transcripts", "directory to watch")
	watchCmd.Flags().String("output-dir", "records/extracted", "directory for record files")
	watchCmd.Flags().String("profiles-dir", "", "directory of additional company profile YAML files")
	watchCmd.Flags().String("format", "json", "record format: json or yaml")
	watchCmd.Flags().Duration("timeout", 0, "per-transcript timeout (0 = config default)")
	watchCmd.Flags().String("backend", "native", "PDF backend: native or pdftotext")
	watchCmd.Flags().String("db", "records/index/records.db", "record store database file")
	watchCmd.Flags().Duration("debounce", 0, "delay before re-extracting a changed file (0 = config default)")
	watchCmd.Flags().StringSlice("ext", watch.DefaultExtensions, "transcript file extensions to watch")
	watchCmd.Flags().Bool("sync", false, "extract existing transcripts at startup")
	watchCmd.Flags().Bool("index", false, "keep records in the record store")

	rootCmd.AddCommand(watchCmd)
}
