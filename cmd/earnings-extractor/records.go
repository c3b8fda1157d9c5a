// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/earnings-extractor/internal/records"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage the record store (store, search, list, export)",
	Long: `Records manages a local SQLite store built from extracted records.
Use subcommands to index record files, search Q&A exchanges, list calls,
or export the store to JSON, YAML or Excel.`,
}

var recordsFlags = map[string]string{
	"store.db_path":         "db",
	"store.max_results":     "max-results",
	"extraction.output_dir": "dir",
}

// --- store subcommand ---

var recordsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Index record files into the record store",
	Long: `Store reads the JSON and YAML record files under output_dir (or --dir)
and indexes their calls, Q&A segments and metrics. Unchanged files are
skipped on subsequent runs. Each run is logged with a unique run ID.`,
	RunE: runRecordsStore,
}

func runRecordsStore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, recordsFlags)
	if err != nil {
		return err
	}
	return indexRecords(context.Background(), cfg, os.Stdout)
}

// indexRecords ingests cfg.Extraction.OutputDir into the record store.
func indexRecords(ctx context.Context, cfg types.PipelineConfig, w io.Writer) error {
	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(ctx, cfg.Extraction.OutputDir, w)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var recordsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search Q&A exchanges",
	Long: `Search finds Q&A segments whose question or answers match the query
(FTS5 syntax when the binary is built with sqlite_fts5, substring match
otherwise), optionally filtered by company, quarter, fiscal year or analyst.`,
	RunE: runRecordsSearch,
}

func runRecordsSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, recordsFlags)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --company, --quarter, --fiscal-year or --analyst")
	}

	if !store.FullText() {
		logger.Debug("FTS5 unavailable, using substring match")
	}
	results, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(os.Stdout, results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []records.SegmentResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(w, "%d. %s %s FY%s  %s", i+1, r.Company, r.Quarter, r.FiscalYear, r.AnalystName)
		if r.AnalystFirm != "" {
			fmt.Fprintf(w, " (%s)", r.AnalystFirm)
		}
		fmt.Fprintf(w, "\n   Q: %s\n", truncate(r.Question, 160))
		for _, a := range r.Answers {
			fmt.Fprintf(w, "   A [%s]: %s\n", a.Speaker, truncate(a.Response, 160))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d results\n", len(results))
	return nil
}

// --- list subcommand ---

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored calls",
	RunE:  runRecordsList,
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, recordsFlags)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(context.Background(), queryOptsFromFlags(cmd, nil))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tQUARTER\tFY\tDATE\tSEGMENTS\tMETRICS")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.Company, r.Quarter, r.FiscalYear, r.ReportDate, r.Segments, len(r.Metrics))
	}
	return tw.Flush()
}

// --- export subcommand ---

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to JSON, YAML or Excel",
	Long: `Export writes the stored records (or a filtered subset) to --out. The
format follows the file extension: .json, .yaml or .xlsx. Excel exports
hold one row per call on the Records sheet and one row per answer on the
Q&A sheet.`,
	RunE: runRecordsExport,
}

func runRecordsExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	cfg, err := loadConfig(cmd, recordsFlags)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Export(context.Background(), queryOptsFromFlags(cmd, args), out); err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", out)
	return nil
}

// --- runs subcommand ---

var recordsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent indexing runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, recordsFlags)
		if err != nil {
			return err
		}
		store, err := openStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(context.Background(), 0)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSTARTED\tINDEXED\tUPDATED\tSKIPPED\tFAILED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", r.ID, r.StartedAt.Local().Format(time.DateTime),
				r.Summary.Indexed, r.Summary.Updated, r.Summary.Skipped, r.Summary.Failed)
		}
		return tw.Flush()
	},
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) records.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	company, _ := cmd.Flags().GetString("company")
	quarter, _ := cmd.Flags().GetString("quarter")
	fiscalYear, _ := cmd.Flags().GetString("fiscal-year")
	analyst, _ := cmd.Flags().GetString("analyst")
	limit, _ := cmd.Flags().GetInt("limit")

	return records.QueryOptions{
		Query:      queryText,
		Company:    company,
		Quarter:    quarter,
		FiscalYear: fiscalYear,
		Analyst:    analyst,
		MaxResults: limit,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "text to match in questions and answers")
	cmd.Flags().String("company", "", "filter by company")
	cmd.Flags().String("quarter", "", "filter by quarter, e.g. Q1")
	cmd.Flags().String("fiscal-year", "", "filter by fiscal year, e.g. 2026")
	cmd.Flags().String("analyst", "", "filter by analyst name")
	cmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	recordsCmd.PersistentFlags().String("db", "records/index/records.db", "record store database file")
	recordsCmd.PersistentFlags().String("dir", "records/extracted", "directory of record files")
	recordsCmd.PersistentFlags().Int("max-results", 20, "default maximum number of results")

	addFilterFlags(recordsSearchCmd)
	recordsSearchCmd.Flags().Bool("json", false, "output results as JSON")

	addFilterFlags(recordsListCmd)

	addFilterFlags(recordsExportCmd)
	recordsExportCmd.Flags().String("out", "records/index/export.json", "export file (.json, .yaml or .xlsx)")

	recordsCmd.AddCommand(recordsStoreCmd)
	recordsCmd.AddCommand(recordsSearchCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	recordsCmd.AddCommand(recordsRunsCmd)

	rootCmd.AddCommand(recordsCmd)
}
