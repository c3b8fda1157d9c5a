// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records persists extraction records in SQLite and answers
// full-text queries over their Q&A segments.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/earnings-extractor/internal/extract"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// ErrNotFound is returned when a record ID is not in the store.
var ErrNotFound = errors.New("record not found")

// Store manages the record database.
type Store struct {
	db         *sql.DB
	maxResults int
	fts        bool
	log        *zap.Logger
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for store diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens or creates the database at cfg.DBPath and ensures the schema
// exists. Full-text search uses FTS5 when the SQLite build provides it
// (build tag sqlite_fts5) and falls back to LIKE matching otherwise.
func Open(cfg types.StoreConfig, opts ...Option) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("store: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		maxResults: maxResults,
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FullText reports whether searches use the FTS5 index.
func (s *Store) FullText() bool {
	return s.fts
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			company TEXT,
			report_date TEXT,
			quarter TEXT,
			fiscal_year TEXT,
			profile TEXT,
			moderator TEXT,
			source_file TEXT,
			body TEXT NOT NULL,
			file_mod_time TEXT,
			run_id TEXT,
			indexed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_company ON records(company)`,
		`CREATE TABLE IF NOT EXISTS segments (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			analyst_name TEXT NOT NULL,
			analyst_firm TEXT,
			question TEXT NOT NULL,
			answers TEXT NOT NULL,
			answer_text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_record ON segments(record_id)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			unit TEXT,
			PRIMARY KEY (record_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			indexed INTEGER DEFAULT 0,
			updated INTEGER DEFAULT 0,
			skipped INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='segments_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE segments_fts USING fts5(question, answer_text, content=segments, content_rowid=rowid)`,
		`CREATE TRIGGER segments_ai AFTER INSERT ON segments BEGIN
			INSERT INTO segments_fts(rowid, question, answer_text) VALUES (new.rowid, new.question, new.answer_text);
		END`,
		`CREATE TRIGGER segments_ad AFTER DELETE ON segments BEGIN
			INSERT INTO segments_fts(segments_fts, rowid, question, answer_text) VALUES('delete', old.rowid, old.question, old.answer_text);
		END`,
	}
	for i, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			if i == 0 && strings.Contains(err.Error(), "no such module") {
				s.log.Debug("fts5 unavailable, using LIKE search")
				return nil
			}
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.fts = true
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	RunID   string
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of record files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest indexes every .json, .yaml and .yml record file under dir. A
// record's ID is its path relative to dir without extension. Files whose
// modification time matches the last indexing are skipped.
func (s *Store) Ingest(ctx context.Context, dir string, w io.Writer) (IngestSummary, error) {
	paths, err := recordFiles(dir)
	if err != nil {
		return IngestSummary{}, err
	}

	summary := IngestSummary{RunID: uuid.NewString()}
	started := s.now().UTC()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		id := RecordID(dir, path)
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM records WHERE id = ?`, id,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", id)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		rec, err := extract.ReadRecord(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			continue
		}

		if err := s.put(ctx, id, rec, modTime, summary.RunID); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d segments)\n", id, len(rec.QASegments))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d segments)\n", id, len(rec.QASegments))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if err := s.recordRun(ctx, summary, started); err != nil {
		s.log.Warn("recording run failed", zap.String("run_id", summary.RunID), zap.Error(err))
	}
	return summary, nil
}

// Put stores rec under id, replacing any previous version.
func (s *Store) Put(ctx context.Context, id string, rec *types.ExtractionRecord) error {
	return s.put(ctx, id, rec, "", "")
}

func (s *Store) put(ctx context.Context, id string, rec *types.ExtractionRecord, modTime, runID string) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("deleting old segments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM metrics WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("deleting old metrics: %w", err)
	}

	var sourceFile string
	if rec.Metadata != nil {
		sourceFile = rec.Metadata.SourceFile
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, company, report_date, quarter, fiscal_year, profile, moderator, source_file, body, file_mod_time, run_id, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			company=excluded.company, report_date=excluded.report_date, quarter=excluded.quarter,
			fiscal_year=excluded.fiscal_year, profile=excluded.profile, moderator=excluded.moderator,
			source_file=excluded.source_file, body=excluded.body, file_mod_time=excluded.file_mod_time,
			run_id=excluded.run_id, indexed_at=excluded.indexed_at`,
		id, deref(rec.Company), deref(rec.ReportDate), deref(rec.Quarter), deref(rec.FiscalYear),
		rec.Profile, rec.Moderator, sourceFile, string(body), modTime, runID,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}

	segStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (record_id, seq, analyst_name, analyst_firm, question, answers, answer_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing segment insert: %w", err)
	}
	defer segStmt.Close()

	for i, seg := range rec.QASegments {
		answers, err := json.Marshal(seg.Answers)
		if err != nil {
			return fmt.Errorf("encoding answers of segment %d: %w", i, err)
		}
		if _, err := segStmt.ExecContext(ctx,
			id, i, seg.AnalystName, seg.AnalystFirm, seg.Question, string(answers), answerText(seg.Answers),
		); err != nil {
			return fmt.Errorf("inserting segment %d: %w", i, err)
		}
	}

	metStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO metrics (record_id, key, value, unit) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing metric insert: %w", err)
	}
	defer metStmt.Close()

	keys := make([]string, 0, len(rec.Metrics))
	for k := range rec.Metrics {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := types.MetricKey(k)
		if _, err := metStmt.ExecContext(ctx, id, k, rec.Metrics[key], rec.MetricUnits[key]); err != nil {
			return fmt.Errorf("inserting metric %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// Get returns the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (*types.ExtractionRecord, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM records WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("looking up record: %w", err)
	}
	rec := types.NewExtractionRecord()
	if err := json.Unmarshal([]byte(body), rec); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes the record stored under id along with its segments and
// metrics.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// Run is one recorded ingestion run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    IngestSummary
}

// Runs returns ingestion runs, most recent first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, indexed, updated, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished,
			&r.Summary.Indexed, &r.Summary.Updated, &r.Summary.Skipped, &r.Summary.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Summary.RunID = r.ID
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started.String)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) recordRun(ctx context.Context, summary IngestSummary, started time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, indexed, updated, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, started.Format(time.RFC3339Nano), s.now().UTC().Format(time.RFC3339Nano),
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed,
	)
	return err
}

// RecordID returns the store ID for a record file under dir: its relative
// path without extension, slash-separated.
func RecordID(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
}

func recordFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading record directory %s: %w", dir, err)
	}
	return paths, nil
}

func answerText(answers []types.Answer) string {
	parts := make([]string, len(answers))
	for i, a := range answers {
		parts[i] = a.Response
	}
	return strings.Join(parts, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
