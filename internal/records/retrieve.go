// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// QueryOptions holds parameters for record queries.
type QueryOptions struct {
	// Query is matched against segment questions and answers: an FTS5
	// expression when full-text search is available, a substring otherwise.
	Query string

	// Company filters by canonical company name (case-insensitive).
	Company string

	// Quarter filters by canonical quarter, e.g. "Q1".
	Quarter string

	// FiscalYear filters by four-digit fiscal year.
	FiscalYear string

	// Analyst filters segments by analyst name substring.
	Analyst string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Company == "" && q.Quarter == "" && q.FiscalYear == "" && q.Analyst == ""
}

// SegmentResult is a stored Q&A segment with the identity of its call.
type SegmentResult struct {
	types.QASegment `yaml:",inline"`
	RecordID        string `json:"record_id" yaml:"record_id"`
	Company         string `json:"company" yaml:"company"`
	Quarter         string `json:"quarter" yaml:"quarter"`
	FiscalYear      string `json:"fiscal_year" yaml:"fiscal_year"`
}

// Search returns Q&A segments matching opts. Full-text results are ranked
// by relevance; otherwise results are ordered by record and position.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]SegmentResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != "" && s.fts
	)

	if useFTS {
		qb.WriteString(
			`SELECT s.record_id, s.analyst_name, s.analyst_firm, s.question, s.answers,
				r.company, r.quarter, r.fiscal_year
			FROM segments_fts
			JOIN segments s ON s.rowid = segments_fts.rowid
			JOIN records r ON r.id = s.record_id
			WHERE segments_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT s.record_id, s.analyst_name, s.analyst_firm, s.question, s.answers,
				r.company, r.quarter, r.fiscal_year
			FROM segments s
			JOIN records r ON r.id = s.record_id
			WHERE 1=1`)
		if opts.Query != "" {
			like := "%" + opts.Query + "%"
			qb.WriteString(` AND (s.question LIKE ? OR s.answer_text LIKE ?)`)
			args = append(args, like, like)
		}
	}

	args = appendRecordFilters(&qb, args, "r", opts)
	if opts.Analyst != "" {
		qb.WriteString(` AND s.analyst_name LIKE ?`)
		args = append(args, "%"+opts.Analyst+"%")
	}

	if useFTS {
		qb.WriteString(` ORDER BY segments_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY s.record_id, s.seq`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var results []SegmentResult
	for rows.Next() {
		var (
			sr                         SegmentResult
			firm, answers              sql.NullString
			company, quarter, fiscalYr sql.NullString
		)
		if err := rows.Scan(&sr.RecordID, &sr.AnalystName, &firm, &sr.Question, &answers,
			&company, &quarter, &fiscalYr); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sr.AnalystFirm = firm.String
		sr.Company = company.String
		sr.Quarter = quarter.String
		sr.FiscalYear = fiscalYr.String
		if answers.Valid {
			if err := json.Unmarshal([]byte(answers.String), &sr.Answers); err != nil {
				return nil, fmt.Errorf("decoding answers of %s: %w", sr.RecordID, err)
			}
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

// RecordSummary is one stored record without its segments.
type RecordSummary struct {
	ID          string                     `json:"id" yaml:"id"`
	Company     string                     `json:"company" yaml:"company"`
	ReportDate  string                     `json:"report_date" yaml:"report_date"`
	Quarter     string                     `json:"quarter" yaml:"quarter"`
	FiscalYear  string                     `json:"fiscal_year" yaml:"fiscal_year"`
	Profile     string                     `json:"profile" yaml:"profile"`
	SourceFile  string                     `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	Segments    int                        `json:"segments" yaml:"segments"`
	Metrics     map[types.MetricKey]string `json:"key_financial_metrics" yaml:"key_financial_metrics"`
	MetricUnits map[types.MetricKey]string `json:"metric_units,omitempty" yaml:"metric_units,omitempty"`
}

// List returns stored records matching the record-level filters of opts
// (Company, Quarter, FiscalYear), ordered by company, fiscal year and
// quarter.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]RecordSummary, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var qb strings.Builder
	qb.WriteString(
		`SELECT r.id, r.company, r.report_date, r.quarter, r.fiscal_year, r.profile, r.source_file,
			(SELECT count(*) FROM segments s WHERE s.record_id = r.id)
		FROM records r
		WHERE 1=1`)
	args := appendRecordFilters(&qb, nil, "r", opts)
	qb.WriteString(` ORDER BY r.company, r.fiscal_year, r.quarter, r.id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}

	var results []RecordSummary
	for rows.Next() {
		var rs RecordSummary
		var company, date, quarter, fy, prof, source sql.NullString
		if err := rows.Scan(&rs.ID, &company, &date, &quarter, &fy, &prof, &source, &rs.Segments); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rs.Company, rs.ReportDate, rs.Quarter, rs.FiscalYear = company.String, date.String, quarter.String, fy.String
		rs.Profile, rs.SourceFile = prof.String, source.String
		results = append(results, rs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		if err := s.loadMetrics(ctx, &results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Store) loadMetrics(ctx context.Context, rs *RecordSummary) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, unit FROM metrics WHERE record_id = ? ORDER BY key`, rs.ID)
	if err != nil {
		return fmt.Errorf("querying metrics: %w", err)
	}
	defer rows.Close()

	rs.Metrics = map[types.MetricKey]string{}
	for rows.Next() {
		var (
			key, value string
			unit       sql.NullString
		)
		if err := rows.Scan(&key, &value, &unit); err != nil {
			return fmt.Errorf("scanning metric: %w", err)
		}
		rs.Metrics[types.MetricKey(key)] = value
		if unit.String != "" {
			if rs.MetricUnits == nil {
				rs.MetricUnits = map[types.MetricKey]string{}
			}
			rs.MetricUnits[types.MetricKey(key)] = unit.String
		}
	}
	return rows.Err()
}

func appendRecordFilters(qb *strings.Builder, args []any, alias string, opts QueryOptions) []any {
	if opts.Company != "" {
		fmt.Fprintf(qb, ` AND upper(%s.company) = upper(?)`, alias)
		args = append(args, opts.Company)
	}
	if opts.Quarter != "" {
		fmt.Fprintf(qb, ` AND upper(%s.quarter) = upper(?)`, alias)
		args = append(args, opts.Quarter)
	}
	if opts.FiscalYear != "" {
		fmt.Fprintf(qb, ` AND %s.fiscal_year = ?`, alias)
		args = append(args, opts.FiscalYear)
	}
	return args
}
