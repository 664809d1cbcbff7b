package storage

import (
	"database/sql"
	"encoding/json"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
)

// RunRecord is the read-side view of one ingestion run.
type RunRecord struct {
	RunID      string            `json:"run_id"`
	StartedAt  string            `json:"started_at"`
	FinishedAt string            `json:"finished_at,omitempty"`
	Status     types.RunStatus   `json:"status"`
	Summary    *types.RunSummary `json:"summary,omitempty"`
}

// GetRun loads one run row by id.
func (s *Store) GetRun(runID string) (*RunRecord, error) {
	return s.scanRun(s.db.QueryRow(runGetQuery, runID))
}

// LatestRun loads the most recently started run, if any.
func (s *Store) LatestRun() (*RunRecord, error) {
	return s.scanRun(s.db.QueryRow(latestRunQuery))
}

func (s *Store) scanRun(row *sql.Row) (*RunRecord, error) {
	var rec RunRecord
	var status, summaryJSON string
	err := row.Scan(&rec.RunID, &rec.StartedAt, &rec.FinishedAt, &status, &summaryJSON)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "ingestion run")
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan run")
	}
	rec.Status = types.RunStatus(status)
	if summaryJSON != "" {
		var summary types.RunSummary
		if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
			return nil, errors.Wrapf(err, "decode summary for %s", rec.RunID)
		}
		rec.Summary = &summary
	}
	return &rec, nil
}

// SnapshotRecord is the read-side view of one source snapshot.
type SnapshotRecord struct {
	SourceID    string             `json:"source_id"`
	RunID       string             `json:"run_id"`
	Counts      types.SourceCounts `json:"counts"`
	LicenseRisk types.LicenseRisk  `json:"license_risk"`
	CapturedAt  string             `json:"captured_at"`
}

// LatestSnapshots returns the most recent source snapshots, newest first.
func (s *Store) LatestSnapshots(limit int) ([]SnapshotRecord, error) {
	rows, err := s.db.Query(latestSnapshotsQuery, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	defer rows.Close()

	var snapshots []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		var risk, countsJSON string
		if err := rows.Scan(&rec.SourceID, &rec.RunID, &countsJSON, &risk, &rec.CapturedAt); err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		rec.LicenseRisk = types.LicenseRisk(risk)
		if err := json.Unmarshal([]byte(countsJSON), &rec.Counts); err != nil {
			return nil, errors.Wrapf(err, "decode counts for %s", rec.RunID)
		}
		snapshots = append(snapshots, rec)
	}
	return snapshots, rows.Err()
}

// TableCounts reports row counts for the catalog tables, keyed by table name.
func (s *Store) TableCounts() (map[string]int, error) {
	tables := []string{
		"products_master",
		"recipes_corpus",
		"recipe_ingredients_norm",
		"ingredient_synonyms_ru",
		"price_signals",
		"source_snapshots",
		"ingestion_runs",
	}

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		// Table names come from the fixed list above, never from input.
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, errors.Wrapf(err, "count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
