package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/market-scout/internal/model"
	"github.com/sells-group/market-scout/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	business_term TEXT NOT NULL,
	report        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reports_term ON reports(business_term);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, businessTerm string, report model.OpportunityReport) (*model.SavedReport, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, business_term, report, created_at) VALUES (?, ?, ?, ?)`,
		id, businessTerm, string(reportJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert report")
	}

	return &model.SavedReport{
		ID:           id,
		BusinessTerm: businessTerm,
		Report:       report,
		CreatedAt:    now,
	}, nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*model.SavedReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business_term, report, created_at FROM reports WHERE id = ?`,
		id,
	)

	var sr model.SavedReport
	var reportJSON string
	err := row.Scan(&sr.ID, &sr.BusinessTerm, &reportJSON, &sr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, resilience.NewError(resilience.KindNotFound, eris.Errorf("report not found: %s", id))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", id)
	}
	if err := json.Unmarshal([]byte(reportJSON), &sr.Report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &sr, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.SavedReport, error) {
	query := `SELECT id, business_term, report, created_at FROM reports WHERE 1=1`
	var args []any

	if filter.BusinessTerm != "" {
		query += ` AND business_term = ?`
		args = append(args, filter.BusinessTerm)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.SavedReport
	for rows.Next() {
		var sr model.SavedReport
		var reportJSON string
		if err := rows.Scan(&sr.ID, &sr.BusinessTerm, &reportJSON, &sr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		if err := json.Unmarshal([]byte(reportJSON), &sr.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
		reports = append(reports, sr)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}
