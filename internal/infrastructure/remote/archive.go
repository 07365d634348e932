package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"                      // SQLite driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
)

const createArchiveTable = `
CREATE TABLE IF NOT EXISTS job_reports (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	school_id TEXT,
	report_date TEXT NOT NULL,
	report_type TEXT,
	data TEXT,
	updated_at INTEGER NOT NULL
)`

// ReportArchive serves one-shot historical job report queries that fall
// outside the live sync window. It prefers a hosted Turso database and
// falls back to a local SQLite file when no remote credentials exist.
type ReportArchive struct {
	conn     *sql.DB
	useTurso bool
	logger   *logging.ChanneledLogger
}

// ArchiveConfig carries the connection settings for the report archive.
type ArchiveConfig struct {
	TursoURL   string
	TursoToken string
	SQLitePath string
}

// NewReportArchive opens the archive connection.
func NewReportArchive(config ArchiveConfig, logger *logging.ChanneledLogger) (*ReportArchive, error) {
	var conn *sql.DB
	var useTurso bool

	if config.TursoURL != "" && config.TursoToken != "" {
		connStr := config.TursoURL + "?authToken=" + config.TursoToken
		if c, err := sql.Open("libsql", connStr); err == nil {
			if pingErr := c.Ping(); pingErr == nil {
				conn = c
				useTurso = true
			} else {
				c.Close()
			}
		}
	}

	if conn == nil {
		dbDir := filepath.Dir(config.SQLitePath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}

		c, err := sql.Open("sqlite3", config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open report archive: %w", err)
		}
		if err := c.Ping(); err != nil {
			c.Close()
			return nil, fmt.Errorf("report archive ping failed: %w", err)
		}
		conn = c
	}

	if _, err := conn.Exec(createArchiveTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize report archive schema: %w", err)
	}

	logger.Store().Info("Report archive connected", "turso", useTurso)
	return &ReportArchive{conn: conn, useTurso: useTurso, logger: logger}, nil
}

// FetchBefore returns a tenant's job reports dated strictly before cutoff,
// newest first, capped at limit.
func (a *ReportArchive) FetchBefore(ctx context.Context, tenantID string, cutoff time.Time, limit int) ([]records.JobReport, error) {
	if limit <= 0 {
		limit = 200
	}

	start := time.Now()
	rows, err := a.conn.QueryContext(ctx,
		`SELECT id, organization_id, user_id, school_id, report_date, report_type, data, updated_at
		 FROM job_reports
		 WHERE organization_id = ? AND report_date < ?
		 ORDER BY report_date DESC
		 LIMIT ?`,
		tenantID, cutoff.UTC().Format("2006-01-02"), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query report archive: %w", err)
	}
	defer rows.Close()

	var reports []records.JobReport
	for rows.Next() {
		var r records.JobReport
		var schoolID, reportType, data sql.NullString
		var reportDate string
		var updatedAt int64

		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.UserID, &schoolID, &reportDate, &reportType, &data, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived report: %w", err)
		}

		r.SchoolID = schoolID.String
		r.ReportType = reportType.String
		r.Date = records.DateFromString(reportDate)
		r.UpdatedAt = records.TimestampOf(time.UnixMilli(updatedAt))
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &r.Data); err != nil {
				a.logger.Store().Debug("Skipping report with undecodable data", "id", r.ID)
				continue
			}
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report archive iteration failed: %w", err)
	}

	a.logger.Store().Debug("Archive query completed",
		"tenantId", tenantID, "count", len(reports), "duration", time.Since(start))
	return reports, nil
}

// Archive inserts or replaces one report, used when aging reports out of
// the live window.
func (a *ReportArchive) Archive(ctx context.Context, report records.JobReport) error {
	day, _ := report.Date.Day()

	var data []byte
	if report.Data != nil {
		encoded, err := json.Marshal(report.Data)
		if err != nil {
			return fmt.Errorf("failed to encode report data: %w", err)
		}
		data = encoded
	}

	_, err := a.conn.ExecContext(ctx,
		`INSERT INTO job_reports (id, organization_id, user_id, school_id, report_date, report_type, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			school_id = excluded.school_id,
			report_date = excluded.report_date,
			report_type = excluded.report_type,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		report.ID, report.OrganizationID, report.UserID, report.SchoolID,
		day, report.ReportType, string(data), report.UpdatedAt.Time().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to archive report %s: %w", report.ID, err)
	}
	return nil
}

// ConnectionInfo describes the active backend for diagnostics.
func (a *ReportArchive) ConnectionInfo() string {
	if a.useTurso {
		return "turso"
	}
	return "sqlite"
}

// Close closes the archive connection.
func (a *ReportArchive) Close() error {
	return a.conn.Close()
}
