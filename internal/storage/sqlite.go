// Package storage provides the SQLite persistence layer for analysis
// sessions, material rows, and determination reports.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradewise-tools/originate/internal/common"
	"github.com/tradewise-tools/originate/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage persists analysis sessions using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveAnalysis persists a completed analysis in one transaction: the session
// row, every material line (including rejected rows with their reasons), and
// the serialized determination report. The session's ID is filled in on
// return.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, session *model.AnalysisSession, ledger *model.MaterialLedger, rejected []model.RejectedRow, report *model.DeterminationReport) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if session == nil || ledger == nil || report == nil {
		return errors.New("session, ledger and report are required")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	missingJSON, err := json.Marshal(session.MissingFields)
	if err != nil {
		return fmt.Errorf("failed to marshal missing fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (filename, created_at, manufacturer, final_hs_code, verdict, reason, missing_fields, completed, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Filename,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.Manufacturer,
		session.FinalHSCode,
		string(session.Verdict),
		session.Reason,
		string(missingJSON),
		session.Completed,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	sessionID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read session id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO materials (session_id, position, description, origin_country, hs_code, cost, is_originating, rejected, reject_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare material insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, line := range ledger.Lines() {
		if _, err := stmt.ExecContext(ctx, sessionID, i, line.Description, line.OriginCountry,
			line.HSCode, line.Cost.String(), line.IsOriginating, false, ""); err != nil {
			return fmt.Errorf("failed to save material %d: %w", i, err)
		}
	}
	for _, rej := range rejected {
		if _, err := stmt.ExecContext(ctx, sessionID, rej.Index, rej.Row[model.FieldDescription],
			rej.Row[model.FieldOriginCountry], rej.Row[model.FieldHSCode], "0", false, true, rej.Reason); err != nil {
			return fmt.Errorf("failed to save rejected row %d: %w", rej.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis: %w", err)
	}

	session.ID = sessionID
	return nil
}

// GetSession loads a session and its determination report.
func (s *SQLiteStorage) GetSession(ctx context.Context, id int64) (*model.AnalysisSession, *model.DeterminationReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}

	var (
		session     model.AnalysisSession
		createdAt   string
		verdict     string
		missingJSON string
		reportJSON  string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, created_at, manufacturer, final_hs_code, verdict, reason, missing_fields, completed, report
		FROM sessions WHERE id = ?`, id).Scan(
		&session.ID, &session.Filename, &createdAt, &session.Manufacturer,
		&session.FinalHSCode, &verdict, &session.Reason, &missingJSON,
		&session.Completed, &reportJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: session %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session %d: %w", id, err)
	}

	session.Verdict = model.Verdict(verdict)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		session.CreatedAt = t
	}
	if missingJSON != "" {
		if err := json.Unmarshal([]byte(missingJSON), &session.MissingFields); err != nil {
			return nil, nil, fmt.Errorf("failed to decode missing fields for session %d: %w", id, err)
		}
	}

	var report model.DeterminationReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, nil, fmt.Errorf("failed to decode report for session %d: %w", id, err)
	}

	return &session, &report, nil
}

// StoredMaterial is one persisted material row, rejected rows included.
type StoredMaterial struct {
	Description   string
	OriginCountry string
	HSCode        string
	RejectReason  string
	Cost          decimal.Decimal
	Position      int
	IsOriginating bool
	Rejected      bool
}

// GetMaterials loads the material rows for a session in sheet order.
func (s *SQLiteStorage) GetMaterials(ctx context.Context, sessionID int64) ([]StoredMaterial, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, description, origin_country, hs_code, cost, is_originating, rejected, reject_reason
		FROM materials WHERE session_id = ? ORDER BY position, rejected`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load materials for session %d: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	var materials []StoredMaterial
	for rows.Next() {
		var m StoredMaterial
		var cost string
		if err := rows.Scan(&m.Position, &m.Description, &m.OriginCountry, &m.HSCode,
			&cost, &m.IsOriginating, &m.Rejected, &m.RejectReason); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		if m.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("corrupt cost %q for session %d: %w", cost, sessionID, err)
		}
		materials = append(materials, m)
	}

	return materials, rows.Err()
}

// ListSessions returns sessions newest first.
func (s *SQLiteStorage) ListSessions(ctx context.Context) ([]model.AnalysisSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, created_at, manufacturer, final_hs_code, verdict, reason, completed
		FROM sessions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.AnalysisSession
	for rows.Next() {
		var (
			session   model.AnalysisSession
			createdAt string
			verdict   string
		)
		if err := rows.Scan(&session.ID, &session.Filename, &createdAt, &session.Manufacturer,
			&session.FinalHSCode, &verdict, &session.Reason, &session.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session.Verdict = model.Verdict(verdict)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			session.CreatedAt = t
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
