package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// Fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteAnalysisRepository struct {
	db *sql.DB
}

// OpenSQLite opens the database file at path and creates the schema when missing.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, AnalysisRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	repo := NewSQLiteAnalysisRepository(db)
	if err := repo.Init(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}

func NewSQLiteAnalysisRepository(db *sql.DB) *SQLiteAnalysisRepository {
	return &SQLiteAnalysisRepository{db: db}
}

func (r *SQLiteAnalysisRepository) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			original_filename TEXT NOT NULL,
			job_description TEXT NOT NULL,
			parsed_content TEXT NOT NULL,
			ats_score INTEGER NOT NULL,
			match_summary TEXT,
			recommendations TEXT NOT NULL DEFAULT '[]',
			storage_key TEXT,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Create implements AnalysisRepository.
func (r *SQLiteAnalysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	prepareForInsert(analysis)

	recommendations, err := json.Marshal(analysis.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analyses (id, original_filename, job_description, parsed_content, ats_score, match_summary, recommendations, storage_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		analysis.ID.String(),
		analysis.OriginalFilename,
		analysis.JobDescription,
		analysis.ParsedContent,
		analysis.ATSScore,
		analysis.MatchSummary,
		string(recommendations),
		analysis.StorageKey,
		analysis.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

const selectAnalysis = `SELECT id, original_filename, job_description, parsed_content, ats_score, match_summary, recommendations, storage_key, created_at FROM analyses`

// FindByID implements AnalysisRepository.
func (r *SQLiteAnalysisRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	row := r.db.QueryRowContext(ctx, selectAnalysis+` WHERE id = ?`, id.String())
	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return analysis, nil
}

// ListRecent implements AnalysisRepository.
func (r *SQLiteAnalysisRepository) ListRecent(ctx context.Context, limit int) ([]models.Analysis, error) {
	rows, err := r.db.QueryContext(ctx, selectAnalysis+` ORDER BY created_at DESC LIMIT ?`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []models.Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, *analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.Analysis, error) {
	var (
		analysis        models.Analysis
		id              string
		matchSummary    sql.NullString
		recommendations string
		storageKey      sql.NullString
		createdAt       string
	)
	if err := row.Scan(
		&id,
		&analysis.OriginalFilename,
		&analysis.JobDescription,
		&analysis.ParsedContent,
		&analysis.ATSScore,
		&matchSummary,
		&recommendations,
		&storageKey,
		&createdAt,
	); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis id %q: %w", id, err)
	}
	analysis.ID = parsedID
	analysis.MatchSummary = matchSummary.String
	analysis.StorageKey = storageKey.String

	if err := json.Unmarshal([]byte(recommendations), &analysis.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}

	analysis.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}

	return &analysis, nil
}
