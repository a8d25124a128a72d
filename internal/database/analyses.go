package database

import (
	"context"
	"errors"
	"time"

	"github.com/agroscan/agroscan/internal/fingerprint"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// Analysis represents a stored analysis result.
type Analysis struct {
	ID               uuid.UUID
	ImageID          string
	Class            string
	InfectionPercent float64
	Result           string
	Fingerprint      fingerprint.Vector
	CreatedAt        time.Time
}

// CreateAnalysisParams contains parameters for creating an analysis.
type CreateAnalysisParams struct {
	ImageID          string
	Class            string
	InfectionPercent float64
	Result           string
	Fingerprint      fingerprint.Vector
	CreatedAt        time.Time
}

// SimilarAnalysis is an analysis with its fingerprint distance to a query.
type SimilarAnalysis struct {
	Analysis
	Distance float64
}

// analysisColumns is the standard column list for analysis queries.
const analysisColumns = `id, image_id, class, infection_percent, result, fingerprint, created_at`

// scanAnalysis scans a row into an Analysis. Extra destinations are scanned
// after the standard columns.
func scanAnalysis(row pgx.Row, extra ...any) (*Analysis, error) {
	var a Analysis
	var fp *pgvector.Vector
	dest := append([]any{&a.ID, &a.ImageID, &a.Class, &a.InfectionPercent, &a.Result, &fp, &a.CreatedAt}, extra...)
	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fp != nil {
		a.Fingerprint = fp.Slice()
	}
	return &a, nil
}

// vectorArg converts a fingerprint to a query argument, NULL when empty.
func vectorArg(fp fingerprint.Vector) any {
	if len(fp) == 0 {
		return nil
	}
	return pgvector.NewVector(fp)
}

// CreateAnalysis stores a new analysis result.
func (db *DB) CreateAnalysis(ctx context.Context, params CreateAnalysisParams) (*Analysis, error) {
	if params.CreatedAt.IsZero() {
		params.CreatedAt = time.Now()
	}
	row := db.pool.QueryRow(ctx,
		`INSERT INTO analyses (image_id, class, infection_percent, result, fingerprint, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+analysisColumns,
		params.ImageID, params.Class, params.InfectionPercent, params.Result,
		vectorArg(params.Fingerprint), params.CreatedAt,
	)
	return scanAnalysis(row)
}

// GetAnalysisByID retrieves an analysis by ID.
func (db *DB) GetAnalysisByID(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = $1`,
		id,
	)
	return scanAnalysis(row)
}

// ListAnalyses returns analyses ordered by creation date descending. A
// limit <= 0 returns all rows.
func (db *DB) ListAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = db.pool.Query(ctx,
			`SELECT `+analysisColumns+` FROM analyses
			 ORDER BY created_at DESC
			 LIMIT $1`,
			limit,
		)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT `+analysisColumns+` FROM analyses
			 ORDER BY created_at DESC`,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

// SimilarAnalyses returns the k analyses nearest to fp by L2 distance.
func (db *DB) SimilarAnalyses(ctx context.Context, fp fingerprint.Vector, k int) ([]SimilarAnalysis, error) {
	if k <= 0 || len(fp) == 0 {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+analysisColumns+`, fingerprint <-> $1 AS distance
		 FROM analyses
		 WHERE fingerprint IS NOT NULL
		 ORDER BY fingerprint <-> $1
		 LIMIT $2`,
		pgvector.NewVector(fp), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SimilarAnalysis
	for rows.Next() {
		var distance float64
		a, err := scanAnalysis(rows, &distance)
		if err != nil {
			return nil, err
		}
		out = append(out, SimilarAnalysis{Analysis: *a, Distance: distance})
	}
	return out, rows.Err()
}

// DeleteAnalysis deletes an analysis by ID.
func (db *DB) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM analyses WHERE id = $1`,
		id,
	)
	return err
}

// DeleteOldAnalyses deletes analyses created before olderThan.
func (db *DB) DeleteOldAnalyses(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM analyses WHERE created_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
