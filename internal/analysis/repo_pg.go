package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"scholarai-backend/internal/papers"
)

// PGRepo implements Repo using Postgres, storing the chunk, citation and
// embedding collections as JSONB.
type PGRepo struct {
	DB *sql.DB
}

const analysisColumns = `id, paper_id, chunks, citations, embeddings, analyzed_at,
       processing_time_ms, total_tokens, avg_chunk_size, unique_citations`

// Create inserts a new analysis result.
func (r *PGRepo) Create(ctx context.Context, a Analysis) error {
	const query = `
INSERT INTO paper_analyses (
	id, paper_id, chunks, citations, embeddings, analyzed_at,
	processing_time_ms, total_tokens, avg_chunk_size, unique_citations
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	chunks, err := marshalJSONB(a.Chunks)
	if err != nil {
		return err
	}
	citations, err := marshalJSONB(a.Citations)
	if err != nil {
		return err
	}
	embeddings, err := marshalJSONB(a.Embeddings)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, query,
		a.ID,
		a.PaperID.String(),
		chunks,
		citations,
		embeddings,
		a.AnalyzedAt,
		a.Metrics.ProcessingTimeMs,
		a.Metrics.TotalTokens,
		a.Metrics.AvgChunkSize,
		a.Metrics.UniqueCitations,
	)
	return err
}

// GetByID returns an analysis by its ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM paper_analyses WHERE id = $1 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, analysisID))
}

// GetByPaperID returns the most recent analysis for a paper.
func (r *PGRepo) GetByPaperID(ctx context.Context, paperID papers.PaperID) (Analysis, error) {
	query := `SELECT ` + analysisColumns + `
FROM paper_analyses
WHERE paper_id = $1
ORDER BY analyzed_at DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, paperID.String()))
}

// ExistsForPaper reports whether any analysis row exists for the paper.
func (r *PGRepo) ExistsForPaper(ctx context.Context, paperID papers.PaperID) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM paper_analyses WHERE paper_id = $1)`,
		paperID.String(),
	).Scan(&exists)
	return exists, err
}

func (r *PGRepo) scanOne(row *sql.Row) (Analysis, error) {
	var a Analysis
	var paperID string
	var chunks, citations, embeddings []byte

	err := row.Scan(
		&a.ID,
		&paperID,
		&chunks,
		&citations,
		&embeddings,
		&a.AnalyzedAt,
		&a.Metrics.ProcessingTimeMs,
		&a.Metrics.TotalTokens,
		&a.Metrics.AvgChunkSize,
		&a.Metrics.UniqueCitations,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}

	a.PaperID, err = papers.ParsePaperID(paperID)
	if err != nil {
		return Analysis{}, fmt.Errorf("stored paper id: %w", err)
	}
	if err := json.Unmarshal(chunks, &a.Chunks); err != nil {
		return Analysis{}, fmt.Errorf("decoding chunks: %w", err)
	}
	if err := json.Unmarshal(citations, &a.Citations); err != nil {
		return Analysis{}, fmt.Errorf("decoding citations: %w", err)
	}
	if err := json.Unmarshal(embeddings, &a.Embeddings); err != nil {
		return Analysis{}, fmt.Errorf("decoding embeddings: %w", err)
	}
	return a, nil
}

var _ Repo = (*PGRepo)(nil)

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(value)
}
