package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scholarai-backend/internal/embed"
	"scholarai-backend/internal/extract"
	"scholarai-backend/internal/papers"
	"scholarai-backend/internal/shared/metrics"
	"scholarai-backend/internal/shared/storage/object"
	"scholarai-backend/internal/shared/telemetry"
)

// Service runs the analysis pipeline for uploaded papers and serves stored
// results.
type Service struct {
	Papers    papers.Repo
	Store     object.ObjectStore
	Repo      Repo
	Embedder  embed.Client
	ChunkSize int
}

// Analyze claims the paper and runs the full pipeline: text extraction,
// chunking, citation extraction, embedding, then persistence. The claim is a
// conditional status update in the papers store, so only one caller can win
// it even across replicas. Any failure after the claim marks the paper
// FAILED rather than returning it to PENDING.
func (s *Service) Analyze(ctx context.Context, paperID papers.PaperID) (Analysis, error) {
	paper, err := s.Papers.GetByID(ctx, paperID)
	if err != nil {
		return Analysis{}, err
	}
	if !paper.Metadata.HasStoredContent() {
		return Analysis{}, fmt.Errorf("%w: paper %s has no stored content", ErrNoContent, paperID)
	}

	claimed, err := s.Papers.ClaimForAnalysis(ctx, paperID)
	if err != nil {
		return Analysis{}, err
	}
	if !claimed {
		return Analysis{}, fmt.Errorf("%w: paper %s is not pending", ErrAlreadyClaimed, paperID)
	}

	metrics.IncAnalysisStarted()
	started := time.Now()

	result, fullText, err := s.run(ctx, paper, started)
	if err != nil {
		s.markFailed(ctx, paperID, err)
		return Analysis{}, err
	}

	if err := s.Repo.Create(ctx, result); err != nil {
		s.markFailed(ctx, paperID, err)
		return Analysis{}, fmt.Errorf("persisting analysis: %w", err)
	}
	if err := s.Papers.CompleteAnalysis(ctx, paperID, fullText, time.Now().UTC()); err != nil {
		s.markFailed(ctx, paperID, err)
		return Analysis{}, fmt.Errorf("completing paper %s: %w", paperID, err)
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDuration(time.Since(started).Seconds())
	telemetry.Info("analysis.completed", map[string]any{
		"paper_id":  paperID.String(),
		"chunks":    result.ChunkCount(),
		"citations": result.CitationCount(),
		"ms":        result.Metrics.ProcessingTimeMs,
	})
	return result, nil
}

func (s *Service) run(ctx context.Context, paper papers.Paper, started time.Time) (Analysis, string, error) {
	pages, err := extract.Pages(ctx, s.Store, paper.Metadata.StorageKey)
	if err != nil {
		return Analysis{}, "", fmt.Errorf("extracting text: %w", err)
	}

	chunks, fullText, err := buildChunks(pages, s.ChunkSize)
	if err != nil {
		return Analysis{}, "", err
	}
	if len(chunks) == 0 {
		return Analysis{}, "", fmt.Errorf("%w: no extractable text in paper %s", ErrNoContent, paper.ID)
	}

	citations := extractCitations(pages)

	embeddings := make([]Embedding, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := s.Embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return Analysis{}, "", fmt.Errorf("embedding chunk %d: %w", chunk.Index, err)
		}
		emb, err := NewEmbedding(vector, s.Embedder.Dimensions(), s.Embedder.Model(), chunk.Index)
		if err != nil {
			return Analysis{}, "", err
		}
		embeddings = append(embeddings, emb)
	}

	m := Metrics{
		ProcessingTimeMs: time.Since(started).Milliseconds(),
		TotalTokens:      countTokens(fullText),
		AvgChunkSize:     averageChunkSize(chunks),
		UniqueCitations:  uniqueCitationCount(citations),
	}
	if err := m.Validate(); err != nil {
		return Analysis{}, "", err
	}

	result := Analysis{
		ID:         uuid.NewString(),
		PaperID:    paper.ID,
		Citations:  citations,
		Chunks:     chunks,
		Embeddings: embeddings,
		AnalyzedAt: time.Now().UTC(),
		Metrics:    m,
	}
	if err := result.ValidateEmbeddingsMatchChunks(); err != nil {
		return Analysis{}, "", err
	}
	return result, fullText, nil
}

// markFailed transitions the paper to FAILED. The claim already moved it out
// of PENDING, so leaving it PROCESSING would strand it.
func (s *Service) markFailed(ctx context.Context, paperID papers.PaperID, cause error) {
	metrics.IncAnalysisFailed()
	telemetry.Error("analysis.failed", map[string]any{
		"paper_id": paperID.String(),
		"error":    cause.Error(),
	})
	if err := s.Papers.FailAnalysis(ctx, paperID, time.Now().UTC()); err != nil {
		telemetry.Error("analysis.fail_mark", map[string]any{
			"paper_id": paperID.String(),
			"error":    err.Error(),
		})
	}
}

// GetForPaper returns the stored analysis for a paper.
func (s *Service) GetForPaper(ctx context.Context, paperID papers.PaperID) (Analysis, error) {
	return s.Repo.GetByPaperID(ctx, paperID)
}
