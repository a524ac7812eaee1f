package papers

import (
	"context"
	"time"
)

// Repo defines persistence operations for papers.
//
// ClaimForAnalysis is the single conditional-update capability that gives the
// at-most-one-concurrent-analysis guarantee: it must atomically move a paper
// from PENDING to PROCESSING and report whether this caller won the claim.
// Implementations must make that safe across service replicas, not just
// goroutines.
type Repo interface {
	Create(ctx context.Context, paper Paper) error
	GetByID(ctx context.Context, id PaperID) (Paper, error)
	GetByDOI(ctx context.Context, doi string) (Paper, bool, error)
	ExistsByID(ctx context.Context, id PaperID) (bool, error)
	ExistsByDOI(ctx context.Context, doi string) (bool, error)

	ClaimForAnalysis(ctx context.Context, id PaperID) (bool, error)

	// CompleteAnalysis and FailAnalysis only apply to a PROCESSING paper
	// and return ErrNotProcessing when the row was already moved on, for
	// example by the stale-claim reaper.
	CompleteAnalysis(ctx context.Context, id PaperID, fullText string, processedAt time.Time) error
	FailAnalysis(ctx context.Context, id PaperID, processedAt time.Time) error

	// ListPending returns ids of papers awaiting analysis, oldest first.
	ListPending(ctx context.Context, limit int) ([]PaperID, error)

	// FailStaleProcessing moves papers stuck in PROCESSING since before the
	// deadline to FAILED and returns how many rows changed.
	FailStaleProcessing(ctx context.Context, deadline time.Time) (int, error)
}
