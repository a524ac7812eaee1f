package papers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func pendingPaper(t *testing.T, title, doi string) Paper {
	t.Helper()
	paper, err := NewPaper(title, []string{"Doe"}, "", "", nil, doi)
	if err != nil {
		t.Fatalf("NewPaper: %v", err)
	}
	meta, err := NewMetadata("", "key-"+title, 1, "application/pdf", time.Now().UTC(), nil)
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	return paper.WithMetadata(meta)
}

func TestMemoryRepoRejectsDuplicateDOI(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	if err := repo.Create(ctx, pendingPaper(t, "a", "10.1000/x")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := repo.Create(ctx, pendingPaper(t, "b", "10.1000/x")); !errors.Is(err, ErrDuplicateDOI) {
		t.Fatalf("duplicate create: got %v, want ErrDuplicateDOI", err)
	}
	// Papers without DOI never conflict.
	if err := repo.Create(ctx, pendingPaper(t, "c", "")); err != nil {
		t.Fatalf("no-doi create: %v", err)
	}
	if err := repo.Create(ctx, pendingPaper(t, "d", "")); err != nil {
		t.Fatalf("second no-doi create: %v", err)
	}
}

func TestClaimForAnalysisExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	paper := pendingPaper(t, "claim", "")
	if err := repo.Create(ctx, paper); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const claimers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.ClaimForAnalysis(ctx, paper.ID)
			if err != nil {
				t.Errorf("ClaimForAnalysis: %v", err)
				return
			}
			wins <- claimed
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for claimed := range wins {
		if claimed {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("claim won %d times, want exactly 1", won)
	}

	loaded, err := repo.GetByID(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != StatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", loaded.Metadata.Status)
	}
}

func TestClaimForAnalysisMissingPaper(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.ClaimForAnalysis(context.Background(), NewPaperID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCompleteAndFailAreTerminal(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	paper := pendingPaper(t, "finish", "")
	if err := repo.Create(ctx, paper); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ClaimForAnalysis(ctx, paper.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	done := time.Now().UTC()
	if err := repo.CompleteAnalysis(ctx, paper.ID, "full text", done); err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}

	loaded, err := repo.GetByID(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", loaded.Metadata.Status)
	}
	if loaded.FullText != "full text" {
		t.Fatalf("full text not recorded")
	}
	if loaded.Metadata.ProcessedAt == nil || !loaded.Metadata.ProcessedAt.Equal(done) {
		t.Fatalf("processed time = %v, want %v", loaded.Metadata.ProcessedAt, done)
	}

	// Terminal papers cannot be claimed again.
	claimed, err := repo.ClaimForAnalysis(ctx, paper.ID)
	if err != nil {
		t.Fatalf("re-claim: %v", err)
	}
	if claimed {
		t.Fatalf("terminal paper was claimed")
	}

	// Nor can they be moved to another terminal state. The update reports
	// the lost race instead of silently no-opping.
	if err := repo.FailAnalysis(ctx, paper.ID, time.Now().UTC()); !errors.Is(err, ErrNotProcessing) {
		t.Fatalf("got %v, want ErrNotProcessing", err)
	}
	if err := repo.CompleteAnalysis(ctx, paper.ID, "again", time.Now().UTC()); !errors.Is(err, ErrNotProcessing) {
		t.Fatalf("got %v, want ErrNotProcessing", err)
	}
}

func TestListPendingOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	old := pendingPaper(t, "old", "")
	old.Metadata.UploadedAt = time.Now().UTC().Add(-time.Hour)
	recent := pendingPaper(t, "recent", "")

	if err := repo.Create(ctx, recent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ids, err := repo.ListPending(ctx, 1)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(ids) != 1 || ids[0] != old.ID {
		t.Fatalf("expected oldest paper first, got %v", ids)
	}
}

func TestFailStaleProcessing(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	paper := pendingPaper(t, "stale", "")
	if err := repo.Create(ctx, paper); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ClaimForAnalysis(ctx, paper.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	// A deadline in the past leaves the fresh claim alone.
	n, err := repo.FailStaleProcessing(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("FailStaleProcessing: %v", err)
	}
	if n != 0 {
		t.Fatalf("fresh claim reaped")
	}

	// A future deadline treats the claim as stale.
	n, err = repo.FailStaleProcessing(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("FailStaleProcessing: %v", err)
	}
	if n != 1 {
		t.Fatalf("reaped %d papers, want 1", n)
	}

	loaded, err := repo.GetByID(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", loaded.Metadata.Status)
	}
}
