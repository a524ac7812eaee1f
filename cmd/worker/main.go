package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"scholarai-backend/internal/analysis"
	"scholarai-backend/internal/bootstrap"
	"scholarai-backend/internal/shared/config"
	"scholarai-backend/internal/shared/telemetry"
)

const defaultProcessingTimeout = 30 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := telemetry.Init(cfg.Env); err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer func() {
		if app.DB != nil {
			app.DB.Close()
		}
	}()

	processingTimeout, err := time.ParseDuration(cfg.ProcessingTimeout)
	if err != nil || processingTimeout <= 0 {
		processingTimeout = defaultProcessingTimeout
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := scheduler.AddFunc(cfg.WorkerPollSchedule, func() {
		runPendingBatch(ctx, app, cfg.WorkerBatchSize)
	}); err != nil {
		log.Fatalf("schedule poll job: %v", err)
	}

	if _, err := scheduler.AddFunc(cfg.ReaperSchedule, func() {
		reapStaleProcessing(ctx, app, processingTimeout)
	}); err != nil {
		log.Fatalf("schedule reaper job: %v", err)
	}

	scheduler.Start()
	telemetry.Info("worker.started", map[string]any{
		"poll_schedule":   cfg.WorkerPollSchedule,
		"reaper_schedule": cfg.ReaperSchedule,
		"batch_size":      cfg.WorkerBatchSize,
	})

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		telemetry.Error("worker.shutdown_timeout", nil)
	}
}

// runPendingBatch claims and analyzes up to batchSize pending papers. Claims
// lost to a concurrent worker are skipped silently.
func runPendingBatch(ctx context.Context, app *bootstrap.App, batchSize int) {
	if batchSize <= 0 {
		batchSize = 1
	}

	ids, err := app.PapersRepo.ListPending(ctx, batchSize)
	if err != nil {
		telemetry.Error("worker.list_pending", map[string]any{"error": err.Error()})
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := app.AnalysisService.Analyze(ctx, id); err != nil {
			if errors.Is(err, analysis.ErrAlreadyClaimed) {
				continue
			}
			telemetry.Error("worker.analyze", map[string]any{
				"paper_id": id.String(),
				"error":    err.Error(),
			})
		}
	}
}

// reapStaleProcessing fails papers stuck in PROCESSING past the timeout, for
// example after a worker crash mid-run.
func reapStaleProcessing(ctx context.Context, app *bootstrap.App, timeout time.Duration) {
	deadline := time.Now().UTC().Add(-timeout)
	failed, err := app.PapersRepo.FailStaleProcessing(ctx, deadline)
	if err != nil {
		telemetry.Error("worker.reap", map[string]any{"error": err.Error()})
		return
	}
	if failed > 0 {
		telemetry.Info("worker.reaped", map[string]any{"count": failed})
	}
}
