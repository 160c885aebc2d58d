package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fency/outreach-pipeline/internal/model"
)

// ownerHandler processes one owner and returns the status it ended in. A
// non-nil error means the result could not be stored.
type ownerHandler func(ctx context.Context, o model.Owner) (model.ProcessingStatus, error)

// runWorker polls the store for owners in the stage's statuses and hands
// them to handle, sleeping between empty batches and after read errors. It
// returns nil once ctx is done.
func (p *Pipeline) runWorker(ctx context.Context, stage model.Stage, pace time.Duration, handle ownerHandler) error {
	log := zap.L().With(zap.String("stage", string(stage)))
	w := p.cfg.Worker
	pacer := newPacer(pace)

	log.Info("worker: starting",
		zap.Int("batch_size", w.BatchSize),
		zap.Int("concurrency", w.Concurrency),
		zap.Duration("pace", pace),
	)

	for {
		if ctx.Err() != nil {
			log.Info("worker: stopping")
			return nil
		}

		owners, err := p.deps.Store.ListOwnersByStatus(ctx, stage.Selects(), w.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error("worker: failed to read owners", zap.Error(err), zap.Duration("backoff", w.ReadErrorBackoff()))
			_ = p.sleep(ctx, w.ReadErrorBackoff())
			continue
		}

		if len(owners) == 0 {
			log.Info("worker: no owners to process, sleeping", zap.Duration("sleep", w.IdleSleep()))
			_ = p.sleep(ctx, w.IdleSleep())
			continue
		}

		log.Info("worker: processing batch", zap.Int("batch_size", len(owners)))
		p.runBatch(ctx, stage, owners, pacer, handle)
	}
}

type waiter interface {
	Wait(ctx context.Context) error
}

// newPacer returns a limiter that lets the first call through and spaces
// the rest by d. A zero d disables pacing.
func newPacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// runBatch processes one batch with at most worker.concurrency owners in
// flight. Per-owner failures are logged and never stop the batch.
func (p *Pipeline) runBatch(ctx context.Context, stage model.Stage, owners []model.Owner, pacer waiter, handle ownerHandler) {
	log := zap.L().With(zap.String("stage", string(stage)))
	run := p.startStageRun(ctx, stage)

	var processed, failed atomic.Int64

	g := new(errgroup.Group)
	limit := p.cfg.Worker.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, o := range owners {
		if err := pacer.Wait(ctx); err != nil {
			break
		}
		g.Go(func() error {
			status, err := handle(ctx, o)
			if err != nil && ctx.Err() != nil {
				log.Info("worker: owner interrupted by shutdown", zap.String("person_key", o.PersonKey))
				return nil
			}
			processed.Add(1)
			if err != nil {
				failed.Add(1)
				log.Error("worker: critical: failed to store owner result",
					zap.String("person_key", o.PersonKey),
					zap.String("status", string(status)),
					zap.Error(err),
				)
				return nil
			}
			if status == model.StatusFailedEnrichment || status == model.StatusFailedVerification {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	p.finishStageRun(ctx, run, int(processed.Load()), int(failed.Load()))
	log.Info("worker: batch finished",
		zap.Int64("processed", processed.Load()),
		zap.Int64("failed", failed.Load()),
	)
}

func (p *Pipeline) startStageRun(ctx context.Context, stage model.Stage) *model.StageRun {
	run, err := p.deps.Store.CreateStageRun(ctx, stage)
	if err != nil {
		zap.L().Warn("worker: failed to record stage run", zap.String("stage", string(stage)), zap.Error(err))
		return nil
	}
	return run
}

func (p *Pipeline) finishStageRun(ctx context.Context, run *model.StageRun, processed, failed int) {
	if run == nil {
		return
	}
	run.Processed = processed
	run.Failed = failed
	if err := p.deps.Store.FinishStageRun(context.WithoutCancel(ctx), run); err != nil {
		zap.L().Warn("worker: failed to finish stage run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
