package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/fency/outreach-pipeline/internal/config"
)

func ptr[T any](v T) *T { return &v }

// testConfig returns a config with pacing and sleeps disabled.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.PropertyRadar.ListID = "list-1"
	cfg.PropertyRadar.IngestBatchLimit = 4
	cfg.Worker.BatchSize = 50
	cfg.Worker.Concurrency = 1
	cfg.Worker.IdleSleepSecs = 300
	cfg.Worker.ReadErrorBackoffSecs = 60
	return cfg
}

// sleepRecorder replaces Pipeline.sleep so tests never block. It records
// each requested duration and runs onSleep, if set.
type sleepRecorder struct {
	mu      sync.Mutex
	slept   []time.Duration
	onSleep func()
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.slept = append(r.slept, d)
	fn := r.onSleep
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
	return ctx.Err()
}

func (r *sleepRecorder) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.slept...)
}

func newTestPipeline(cfg *config.Config, deps Deps) (*Pipeline, *sleepRecorder) {
	p := New(cfg, deps)
	rec := &sleepRecorder{}
	p.sleep = rec.sleep
	return p, rec
}
