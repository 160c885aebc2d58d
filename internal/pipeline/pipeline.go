// Package pipeline moves owner records through ingest, enrichment and email
// verification.
package pipeline

import (
	"context"
	"time"

	"github.com/fency/outreach-pipeline/internal/config"
	"github.com/fency/outreach-pipeline/internal/store"
	"github.com/fency/outreach-pipeline/pkg/pdl"
	"github.com/fency/outreach-pipeline/pkg/propertyradar"
)

// Deps are the collaborators a Pipeline talks to. Stages only touch the
// ones they need, so a stage's unused deps may be nil.
type Deps struct {
	Store           store.Store
	PropertyRadar   propertyradar.Client
	PDL             pdl.Client
	MillionVerifier Verifier
	NeverBounce     Verifier
}

// Pipeline runs the ingest, enrich and verify stages.
type Pipeline struct {
	cfg  *config.Config
	deps Deps

	// sleep blocks for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline.
func New(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		deps:  deps,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
