package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"

	"github.com/fency/outreach-pipeline/internal/config"
	"github.com/fency/outreach-pipeline/internal/pipeline"
	"github.com/fency/outreach-pipeline/internal/resilience"
	"github.com/fency/outreach-pipeline/internal/store"
	"github.com/fency/outreach-pipeline/pkg/millionverifier"
	"github.com/fency/outreach-pipeline/pkg/neverbounce"
	"github.com/fency/outreach-pipeline/pkg/pdl"
	"github.com/fency/outreach-pipeline/pkg/propertyradar"
)

const defaultSQLitePath = "outreach.db"

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// openStore connects to the configured store and bootstraps its schema.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func newPropertyRadar(c *config.Config) propertyradar.Client {
	return propertyradar.NewClient(c.PropertyRadar.Key,
		propertyradar.WithBaseURL(c.PropertyRadar.BaseURL),
		propertyradar.WithRateLimit(c.PropertyRadar.RateLimit),
	)
}

func newPDL(c *config.Config) pdl.Client {
	return pdl.NewClient(c.PDL.Key,
		pdl.WithBaseURL(c.PDL.BaseURL),
		pdl.WithMinLikelihood(c.PDL.MinLikelihood),
	)
}

// newVerifiers builds both verification providers, each behind its own
// circuit breaker.
func newVerifiers(c *config.Config) (mv, nb pipeline.Verifier) {
	bcfg := resilience.FromBreakerConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs)

	mv = pipeline.NewMillionVerifier(
		millionverifier.NewClient(c.MillionVerifier.Key, millionverifier.WithBaseURL(c.MillionVerifier.BaseURL)),
		resilience.NewBreaker("millionverifier", bcfg),
	)
	nb = pipeline.NewNeverBounce(
		neverbounce.NewClient(c.NeverBounce.Key, neverbounce.WithBaseURL(c.NeverBounce.BaseURL)),
		resilience.NewBreaker("neverbounce", bcfg),
	)
	return mv, nb
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
