package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/fency/outreach-pipeline/internal/model"
	"github.com/fency/outreach-pipeline/internal/resilience"
	"github.com/fency/outreach-pipeline/pkg/millionverifier"
	"github.com/fency/outreach-pipeline/pkg/neverbounce"
)

// Verifier classifies a single email address. Implementations never return
// an error: a failed call is reported as an uncertain result with Error set.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, email string) model.VerificationResult
}

type millionVerifier struct {
	client  millionverifier.Client
	breaker *resilience.Breaker
}

// NewMillionVerifier wraps a MillionVerifier client as a Verifier guarded by
// the given breaker.
func NewMillionVerifier(client millionverifier.Client, breaker *resilience.Breaker) Verifier {
	return &millionVerifier{client: client, breaker: breaker}
}

func (v *millionVerifier) Name() string { return "millionverifier" }

func (v *millionVerifier) Verify(ctx context.Context, email string) model.VerificationResult {
	res, err := resilience.Call(ctx, v.breaker, func(ctx context.Context) (*millionverifier.Result, error) {
		return v.client.Verify(ctx, email)
	})
	if err != nil {
		return failedResult(v.Name(), email, err)
	}
	return model.VerificationResult{
		Success: true,
		Status:  res.Result,
		Verdict: ClassifyMillionVerifier(res.Result),
		Data:    res.Raw,
	}
}

type neverBounce struct {
	client  neverbounce.Client
	breaker *resilience.Breaker
}

// NewNeverBounce wraps a NeverBounce client as a Verifier guarded by the
// given breaker.
func NewNeverBounce(client neverbounce.Client, breaker *resilience.Breaker) Verifier {
	return &neverBounce{client: client, breaker: breaker}
}

func (v *neverBounce) Name() string { return "neverbounce" }

func (v *neverBounce) Verify(ctx context.Context, email string) model.VerificationResult {
	res, err := resilience.Call(ctx, v.breaker, func(ctx context.Context) (*neverbounce.Result, error) {
		return v.client.Check(ctx, email)
	})
	if err != nil {
		return failedResult(v.Name(), email, err)
	}
	return model.VerificationResult{
		Success: true,
		Status:  res.Result,
		Verdict: ClassifyNeverBounce(res.Result),
		Data:    res.Raw,
	}
}

func failedResult(provider, email string, err error) model.VerificationResult {
	zap.L().Warn("verify: provider call failed",
		zap.String("provider", provider),
		zap.String("email", email),
		zap.Bool("transient", resilience.IsTransient(err)),
		zap.Error(err),
	)
	return model.VerificationResult{
		Success: false,
		Verdict: model.VerdictUncertain,
		Error:   err.Error(),
	}
}
