package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/fency/outreach-pipeline/internal/model"
)

// Consensus walks the ranked candidates and asks both providers about each
// one, first mv then nb. The first candidate that either provider calls good
// is accepted and the walk stops. A candidate that is bad or uncertain for
// both moves the walk on. If no candidate is accepted the owner fails
// verification.
//
// Only candidates that were evaluated appear in the audit logs. The primary
// statuses always describe the first candidate, even when a later one was
// accepted, and are read from the same log entry that is stored for it.
//
// Consensus returns an error when ctx is done before a verdict is reached,
// including during a provider call; the partial outcome must not be
// written back.
func Consensus(ctx context.Context, candidates []string, mv, nb Verifier) (model.VerificationOutcome, error) {
	out := model.VerificationOutcome{
		Status:          model.StatusFailedVerification,
		AcceptedIndex:   -1,
		MillionVerifier: model.ProviderAudit{Log: model.VerificationLog{}},
		NeverBounce:     model.ProviderAudit{Log: model.VerificationLog{}},
	}

	for i, email := range candidates {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		mvRes := mv.Verify(ctx, email)
		nbRes := nb.Verify(ctx, email)
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.MillionVerifier.Log[email] = mvRes
		out.NeverBounce.Log[email] = nbRes

		log := zap.L().With(
			zap.String("email", email),
			zap.String(mv.Name(), string(mvRes.Verdict)),
			zap.String(nb.Name(), string(nbRes.Verdict)),
		)

		switch {
		case mvRes.Verdict == model.VerdictGood || nbRes.Verdict == model.VerdictGood:
			log.Debug("verify: candidate accepted")
			out.Status = model.StatusComplete
			out.Accepted = email
			out.AcceptedIndex = i
			setPrimaryStatus(&out, candidates[0])
			return out, nil
		case mvRes.Verdict == model.VerdictBad || nbRes.Verdict == model.VerdictBad:
			log.Debug("verify: candidate rejected")
		default:
			log.Debug("verify: candidate uncertain")
		}
	}
	if len(candidates) > 0 {
		setPrimaryStatus(&out, candidates[0])
	}
	return out, nil
}

func setPrimaryStatus(out *model.VerificationOutcome, first string) {
	out.MillionVerifier.PrimaryStatus = out.MillionVerifier.Log[first].Status
	out.NeverBounce.PrimaryStatus = out.NeverBounce.Log[first].Status
}
