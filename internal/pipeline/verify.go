package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fency/outreach-pipeline/internal/model"
)

// RunVerify polls for owners waiting on verification until ctx is done.
func (p *Pipeline) RunVerify(ctx context.Context) error {
	return p.runWorker(ctx, model.StageVerify, p.cfg.Worker.VerifyPace(), p.VerifyOwner)
}

// VerifyOwner runs the two-provider consensus over the owner's candidate
// emails and records the outcome. An owner without candidates fails
// verification without any provider call.
func (p *Pipeline) VerifyOwner(ctx context.Context, o model.Owner) (model.ProcessingStatus, error) {
	log := zap.L().With(zap.String("stage", string(model.StageVerify)), zap.String("person_key", o.PersonKey))

	candidates := CandidateEmails(o)
	if len(candidates) == 0 {
		log.Info("verify: no emails to verify")
		if err := p.deps.Store.UpdateOwnerStatus(ctx, o.PersonKey, model.StatusFailedVerification); err != nil {
			return model.StatusFailedVerification, eris.Wrapf(err, "verify: save status for %s", o.PersonKey)
		}
		return model.StatusFailedVerification, nil
	}

	outcome, err := Consensus(ctx, candidates, p.deps.MillionVerifier, p.deps.NeverBounce)
	if err != nil {
		return o.Status, eris.Wrapf(err, "verify: consensus for %s", o.PersonKey)
	}

	log.Info("verify: outcome",
		zap.String("status", string(outcome.Status)),
		zap.String("email", outcome.Accepted),
		zap.Int("evaluated", len(outcome.MillionVerifier.Log)),
	)

	if err := p.deps.Store.UpdateOwnerVerification(ctx, o.PersonKey, outcome); err != nil {
		return outcome.Status, eris.Wrapf(err, "verify: save outcome for %s", o.PersonKey)
	}
	return outcome.Status, nil
}
