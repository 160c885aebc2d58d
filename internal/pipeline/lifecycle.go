package pipeline

import (
	"github.com/fency/outreach-pipeline/internal/model"
)

// CandidateEmails returns the addresses the verify stage should check for
// an owner. Owners outside the verify stage have no candidates.
func CandidateEmails(o model.Owner) []string {
	switch o.Status {
	case model.StatusPendingVerification:
		if o.OriginalEmail == "" {
			return nil
		}
		return []string{o.OriginalEmail}
	case model.StatusPendingPostEnrichmentVerification:
		return o.EnrichedEmails
	case model.StatusPendingEnrichment,
		model.StatusComplete,
		model.StatusFailedEnrichment,
		model.StatusFailedVerification:
		return nil
	}
	return nil
}

// NextAfterEnrichment returns the status an owner moves to once the
// enrichment lookup has finished.
func NextAfterEnrichment(ranked []string, err error) model.ProcessingStatus {
	if err != nil || len(ranked) == 0 {
		return model.StatusFailedEnrichment
	}
	return model.StatusPendingPostEnrichmentVerification
}
