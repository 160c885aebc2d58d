package pipeline

import (
	"strings"

	"github.com/fency/outreach-pipeline/internal/model"
)

// ClassifyMillionVerifier maps a MillionVerifier result to a verdict.
// Catch-all domains accept any address, so they count as good.
func ClassifyMillionVerifier(result string) model.Verdict {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "ok", "catch_all":
		return model.VerdictGood
	case "invalid":
		return model.VerdictBad
	default:
		return model.VerdictUncertain
	}
}

// ClassifyNeverBounce maps a NeverBounce result to a verdict. Unknown is
// treated as good so that only a definite rejection drops a candidate.
func ClassifyNeverBounce(result string) model.Verdict {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "valid", "catchall", "unknown":
		return model.VerdictGood
	case "invalid", "disposable":
		return model.VerdictBad
	default:
		return model.VerdictUncertain
	}
}
