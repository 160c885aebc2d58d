package model

import "encoding/json"

// Verdict is a provider-independent classification of one email address.
type Verdict string

const (
	VerdictGood      Verdict = "good"
	VerdictBad       Verdict = "bad"
	VerdictUncertain Verdict = "uncertain"
)

// VerificationResult is one provider's answer for one address. It is kept
// verbatim in the owner's audit log, including failed calls.
type VerificationResult struct {
	Success bool            `json:"success"`
	Status  string          `json:"status,omitempty"`
	Verdict Verdict         `json:"verdict"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// VerificationLog maps each evaluated email to the provider's result.
type VerificationLog map[string]VerificationResult

// ProviderAudit is the per-provider part of a verification outcome.
type ProviderAudit struct {
	Log VerificationLog `json:"log"`
	// PrimaryStatus is the raw provider status for the first-ranked
	// candidate, regardless of which candidate was accepted. Empty when the
	// call failed.
	PrimaryStatus string `json:"primary_status,omitempty"`
}

// VerificationOutcome is what the verify stage writes back for one owner.
type VerificationOutcome struct {
	Status          ProcessingStatus `json:"status"`
	Accepted        string           `json:"accepted,omitempty"`
	AcceptedIndex   int              `json:"accepted_index"`
	MillionVerifier ProviderAudit    `json:"millionverifier"`
	NeverBounce     ProviderAudit    `json:"neverbounce"`
}
