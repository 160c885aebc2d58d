package model

// ProcessingStatus is the lifecycle state of an owner record.
type ProcessingStatus string

const (
	StatusPendingEnrichment                 ProcessingStatus = "pending_enrichment"
	StatusPendingVerification               ProcessingStatus = "pending_verification"
	StatusPendingPostEnrichmentVerification ProcessingStatus = "pending_post_enrichment_verification"
	StatusComplete                          ProcessingStatus = "complete"
	StatusFailedEnrichment                  ProcessingStatus = "failed_enrichment"
	StatusFailedVerification                ProcessingStatus = "failed_verification"
)

// AllStatuses lists every processing status in lifecycle order.
func AllStatuses() []ProcessingStatus {
	return []ProcessingStatus{
		StatusPendingEnrichment,
		StatusPendingVerification,
		StatusPendingPostEnrichmentVerification,
		StatusComplete,
		StatusFailedEnrichment,
		StatusFailedVerification,
	}
}

// IsValid reports whether s is a known processing status.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPendingEnrichment,
		StatusPendingVerification,
		StatusPendingPostEnrichmentVerification,
		StatusComplete,
		StatusFailedEnrichment,
		StatusFailedVerification:
		return true
	}
	return false
}

// IsTerminal reports whether no stage will select an owner in this status again.
func (s ProcessingStatus) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailedEnrichment, StatusFailedVerification:
		return true
	case StatusPendingEnrichment, StatusPendingVerification, StatusPendingPostEnrichmentVerification:
		return false
	}
	return false
}

// InitialStatus returns the status an owner is created with at ingest.
// Owners that arrive with an email go straight to verification.
func InitialStatus(originalEmail string) ProcessingStatus {
	if originalEmail != "" {
		return StatusPendingVerification
	}
	return StatusPendingEnrichment
}

// Stage identifies one of the pipeline workers.
type Stage string

const (
	StageIngest Stage = "ingest"
	StageEnrich Stage = "enrich"
	StageVerify Stage = "verify"
)

// IsValid reports whether s is a known stage.
func (s Stage) IsValid() bool {
	switch s {
	case StageIngest, StageEnrich, StageVerify:
		return true
	}
	return false
}

// Selects returns the owner statuses a stage pulls from the store. Ingest
// creates owners and never selects any.
func (s Stage) Selects() []ProcessingStatus {
	switch s {
	case StageEnrich:
		return []ProcessingStatus{StatusPendingEnrichment}
	case StageVerify:
		return []ProcessingStatus{StatusPendingVerification, StatusPendingPostEnrichmentVerification}
	case StageIngest:
		return nil
	}
	return nil
}
